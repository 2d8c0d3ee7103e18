// Package mock provides a test double for the mail.Sender interface.
package mock

import (
	"context"
	"sync"

	"github.com/voxmill/voxmill/pkg/provider/mail"
)

// SendCall records a single invocation of Send.
type SendCall struct {
	// Ctx is the context passed to Send.
	Ctx context.Context
	// Msg is the message passed to Send.
	Msg mail.Message
}

// Sender is a mock implementation of mail.Sender.
// The zero value accepts every message; set Err or Func to script behavior.
type Sender struct {
	mu sync.Mutex

	// Err, if non-nil, is returned as the error from Send.
	Err error

	// Func, if non-nil, is called instead of returning Err.
	Func func(ctx context.Context, msg mail.Message) error

	// SendCalls records every invocation of Send in order.
	SendCalls []SendCall
}

// Send records the call and returns Err or the result of Func when set.
func (s *Sender) Send(ctx context.Context, msg mail.Message) error {
	s.mu.Lock()
	s.SendCalls = append(s.SendCalls, SendCall{Ctx: ctx, Msg: msg})
	fn := s.Func
	err := s.Err
	s.mu.Unlock()

	if fn != nil {
		return fn(ctx, msg)
	}
	return err
}

// CallCount returns the number of recorded Send calls. Thread-safe.
func (s *Sender) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.SendCalls)
}

// Reset clears all recorded calls. Thread-safe.
func (s *Sender) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SendCalls = nil
}

// Ensure Sender implements mail.Sender at compile time.
var _ mail.Sender = (*Sender)(nil)
