// Package mock provides a test double for the stt.Provider interface.
//
// Pre-populate Text or Err to script the outcome, or set Func for per-call
// behavior. Every invocation is recorded for inspection.
//
// Example:
//
//	p := &mock.Provider{Text: "hello world"}
//	got, err := p.Transcribe(ctx, stt.Request{AudioPath: path, Language: "en-US"})
package mock

import (
	"context"
	"sync"

	"github.com/voxmill/voxmill/pkg/provider/stt"
)

// TranscribeCall records a single invocation of Provider.Transcribe.
type TranscribeCall struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// Req is the request passed to Transcribe.
	Req stt.Request
}

// Provider is a mock implementation of stt.Provider.
type Provider struct {
	mu sync.Mutex

	// Text is the transcript returned on success.
	Text string

	// Err, if non-nil, is returned as the error from Transcribe.
	Err error

	// Func, if non-nil, handles the call instead of Text/Err.
	Func func(ctx context.Context, req stt.Request) (string, error)

	// TranscribeCalls records every call to Transcribe.
	TranscribeCalls []TranscribeCall
}

// Transcribe records the call and returns the scripted outcome.
func (p *Provider) Transcribe(ctx context.Context, req stt.Request) (string, error) {
	p.mu.Lock()
	p.TranscribeCalls = append(p.TranscribeCalls, TranscribeCall{Ctx: ctx, Req: req})
	fn := p.Func
	text, err := p.Text, p.Err
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

// CallCount returns the number of Transcribe calls. Thread-safe.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.TranscribeCalls)
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TranscribeCalls = nil
}

// Ensure Provider implements stt.Provider at compile time.
var _ stt.Provider = (*Provider)(nil)
