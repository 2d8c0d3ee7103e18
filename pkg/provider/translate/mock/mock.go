// Package mock provides a test double for the translate.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/voxmill/voxmill/pkg/provider/translate"
)

// TranslateCall records a single invocation of Translate.
type TranslateCall struct {
	// Ctx is the context passed to Translate.
	Ctx context.Context
	// Text is the source text passed to Translate.
	Text string
	// Target is the target base language code passed to Translate.
	Target string
}

// Provider is a mock implementation of translate.Provider.
// Zero values cause Translate to return ("", nil); set Result, Err, or Func to
// script behavior.
type Provider struct {
	mu sync.Mutex

	// Result is returned by Translate when Func is nil.
	Result string

	// Err, if non-nil, is returned as the error from Translate.
	Err error

	// Func, if non-nil, is called instead of returning the fields above.
	Func func(ctx context.Context, text, target string) (string, error)

	// TranslateCalls records every invocation of Translate in order.
	TranslateCalls []TranslateCall
}

// Translate records the call and returns Result, Err, or the result of Func
// when set.
func (p *Provider) Translate(ctx context.Context, text, target string) (string, error) {
	p.mu.Lock()
	p.TranslateCalls = append(p.TranslateCalls, TranslateCall{Ctx: ctx, Text: text, Target: target})
	fn := p.Func
	result, err := p.Result, p.Err
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, text, target)
	}
	return result, err
}

// CallCount returns the number of recorded Translate calls. Thread-safe.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.TranslateCalls)
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TranslateCalls = nil
}

// Ensure Provider implements translate.Provider at compile time.
var _ translate.Provider = (*Provider)(nil)
