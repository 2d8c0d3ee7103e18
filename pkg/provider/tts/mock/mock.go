// Package mock provides a test double for the tts.Provider interface.
//
// Use Provider to feed controlled audio clips to consumers and to verify the
// text and language passed to the TTS backend.
//
// Example:
//
//	p := &mock.Provider{
//	    Audio: &types.Audio{Data: []byte("mp3"), MIME: "audio/mpeg"},
//	}
//	clip, _ := p.Synthesize(ctx, "Hello", "en")
package mock

import (
	"context"
	"sync"

	"github.com/voxmill/voxmill/pkg/provider/tts"
	"github.com/voxmill/voxmill/pkg/types"
)

// SynthesizeCall records a single invocation of Synthesize.
type SynthesizeCall struct {
	// Ctx is the context passed to Synthesize.
	Ctx context.Context
	// Text is the text passed to Synthesize.
	Text string
	// Language is the base language code passed to Synthesize.
	Language string
}

// Provider is a mock implementation of tts.Provider.
// Zero values cause Synthesize to return (nil, nil); set Audio, Err, or Func
// to script behavior.
type Provider struct {
	mu sync.Mutex

	// Audio is returned by Synthesize when Func is nil.
	Audio *types.Audio

	// Err, if non-nil, is returned as the error from Synthesize.
	Err error

	// Func, if non-nil, is called instead of returning the fields above.
	Func func(ctx context.Context, text, language string) (*types.Audio, error)

	// SynthesizeCalls records every invocation of Synthesize in order.
	SynthesizeCalls []SynthesizeCall
}

// Synthesize records the call and returns Audio, Err, or the result of Func
// when set.
func (p *Provider) Synthesize(ctx context.Context, text, language string) (*types.Audio, error) {
	p.mu.Lock()
	p.SynthesizeCalls = append(p.SynthesizeCalls, SynthesizeCall{Ctx: ctx, Text: text, Language: language})
	fn := p.Func
	audio, err := p.Audio, p.Err
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, text, language)
	}
	return audio, err
}

// CallCount returns the number of recorded Synthesize calls. Thread-safe.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.SynthesizeCalls)
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SynthesizeCalls = nil
}

// Ensure Provider implements tts.Provider at compile time.
var _ tts.Provider = (*Provider)(nil)
