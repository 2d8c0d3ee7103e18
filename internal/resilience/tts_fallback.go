package resilience

import (
	"context"

	"github.com/voxmill/voxmill/pkg/provider/tts"
	"github.com/voxmill/voxmill/pkg/types"
)

// TTSFallback implements [tts.Provider] with automatic failover across multiple
// speech synthesis backends. Each backend has its own circuit breaker; when the
// primary fails or its breaker is open, the next healthy fallback is tried.
type TTSFallback struct {
	group *FallbackGroup[tts.Provider]
}

// Compile-time interface assertion.
var _ tts.Provider = (*TTSFallback)(nil)

// NewTTSFallback creates a [TTSFallback] with primary as the preferred backend.
func NewTTSFallback(primary tts.Provider, primaryName string, cfg FallbackConfig) *TTSFallback {
	return &TTSFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional TTS provider as a fallback.
func (f *TTSFallback) AddFallback(name string, provider tts.Provider) {
	f.group.AddFallback(name, provider)
}

// Synthesize sends the text to the first healthy backend and returns its audio
// clip. If the primary fails, subsequent fallbacks are tried.
func (f *TTSFallback) Synthesize(ctx context.Context, text, language string) (*types.Audio, error) {
	return ExecuteWithResult(f.group, func(p tts.Provider) (*types.Audio, error) {
		return p.Synthesize(ctx, text, language)
	})
}
