// Package tts defines the Provider interface for Text-to-Speech backends.
//
// A TTS provider wraps a speech synthesis service (e.g., ElevenLabs, the
// Google Translate speech endpoint, or a local Coqui instance) and presents a
// uniform batch interface: one call turns a complete text into one encoded
// audio clip. Summaries are short, so there is no streaming surface; callers
// that need timeouts wrap the context.
//
// Implementations must be safe for concurrent use.
package tts

import (
	"context"

	"github.com/voxmill/voxmill/pkg/types"
)

// Provider is the abstraction over any TTS backend.
//
// Implementations must be safe for concurrent use. Multiple synthesis requests
// may run in parallel (e.g., several users playing back summaries at once).
type Provider interface {
	// Synthesize renders text as spoken audio in the given language and returns
	// the encoded clip. language is a lowercase base language code (e.g., "te",
	// "hi", "en"); providers that auto-detect language may ignore it.
	//
	// The returned Audio carries the encoded bytes and their MIME type (e.g.,
	// "audio/mpeg" for MP3). Implementations must not return a nil Audio with a
	// nil error.
	//
	// Returns an error if text is empty, the language is not supported, or the
	// backend cannot be reached.
	Synthesize(ctx context.Context, text, language string) (*types.Audio, error)
}
