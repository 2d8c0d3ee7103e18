// Package stt defines the Provider interface for speech-to-text backends.
//
// A provider transcribes one complete normalized recording (WAV, 16-bit
// signed little-endian PCM, mono, 16 kHz) in a single batch call. There is no
// streaming surface: recordings arrive as files and the transcript for the
// whole recording is returned at once.
//
// Implementations must be safe for concurrent use; multiple recordings may be
// transcribed simultaneously.
package stt

import (
	"context"
	"errors"
)

var (
	// ErrUnintelligible is returned when the backend processed the audio but
	// recognized no speech in it. Callers surface this to the user; it is not
	// a service failure.
	ErrUnintelligible = errors.New("stt: no recognizable speech in audio")

	// ErrUnavailable is returned when the backend could not be reached or
	// failed to process the request. It wraps the underlying cause.
	ErrUnavailable = errors.New("stt: transcription service unavailable")
)

// Request describes one batch transcription.
type Request struct {
	// AudioPath is the normalized WAV file on local disk. The provider only
	// reads it; lifecycle of the file belongs to the caller.
	AudioPath string

	// Language is the recognition code for the spoken language, e.g. "en-US"
	// or "te-IN". Providers that take base codes derive them themselves.
	// Empty lets the backend auto-detect, where supported.
	Language string
}

// Provider is the abstraction over any batch STT backend.
type Provider interface {
	// Transcribe reads the recording at req.AudioPath and returns its full
	// transcript. A processed recording with no recognizable speech returns
	// ErrUnintelligible; transport and service failures return errors
	// matching ErrUnavailable.
	Transcribe(ctx context.Context, req Request) (string, error)
}

// BaseCode truncates a recognition code at the first hyphen ("en-US" becomes
// "en"). Backends that take two-letter codes use it on Request.Language.
func BaseCode(code string) string {
	for i := 0; i < len(code); i++ {
		if code[i] == '-' {
			return code[:i]
		}
	}
	return code
}
