// Package translate defines the Provider interface for machine translation
// backends.
//
// A translation provider turns text in any source language into a target
// language given by its base code (e.g., "te", "hi", "fr"). Source language
// detection is the backend's job. Providers return errors freely; callers that
// must not fail (e.g., best-effort display translation) wrap a Provider in a
// degrading gateway rather than relying on the provider to swallow errors.
//
// Implementations must be safe for concurrent use.
package translate

import "context"

// Provider is the abstraction over any machine translation backend.
type Provider interface {
	// Translate renders text into the target base language code and returns the
	// translated text. The source language is auto-detected.
	//
	// Returns an error if text is empty, the target code is unknown to the
	// backend, or the backend cannot be reached.
	Translate(ctx context.Context, text, target string) (string, error)
}
