// Package types defines the shared types used across all Voxmill packages.
//
// These types form the lingua franca between providers, the processing
// pipeline, and the session service. They are intentionally minimal — each
// package defines its own domain types, but cross-cutting data structures live
// here to avoid circular imports.
package types

// Message represents a single message in an LLM conversation.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the text content of the message.
	Content string
}

// Conversation roles accepted by LLM providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Audio is a complete synthesized speech payload.
type Audio struct {
	// Data is the encoded audio bytes.
	Data []byte

	// MIME is the media type of Data (e.g., "audio/mpeg").
	MIME string
}
