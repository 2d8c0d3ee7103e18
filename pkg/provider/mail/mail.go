// Package mail defines the Sender interface for outbound email backends.
//
// A Sender delivers one already-composed plain-text message per call. Address
// validation and message composition are caller concerns; the Sender's job is
// transport only (SMTP, API relays, or a capture double in tests).
//
// Implementations must be safe for concurrent use.
package mail

import "context"

// Message is a fully composed plain-text email.
type Message struct {
	// To is the recipient address.
	To string

	// Subject is the subject line.
	Subject string

	// Body is the plain-text body.
	Body string
}

// Sender is the abstraction over any outbound email transport.
type Sender interface {
	// Send delivers msg. Returns an error if the transport rejects the message
	// or cannot be reached; a nil error means the message was accepted for
	// delivery by the upstream server.
	Send(ctx context.Context, msg Message) error
}
