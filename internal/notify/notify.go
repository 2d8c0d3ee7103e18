// Package notify sends summary and notes emails to user-chosen recipients.
//
// Every send validates the recipient address before any network traffic and
// composes a fixed-form plain-text message; the actual transport is delegated
// to a mail.Sender.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/voxmill/voxmill/pkg/provider/mail"
)

var (
	// ErrInvalidAddress indicates the recipient failed address validation.
	// No delivery attempt is made.
	ErrInvalidAddress = errors.New("notify: invalid recipient address")

	// ErrDelivery indicates the transport rejected or failed to deliver the
	// message.
	ErrDelivery = errors.New("notify: delivery failed")
)

// addressPattern accepts local@domain.tld shapes and rejects whitespace and
// bare domains. Deliverability is the SMTP server's concern.
var addressPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const (
	summarySubject = "Your Audio Summary"
	notesSubject   = "Your Notes regarding Audio Summary"

	summaryBodyFmt = "Hello,\n\nHere is your audio summary:\n\n%s\n\nBest Regards,\nSummarizer App"
	notesBodyFmt   = "Hello,\n\nHere are your notes regarding the audio summary:\n\n%s\n\nBest Regards,\nSummarizer App"
)

// Option is a functional option for configuring a Notifier.
type Option func(*Notifier)

// WithLogger sets the logger used for delivery records.
func WithLogger(log *slog.Logger) Option {
	return func(n *Notifier) {
		n.log = log
	}
}

// Notifier composes and sends the fixed-form notification emails.
// It is safe for concurrent use.
type Notifier struct {
	sender mail.Sender
	log    *slog.Logger
}

// New creates a Notifier delivering through sender.
func New(sender mail.Sender, opts ...Option) *Notifier {
	n := &Notifier{
		sender: sender,
		log:    slog.Default(),
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// SendSummary emails the summary text to recipient.
func (n *Notifier) SendSummary(ctx context.Context, recipient, summary string) error {
	if strings.TrimSpace(summary) == "" {
		return errors.New("notify: summary must not be empty")
	}
	return n.send(ctx, recipient, summarySubject, fmt.Sprintf(summaryBodyFmt, summary))
}

// SendNotes emails the notes text to recipient.
func (n *Notifier) SendNotes(ctx context.Context, recipient, notes string) error {
	if strings.TrimSpace(notes) == "" {
		return errors.New("notify: notes must not be empty")
	}
	return n.send(ctx, recipient, notesSubject, fmt.Sprintf(notesBodyFmt, notes))
}

// send validates the recipient and hands the composed message to the sender.
func (n *Notifier) send(ctx context.Context, recipient, subject, body string) error {
	if !addressPattern.MatchString(recipient) {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, recipient)
	}

	msg := mail.Message{
		To:      recipient,
		Subject: subject,
		Body:    body,
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	n.log.Info("notification sent",
		"recipient", recipient,
		"subject", subject)
	return nil
}
