// Package smtp provides a mail.Sender backed by an SMTP relay using
// STARTTLS submission with plain authentication.
package smtp

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/voxmill/voxmill/pkg/provider/mail"
)

// Compile-time interface assertion.
var _ mail.Sender = (*Sender)(nil)

const (
	defaultPort    = 587
	defaultTimeout = 15 * time.Second
)

// config holds optional configuration for the Sender.
type config struct {
	port    int
	timeout time.Duration
}

// Option is a functional option for Sender.
type Option func(*config)

// WithPort overrides the SMTP submission port. Defaults to 587.
func WithPort(port int) Option {
	return func(c *config) {
		c.port = port
	}
}

// WithTimeout sets the dial-and-send timeout. Defaults to 15 s.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// Sender implements mail.Sender over SMTP.
type Sender struct {
	client *gomail.Client
	from   string
}

// New creates a Sender that relays through host with the given credentials.
// from is the envelope sender placed on every message.
func New(host, username, password, from string, opts ...Option) (*Sender, error) {
	if host == "" {
		return nil, errors.New("smtp: host must not be empty")
	}
	if from == "" {
		return nil, errors.New("smtp: from address must not be empty")
	}

	cfg := &config{
		port:    defaultPort,
		timeout: defaultTimeout,
	}
	for _, o := range opts {
		o(cfg)
	}

	client, err := gomail.NewClient(host,
		gomail.WithPort(cfg.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(username),
		gomail.WithPassword(password),
		gomail.WithTLSPortPolicy(gomail.TLSMandatory),
		gomail.WithTimeout(cfg.timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp: create client: %w", err)
	}

	return &Sender{client: client, from: from}, nil
}

// Send composes a plain-text message and delivers it in one SMTP session.
func (s *Sender) Send(ctx context.Context, msg mail.Message) error {
	m, err := buildMessage(s.from, msg)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp: send to %s: %w", msg.To, err)
	}
	return nil
}

// buildMessage turns a mail.Message into a wire-ready MIME message.
func buildMessage(from string, msg mail.Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("smtp: set sender %q: %w", from, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("smtp: set recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)
	return m, nil
}
