// Package deepgram provides a Deepgram-backed STT provider using the
// prerecorded transcription REST API through the official Go SDK.
package deepgram

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	client "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"github.com/voxmill/voxmill/pkg/provider/stt"
)

const defaultModel = "nova-2"

// initOnce guards the SDK's process-wide initialisation.
var initOnce sync.Once

// Compile-time assertion that Provider implements stt.Provider.
var _ stt.Provider = (*Provider)(nil)

// Option is a functional option for configuring the Deepgram Provider.
type Option func(*Provider)

// WithModel sets the Deepgram model to use (e.g., "nova-2", "base").
func WithModel(model string) Option {
	return func(p *Provider) {
		p.model = model
	}
}

// WithHost points the provider at a non-default API host. Used for
// self-hosted Deepgram instances and by tests.
func WithHost(host string) Option {
	return func(p *Provider) {
		p.host = host
	}
}

// Provider implements stt.Provider backed by the Deepgram prerecorded API.
type Provider struct {
	model string
	host  string
	dg    *api.Client
}

// New creates a new Deepgram Provider. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("deepgram: apiKey must not be empty")
	}
	initOnce.Do(func() {
		client.Init(client.InitLib{LogLevel: client.LogLevelDefault})
	})

	p := &Provider{model: defaultModel}
	for _, o := range opts {
		o(p)
	}
	rest := client.NewREST(apiKey, &interfaces.ClientOptions{Host: p.host})
	p.dg = api.New(rest)
	return p, nil
}

// Transcribe uploads the WAV at req.AudioPath for prerecorded transcription
// and returns the first channel's best alternative. Deepgram accepts full
// recognition codes ("en-US"), so req.Language passes through unchanged.
func (p *Provider) Transcribe(ctx context.Context, req stt.Request) (string, error) {
	f, err := os.Open(req.AudioPath)
	if err != nil {
		return "", fmt.Errorf("deepgram: open audio: %w", err)
	}
	defer f.Close()

	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:       p.model,
		Language:    req.Language,
		Punctuate:   true,
		SmartFormat: true,
	}
	res, err := p.dg.FromStream(ctx, f, options)
	if err != nil {
		return "", fmt.Errorf("%w: %w", stt.ErrUnavailable, err)
	}

	if res == nil || res.Results == nil {
		return "", stt.ErrUnintelligible
	}
	var text string
	if len(res.Results.Channels) > 0 && len(res.Results.Channels[0].Alternatives) > 0 {
		text = strings.TrimSpace(res.Results.Channels[0].Alternatives[0].Transcript)
	}
	if text == "" {
		return "", stt.ErrUnintelligible
	}
	return text, nil
}
