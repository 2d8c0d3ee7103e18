// Package coqui provides a TTS provider backed by a locally-running Coqui TTS
// server (ghcr.io/coqui-ai/tts-cpu). It implements the tts.Provider interface.
//
// Synthesis is performed via GET /api/tts with URL query parameters; the
// server answers with a complete WAV file which is returned as-is. Use this
// provider for self-hosted deployments where audio must not leave the network.
package coqui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/voxmill/voxmill/pkg/provider/tts"
	"github.com/voxmill/voxmill/pkg/types"
)

// Compile-time interface assertion.
var _ tts.Provider = (*Provider)(nil)

const (
	defaultTimeout = 30 * time.Second
	ttsEndpoint    = "/api/tts"
)

// Option is a functional option for configuring a Coqui Provider.
type Option func(*Provider)

// WithSpeaker sets the speaker_id sent to multi-speaker models. Single-speaker
// models need no speaker and ignore this value.
func WithSpeaker(speakerID string) Option {
	return func(p *Provider) {
		p.speakerID = speakerID
	}
}

// WithTimeout sets the per-request HTTP timeout for calls to the TTS server.
// Defaults to 30 s if not set.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.httpClient.Timeout = d
	}
}

// Provider implements tts.Provider backed by a locally-running Coqui TTS server.
// It is safe for concurrent use.
type Provider struct {
	serverURL  string
	speakerID  string
	httpClient *http.Client
}

// New creates a new Coqui Provider that targets the TTS server at serverURL
// (e.g., "http://localhost:5002"). serverURL must be non-empty.
func New(serverURL string, opts ...Option) (*Provider, error) {
	if serverURL == "" {
		return nil, errors.New("coqui: serverURL must not be empty")
	}
	p := &Provider{
		serverURL: strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Synthesize performs a single GET /api/tts request and returns the WAV clip.
// language is forwarded as language_id for multilingual models.
func (p *Provider) Synthesize(ctx context.Context, text, language string) (*types.Audio, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("coqui: text must not be empty")
	}

	params := url.Values{}
	params.Set("text", text)
	if p.speakerID != "" {
		params.Set("speaker_id", p.speakerID)
	}
	if language != "" {
		params.Set("language_id", language)
	}

	reqURL := p.serverURL + ttsEndpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("coqui: create tts request: %w", err)
	}
	req.Header.Set("Accept", "audio/wav")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coqui: GET %s: %w", ttsEndpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coqui: GET %s returned status %d", ttsEndpoint, resp.StatusCode)
	}

	wav, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("coqui: read WAV response: %w", err)
	}
	if err := checkRIFF(wav); err != nil {
		return nil, err
	}

	return &types.Audio{Data: wav, MIME: "audio/wav"}, nil
}

// checkRIFF verifies the response is a RIFF/WAVE container rather than an
// HTML error page served with status 200.
func checkRIFF(wav []byte) error {
	if len(wav) < 12 {
		return errors.New("coqui: WAV response too short to be a valid RIFF file")
	}
	if string(wav[0:4]) != "RIFF" {
		return errors.New("coqui: WAV response missing RIFF header")
	}
	if string(wav[8:12]) != "WAVE" {
		return errors.New("coqui: WAV response missing WAVE identifier")
	}
	return nil
}
