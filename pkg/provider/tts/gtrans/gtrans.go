// Package gtrans provides a TTS provider backed by the public Google Translate
// speech endpoint. It implements the tts.Provider interface.
//
// The endpoint accepts one GET request per text fragment and returns an MP3
// clip. It is unauthenticated but caps the q parameter at 200 characters, so
// longer texts are split into chunks at word boundaries and the resulting MP3
// payloads are concatenated. MP3 frames are self-contained, which makes plain
// byte concatenation a valid clip.
package gtrans

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/voxmill/voxmill/pkg/provider/tts"
	"github.com/voxmill/voxmill/pkg/types"
)

// Compile-time interface assertion.
var _ tts.Provider = (*Provider)(nil)

const (
	defaultEndpoint = "https://translate.google.com/translate_tts"
	defaultTimeout  = 30 * time.Second

	// maxChunkRunes is the longest text the endpoint accepts per request.
	maxChunkRunes = 200
)

// Option is a functional option for configuring the Provider.
type Option func(*Provider)

// WithEndpoint overrides the synthesis endpoint URL. Intended for tests.
func WithEndpoint(endpoint string) Option {
	return func(p *Provider) {
		p.endpoint = strings.TrimRight(endpoint, "/")
	}
}

// WithHTTPClient sets a custom HTTP client for all requests.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// WithTimeout sets the per-request HTTP timeout. Defaults to 30 s.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.httpClient.Timeout = d
	}
}

// Provider implements tts.Provider against the Google Translate speech endpoint.
// It is safe for concurrent use.
type Provider struct {
	endpoint   string
	httpClient *http.Client
}

// New creates a new Provider. The endpoint needs no credentials.
func New(opts ...Option) *Provider {
	p := &Provider{
		endpoint: defaultEndpoint,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Synthesize renders text as MP3 speech in the given base language code.
// Texts longer than the per-request limit are synthesised chunk by chunk in
// order and joined into a single clip.
func (p *Provider) Synthesize(ctx context.Context, text, language string) (*types.Audio, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("gtrans: text must not be empty")
	}
	if language == "" {
		return nil, errors.New("gtrans: language must not be empty")
	}

	var clip []byte
	for _, chunk := range chunkText(text, maxChunkRunes) {
		mp3, err := p.fetchChunk(ctx, chunk, language)
		if err != nil {
			return nil, err
		}
		clip = append(clip, mp3...)
	}

	return &types.Audio{Data: clip, MIME: "audio/mpeg"}, nil
}

// fetchChunk performs one GET against the speech endpoint and returns the MP3
// bytes for a single chunk.
func (p *Provider) fetchChunk(ctx context.Context, chunk, language string) ([]byte, error) {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("q", chunk)
	params.Set("tl", language)
	params.Set("client", "tw-ob")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("gtrans: create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gtrans: GET translate_tts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gtrans: GET translate_tts returned status %d", resp.StatusCode)
	}

	mp3, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gtrans: read response: %w", err)
	}
	return mp3, nil
}

// chunkText splits text into pieces of at most max runes. Splits happen at the
// last space inside the window when one exists, so words survive intact; a
// single word longer than the window is hard-split.
func chunkText(text string, max int) []string {
	if utf8.RuneCountInString(text) <= max {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	for len(runes) > 0 {
		if len(runes) <= max {
			chunks = append(chunks, strings.TrimSpace(string(runes)))
			break
		}

		cut := max
		for i := max; i > 0; i-- {
			if runes[i] == ' ' {
				cut = i
				break
			}
		}

		chunk := strings.TrimSpace(string(runes[:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		runes = runes[cut:]
		for len(runes) > 0 && runes[0] == ' ' {
			runes = runes[1:]
		}
	}
	return chunks
}
