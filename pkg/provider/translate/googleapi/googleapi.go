// Package googleapi provides a translation provider backed by the Google Cloud
// Translation v3 REST API. It implements the translate.Provider interface.
package googleapi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	translatev3 "google.golang.org/api/translate/v3"

	"github.com/voxmill/voxmill/pkg/provider/translate"
)

// Compile-time interface assertion.
var _ translate.Provider = (*Provider)(nil)

// Provider implements translate.Provider using the Cloud Translation API.
type Provider struct {
	svc    *translatev3.Service
	parent string
}

// New creates a new Cloud Translation Provider. apiKey and projectID must be
// non-empty; extra client options (e.g., option.WithEndpoint in tests) are
// passed through to the underlying service.
func New(ctx context.Context, apiKey, projectID string, opts ...option.ClientOption) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("googleapi: apiKey must not be empty")
	}
	if projectID == "" {
		return nil, errors.New("googleapi: projectID must not be empty")
	}

	clientOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := translatev3.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("googleapi: create translation service: %w", err)
	}

	return &Provider{
		svc:    svc,
		parent: fmt.Sprintf("projects/%s/locations/global", projectID),
	}, nil
}

// Translate renders text into the target base language code. The source
// language is auto-detected by the API.
func (p *Provider) Translate(ctx context.Context, text, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("googleapi: text must not be empty")
	}
	if target == "" {
		return "", errors.New("googleapi: target language must not be empty")
	}

	req := &translatev3.TranslateTextRequest{
		Contents:           []string{text},
		MimeType:           "text/plain",
		TargetLanguageCode: target,
	}

	resp, err := p.svc.Projects.Locations.TranslateText(p.parent, req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("googleapi: translate text: %w", err)
	}
	if len(resp.Translations) == 0 {
		return "", errors.New("googleapi: empty translations in response")
	}

	return resp.Translations[0].TranslatedText, nil
}
