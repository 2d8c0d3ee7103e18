// Package digest turns transcripts into summaries and answers follow-up
// questions about them using an LLM provider.
package digest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/voxmill/voxmill/pkg/provider/llm"
	"github.com/voxmill/voxmill/pkg/types"
)

// PlaceholderSummary is stored in place of a summary when summarization fails
// but the transcription is worth keeping.
const PlaceholderSummary = "Summary unavailable"

var (
	// ErrQuota indicates the LLM rejected the request due to quota or rate
	// exhaustion. Retrying later may succeed.
	ErrQuota = errors.New("digest: llm quota exhausted")

	// ErrService indicates any other LLM failure.
	ErrService = errors.New("digest: llm service failure")
)

// promptTemperature keeps summaries and answers close to the source text.
const promptTemperature = 0.3

// Digest produces summaries of transcripts and answers questions against
// stored summaries. It is safe for concurrent use.
type Digest struct {
	llm llm.Provider
}

// New creates a Digest backed by the given provider.
func New(provider llm.Provider) *Digest {
	return &Digest{llm: provider}
}

// Summarize asks the model for a very short summary of transcript written in
// the named language (a display name such as "Telugu", not a code).
func (d *Digest) Summarize(ctx context.Context, transcript, languageName string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", errors.New("digest: transcript must not be empty")
	}
	if languageName == "" {
		return "", errors.New("digest: language name must not be empty")
	}

	resp, err := d.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: fmt.Sprintf("Provide a very short summary of the following transcript in %s.", languageName),
		Messages: []types.Message{
			{Role: types.RoleUser, Content: transcript},
		},
		Temperature: promptTemperature,
	})
	if err != nil {
		return "", classify(err)
	}

	summary := strings.TrimSpace(resp.Content)
	if summary == "" {
		return "", fmt.Errorf("%w: empty completion", ErrService)
	}
	return summary, nil
}

// Answer responds to a question using only the stored summary as context.
func (d *Digest) Answer(ctx context.Context, summary, question string) (string, error) {
	if strings.TrimSpace(summary) == "" {
		return "", errors.New("digest: summary must not be empty")
	}
	if strings.TrimSpace(question) == "" {
		return "", errors.New("digest: question must not be empty")
	}

	resp, err := d.llm.Complete(ctx, llm.CompletionRequest{
		Messages: []types.Message{
			{
				Role:    types.RoleUser,
				Content: fmt.Sprintf("Based on this summary: '%s', answer the question: '%s'", summary, question),
			},
		},
		Temperature: promptTemperature,
	})
	if err != nil {
		return "", classify(err)
	}

	answer := strings.TrimSpace(resp.Content)
	if answer == "" {
		return "", fmt.Errorf("%w: empty completion", ErrService)
	}
	return answer, nil
}

// classify maps a provider error onto the digest error taxonomy. Quota and
// rate-limit failures are recognized by status code or wording; everything
// else is a service failure.
func classify(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"),
		strings.Contains(msg, "quota"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "too many requests"):
		return fmt.Errorf("%w: %w", ErrQuota, err)
	default:
		return fmt.Errorf("%w: %w", ErrService, err)
	}
}
