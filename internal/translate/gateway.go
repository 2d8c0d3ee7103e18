// Package translate provides the best-effort translation gateway used for
// on-demand summary translation.
//
// Display translation must never take a working summary away from the user:
// when the upstream translation service fails or its circuit breaker is open,
// the gateway hands back the original text and flags the result as degraded
// instead of returning an error.
package translate

import (
	"context"
	"log/slog"

	"github.com/voxmill/voxmill/internal/resilience"
	translateprov "github.com/voxmill/voxmill/pkg/provider/translate"
)

// Option is a functional option for configuring a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger used for degradation warnings.
func WithLogger(log *slog.Logger) Option {
	return func(g *Gateway) {
		g.log = log
	}
}

// WithBreaker replaces the default circuit breaker guarding the provider.
func WithBreaker(cb *resilience.CircuitBreaker) Option {
	return func(g *Gateway) {
		g.breaker = cb
	}
}

// Gateway wraps a translation provider so that callers always get text back.
// It is safe for concurrent use.
type Gateway struct {
	provider translateprov.Provider
	breaker  *resilience.CircuitBreaker
	log      *slog.Logger
}

// NewGateway creates a Gateway around provider. provider may be nil, in which
// case every call degrades to the original text.
func NewGateway(provider translateprov.Provider, opts ...Option) *Gateway {
	g := &Gateway{
		provider: provider,
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name: "translate",
		}),
		log: slog.Default(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Translate returns text rendered in the target base language. The boolean
// reports degradation: true means the caller received the original text
// because no translation could be produced. A degraded result is never
// accompanied by an error; the cause is logged at warn level.
func (g *Gateway) Translate(ctx context.Context, text, target string) (string, bool) {
	if g.provider == nil {
		g.log.Warn("translation degraded, no provider configured", "target", target)
		return text, true
	}

	var out string
	err := g.breaker.Execute(func() error {
		var err error
		out, err = g.provider.Translate(ctx, text, target)
		return err
	})
	if err != nil {
		g.log.Warn("translation degraded, returning original text",
			"target", target,
			"error", err)
		return text, true
	}
	return out, false
}
