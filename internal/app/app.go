// Package app wires all voxmill subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves HTTP until the context is cancelled, and Shutdown
// tears everything down in order.
//
// For testing, inject mock implementations via functional options
// (WithSessionStore, WithAccountStore, etc.). When an option is not
// provided, New creates real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/voxmill/voxmill/internal/auth"
	"github.com/voxmill/voxmill/internal/config"
	"github.com/voxmill/voxmill/internal/digest"
	"github.com/voxmill/voxmill/internal/health"
	"github.com/voxmill/voxmill/internal/media"
	"github.com/voxmill/voxmill/internal/notify"
	"github.com/voxmill/voxmill/internal/observe"
	"github.com/voxmill/voxmill/internal/pipeline"
	"github.com/voxmill/voxmill/internal/server"
	"github.com/voxmill/voxmill/internal/session"
	"github.com/voxmill/voxmill/internal/store"
	"github.com/voxmill/voxmill/internal/store/postgres"
	"github.com/voxmill/voxmill/internal/translate"
	"github.com/voxmill/voxmill/pkg/provider/embeddings"
	"github.com/voxmill/voxmill/pkg/provider/llm"
	"github.com/voxmill/voxmill/pkg/provider/mail"
	"github.com/voxmill/voxmill/pkg/provider/stt"
	translateprov "github.com/voxmill/voxmill/pkg/provider/translate"
	"github.com/voxmill/voxmill/pkg/provider/tts"
)

// defaultEmbeddingDimensions is used for the pgvector column when no
// embeddings provider is configured (semantic search disabled but the
// schema still needs a dimension).
const defaultEmbeddingDimensions = 1536

// Providers holds one interface value per provider slot. Nil means the
// provider is not configured. Populated by main.go via the config registry;
// STT and LLM are mandatory, the rest degrade the matching operation when
// absent.
type Providers struct {
	STT        stt.Provider
	LLM        llm.Provider
	Translate  translateprov.Provider
	TTS        tts.Provider
	Embeddings embeddings.Provider
	Mail       mail.Sender
}

// App owns all subsystem lifetimes and serves the voxmill HTTP API.
type App struct {
	cfg       *config.Config
	providers *Providers

	log     *slog.Logger
	metrics *observe.Metrics

	// Subsystems — initialised in New, torn down in Shutdown.
	db       *postgres.Store
	sessions store.SessionStore
	accounts store.AccountStore
	runner   *pipeline.Runner
	hub      *server.Hub
	service  *session.Service
	server   *server.Server

	// closers are called in reverse order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithSessionStore injects a session store instead of connecting to PostgreSQL.
func WithSessionStore(s store.SessionStore) Option {
	return func(a *App) { a.sessions = s }
}

// WithAccountStore injects an account store instead of connecting to PostgreSQL.
func WithAccountStore(s store.AccountStore) Option {
	return func(a *App) { a.accounts = s }
}

// WithLogger sets the logger for all subsystems. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(a *App) { a.log = log }
}

// WithMetrics sets the metrics sink. Defaults to observe.DefaultMetrics().
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go (populated via the config registry). Use Option
// functions to inject test doubles for any subsystem.
//
// New performs all initialisation synchronously: database connection and
// migration, pipeline assembly, session service construction, and HTTP
// server setup. The server does not listen until Run is called.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	// ── 1. Store ─────────────────────────────────────────────────────────
	if err := a.initStore(ctx); err != nil {
		return nil, fmt.Errorf("app: init store: %w", err)
	}

	// ── 2. Pipeline ──────────────────────────────────────────────────────
	dig, err := a.initPipeline()
	if err != nil {
		return nil, fmt.Errorf("app: init pipeline: %w", err)
	}

	// ── 3. Session service ───────────────────────────────────────────────
	a.initService(dig)

	// ── 4. HTTP server ───────────────────────────────────────────────────
	a.initServer()

	return a, nil
}

// initStore connects to PostgreSQL or uses injected stores.
func (a *App) initStore(ctx context.Context) error {
	if a.sessions != nil && a.accounts != nil {
		return nil // both injected
	}

	dsn := a.cfg.Database.DSN
	if dsn == "" {
		return errors.New("database.dsn is required when stores are not injected")
	}

	dims := defaultEmbeddingDimensions
	if a.providers.Embeddings != nil {
		dims = a.providers.Embeddings.Dimensions()
	}

	st, err := postgres.NewStore(ctx, dsn, dims,
		postgres.WithMaxConns(a.cfg.Database.MaxConns))
	if err != nil {
		return err
	}
	a.db = st

	if a.sessions == nil {
		a.sessions = st.Sessions()
	}
	if a.accounts == nil {
		a.accounts = st.Accounts()
	}

	a.closers = append(a.closers, func() error {
		st.Close()
		return nil
	})
	return nil
}

// initPipeline assembles the normalize → transcribe → summarize runner.
// Returns the digest so the service can reuse it as the question answerer.
func (a *App) initPipeline() (*digest.Digest, error) {
	if a.providers.STT == nil {
		return nil, errors.New("an stt provider is required")
	}
	if a.providers.LLM == nil {
		return nil, errors.New("an llm provider is required")
	}

	normOpts := []media.Option{media.WithLogger(a.log)}
	if a.cfg.Media.FFmpegPath != "" {
		normOpts = append(normOpts, media.WithFFmpegPath(a.cfg.Media.FFmpegPath))
	}
	if a.cfg.Media.FFprobePath != "" {
		normOpts = append(normOpts, media.WithFFprobePath(a.cfg.Media.FFprobePath))
	}
	normalizer := media.NewNormalizer(a.cfg.Media.ScratchDir, normOpts...)

	dig := digest.New(a.providers.LLM)

	runnerOpts := []pipeline.Option{
		pipeline.WithTimeouts(pipeline.Timeouts{
			Normalize:  a.cfg.Pipeline.NormalizeTimeout,
			Transcribe: a.cfg.Pipeline.STTTimeout,
			Summarize:  a.cfg.Pipeline.LLMTimeout,
		}),
		pipeline.WithMetrics(a.metrics),
		pipeline.WithLogger(a.log),
	}
	if a.cfg.Pipeline.MaxConcurrent > 0 {
		runnerOpts = append(runnerOpts, pipeline.WithMaxConcurrent(int(a.cfg.Pipeline.MaxConcurrent)))
	}
	a.runner = pipeline.New(normalizer, a.providers.STT, dig, runnerOpts...)

	return dig, nil
}

// initService builds the event hub, the translation gateway, and the session
// service with whatever optional collaborators are configured.
func (a *App) initService(dig *digest.Digest) {
	a.hub = server.NewHub(a.log, a.metrics)

	gateway := translate.NewGateway(a.providers.Translate,
		translate.WithLogger(a.log))

	svcOpts := []session.Option{
		session.WithEventSink(a.hub),
		session.WithTimeouts(session.Timeouts{
			Answer:     a.cfg.Pipeline.LLMTimeout,
			Translate:  a.cfg.Pipeline.TranslateTimeout,
			Synthesize: a.cfg.Pipeline.TTSTimeout,
			Email:      a.cfg.Pipeline.EmailTimeout,
		}),
		session.WithMetrics(a.metrics),
		session.WithLogger(a.log),
	}
	if a.providers.TTS != nil {
		svcOpts = append(svcOpts, session.WithSynthesizer(a.providers.TTS))
	}
	if a.providers.Embeddings != nil {
		svcOpts = append(svcOpts, session.WithEmbedder(a.providers.Embeddings))
	}
	if a.providers.Mail != nil {
		notifier := notify.New(a.providers.Mail, notify.WithLogger(a.log))
		svcOpts = append(svcOpts, session.WithNotifier(notifier))
	}

	a.service = session.NewService(a.sessions, a.runner, dig, gateway, svcOpts...)
}

// initServer builds the HTTP server with auth, health checks, and the hub.
func (a *App) initServer() {
	checkers := []health.Checker{
		health.ProviderChecker("stt", a.providers.STT != nil),
		health.ProviderChecker("llm", a.providers.LLM != nil),
	}
	if a.db != nil {
		checkers = append([]health.Checker{health.DatabaseChecker(a.db)}, checkers...)
	}

	srvOpts := []server.Option{
		server.WithHub(a.hub),
		server.WithHealth(health.New(checkers...)),
		server.WithMetrics(a.metrics),
		server.WithLogger(a.log),
	}
	if a.cfg.Media.MaxUploadBytes > 0 {
		srvOpts = append(srvOpts, server.WithMaxUploadBytes(a.cfg.Media.MaxUploadBytes))
	}
	if len(a.cfg.Server.AllowedOrigins) > 0 {
		srvOpts = append(srvOpts, server.WithAllowedOrigins(a.cfg.Server.AllowedOrigins))
	}

	a.server = server.New(a.cfg.Server.Addr, auth.New(a.accounts), a.service, srvOpts...)
}

// Handler returns the composed HTTP handler. Useful for serving through a
// custom listener or in tests via httptest.
func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("voxmill running", "addr", a.cfg.Server.Addr)
	return a.server.ListenAndServe(ctx)
}

// Shutdown stops the HTTP server and releases all subsystem resources.
// Safe to call multiple times; only the first call does work.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	a.stopOnce.Do(func() {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		for i := len(a.closers) - 1; i >= 0; i-- {
			if err := a.closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
