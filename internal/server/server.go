// Package server exposes every voxmill operation over an HTTP/JSON API plus
// a per-user websocket event feed.
//
// Request bodies and responses are JSON; failures use a typed error envelope
// with stable codes. Authentication is HTTP Basic verified against the
// account store on every request. Recordings arrive as multipart uploads and
// are processed synchronously within the request.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voxmill/voxmill/internal/auth"
	"github.com/voxmill/voxmill/internal/health"
	"github.com/voxmill/voxmill/internal/observe"
	"github.com/voxmill/voxmill/internal/session"
)

// defaultMaxUploadBytes caps recording uploads unless configured otherwise.
const defaultMaxUploadBytes = 256 << 20

// defaultShutdownGrace bounds how long Shutdown waits for in-flight requests.
const defaultShutdownGrace = 15 * time.Second

// Option is a functional option for configuring a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithMetrics sets the metrics sink. Defaults to observe.DefaultMetrics().
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithHealth mounts the health handler's probes on the server mux.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) { s.health = h }
}

// WithMaxUploadBytes caps the size of recording uploads. Values below 1 keep
// the default.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n >= 1 {
			s.maxUploadBytes = n
		}
	}
}

// WithAllowedOrigins sets the origin patterns accepted for websocket
// upgrades. Empty means same-origin only.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.allowedOrigins = origins }
}

// WithHub injects an existing event hub. Use this when the hub is created
// first so it can be handed to the session service as its event sink.
func WithHub(h *Hub) Option {
	return func(s *Server) { s.hub = h }
}

// Server is the HTTP delivery surface. Construct with New, then either mount
// Handler on an existing server or call ListenAndServe.
type Server struct {
	addr     string
	auth     *auth.Service
	sessions *session.Service
	hub      *Hub
	health   *health.Handler

	log            *slog.Logger
	metrics        *observe.Metrics
	maxUploadBytes int64
	allowedOrigins []string

	httpServer *http.Server
}

// New wires a Server over the account service and session service. Unless a
// hub is injected with WithHub, the server creates its own; in either case
// the hub must also be registered as the session service's event sink for
// the feed to carry anything.
func New(addr string, authSvc *auth.Service, sessions *session.Service, opts ...Option) *Server {
	s := &Server{
		addr:           addr,
		auth:           authSvc,
		sessions:       sessions,
		log:            slog.Default(),
		metrics:        observe.DefaultMetrics(),
		maxUploadBytes: defaultMaxUploadBytes,
	}
	for _, o := range opts {
		o(s)
	}
	if s.hub == nil {
		s.hub = NewHub(s.log, s.metrics)
	}
	return s
}

// Hub returns the websocket event hub, an [session.EventSink].
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler builds the full route table wrapped in the middleware chain:
// recover, then observability, then per-route authentication.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Unauthenticated surface.
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/password-reset", s.handlePasswordReset)
	mux.HandleFunc("GET /api/languages", s.handleLanguages)
	mux.Handle("GET /metrics", promhttp.Handler())
	if s.health != nil {
		s.health.Register(mux)
	}

	// Session surface, HTTP Basic per request.
	mux.HandleFunc("GET /api/sessions", s.withAuth(s.handleListSessions))
	mux.HandleFunc("POST /api/sessions", s.withAuth(s.handleCreateSession))
	mux.HandleFunc("PATCH /api/sessions/{name}", s.withAuth(s.handleRenameSession))
	mux.HandleFunc("DELETE /api/sessions/{name}", s.withAuth(s.handleDeleteSession))
	mux.HandleFunc("POST /api/sessions/{name}/recording", s.withAuth(s.handleRecording))
	mux.HandleFunc("POST /api/sessions/{name}/question", s.withAuth(s.handleQuestion))
	mux.HandleFunc("POST /api/sessions/{name}/translation", s.withAuth(s.handleTranslation))
	mux.HandleFunc("GET /api/sessions/{name}/speech", s.withAuth(s.handleSpeech))
	mux.HandleFunc("PUT /api/sessions/{name}/notes", s.withAuth(s.handleNotes))
	mux.HandleFunc("POST /api/sessions/{name}/email", s.withAuth(s.handleEmail))
	mux.HandleFunc("GET /api/search", s.withAuth(s.handleSearch))
	mux.HandleFunc("GET /api/workspace", s.withAuth(s.handleWorkspace))
	mux.HandleFunc("POST /api/workspace/select", s.withAuth(s.handleSelectSession))
	mux.HandleFunc("GET /api/events", s.withAuth(s.serveEvents))

	var handler http.Handler = mux
	handler = observe.Middleware(s.metrics)(handler)
	handler = s.recoverer(handler)
	return handler
}

// ListenAndServe serves the API until ctx is cancelled, then drains with a
// bounded grace period.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()
	s.log.Info("http server listening", "addr", s.addr)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownGrace)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// authedHandler is a handler that runs on behalf of a verified user.
type authedHandler func(w http.ResponseWriter, r *http.Request, userID string)

// withAuth verifies HTTP Basic credentials against the account store. The
// original interface re-validated stored credentials on every interaction;
// Basic auth is the closest HTTP equivalent.
func (s *Server) withAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="voxmill", charset="UTF-8"`)
			writeError(w, auth.ErrBadCredentials)
			return
		}
		if err := s.auth.Login(r.Context(), userID, password); err != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="voxmill", charset="UTF-8"`)
			writeError(w, err)
			return
		}
		next(w, r, userID)
	}
}

// recoverer turns handler panics into 500 responses instead of dropped
// connections.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("handler panic",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec)
				writeError(w, fmt.Errorf("internal error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
