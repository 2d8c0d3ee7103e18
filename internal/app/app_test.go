package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/voxmill/voxmill/internal/app"
	"github.com/voxmill/voxmill/internal/config"
	storemock "github.com/voxmill/voxmill/internal/store/mock"
	llmmock "github.com/voxmill/voxmill/pkg/provider/llm/mock"
	sttmock "github.com/voxmill/voxmill/pkg/provider/stt/mock"
)

// testConfig returns a minimal config for wiring tests. No database DSN:
// tests inject mock stores instead.
func testConfig() *config.Config {
	return &config.Config{
		LogLevel: config.LogInfo,
		Server: config.ServerConfig{
			Addr: "127.0.0.1:0",
		},
		Pipeline: config.PipelineConfig{
			NormalizeTimeout: 5 * time.Second,
			STTTimeout:       5 * time.Second,
			LLMTimeout:       5 * time.Second,
		},
	}
}

// testProviders returns the two mandatory providers as mocks.
func testProviders() *app.Providers {
	return &app.Providers{
		STT: &sttmock.Provider{},
		LLM: &llmmock.Provider{},
	}
}

func newTestApp(t *testing.T) *app.App {
	t.Helper()

	a, err := app.New(context.Background(), testConfig(), testProviders(),
		app.WithSessionStore(&storemock.SessionStore{}),
		app.WithAccountStore(&storemock.AccountStore{}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestNew_WithMocks(t *testing.T) {
	t.Parallel()

	a := newTestApp(t)
	if a.Handler() == nil {
		t.Fatal("Handler() returned nil")
	}
}

func TestNew_HealthEndpoints(t *testing.T) {
	t.Parallel()

	a := newTestApp(t)
	h := a.Handler()

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want %d", path, rec.Code, http.StatusOK)
		}
	}
}

func TestNew_RequiresSTTProvider(t *testing.T) {
	t.Parallel()

	providers := testProviders()
	providers.STT = nil

	_, err := app.New(context.Background(), testConfig(), providers,
		app.WithSessionStore(&storemock.SessionStore{}),
		app.WithAccountStore(&storemock.AccountStore{}),
	)
	if err == nil {
		t.Fatal("expected error without STT provider")
	}
	if !strings.Contains(err.Error(), "stt") {
		t.Errorf("error = %q, want mention of stt", err)
	}
}

func TestNew_RequiresLLMProvider(t *testing.T) {
	t.Parallel()

	providers := testProviders()
	providers.LLM = nil

	_, err := app.New(context.Background(), testConfig(), providers,
		app.WithSessionStore(&storemock.SessionStore{}),
		app.WithAccountStore(&storemock.AccountStore{}),
	)
	if err == nil {
		t.Fatal("expected error without LLM provider")
	}
	if !strings.Contains(err.Error(), "llm") {
		t.Errorf("error = %q, want mention of llm", err)
	}
}

func TestNew_RequiresDSNWithoutInjectedStores(t *testing.T) {
	t.Parallel()

	_, err := app.New(context.Background(), testConfig(), testProviders())
	if err == nil {
		t.Fatal("expected error without dsn or injected stores")
	}
	if !strings.Contains(err.Error(), "database.dsn") {
		t.Errorf("error = %q, want mention of database.dsn", err)
	}
}

func TestShutdown_Idempotent(t *testing.T) {
	t.Parallel()

	a := newTestApp(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := a.Shutdown(ctx); err != nil {
		t.Errorf("first Shutdown: %v", err)
	}
	if err := a.Shutdown(ctx); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	a := newTestApp(t)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(ctx) }()

	// Give the listener a moment, then cancel.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
