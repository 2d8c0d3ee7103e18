// Command voxmill is the main entry point for the voxmill transcription server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/voxmill/voxmill/internal/app"
	"github.com/voxmill/voxmill/internal/config"
	"github.com/voxmill/voxmill/internal/observe"
	"github.com/voxmill/voxmill/internal/resilience"
	"github.com/voxmill/voxmill/pkg/provider/embeddings"
	ollamaembed "github.com/voxmill/voxmill/pkg/provider/embeddings/ollama"
	oaembed "github.com/voxmill/voxmill/pkg/provider/embeddings/openai"
	"github.com/voxmill/voxmill/pkg/provider/llm"
	"github.com/voxmill/voxmill/pkg/provider/llm/anyllm"
	oallm "github.com/voxmill/voxmill/pkg/provider/llm/openai"
	"github.com/voxmill/voxmill/pkg/provider/mail"
	"github.com/voxmill/voxmill/pkg/provider/mail/smtp"
	"github.com/voxmill/voxmill/pkg/provider/stt"
	"github.com/voxmill/voxmill/pkg/provider/stt/deepgram"
	"github.com/voxmill/voxmill/pkg/provider/stt/whisper"
	translateprov "github.com/voxmill/voxmill/pkg/provider/translate"
	"github.com/voxmill/voxmill/pkg/provider/translate/googleapi"
	"github.com/voxmill/voxmill/pkg/provider/tts"
	"github.com/voxmill/voxmill/pkg/provider/tts/coqui"
	"github.com/voxmill/voxmill/pkg/provider/tts/elevenlabs"
	"github.com/voxmill/voxmill/pkg/provider/tts/gtrans"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "voxmill.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "voxmill: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "voxmill: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	// The level var allows hot-reloading the log level from the config watcher.
	levelVar := new(slog.LevelVar)
	levelVar.Set(slogLevel(cfg.LogLevel))
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: levelVar}))
	slog.SetDefault(logger)

	slog.Info("voxmill starting",
		"version", version,
		"config", *configPath,
		"addr", cfg.Server.Addr,
		"log_level", cfg.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── OpenTelemetry SDK ─────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "voxmill",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(ctx, reg)

	// ── Instantiate providers ─────────────────────────────────────────────────
	providers, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	// ── Config watcher ────────────────────────────────────────────────────────
	// Only the log level applies live; anything else needs a restart.
	watcher, err := config.NewWatcher(*configPath, func(old, next *config.Config) {
		diff := config.Diff(old, next)
		if diff.LogLevelChanged {
			levelVar.Set(slogLevel(diff.NewLogLevel))
			slog.Info("log level updated", "level", diff.NewLogLevel)
		}
		if diff.ProvidersChanged {
			slog.Warn("provider configuration changed on disk; restart to apply")
		}
	}, config.WithWatcherLogger(logger))
	if err != nil {
		slog.Warn("config watcher disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	// ── Startup summary ───────────────────────────────────────────────────────
	printStartupSummary(cfg)

	application, err := app.New(ctx, cfg, providers)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	slog.Info("server ready — press Ctrl+C to shut down")

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutdown signal received, stopping…")

	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires all built-in provider factories into reg.
// Each factory receives a config.ProviderEntry and constructs the appropriate
// provider from the real implementation packages.
func registerBuiltinProviders(ctx context.Context, reg *config.Registry) {
	// ── LLM ───────────────────────────────────────────────────────────────────
	// openai uses the native openai-go client; the remaining backends go
	// through any-llm-go, which shares one option surface for all of them.
	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []oallm.Option
		if entry.BaseURL != "" {
			opts = append(opts, oallm.WithBaseURL(entry.BaseURL))
		}
		if org := entry.StringOption("organization", ""); org != "" {
			opts = append(opts, oallm.WithOrganization(org))
		}
		return oallm.New(entry.APIKey, entry.Model, opts...)
	})

	for _, providerName := range []string{
		"anthropic", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New("ollama", entry.Model, opts...)
	})

	// ── STT ───────────────────────────────────────────────────────────────────

	reg.RegisterSTT("deepgram", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []deepgram.Option
		if entry.Model != "" {
			opts = append(opts, deepgram.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, deepgram.WithHost(entry.BaseURL))
		}
		return deepgram.New(entry.APIKey, opts...)
	})

	reg.RegisterSTT("whisper", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		return whisper.New(entry.BaseURL, opts...)
	})

	reg.RegisterSTT("whisper-native", func(entry config.ProviderEntry) (stt.Provider, error) {
		modelPath := entry.Model
		if modelPath == "" {
			modelPath = entry.StringOption("model_path", "")
		}
		return whisper.NewNative(modelPath)
	})

	// ── Translate ─────────────────────────────────────────────────────────────

	reg.RegisterTranslate("google", func(entry config.ProviderEntry) (translateprov.Provider, error) {
		return googleapi.New(ctx, entry.APIKey, entry.StringOption("project_id", ""))
	})

	// ── TTS ───────────────────────────────────────────────────────────────────

	reg.RegisterTTS("google", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []gtrans.Option
		if entry.BaseURL != "" {
			opts = append(opts, gtrans.WithEndpoint(entry.BaseURL))
		}
		return gtrans.New(opts...), nil
	})

	reg.RegisterTTS("elevenlabs", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []elevenlabs.Option
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		if format := entry.StringOption("output_format", ""); format != "" {
			opts = append(opts, elevenlabs.WithOutputFormat(format))
		}
		return elevenlabs.New(entry.APIKey, entry.StringOption("voice_id", ""), opts...)
	})

	reg.RegisterTTS("coqui", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []coqui.Option
		if speaker := entry.StringOption("speaker", ""); speaker != "" {
			opts = append(opts, coqui.WithSpeaker(speaker))
		}
		return coqui.New(entry.BaseURL, opts...)
	})

	// ── Embeddings ────────────────────────────────────────────────────────────

	reg.RegisterEmbeddings("openai", func(entry config.ProviderEntry) (embeddings.Provider, error) {
		var opts []oaembed.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaembed.WithBaseURL(entry.BaseURL))
		}
		return oaembed.New(entry.APIKey, entry.Model, opts...)
	})

	reg.RegisterEmbeddings("ollama", func(entry config.ProviderEntry) (embeddings.Provider, error) {
		return ollamaembed.New(entry.BaseURL, entry.Model)
	})

	// ── Mail ──────────────────────────────────────────────────────────────────

	reg.RegisterMail("smtp", func(entry config.ProviderEntry) (mail.Sender, error) {
		var opts []smtp.Option
		if port := intOption(entry, "port"); port > 0 {
			opts = append(opts, smtp.WithPort(port))
		}
		return smtp.New(
			entry.StringOption("host", ""),
			entry.StringOption("username", ""),
			entry.StringOption("password", ""),
			entry.StringOption("from", ""),
			opts...,
		)
	})
}

// buildProviders instantiates all providers named in cfg using the registry
// and returns them in an [app.Providers] struct. The first entry of each
// provider list is the primary; additional STT, LLM, and TTS entries become
// circuit-breaker-guarded fallbacks. Translate, embeddings, and mail take a
// single provider; extra entries are ignored with a warning.
func buildProviders(cfg *config.Config, reg *config.Registry) (*app.Providers, error) {
	ps := &app.Providers{}

	if entries := cfg.Providers.STT; len(entries) > 0 {
		primary, err := reg.CreateSTT(entries[0])
		if err != nil {
			return nil, fmt.Errorf("create stt provider %q: %w", entries[0].Name, err)
		}
		if len(entries) > 1 {
			fb := resilience.NewSTTFallback(primary, entries[0].Name, resilience.FallbackConfig{})
			for _, e := range entries[1:] {
				p, err := reg.CreateSTT(e)
				if err != nil {
					return nil, fmt.Errorf("create stt fallback %q: %w", e.Name, err)
				}
				fb.AddFallback(e.Name, p)
			}
			ps.STT = fb
		} else {
			ps.STT = primary
		}
		slog.Info("provider created", "kind", "stt", "name", entries[0].Name, "fallbacks", len(entries)-1)
	}

	if entries := cfg.Providers.LLM; len(entries) > 0 {
		primary, err := reg.CreateLLM(entries[0])
		if err != nil {
			return nil, fmt.Errorf("create llm provider %q: %w", entries[0].Name, err)
		}
		if len(entries) > 1 {
			fb := resilience.NewLLMFallback(primary, entries[0].Name, resilience.FallbackConfig{})
			for _, e := range entries[1:] {
				p, err := reg.CreateLLM(e)
				if err != nil {
					return nil, fmt.Errorf("create llm fallback %q: %w", e.Name, err)
				}
				fb.AddFallback(e.Name, p)
			}
			ps.LLM = fb
		} else {
			ps.LLM = primary
		}
		slog.Info("provider created", "kind", "llm", "name", entries[0].Name, "fallbacks", len(entries)-1)
	}

	if entries := cfg.Providers.TTS; len(entries) > 0 {
		primary, err := reg.CreateTTS(entries[0])
		if err != nil {
			return nil, fmt.Errorf("create tts provider %q: %w", entries[0].Name, err)
		}
		if len(entries) > 1 {
			fb := resilience.NewTTSFallback(primary, entries[0].Name, resilience.FallbackConfig{})
			for _, e := range entries[1:] {
				p, err := reg.CreateTTS(e)
				if err != nil {
					return nil, fmt.Errorf("create tts fallback %q: %w", e.Name, err)
				}
				fb.AddFallback(e.Name, p)
			}
			ps.TTS = fb
		} else {
			ps.TTS = primary
		}
		slog.Info("provider created", "kind", "tts", "name", entries[0].Name, "fallbacks", len(entries)-1)
	}

	if entries := cfg.Providers.Translate; len(entries) > 0 {
		p, err := reg.CreateTranslate(entries[0])
		if err != nil {
			return nil, fmt.Errorf("create translate provider %q: %w", entries[0].Name, err)
		}
		ps.Translate = p
		if len(entries) > 1 {
			slog.Warn("extra translate providers ignored", "count", len(entries)-1)
		}
		slog.Info("provider created", "kind", "translate", "name", entries[0].Name)
	}

	if entries := cfg.Providers.Embeddings; len(entries) > 0 {
		p, err := reg.CreateEmbeddings(entries[0])
		if err != nil {
			return nil, fmt.Errorf("create embeddings provider %q: %w", entries[0].Name, err)
		}
		ps.Embeddings = p
		if len(entries) > 1 {
			slog.Warn("extra embeddings providers ignored", "count", len(entries)-1)
		}
		slog.Info("provider created", "kind", "embeddings", "name", entries[0].Name)
	}

	if entries := cfg.Providers.Mail; len(entries) > 0 {
		p, err := reg.CreateMail(entries[0])
		if err != nil {
			return nil, fmt.Errorf("create mail sender %q: %w", entries[0].Name, err)
		}
		ps.Mail = p
		if len(entries) > 1 {
			slog.Warn("extra mail senders ignored", "count", len(entries)-1)
		}
		slog.Info("provider created", "kind", "mail", "name", entries[0].Name)
	}

	return ps, nil
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║         voxmill — startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProviderList("STT", cfg.Providers.STT)
	printProviderList("LLM", cfg.Providers.LLM)
	printProviderList("Translate", cfg.Providers.Translate)
	printProviderList("TTS", cfg.Providers.TTS)
	printProviderList("Embeddings", cfg.Providers.Embeddings)
	printProviderList("Mail", cfg.Providers.Mail)
	if cfg.Database.DSN != "" {
		fmt.Printf("║  Database        : %-19s ║\n", "configured")
	} else {
		fmt.Printf("║  Database        : %-19s ║\n", "(missing)")
	}
	if cfg.Server.Addr != "" {
		fmt.Printf("║  Listen addr     : %-19s ║\n", cfg.Server.Addr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProviderList(kind string, entries []config.ProviderEntry) {
	value := "(not configured)"
	if len(entries) > 0 {
		value = entries[0].Name
		if entries[0].Model != "" {
			value += " / " + entries[0].Model
		}
		if len(entries) > 1 {
			value += fmt.Sprintf(" +%d", len(entries)-1)
		}
	}
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", kind, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// intOption extracts an integer from a provider Options map. YAML decodes
// numeric scalars as int; anything else yields zero.
func intOption(entry config.ProviderEntry, key string) int {
	if v, ok := entry.Options[key].(int); ok {
		return v
	}
	return 0
}
