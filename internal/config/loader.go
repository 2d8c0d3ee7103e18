package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"stt":        {"deepgram", "whisper", "whisper-native"},
	"llm":        {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"translate":  {"google"},
	"tts":        {"google", "elevenlabs", "coqui"},
	"embeddings": {"openai", "ollama"},
	"mail":       {"smtp"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies environment fallbacks
// for secrets, and validates the result. Useful in tests where configs are
// constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyEnv(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv resolves secrets left empty in the file from VOXMILL_* environment
// variables. The file value always wins when both are set.
func applyEnv(cfg *Config) {
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = os.Getenv("VOXMILL_PG_DSN")
	}

	fillAPIKeys := func(kind string, entries []ProviderEntry) {
		env := os.Getenv("VOXMILL_" + strings.ToUpper(kind) + "_API_KEY")
		if env == "" {
			return
		}
		for i := range entries {
			if entries[i].APIKey == "" {
				entries[i].APIKey = env
			}
		}
	}
	fillAPIKeys("stt", cfg.Providers.STT)
	fillAPIKeys("llm", cfg.Providers.LLM)
	fillAPIKeys("translate", cfg.Providers.Translate)
	fillAPIKeys("tts", cfg.Providers.TTS)
	fillAPIKeys("embeddings", cfg.Providers.Embeddings)

	// Mail carries its credential in the password option rather than an API
	// key.
	if pw := os.Getenv("VOXMILL_SMTP_PASSWORD"); pw != "" {
		for i := range cfg.Providers.Mail {
			if cfg.Providers.Mail[i].StringOption("password", "") == "" {
				if cfg.Providers.Mail[i].Options == nil {
					cfg.Providers.Mail[i].Options = map[string]any{}
				}
				cfg.Providers.Mail[i].Options["password"] = pw
			}
		}
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	if cfg.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required (or set VOXMILL_PG_DSN)"))
	}
	if cfg.Database.MaxConns < 0 {
		errs = append(errs, fmt.Errorf("database.max_conns %d must not be negative", cfg.Database.MaxConns))
	}

	if cfg.Media.MaxUploadBytes < 0 {
		errs = append(errs, fmt.Errorf("media.max_upload_bytes %d must not be negative", cfg.Media.MaxUploadBytes))
	}

	p := cfg.Pipeline
	for _, d := range []struct {
		name string
		val  time.Duration
	}{
		{"normalize_timeout", p.NormalizeTimeout},
		{"stt_timeout", p.STTTimeout},
		{"llm_timeout", p.LLMTimeout},
		{"translate_timeout", p.TranslateTimeout},
		{"tts_timeout", p.TTSTimeout},
		{"email_timeout", p.EmailTimeout},
	} {
		if d.val < 0 {
			errs = append(errs, fmt.Errorf("pipeline.%s must not be negative", d.name))
		}
	}
	if p.MaxConcurrent < 0 {
		errs = append(errs, fmt.Errorf("pipeline.max_concurrent %d must not be negative", p.MaxConcurrent))
	}

	errs = append(errs, validateProviderList("stt", cfg.Providers.STT)...)
	errs = append(errs, validateProviderList("llm", cfg.Providers.LLM)...)
	errs = append(errs, validateProviderList("translate", cfg.Providers.Translate)...)
	errs = append(errs, validateProviderList("tts", cfg.Providers.TTS)...)
	errs = append(errs, validateProviderList("embeddings", cfg.Providers.Embeddings)...)
	errs = append(errs, validateProviderList("mail", cfg.Providers.Mail)...)

	// Transcription and summarization are the core pipeline; without both
	// the server can only serve stored sessions.
	if len(cfg.Providers.STT) == 0 {
		slog.Warn("no STT provider configured; recording uploads will fail")
	}
	if len(cfg.Providers.LLM) == 0 {
		slog.Warn("no LLM provider configured; every summary will be the placeholder")
	}
	if len(cfg.Providers.Embeddings) == 0 {
		slog.Warn("no embeddings provider configured; semantic search is disabled")
	}

	return errors.Join(errs...)
}

// validateProviderList checks one kind's entries for required names and
// duplicates, and warns about names not in [ValidProviderNames].
func validateProviderList(kind string, entries []ProviderEntry) []error {
	var errs []error
	seen := make(map[string]int, len(entries))
	for i, e := range entries {
		prefix := fmt.Sprintf("providers.%s[%d]", kind, i)
		if e.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
			continue
		}
		if prev, ok := seen[e.Name]; ok {
			errs = append(errs, fmt.Errorf("%s.name %q is a duplicate of providers.%s[%d]", prefix, e.Name, kind, prev))
		}
		seen[e.Name] = i
		warnUnknownProviderName(kind, e.Name)
	}
	return errs
}

// warnUnknownProviderName logs a warning if name is not found in the
// [ValidProviderNames] list for the given kind.
func warnUnknownProviderName(kind, name string) {
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
