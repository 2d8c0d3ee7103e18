package config

import "reflect"

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	ProvidersChanged bool           // true if any provider list changed
	ProviderChanges  []ProviderDiff // per-kind diffs
}

// ProviderDiff describes what changed in a single provider kind's list.
type ProviderDiff struct {
	// Kind is the provider kind ("stt", "llm", "translate", "tts",
	// "embeddings", "mail").
	Kind string

	// Added lists provider names present only in the new config.
	Added []string

	// Removed lists provider names present only in the old config.
	Removed []string

	// Modified lists provider names whose entry changed in place.
	Modified []string
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.LogLevel != new.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.LogLevel
	}

	kinds := []struct {
		kind     string
		old, new []ProviderEntry
	}{
		{"stt", old.Providers.STT, new.Providers.STT},
		{"llm", old.Providers.LLM, new.Providers.LLM},
		{"translate", old.Providers.Translate, new.Providers.Translate},
		{"tts", old.Providers.TTS, new.Providers.TTS},
		{"embeddings", old.Providers.Embeddings, new.Providers.Embeddings},
		{"mail", old.Providers.Mail, new.Providers.Mail},
	}
	for _, k := range kinds {
		pd := diffProviders(k.kind, k.old, k.new)
		if len(pd.Added)+len(pd.Removed)+len(pd.Modified) > 0 {
			d.ProviderChanges = append(d.ProviderChanges, pd)
			d.ProvidersChanged = true
		}
	}

	return d
}

// diffProviders compares one kind's entry lists keyed by provider name.
func diffProviders(kind string, old, new []ProviderEntry) ProviderDiff {
	pd := ProviderDiff{Kind: kind}

	oldByName := make(map[string]*ProviderEntry, len(old))
	for i := range old {
		oldByName[old[i].Name] = &old[i]
	}
	newByName := make(map[string]*ProviderEntry, len(new))
	for i := range new {
		newByName[new[i].Name] = &new[i]
	}

	for _, e := range old {
		newEntry, exists := newByName[e.Name]
		if !exists {
			pd.Removed = append(pd.Removed, e.Name)
			continue
		}
		// Options is a map, so plain == does not apply.
		if !reflect.DeepEqual(*newEntry, e) {
			pd.Modified = append(pd.Modified, e.Name)
		}
	}
	for _, e := range new {
		if _, exists := oldByName[e.Name]; !exists {
			pd.Added = append(pd.Added, e.Name)
		}
	}

	return pd
}
