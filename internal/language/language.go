// Package language holds the closed registry of spoken languages a recording
// can be transcribed and summarized in.
//
// Every selectable language is a Tag pairing a display name with the
// recognition code passed to speech providers. Display names and codes are
// each unique; lookups exist in both directions. The registry is fixed at
// compile time.
package language

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

// Tag pairs a display name with its recognition code.
type Tag struct {
	// Name is the display name users select, e.g. "Telugu".
	Name string

	// Code is the recognition code passed to transcription providers,
	// e.g. "te-IN". Translation and speech synthesis use the base form
	// (see Base).
	Code string
}

// Base returns the code truncated at the first hyphen: "te-IN" becomes "te",
// "es" stays "es". Translation and speech synthesis backends take base codes.
func (t Tag) Base() string {
	if i := strings.IndexByte(t.Code, '-'); i >= 0 {
		return t.Code[:i]
	}
	return t.Code
}

// registry order is the order tags are offered in.
var registry = []Tag{
	{Name: "Telugu", Code: "te-IN"},
	{Name: "Hindi", Code: "hi-IN"},
	{Name: "English", Code: "en-US"},
	{Name: "Spanish", Code: "es"},
	{Name: "French", Code: "fr"},
	{Name: "German", Code: "de"},
	{Name: "Portuguese", Code: "pt"},
	{Name: "Italian", Code: "it"},
	{Name: "Japanese", Code: "ja"},
	{Name: "Chinese", Code: "zh"},
}

var (
	byName = make(map[string]Tag, len(registry))
	byCode = make(map[string]Tag, len(registry))
)

func init() {
	for _, t := range registry {
		byName[t.Name] = t
		byCode[t.Code] = t
	}
}

// All returns every selectable language in registry order. The returned slice
// is a copy; callers may modify it freely.
func All() []Tag {
	out := make([]Tag, len(registry))
	copy(out, registry)
	return out
}

// ByName looks up a tag by exact display name.
func ByName(name string) (Tag, bool) {
	t, ok := byName[name]
	return t, ok
}

// ByCode looks up a tag by exact recognition code.
func ByCode(code string) (Tag, bool) {
	t, ok := byCode[code]
	return t, ok
}

// maxSuggestDistance is the largest Damerau-Levenshtein distance still
// considered a plausible typo of a registry name.
const maxSuggestDistance = 2

// Suggest returns up to three display names closest to the given input by
// Damerau-Levenshtein distance, nearest first. Names further than two edits
// away are excluded, so an unrecognizable input yields an empty slice.
// Matching is case-insensitive.
func Suggest(name string) []string {
	in := strings.ToLower(strings.TrimSpace(name))
	if in == "" {
		return nil
	}

	type scored struct {
		name string
		dist int
	}
	candidates := make([]scored, 0, len(registry))
	for _, t := range registry {
		d := matchr.DamerauLevenshtein(in, strings.ToLower(t.Name))
		if d <= maxSuggestDistance {
			candidates = append(candidates, scored{name: t.Name, dist: d})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].dist < candidates[j].dist
	})

	if len(candidates) > 3 {
		candidates = candidates[:3]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.name
	}
	return out
}
