package language

import (
	"testing"
)

func TestRegistryBijection(t *testing.T) {
	all := All()
	if len(all) != 10 {
		t.Fatalf("All() returned %d tags, want 10", len(all))
	}

	names := make(map[string]bool, len(all))
	codes := make(map[string]bool, len(all))
	for _, tag := range all {
		if names[tag.Name] {
			t.Errorf("duplicate display name %q", tag.Name)
		}
		if codes[tag.Code] {
			t.Errorf("duplicate code %q", tag.Code)
		}
		names[tag.Name] = true
		codes[tag.Code] = true

		byN, ok := ByName(tag.Name)
		if !ok || byN != tag {
			t.Errorf("ByName(%q) = %+v, %v; want %+v, true", tag.Name, byN, ok, tag)
		}
		byC, ok := ByCode(tag.Code)
		if !ok || byC != tag {
			t.Errorf("ByCode(%q) = %+v, %v; want %+v, true", tag.Code, byC, ok, tag)
		}
	}
}

func TestAllOrder(t *testing.T) {
	want := []string{
		"Telugu", "Hindi", "English", "Spanish", "French",
		"German", "Portuguese", "Italian", "Japanese", "Chinese",
	}
	all := All()
	for i, name := range want {
		if all[i].Name != name {
			t.Errorf("All()[%d].Name = %q, want %q", i, all[i].Name, name)
		}
	}
}

func TestAllReturnsCopy(t *testing.T) {
	first := All()
	first[0] = Tag{Name: "Klingon", Code: "tlh"}
	if got := All()[0].Name; got != "Telugu" {
		t.Errorf("mutating All() result leaked into registry: got %q", got)
	}
}

func TestLookupMiss(t *testing.T) {
	if _, ok := ByName("Klingon"); ok {
		t.Error("ByName(Klingon) unexpectedly found")
	}
	if _, ok := ByCode("tlh"); ok {
		t.Error("ByCode(tlh) unexpectedly found")
	}
	// Lookups are exact; case differences miss.
	if _, ok := ByName("english"); ok {
		t.Error("ByName(english) should be case-sensitive")
	}
}

func TestBase(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"te-IN", "te"},
		{"hi-IN", "hi"},
		{"en-US", "en"},
		{"es", "es"},
		{"zh", "zh"},
	}
	for _, tt := range tests {
		tag, ok := ByCode(tt.code)
		if !ok {
			t.Fatalf("ByCode(%q) missing", tt.code)
		}
		if got := tag.Base(); got != tt.want {
			t.Errorf("Base(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"close typo", "Englsh", []string{"English"}},
		{"dropped letter", "Telgu", []string{"Telugu"}},
		{"case insensitive", "hindi", []string{"Hindi"}},
		{"exact match first", "French", []string{"French"}},
		{"no plausible match", "Klingon", nil},
		{"empty input", "", nil},
		{"whitespace only", "   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Suggest(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("Suggest(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Suggest(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}
