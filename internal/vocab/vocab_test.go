package vocab

import (
	"math"
	"testing"

	"github.com/hyperjump/fuda/internal/models"
)

func testEntries() []models.TagEntry {
	return []models.TagEntry{
		{Name: "1girl", Category: 0, Count: 5000000, Aliases: []string{"1girls", "sole_female"}},
		{Name: "long_hair", Category: 0, Count: 4000000, Aliases: []string{"longhair"}},
		{Name: "heart-shaped_pupils", Category: 0, Count: 120000, Aliases: []string{"heart pupils"}},
		{Name: "hatsune_miku", Category: 4, Count: 900000, Aliases: []string{"miku"}},
		{Name: "vocaloid", Category: 3, Count: 800000},
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Long Hair", "long_hair"},
		{"  heart-shaped pupils  ", "heart_shaped_pupils"},
		{"a - b", "a_b"},
		{"already_normal", "already_normal"},
		{"multi   space", "multi_space"},
		{"", ""},
		{" - ", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExact(t *testing.T) {
	s := New(testEntries())
	for _, entry := range testEntries() {
		got := s.Exact(Normalize(entry.Name))
		if got == nil {
			t.Fatalf("Exact(%q) = nil", entry.Name)
		}
		if Normalize(got.Name) != Normalize(entry.Name) {
			t.Errorf("Exact(%q) returned %q", entry.Name, got.Name)
		}
	}
	if s.Exact("no_such_tag") != nil {
		t.Error("Exact on unknown name should return nil")
	}
	// Query-side normalization: spaces and hyphens fold to underscore.
	if got := s.Exact("Heart-Shaped Pupils"); got == nil || got.Name != "heart_shaped_pupils" {
		t.Errorf("Exact with raw query form = %+v", got)
	}
}

func TestNewStoresNormalizedNames(t *testing.T) {
	s := New([]models.TagEntry{
		{Name: "Heart Pupils", Category: 0, Count: 10},
		{Name: "Blue-Eyes", Category: 0, Count: 20},
	})

	entry := s.Exact("heart_pupils")
	if entry == nil {
		t.Fatal("normalized lookup should find the entry")
	}
	if entry.Name != "heart_pupils" {
		t.Errorf("canonical name should be stored normalized, got %q", entry.Name)
	}
	if got := s.Get("blue_eyes"); got == nil || got.Name != "blue_eyes" {
		t.Errorf("Get by normalized name = %+v", got)
	}
	// Order is keyed by the stored name, so the tie-break stays reachable
	// for entries that arrived in raw form.
	if pos := s.Order(entry.Name); pos != 0 {
		t.Errorf("Order(%q) = %d, want 0", entry.Name, pos)
	}
}

func TestAlias(t *testing.T) {
	s := New(testEntries())
	got := s.Alias("miku")
	if got == nil || got.Name != "hatsune_miku" {
		t.Errorf("Alias(miku) = %+v, want hatsune_miku", got)
	}
	if s.Alias("unknown_alias") != nil {
		t.Error("Alias on unknown string should return nil")
	}
}

func TestAliasCollidingWithCanonicalName(t *testing.T) {
	// "vocaloid" is both a canonical name and an alias of another tag.
	// Exact lookup takes precedence; the alias map still resolves for
	// callers that ask for aliases only.
	entries := []models.TagEntry{
		{Name: "vocaloid", Category: 3, Count: 800000},
		{Name: "hatsune_miku", Category: 4, Count: 900000, Aliases: []string{"vocaloid"}},
	}
	s := New(entries)
	if got := s.Exact("vocaloid"); got == nil || got.Name != "vocaloid" {
		t.Errorf("Exact(vocaloid) = %+v, want the canonical tag", got)
	}
	if got := s.Alias("vocaloid"); got == nil || got.Name != "hatsune_miku" {
		t.Errorf("Alias(vocaloid) = %+v, want hatsune_miku", got)
	}
}

func TestAliasFirstWriteWins(t *testing.T) {
	entries := []models.TagEntry{
		{Name: "tag_a", Count: 10, Aliases: []string{"shared"}},
		{Name: "tag_b", Count: 99999, Aliases: []string{"shared"}},
	}
	s := New(entries)
	if got := s.Alias("shared"); got == nil || got.Name != "tag_a" {
		t.Errorf("Alias(shared) = %+v, want tag_a (load order wins)", got)
	}
}

func TestNameCollisionHigherCountWins(t *testing.T) {
	entries := []models.TagEntry{
		{Name: "long hair", Count: 10},
		{Name: "long_hair", Count: 4000000},
	}
	s := New(entries)
	got := s.Exact("long_hair")
	if got == nil || got.Count != 4000000 {
		t.Errorf("Exact(long_hair) = %+v, want the higher-count entry", got)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after collision", s.Len())
	}
}

func TestPrefix(t *testing.T) {
	s := New(testEntries())
	results := s.Prefix("h", 10)
	if len(results) != 2 {
		t.Fatalf("Prefix(h) returned %d entries, want 2", len(results))
	}
	// Insertion order: heart_shaped_pupils before hatsune_miku.
	if results[0].Name != "heart_shaped_pupils" || results[1].Name != "hatsune_miku" {
		t.Errorf("Prefix order = %q, %q", results[0].Name, results[1].Name)
	}

	if got := s.Prefix("h", 1); len(got) != 1 {
		t.Errorf("Prefix limit not applied: got %d", len(got))
	}
	if got := s.Prefix("zzz", 10); got != nil {
		t.Errorf("Prefix(zzz) = %v, want nil", got)
	}
}

func TestPopularity(t *testing.T) {
	s := New(testEntries())
	if got := s.Popularity(s.MaxCount()); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("Popularity(max) = %v, want 1", got)
	}
	if got := s.Popularity(0); got != 0 {
		t.Errorf("Popularity(0) = %v, want 0 (clamped to count 1)", got)
	}
	mid := s.Popularity(120000)
	if mid <= 0 || mid >= 1 {
		t.Errorf("Popularity(120000) = %v, want in (0,1)", mid)
	}
}

func TestEmptyCatalog(t *testing.T) {
	s := New(nil)
	if s.Exact("anything") != nil {
		t.Error("Exact on empty store should return nil")
	}
	if s.Alias("anything") != nil {
		t.Error("Alias on empty store should return nil")
	}
	if got := s.Prefix("a", 5); got != nil {
		t.Errorf("Prefix on empty store = %v, want nil", got)
	}
	if got := s.Popularity(100); got != 0 {
		t.Errorf("Popularity on empty store = %v, want 0", got)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestOrder(t *testing.T) {
	s := New(testEntries())
	if s.Order("1girl") != 0 {
		t.Errorf("Order(1girl) = %d, want 0", s.Order("1girl"))
	}
	if s.Order("vocaloid") != 4 {
		t.Errorf("Order(vocaloid) = %d, want 4", s.Order("vocaloid"))
	}
	if s.Order("unknown") != s.Len() {
		t.Errorf("Order(unknown) = %d, want %d", s.Order("unknown"), s.Len())
	}
}
