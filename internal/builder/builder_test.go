package builder

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/fuda/internal/embedding"
	"github.com/hyperjump/fuda/internal/models"
	"github.com/hyperjump/fuda/internal/semantic"
)

func TestEmbeddable(t *testing.T) {
	tests := []struct {
		name  string
		entry models.TagEntry
		want  bool
	}{
		{"general always", models.TagEntry{Name: "smile", Category: models.CategoryGeneral, Count: 1}, true},
		{"artist never", models.TagEntry{Name: "some_artist", Category: models.CategoryArtist, Count: 1000000}, false},
		{"copyright above floor", models.TagEntry{Name: "vocaloid", Category: models.CategoryCopyright, Count: 100}, true},
		{"copyright below floor", models.TagEntry{Name: "obscure_series", Category: models.CategoryCopyright, Count: 99}, false},
		{"character above floor", models.TagEntry{Name: "hatsune_miku", Category: models.CategoryCharacter, Count: 500}, true},
		{"character below floor", models.TagEntry{Name: "minor_character", Category: models.CategoryCharacter, Count: 10}, false},
		{"meta above floor", models.TagEntry{Name: "highres", Category: models.CategoryMeta, Count: 5000}, true},
		{"meta below floor", models.TagEntry{Name: "rare_meta", Category: models.CategoryMeta, Count: 999}, false},
		{"unknown category", models.TagEntry{Name: "weird", Category: 9, Count: 1000000}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Embeddable(tt.entry); got != tt.want {
				t.Errorf("Embeddable(%+v) = %v, want %v", tt.entry, got, tt.want)
			}
		})
	}
}

func TestEmbeddingText(t *testing.T) {
	tests := []struct {
		name  string
		entry models.TagEntry
		want  string
	}{
		{
			"underscores become spaces",
			models.TagEntry{Name: "blue_eyes"},
			"blue eyes",
		},
		{
			"aliases appended",
			models.TagEntry{Name: "school_uniform", Aliases: []string{"seifuku"}},
			"school uniform, seifuku",
		},
		{
			"non-ascii aliases skipped",
			models.TagEntry{Name: "hatsune_miku", Aliases: []string{"初音ミク", "miku"}},
			"hatsune miku, miku",
		},
		{
			"empty aliases skipped",
			models.TagEntry{Name: "smile", Aliases: []string{"", "grin"}},
			"smile, grin",
		},
		{
			"alias cap",
			models.TagEntry{Name: "cat", Aliases: []string{"a1", "a2", "a3", "a4", "a5", "a6"}},
			"cat, a1, a2, a3, a4, a5",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EmbeddingText(tt.entry); got != tt.want {
				t.Errorf("EmbeddingText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildWritesArtifact(t *testing.T) {
	dims := 16
	embedder := embedding.NewMockEmbedder(dims)
	b := NewBuilder(embedder, zap.NewNop())

	entries := []models.TagEntry{
		{Name: "blue_eyes", Category: models.CategoryGeneral, Count: 1500000},
		{Name: "some_artist", Category: models.CategoryArtist, Count: 900000},
		{Name: "hatsune_miku", Category: models.CategoryCharacter, Count: 300000},
		{Name: "rare_meta", Category: models.CategoryMeta, Count: 5},
	}
	path := filepath.Join(t.TempDir(), "tags.vec")

	index, err := b.Build(context.Background(), entries, path)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if index.Size() != 2 {
		t.Fatalf("expected 2 embedded entries, got %d", index.Size())
	}

	loaded, err := semantic.LoadIndex(path)
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if loaded.Size() != index.Size() {
		t.Errorf("artifact size %d, built %d", loaded.Size(), index.Size())
	}
	if loaded.Dimensions() != dims {
		t.Errorf("artifact dimensions %d, want %d", loaded.Dimensions(), dims)
	}

	// The built index should place a tag's own name at distance ~0.
	vec, err := embedder.Embed(context.Background(), "blue eyes")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	hits, err := loaded.Search(vec, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Tag != "blue_eyes" {
		t.Fatalf("expected blue_eyes nearest, got %+v", hits)
	}
	if hits[0].Distance > 1e-6 {
		t.Errorf("self-distance should be near zero, got %f", hits[0].Distance)
	}
}

func TestBuildNormalizesTagNames(t *testing.T) {
	dims := 8
	embedder := embedding.NewMockEmbedder(dims)
	b := NewBuilder(embedder, zap.NewNop())

	entries := []models.TagEntry{
		{Name: "Heart Pupils", Category: models.CategoryGeneral, Count: 100},
		{Name: "Blue-Eyes", Category: models.CategoryGeneral, Count: 200},
	}
	index, err := b.Build(context.Background(), entries, "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	vec, err := embedder.Embed(context.Background(), "Heart Pupils")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	hits, err := index.Search(vec, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := map[string]bool{"heart_pupils": true, "blue_eyes": true}
	for _, h := range hits {
		if !want[h.Tag] {
			t.Errorf("index tag %q is not in normalized form", h.Tag)
		}
	}
}

func TestBuildEmptySelection(t *testing.T) {
	b := NewBuilder(embedding.NewMockEmbedder(8), zap.NewNop())
	entries := []models.TagEntry{
		{Name: "some_artist", Category: models.CategoryArtist, Count: 100},
	}
	index, err := b.Build(context.Background(), entries, "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if index.Size() != 0 {
		t.Errorf("expected empty index, got %d entries", index.Size())
	}
}

func TestBuildCancelled(t *testing.T) {
	b := NewBuilder(embedding.NewMockEmbedder(8), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	entries := []models.TagEntry{
		{Name: "smile", Category: models.CategoryGeneral, Count: 100},
	}
	if _, err := b.Build(ctx, entries, ""); err == nil {
		t.Error("expected error for cancelled context")
	}
}
