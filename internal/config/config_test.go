package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
data:
  catalog_path: "tags.json"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Data.CatalogPath == "" {
		t.Error("catalog_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
data:
  catalog_path: "./data/tags.json"
  index_path: "./data/tags.vec"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantCatalog := filepath.Join(dir, "data", "tags.json")
	if cfg.Data.CatalogPath != wantCatalog {
		t.Errorf("catalog_path = %q, want %q", cfg.Data.CatalogPath, wantCatalog)
	}
	wantIndex := filepath.Join(dir, "data", "tags.vec")
	if cfg.Data.IndexPath != wantIndex {
		t.Errorf("index_path = %q, want %q", cfg.Data.IndexPath, wantIndex)
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)

	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Errorf("default dimensions = %d, want 384", cfg.Embedding.Dimensions)
	}
	if cfg.Matching.MaxResults != 5 {
		t.Errorf("default max_results = %d, want 5", cfg.Matching.MaxResults)
	}
	if cfg.Matching.FuzzyThreshold != 80 {
		t.Errorf("default fuzzy_threshold = %v, want 80", cfg.Matching.FuzzyThreshold)
	}
	if cfg.Matching.FuzzyPrefilterRatio != 0.7 {
		t.Errorf("default fuzzy_prefilter_ratio = %v, want 0.7", cfg.Matching.FuzzyPrefilterRatio)
	}
	if cfg.Matching.TokenMatchThreshold != 75 {
		t.Errorf("default token_match_threshold = %v, want 75", cfg.Matching.TokenMatchThreshold)
	}
	if cfg.Matching.CoverageFloor != 0.7 {
		t.Errorf("default coverage_floor = %v, want 0.7", cfg.Matching.CoverageFloor)
	}
	if cfg.Matching.CandidateFactor != 10 || cfg.Matching.CandidateFloor != 50 {
		t.Errorf("default candidate bounds = %d/%d, want 10/50",
			cfg.Matching.CandidateFactor, cfg.Matching.CandidateFloor)
	}
	if cfg.Matching.CountWeight != 0.1 {
		t.Errorf("default count_weight = %v, want 0.1", cfg.Matching.CountWeight)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	var cfg Config
	ApplyDefaults(&cfg)
	cfg.Server.Port = 9191
	if err := Save(path, &cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9191 {
		t.Errorf("round-trip port = %d, want 9191", loaded.Server.Port)
	}
}
