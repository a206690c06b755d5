// Package config provides configuration loading and structs for the Fuda server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Data      DataConfig      `yaml:"data"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Matching  MatchingConfig  `yaml:"matching"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DataConfig holds paths for the tag catalog and the semantic index artifact.
type DataConfig struct {
	CatalogPath string `yaml:"catalog_path"`
	IndexPath   string `yaml:"index_path"`
}

// EmbeddingConfig holds ONNX embedder settings.
type EmbeddingConfig struct {
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// MatchingConfig holds resolution pipeline settings. The fuzzy constants are
// tuned heuristics with no correctness proof behind them; they live here so
// callers can test and adjust them instead of treating them as fixed law.
type MatchingConfig struct {
	MaxResults    int     `yaml:"max_results"`
	VectorSearchK int     `yaml:"vector_search_k"`
	MinSimilarity float64 `yaml:"min_similarity"`
	CountWeight   float64 `yaml:"count_weight"`

	FuzzyThreshold      float64 `yaml:"fuzzy_threshold"`       // 0-100 whole-string ratio floor
	FuzzyPrefilterRatio float64 `yaml:"fuzzy_prefilter_ratio"` // phase-1 cutoff = threshold * this
	TokenMatchThreshold float64 `yaml:"token_match_threshold"` // 0-100 per-token ratio floor
	CoverageFloor       float64 `yaml:"coverage_floor"`        // minimum token coverage
	CandidateFactor     int     `yaml:"candidate_factor"`      // phase-1 bound = limit * this
	CandidateFloor      int     `yaml:"candidate_floor"`       // minimum phase-1 bound
}

// WatchConfig holds dataset hot-reload settings.
type WatchConfig struct {
	Enabled bool `yaml:"enabled"`
	// DebounceMillis is the quiet period after the last write before a reload fires.
	DebounceMillis int `yaml:"debounce_ms"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Data.CatalogPath = expandPath(cfg.Data.CatalogPath, configDir)
	cfg.Data.IndexPath = expandPath(cfg.Data.IndexPath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
