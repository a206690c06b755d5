package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Data.CatalogPath == "" {
		cfg.Data.CatalogPath = "/usr/local/var/fuda/data/tags.json"
	}
	if cfg.Data.IndexPath == "" {
		cfg.Data.IndexPath = "/usr/local/var/fuda/data/tags.vec"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/fuda/data/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Matching.MaxResults == 0 {
		cfg.Matching.MaxResults = 5
	}
	if cfg.Matching.VectorSearchK == 0 {
		cfg.Matching.VectorSearchK = 10
	}
	if cfg.Matching.MinSimilarity == 0 {
		cfg.Matching.MinSimilarity = 0.3
	}
	if cfg.Matching.CountWeight == 0 {
		cfg.Matching.CountWeight = 0.1
	}
	if cfg.Matching.FuzzyThreshold == 0 {
		cfg.Matching.FuzzyThreshold = 80
	}
	if cfg.Matching.FuzzyPrefilterRatio == 0 {
		cfg.Matching.FuzzyPrefilterRatio = 0.7
	}
	if cfg.Matching.TokenMatchThreshold == 0 {
		cfg.Matching.TokenMatchThreshold = 75
	}
	if cfg.Matching.CoverageFloor == 0 {
		cfg.Matching.CoverageFloor = 0.7
	}
	if cfg.Matching.CandidateFactor == 0 {
		cfg.Matching.CandidateFactor = 10
	}
	if cfg.Matching.CandidateFloor == 0 {
		cfg.Matching.CandidateFloor = 50
	}
	if cfg.Watch.DebounceMillis == 0 {
		cfg.Watch.DebounceMillis = 500
	}
}
