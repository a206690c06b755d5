// Package matcher runs the layered tag resolution pipeline: exact and alias
// lookups short-circuit, otherwise fuzzy and semantic matching run
// concurrently and their candidates are merged and ranked.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/fuda/internal/catalog"
	"github.com/hyperjump/fuda/internal/config"
	"github.com/hyperjump/fuda/internal/embedding"
	"github.com/hyperjump/fuda/internal/fuzzy"
	"github.com/hyperjump/fuda/internal/models"
	"github.com/hyperjump/fuda/internal/semantic"
	"github.com/hyperjump/fuda/internal/vocab"
)

// snapshot bundles everything derived from one catalog + index pair. A
// reload builds a fresh snapshot aside and swaps the pointer, so a query
// never sees the vocabulary from one dataset and the vectors of another.
type snapshot struct {
	store    *vocab.Store
	fuzzy    *fuzzy.Matcher
	searcher *semantic.Searcher
}

// Engine resolves free-form strings against the loaded vocabulary.
// All query methods are safe for concurrent use; Reload may run at any time.
type Engine struct {
	cfg      *config.Config
	embedder embedding.Embedder
	logger   *zap.Logger
	snap     atomic.Pointer[snapshot]
}

// NewEngine creates an engine with no dataset loaded. Call Load before
// serving queries. The embedder may be nil, which disables semantic matching.
func NewEngine(cfg *config.Config, embedder embedding.Embedder, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		embedder: embedder,
		logger:   logger,
	}
}

// Load reads the catalog and index at the given paths and swaps them in.
// On any error the previous snapshot stays active. An empty indexPath, or a
// missing index file, disables semantic matching for the new snapshot.
func (e *Engine) Load(catalogPath, indexPath string) error {
	entries, err := catalog.Load(catalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	store := vocab.New(entries)

	var index *semantic.Index
	if indexPath != "" {
		index, err = semantic.LoadIndex(indexPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				e.logger.Warn("Semantic index not found, vector matching disabled",
					zap.String("path", indexPath))
				index = nil
			} else {
				return fmt.Errorf("load index: %w", err)
			}
		}
	}

	params := fuzzy.Params{
		PrefilterRatio:      e.cfg.Matching.FuzzyPrefilterRatio,
		TokenMatchThreshold: e.cfg.Matching.TokenMatchThreshold,
		CoverageFloor:       e.cfg.Matching.CoverageFloor,
		CandidateFactor:     e.cfg.Matching.CandidateFactor,
		CandidateFloor:      e.cfg.Matching.CandidateFloor,
	}

	snap := &snapshot{
		store:    store,
		fuzzy:    fuzzy.NewMatcher(store.Names(), params),
		searcher: semantic.NewSearcher(e.embedder, index),
	}
	e.snap.Store(snap)

	e.logger.Info("Dataset loaded",
		zap.String("catalog", catalogPath),
		zap.Int("tags", store.Len()),
		zap.Int("index_size", snap.searcher.IndexSize()))
	return nil
}

// Reload hot-swaps the dataset. Empty paths fall back to the configured
// ones. Each reload gets an operation ID for log correlation.
func (e *Engine) Reload(ctx context.Context, req *models.ReloadRequest) (*models.ReloadResponse, error) {
	start := time.Now()
	opID := uuid.New().String()

	catalogPath := req.CatalogPath
	if catalogPath == "" {
		catalogPath = e.cfg.Data.CatalogPath
	}
	indexPath := req.IndexPath
	if indexPath == "" {
		indexPath = e.cfg.Data.IndexPath
	}

	e.logger.Info("Reloading dataset",
		zap.String("operation_id", opID),
		zap.String("catalog", catalogPath),
		zap.String("index", indexPath))

	if err := e.Load(catalogPath, indexPath); err != nil {
		e.logger.Error("Reload failed, previous dataset stays active",
			zap.String("operation_id", opID),
			zap.Error(err))
		return nil, err
	}

	snap := e.snap.Load()
	return &models.ReloadResponse{
		OperationID: opID,
		TagCount:    snap.store.Len(),
		IndexSize:   snap.searcher.IndexSize(),
		ReloadTime:  time.Since(start).Milliseconds(),
	}, nil
}

// Resolve returns ranked candidates for one free-form string.
func (e *Engine) Resolve(ctx context.Context, query string) (*models.ResolveResponse, error) {
	start := time.Now()

	candidates, err := e.resolve(ctx, query)
	if err != nil {
		return nil, err
	}
	return &models.ResolveResponse{
		Candidates: candidates,
		Query:      query,
		QueryTime:  time.Since(start).Milliseconds(),
	}, nil
}

// resolve runs the pipeline for one query against the current snapshot.
func (e *Engine) resolve(ctx context.Context, query string) ([]*models.MatchCandidate, error) {
	norm := vocab.Normalize(query)
	if norm == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	snap := e.snap.Load()
	if snap == nil {
		return nil, fmt.Errorf("no dataset loaded")
	}

	if entry := snap.store.Exact(norm); entry != nil {
		return []*models.MatchCandidate{candidate(entry, models.MethodExact, 1.0, query)}, nil
	}
	if entry := snap.store.Alias(norm); entry != nil {
		return []*models.MatchCandidate{candidate(entry, models.MethodAlias, 1.0, query)}, nil
	}

	var (
		fuzzyMatches []fuzzy.Match
		semResults   []semantic.Result
		wg           sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		fuzzyMatches = snap.fuzzy.Match(norm, e.cfg.Matching.FuzzyThreshold, e.cfg.Matching.VectorSearchK)
	}()
	if snap.searcher.Ready() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := snap.searcher.Search(ctx, norm, e.cfg.Matching.VectorSearchK)
			if err != nil {
				// Semantic matching degrades quietly; fuzzy results still serve.
				e.logger.Warn("Semantic search failed", zap.String("query", norm), zap.Error(err))
				return
			}
			semResults = results
		}()
	}
	wg.Wait()

	merged := make(map[string]*models.MatchCandidate)
	for _, m := range fuzzyMatches {
		entry := snap.store.Get(m.Name)
		if entry == nil {
			continue
		}
		merged[m.Name] = candidate(entry, models.MethodFuzzy, m.Score, query)
	}
	for _, r := range semResults {
		existing := merged[r.Tag]
		if existing != nil && existing.Score > r.Similarity {
			continue
		}
		// Prefer current catalog metadata over what the index carries; the
		// index may lag the catalog between rebuilds.
		c := &models.MatchCandidate{
			Tag:      r.Tag,
			Category: r.Category,
			Count:    r.Count,
			Method:   models.MethodVector,
			Score:    r.Similarity,
			Query:    query,
		}
		if entry := snap.store.Get(r.Tag); entry != nil {
			c.Category = entry.Category
			c.Count = entry.Count
		}
		merged[r.Tag] = c
	}

	candidates := make([]*models.MatchCandidate, 0, len(merged))
	for _, c := range merged {
		if c.Score < e.cfg.Matching.MinSimilarity {
			continue
		}
		candidates = append(candidates, c)
	}
	e.rank(snap, candidates)

	if len(candidates) > e.cfg.Matching.MaxResults {
		candidates = candidates[:e.cfg.Matching.MaxResults]
	}
	return candidates, nil
}

// rank orders candidates by match score blended with tag popularity, so that
// among close matches the commonly used tag surfaces first. Ties keep
// catalog order, which makes repeated queries byte-for-byte stable.
func (e *Engine) rank(snap *snapshot, candidates []*models.MatchCandidate) {
	w := e.cfg.Matching.CountWeight
	final := make(map[string]float64, len(candidates))
	for _, c := range candidates {
		final[c.Tag] = c.Score*(1-w) + snap.store.Popularity(c.Count)*w
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		fi, fj := final[candidates[i].Tag], final[candidates[j].Tag]
		if fi != fj {
			return fi > fj
		}
		return snap.store.Order(candidates[i].Tag) < snap.store.Order(candidates[j].Tag)
	})
}

// ResolveBatch resolves several queries and merges their candidates.
// Queries that fail to resolve are skipped rather than failing the batch.
func (e *Engine) ResolveBatch(ctx context.Context, req *models.ResolveBatchRequest) (*models.ResolveBatchResponse, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if e.snap.Load() == nil {
		return nil, fmt.Errorf("no dataset loaded")
	}

	claimed := make(map[string]bool)
	var out []*models.MatchCandidate
	for _, q := range req.Queries {
		candidates, err := e.resolve(ctx, q)
		if err != nil {
			e.logger.Warn("Skipping unresolvable query", zap.String("query", q), zap.Error(err))
			continue
		}
		switch req.Mode {
		case models.ModeSingleBest:
			for _, c := range candidates {
				if claimed[c.Tag] {
					continue
				}
				claimed[c.Tag] = true
				out = append(out, c)
				break
			}
		case models.ModeAllCandidates:
			for _, c := range candidates {
				if claimed[c.Tag] {
					continue
				}
				claimed[c.Tag] = true
				out = append(out, c)
			}
		}
	}

	return &models.ResolveBatchResponse{
		Candidates: out,
		Mode:       req.Mode,
		QueryTime:  time.Since(start).Milliseconds(),
	}, nil
}

// Exact returns the entry whose canonical name matches the query, or nil.
func (e *Engine) Exact(query string) *models.LookupResult {
	snap := e.snap.Load()
	if snap == nil {
		return nil
	}
	if entry := snap.store.Exact(vocab.Normalize(query)); entry != nil {
		return lookupResult(entry)
	}
	return nil
}

// Alias returns the canonical entry the query is an alias of, or nil.
func (e *Engine) Alias(query string) *models.LookupResult {
	snap := e.snap.Load()
	if snap == nil {
		return nil
	}
	if entry := snap.store.Alias(vocab.Normalize(query)); entry != nil {
		return lookupResult(entry)
	}
	return nil
}

// Prefix returns up to limit entries whose names start with the query,
// in catalog order.
func (e *Engine) Prefix(query string, limit int) []*models.LookupResult {
	snap := e.snap.Load()
	if snap == nil {
		return nil
	}
	entries := snap.store.Prefix(vocab.Normalize(query), limit)
	results := make([]*models.LookupResult, 0, len(entries))
	for _, entry := range entries {
		results = append(results, lookupResult(entry))
	}
	return results
}

// Stats describes the currently loaded dataset.
type Stats struct {
	TagCount    int
	IndexSize   int
	IndexLoaded bool
}

// Stats returns counters for the active snapshot.
func (e *Engine) Stats() Stats {
	snap := e.snap.Load()
	if snap == nil {
		return Stats{}
	}
	return Stats{
		TagCount:    snap.store.Len(),
		IndexSize:   snap.searcher.IndexSize(),
		IndexLoaded: snap.searcher.Ready(),
	}
}

func candidate(entry *models.TagEntry, method string, score float64, query string) *models.MatchCandidate {
	return &models.MatchCandidate{
		Tag:      entry.Name,
		Category: entry.Category,
		Count:    entry.Count,
		Method:   method,
		Score:    score,
		Query:    query,
	}
}

func lookupResult(entry *models.TagEntry) *models.LookupResult {
	return &models.LookupResult{
		Tag:      entry.Name,
		Category: entry.Category,
		Count:    entry.Count,
	}
}
