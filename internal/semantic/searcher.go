package semantic

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hyperjump/fuda/internal/embedding"
	"github.com/hyperjump/fuda/internal/vocab"
)

// Overfetch bounds: the raw k is widened before the index search so that
// boosting can promote results that land just past the requested cut.
const (
	overfetchFactor = 3
	overfetchFloor  = 30
)

// Result is one semantic match with its similarity in [0, 1].
type Result struct {
	Tag        string
	Category   int
	Count      int
	Similarity float64
}

// Searcher embeds queries and searches a vector index. The embedder is
// shared across snapshots (model load is expensive), the index belongs to
// one snapshot and is replaced wholesale on reload.
type Searcher struct {
	embedder embedding.Embedder
	index    *Index
}

// NewSearcher creates a searcher over the given index. A nil index is
// valid and yields empty results, so the service degrades to exact, alias
// and fuzzy matching when no embeddings artifact is available.
func NewSearcher(embedder embedding.Embedder, index *Index) *Searcher {
	return &Searcher{embedder: embedder, index: index}
}

// Ready reports whether an index is loaded.
func (s *Searcher) Ready() bool {
	return s.index != nil && s.index.Size() > 0
}

// IndexSize returns the number of embedded tags, 0 when no index is loaded.
func (s *Searcher) IndexSize() int {
	if s.index == nil {
		return 0
	}
	return s.index.Size()
}

// Search returns up to k tags semantically close to the query, best first.
// Tag names are embedded with spaces, so underscores in the query are
// replaced before embedding. Distances convert to similarity as
// 1 - d/2, clamped at 0, which is the cosine similarity for unit vectors.
func (s *Searcher) Search(ctx context.Context, query string, k int) ([]Result, error) {
	if s.index == nil || s.index.Size() == 0 || k <= 0 {
		return nil, nil
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("no embedder configured")
	}

	text := strings.ReplaceAll(query, "_", " ")
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	fetch := k * overfetchFactor
	if fetch < overfetchFloor {
		fetch = overfetchFloor
	}
	hits, err := s.index.Search(vec, fetch)
	if err != nil {
		return nil, fmt.Errorf("index search: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		sim := 1 - h.Distance/2
		if sim < 0 {
			sim = 0
		}
		// Hit tags are normalized so that boosting and the downstream merge
		// compare like with like; older artifacts may carry raw catalog names.
		tag := vocab.Normalize(h.Tag)
		sim = boost(query, tag, sim)
		results = append(results, Result{
			Tag:        tag,
			Category:   h.Category,
			Count:      h.Count,
			Similarity: sim,
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Similarity > results[j].Similarity })
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// boost lifts similarity for lexical agreement between query and tag.
// An exact name match pins the score near the top regardless of embedding
// noise; a substring relation gets a smaller bump capped below exact.
func boost(query, tag string, sim float64) float64 {
	if query == tag {
		if sim < 0.99 {
			return 0.99
		}
		return sim
	}
	if strings.Contains(tag, query) || strings.Contains(query, tag) {
		sim += 0.10
		if sim > 0.98 {
			sim = 0.98
		}
	}
	return sim
}
