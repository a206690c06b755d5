package models

import "fmt"

// Batch resolution modes.
const (
	// ModeSingleBest returns at most one candidate per query, deduplicated
	// across the whole batch (first claim wins).
	ModeSingleBest = "single"
	// ModeAllCandidates returns every candidate, with tag names deduplicated
	// globally across the batch.
	ModeAllCandidates = "all"
)

// ResolveRequest asks for candidates for a single free-form string.
type ResolveRequest struct {
	Query string `json:"query"`
}

// Validate reports invalid single-query requests.
func (r *ResolveRequest) Validate() error {
	if r.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	return nil
}

// ResolveBatchRequest asks for resolution of several strings at once.
type ResolveBatchRequest struct {
	Queries []string `json:"queries"`
	Mode    string   `json:"mode,omitempty"`
}

// Validate checks the batch and defaults the mode to single-best.
func (r *ResolveBatchRequest) Validate() error {
	if len(r.Queries) == 0 {
		return fmt.Errorf("queries cannot be empty")
	}
	switch r.Mode {
	case "":
		r.Mode = ModeSingleBest
	case ModeSingleBest, ModeAllCandidates:
	default:
		return fmt.Errorf("unknown mode %q (use %q or %q)", r.Mode, ModeSingleBest, ModeAllCandidates)
	}
	return nil
}

// ResolveResponse is the ordered candidate list for one query.
type ResolveResponse struct {
	Candidates []*MatchCandidate `json:"candidates"`
	Query      string            `json:"query"`
	QueryTime  int64             `json:"query_time_ms"`
}

// ResolveBatchResponse is the merged candidate list for a batch.
type ResolveBatchResponse struct {
	Candidates []*MatchCandidate `json:"candidates"`
	Mode       string            `json:"mode"`
	QueryTime  int64             `json:"query_time_ms"`
}

// LookupResult is a single read-only vocabulary lookup hit.
type LookupResult struct {
	Tag      string `json:"tag"`
	Category int    `json:"category"`
	Count    int    `json:"count"`
}

// ReloadRequest asks the engine to hot-swap its dataset.
type ReloadRequest struct {
	CatalogPath string `json:"catalog_path"`
	IndexPath   string `json:"index_path,omitempty"`
}

// ReloadResponse reports the outcome of a reload.
type ReloadResponse struct {
	OperationID string `json:"operation_id"`
	TagCount    int    `json:"tag_count"`
	IndexSize   int    `json:"index_size"`
	ReloadTime  int64  `json:"reload_time_ms"`
}

// HealthResponse mirrors the health surface exposed to collaborators.
type HealthResponse struct {
	Status      string `json:"status"`
	IndexLoaded bool   `json:"index_loaded"`
	TagCount    int    `json:"tag_count"`
}
