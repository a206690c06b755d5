// Package models defines core data structures for tags, queries, and match results.
package models

// Tag category codes follow the upstream catalog convention.
const (
	CategoryGeneral   = 0
	CategoryArtist    = 1
	CategoryCopyright = 3
	CategoryCharacter = 4
	CategoryMeta      = 5
)

// CategoryName returns a human-readable name for a category code.
func CategoryName(category int) string {
	switch category {
	case CategoryGeneral:
		return "general"
	case CategoryArtist:
		return "artist"
	case CategoryCopyright:
		return "copyright"
	case CategoryCharacter:
		return "character"
	case CategoryMeta:
		return "meta"
	default:
		return "unknown"
	}
}

// TagEntry is one canonical entry in the controlled vocabulary.
type TagEntry struct {
	Name     string   `json:"tag"`
	Category int      `json:"category"`
	Count    int      `json:"count"`
	Aliases  []string `json:"aliases,omitempty"`
}

// Match methods, from cheapest to most speculative.
const (
	MethodExact  = "exact"
	MethodAlias  = "alias"
	MethodFuzzy  = "fuzzy"
	MethodVector = "vector"
)

// MatchCandidate is a ranked resolution candidate for one query string.
// Candidates live only for the duration of a query.
type MatchCandidate struct {
	Tag      string  `json:"tag"`
	Category int     `json:"category"`
	Count    int     `json:"count"`
	Method   string  `json:"match_method"`
	Score    float64 `json:"similarity_score"`
	Query    string  `json:"query"`
}
