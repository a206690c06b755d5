// Package vocab provides the in-memory vocabulary store: normalized exact,
// alias, and prefix indices over a loaded tag catalog. A Store is built once
// from a catalog and never mutated; reload builds a whole new Store.
package vocab

import (
	"math"
	"strings"

	"github.com/hyperjump/fuda/internal/models"
)

// Store holds the normalized lookup indices for one catalog snapshot.
type Store struct {
	tags     map[string]*models.TagEntry // normalized name -> entry
	aliases  map[string]string           // normalized alias -> normalized canonical name
	names    []string                    // normalized names in catalog insertion order
	order    map[string]int              // normalized name -> insertion position
	maxCount int
}

// Normalize converts a tag name, alias, or query to lookup form: trimmed,
// lowercased, with runs of whitespace and hyphens collapsed to single
// underscores. Applied uniformly so the three agree on identity.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	sep := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '-' || r == '_' {
			sep = true
			continue
		}
		if sep && b.Len() > 0 {
			b.WriteByte('_')
		}
		sep = false
		b.WriteRune(r)
	}
	return b.String()
}

// New builds a Store from catalog entries in one pass. Canonical names are
// stored in normalized form, so everything downstream (candidates, ranking,
// the semantic index) agrees on one spelling per tag. When two entries
// normalize to the same name, the higher usage count wins. Aliases are
// first-write-wins in catalog order; an alias that equals some canonical
// name still enters the alias map but is shadowed at query time because
// exact lookup is checked before alias lookup.
func New(entries []models.TagEntry) *Store {
	s := &Store{
		tags:    make(map[string]*models.TagEntry, len(entries)),
		aliases: make(map[string]string),
		order:   make(map[string]int, len(entries)),
	}
	for i := range entries {
		entry := entries[i]
		name := Normalize(entry.Name)
		if name == "" {
			continue
		}
		entry.Name = name
		if prev, ok := s.tags[name]; ok {
			if entry.Count <= prev.Count {
				continue
			}
			s.tags[name] = &entry
		} else {
			s.tags[name] = &entry
			s.order[name] = len(s.names)
			s.names = append(s.names, name)
		}
		if entry.Count > s.maxCount {
			s.maxCount = entry.Count
		}
		for _, alias := range entry.Aliases {
			a := Normalize(alias)
			if a == "" {
				continue
			}
			if _, taken := s.aliases[a]; !taken {
				s.aliases[a] = name
			}
		}
	}
	return s
}

// Exact returns the entry whose normalized name equals the normalized query.
func (s *Store) Exact(query string) *models.TagEntry {
	return s.tags[Normalize(query)]
}

// Alias returns the entry whose alias set contains the normalized query.
func (s *Store) Alias(query string) *models.TagEntry {
	canonical, ok := s.aliases[Normalize(query)]
	if !ok {
		return nil
	}
	return s.tags[canonical]
}

// Prefix returns up to limit entries whose normalized name starts with the
// normalized query, in catalog insertion order. Linear scan; callers that
// need speed should cache hot prefixes.
func (s *Store) Prefix(query string, limit int) []*models.TagEntry {
	normalized := Normalize(query)
	if normalized == "" || limit <= 0 {
		return nil
	}
	var results []*models.TagEntry
	for _, name := range s.names {
		if strings.HasPrefix(name, normalized) {
			results = append(results, s.tags[name])
			if len(results) >= limit {
				break
			}
		}
	}
	return results
}

// Popularity maps a usage count to [0,1] on a log scale against the snapshot
// maximum. Returns 0 when the maximum is 1 or less (empty or degenerate catalog).
func (s *Store) Popularity(count int) float64 {
	if s.maxCount <= 1 {
		return 0
	}
	if count < 1 {
		count = 1
	}
	return math.Log10(float64(count)) / math.Log10(float64(s.maxCount))
}

// Names returns the normalized names in catalog insertion order. The slice
// is shared; callers must not modify it.
func (s *Store) Names() []string {
	return s.names
}

// Get returns the entry for an already-normalized name.
func (s *Store) Get(normalized string) *models.TagEntry {
	return s.tags[normalized]
}

// Order returns the catalog insertion position for a normalized name, used
// as a deterministic rank tie-break. Unknown names sort last.
func (s *Store) Order(normalized string) int {
	if pos, ok := s.order[normalized]; ok {
		return pos
	}
	return len(s.names)
}

// Len returns the number of canonical entries in the snapshot.
func (s *Store) Len() int {
	return len(s.tags)
}

// MaxCount returns the highest usage count in the snapshot.
func (s *Store) MaxCount() int {
	return s.maxCount
}
