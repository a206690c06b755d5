package fuzzy

import (
	"sort"
	"strings"
)

// Params are the tuned constants of the two-phase matcher. They are
// heuristics, not law; see config.MatchingConfig for the exposed knobs.
type Params struct {
	PrefilterRatio      float64 // phase-1 cutoff = threshold * this
	TokenMatchThreshold float64 // 0-100 ratio above which a token pair counts as matched
	CoverageFloor       float64 // minimum fraction of tokens matched on both sides
	CandidateFactor     int     // phase-1 candidate bound = limit * this
	CandidateFloor      int     // minimum phase-1 candidate bound
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		PrefilterRatio:      0.7,
		TokenMatchThreshold: 75,
		CoverageFloor:       0.7,
		CandidateFactor:     10,
		CandidateFloor:      50,
	}
}

// Match is a fuzzy hit over the name list: a normalized name and its final
// similarity score in [0,1].
type Match struct {
	Name  string
	Score float64
}

// Matcher runs two-phase fuzzy search over a fixed list of normalized names.
// A Matcher is immutable and safe for concurrent use.
type Matcher struct {
	names  []string
	params Params
}

// NewMatcher creates a matcher over names. The slice is shared, not copied;
// it must not be modified afterwards.
func NewMatcher(names []string, params Params) *Matcher {
	if params.CandidateFactor <= 0 || params.CandidateFloor <= 0 {
		def := DefaultParams()
		if params.CandidateFactor <= 0 {
			params.CandidateFactor = def.CandidateFactor
		}
		if params.CandidateFloor <= 0 {
			params.CandidateFloor = def.CandidateFloor
		}
	}
	return &Matcher{names: names, params: params}
}

// Match returns names scoring at least threshold (0-100 scale) against the
// normalized query, best first, at most limit. Phase 1 scans every name with
// the whole-string Ratio at a relaxed cutoff to bound phase-2 cost; phase 2
// rescores the survivors with the token-level scorer and keeps the better of
// the two scores per name.
func (m *Matcher) Match(query string, threshold float64, limit int) []Match {
	if query == "" || limit <= 0 || len(m.names) == 0 {
		return nil
	}

	type scored struct {
		index int
		ratio float64
	}
	cutoff := threshold * m.params.PrefilterRatio
	queryLen := len([]rune(query))

	var candidates []scored
	for i, name := range m.names {
		if ratioUpperBound(queryLen, len([]rune(name))) < cutoff {
			continue
		}
		if r := Ratio(query, name); r >= cutoff {
			candidates = append(candidates, scored{index: i, ratio: r})
		}
	}

	// Bound the phase-2 workload; ties keep catalog order for determinism.
	bound := limit * m.params.CandidateFactor
	if floor := m.params.CandidateFloor; bound < floor {
		bound = floor
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].ratio > candidates[j].ratio
	})
	if len(candidates) > bound {
		candidates = candidates[:bound]
	}

	queryTokens := splitTokens(query)
	var matches []Match
	for _, c := range candidates {
		name := m.names[c.index]
		score := c.ratio
		if ts := m.tokenScore(queryTokens, splitTokens(name)); ts > score {
			score = ts
		}
		if score >= threshold {
			matches = append(matches, Match{Name: name, Score: score / 100})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// tokenScore rescores a candidate against the query at token granularity.
// Each query token takes its best ratio against any candidate token, and
// symmetrically. Tokens whose best ratio reaches TokenMatchThreshold count
// as matched; coverage below CoverageFloor zeroes the score, otherwise the
// average of matched pair ratios is damped by coverage.
func (m *Matcher) tokenScore(queryTokens, candTokens []string) float64 {
	if len(queryTokens) == 0 || len(candTokens) == 0 {
		return 0
	}

	var (
		matchedQuery int
		matchedCand  int
		ratioSum     float64
		ratioCount   int
	)
	for _, qt := range queryTokens {
		best := bestTokenRatio(qt, candTokens)
		if best >= m.params.TokenMatchThreshold {
			matchedQuery++
			ratioSum += best
			ratioCount++
		}
	}
	for _, ct := range candTokens {
		best := bestTokenRatio(ct, queryTokens)
		if best >= m.params.TokenMatchThreshold {
			matchedCand++
			ratioSum += best
			ratioCount++
		}
	}

	total := len(queryTokens) + len(candTokens)
	coverage := float64(matchedQuery+matchedCand) / float64(total)
	if coverage < m.params.CoverageFloor || ratioCount == 0 {
		return 0
	}
	avg := ratioSum / float64(ratioCount)
	return avg * (0.5 + 0.5*coverage)
}

func bestTokenRatio(token string, against []string) float64 {
	var best float64
	for _, other := range against {
		if r := Ratio(token, other); r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

// splitTokens splits a normalized tag or query on underscores and hyphens,
// dropping empty tokens.
func splitTokens(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-'
	})
	return fields
}
