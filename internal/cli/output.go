// Package cli provides CLI output formatting for Fuda.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/fuda/internal/models"
)

// OutputFormat is the format for resolution output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one comma-separated line of tag names, suitable for
	// pasting straight into a prompt.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat validates a format flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputCompact, OutputJSON:
		return OutputFormat(s), nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use text, compact, or json)", s)
	}
}

// WriteResolveResponse writes a single-query resolution to w.
func WriteResolveResponse(w io.Writer, response *models.ResolveResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	case OutputCompact:
		writeCompact(w, response.Candidates)
		return nil
	default:
		fmt.Fprintf(w, "\n%d candidates for %q in %dms\n\n",
			len(response.Candidates), response.Query, response.QueryTime)
		writeCandidatesText(w, response.Candidates)
		return nil
	}
}

// WriteBatchResponse writes a batch resolution to w.
func WriteBatchResponse(w io.Writer, response *models.ResolveBatchResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	case OutputCompact:
		writeCompact(w, response.Candidates)
		return nil
	default:
		fmt.Fprintf(w, "\n%d candidates (%s mode) in %dms\n\n",
			len(response.Candidates), response.Mode, response.QueryTime)
		writeCandidatesGrouped(w, response.Candidates)
		return nil
	}
}

func writeCompact(w io.Writer, candidates []*models.MatchCandidate) {
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.Tag)
	}
	fmt.Fprintln(w, strings.Join(names, ", "))
}

func writeCandidatesText(w io.Writer, candidates []*models.MatchCandidate) {
	for _, c := range candidates {
		fmt.Fprintf(w, "  %-40s %-9s %-6s score=%.4f count=%d\n",
			c.Tag, models.CategoryName(c.Category), c.Method, c.Score, c.Count)
	}
}

// writeCandidatesGrouped groups batch output by the query each candidate
// resolved from, preserving candidate order within a group.
func writeCandidatesGrouped(w io.Writer, candidates []*models.MatchCandidate) {
	var lastQuery string
	first := true
	for _, c := range candidates {
		if first || c.Query != lastQuery {
			if !first {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "%s:\n", c.Query)
			lastQuery = c.Query
			first = false
		}
		fmt.Fprintf(w, "  %-40s %-9s %-6s score=%.4f count=%d\n",
			c.Tag, models.CategoryName(c.Category), c.Method, c.Score, c.Count)
	}
}
