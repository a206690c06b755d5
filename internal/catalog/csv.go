package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hyperjump/fuda/internal/models"
)

// loadCSV reads the upstream CSV export. Expected header columns: tag,
// category, count, alias. The alias column holds comma-separated strings.
func loadCSV(path string) ([]models.TagEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("catalog %s: empty file", path)
	}

	cols := map[string]int{}
	for i, name := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"tag", "category", "count"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("catalog %s: missing column %q", path, required)
		}
	}
	aliasCol, hasAlias := cols["alias"]

	entries := make([]models.TagEntry, 0, len(records)-1)
	for line, rec := range records[1:] {
		get := func(col int) string {
			if col < len(rec) {
				return strings.TrimSpace(rec[col])
			}
			return ""
		}
		name := get(cols["tag"])
		if name == "" {
			return nil, fmt.Errorf("catalog %s line %d: empty tag name", path, line+2)
		}
		category, err := strconv.Atoi(get(cols["category"]))
		if err != nil {
			return nil, fmt.Errorf("catalog %s line %d: bad category: %w", path, line+2, err)
		}
		count, err := strconv.Atoi(get(cols["count"]))
		if err != nil {
			return nil, fmt.Errorf("catalog %s line %d: bad count: %w", path, line+2, err)
		}
		if count < 0 {
			return nil, fmt.Errorf("catalog %s line %d: negative count %d", path, line+2, count)
		}
		var aliases []string
		if hasAlias {
			for _, a := range strings.Split(get(aliasCol), ",") {
				if a = strings.TrimSpace(a); a != "" {
					aliases = append(aliases, a)
				}
			}
		}
		entries = append(entries, models.TagEntry{
			Name:     name,
			Category: category,
			Count:    count,
			Aliases:  aliases,
		})
	}
	return entries, nil
}
