// Package catalog loads tag catalogs from disk. A catalog is loaded whole;
// there is no incremental append. Supported formats are JSON (the merged
// catalog produced by the embedding build), CSV (the raw upstream export),
// and SQLite (a tags table).
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/fuda/internal/models"
)

// ErrNotFound is returned when the catalog file does not exist.
var ErrNotFound = errors.New("catalog not found")

// Load reads a whole catalog from path, dispatching on the file extension:
// .json, .csv, or .db/.sqlite/.sqlite3. Any malformed or missing input
// fails the load; a partial catalog is never returned.
func Load(path string) ([]models.TagEntry, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat catalog: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loadJSON(path)
	case ".csv":
		return loadCSV(path)
	case ".db", ".sqlite", ".sqlite3":
		return loadSQLite(path)
	default:
		return nil, fmt.Errorf("unsupported catalog format: %s", filepath.Ext(path))
	}
}

// loadJSON reads a JSON array of tag records: {tag, category, count, aliases}.
func loadJSON(path string) ([]models.TagEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var entries []models.TagEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if err := validate(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func validate(entries []models.TagEntry) error {
	for i, e := range entries {
		if strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("catalog entry %d: empty tag name", i)
		}
		if e.Count < 0 {
			return fmt.Errorf("catalog entry %d (%s): negative count %d", i, e.Name, e.Count)
		}
	}
	return nil
}
