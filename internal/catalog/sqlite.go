package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/fuda/internal/models"
)

// loadSQLite reads a catalog from a SQLite database with a tags table:
// tag TEXT, category INTEGER, count INTEGER, aliases TEXT (JSON array,
// nullable). Rows are read in rowid order so insertion order is stable.
func loadSQLite(path string) ([]models.TagEntry, error) {
	db, err := sql.Open("sqlite3", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	defer db.Close()

	rows, err := db.Query("SELECT tag, category, count, aliases FROM tags ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("query catalog db %s: %w", path, err)
	}
	defer rows.Close()

	var entries []models.TagEntry
	for rows.Next() {
		var (
			entry   models.TagEntry
			aliases sql.NullString
		)
		if err := rows.Scan(&entry.Name, &entry.Category, &entry.Count, &aliases); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		if aliases.Valid && aliases.String != "" {
			if err := json.Unmarshal([]byte(aliases.String), &entry.Aliases); err != nil {
				return nil, fmt.Errorf("catalog %s tag %s: bad aliases: %w", path, entry.Name, err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read catalog db: %w", err)
	}
	if err := validate(entries); err != nil {
		return nil, err
	}
	return entries, nil
}
