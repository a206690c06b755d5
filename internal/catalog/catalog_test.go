package catalog

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tags.json")
	content := `[
		{"tag": "1girl", "category": 0, "count": 5000000, "aliases": ["1girls"]},
		{"tag": "hatsune_miku", "category": 4, "count": 900000}
	]`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	entries, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("loaded %d entries, want 2", len(entries))
	}
	if entries[0].Name != "1girl" || entries[0].Count != 5000000 {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if len(entries[0].Aliases) != 1 || entries[0].Aliases[0] != "1girls" {
		t.Errorf("entry 0 aliases = %v", entries[0].Aliases)
	}
}

func TestLoadJSON_malformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tags.json")
	if err := os.WriteFile(path, []byte(`{"not": "an array"`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestLoadJSON_negativeCount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tags.json")
	if err := os.WriteFile(path, []byte(`[{"tag": "x", "category": 0, "count": -1}]`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for negative count")
	}
}

func TestLoad_missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLoad_unsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tags.xml")
	if err := os.WriteFile(path, []byte("<tags/>"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tags.csv")
	content := "tag,category,count,alias\n" +
		"1girl,0,5000000,\"1girls,sole_female\"\n" +
		"long_hair,0,4000000,\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	entries, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("loaded %d entries, want 2", len(entries))
	}
	if len(entries[0].Aliases) != 2 {
		t.Errorf("entry 0 aliases = %v, want 2", entries[0].Aliases)
	}
	if entries[1].Aliases != nil {
		t.Errorf("entry 1 aliases = %v, want none", entries[1].Aliases)
	}
}

func TestLoadCSV_missingColumn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tags.csv")
	if err := os.WriteFile(path, []byte("tag,count\nx,1\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for missing category column")
	}
}

func TestLoadCSV_badCount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tags.csv")
	if err := os.WriteFile(path, []byte("tag,category,count\nx,0,many\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for non-numeric count")
	}
}

func TestLoadSQLite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tags.db")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`CREATE TABLE tags (tag TEXT, category INTEGER, count INTEGER, aliases TEXT)`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`INSERT INTO tags VALUES ('1girl', 0, 5000000, '["1girls"]'), ('vocaloid', 3, 800000, NULL)`); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	entries, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("loaded %d entries, want 2", len(entries))
	}
	if entries[0].Name != "1girl" || len(entries[0].Aliases) != 1 {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].Name != "vocaloid" || entries[1].Aliases != nil {
		t.Errorf("entry 1 = %+v", entries[1])
	}
}
