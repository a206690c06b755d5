// Package semantic provides nearest-neighbor search over prebuilt tag
// embeddings. The index artifact is produced offline (see internal/builder)
// and loaded read-only; each entry carries the tag's category and usage
// count so lookups never touch the vocabulary store.
package semantic

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/hyperjump/fuda/pkg/utils"
)

// Artifact header: magic + format version. Bump the version on any layout change.
const (
	indexMagic   = 0x46554441 // "FUDA"
	indexVersion = 1
)

// Entry is one embedded tag with its duplicated catalog metadata.
type Entry struct {
	Tag      string
	Category int
	Count    int
	Vector   []float32
}

// Index is an immutable vector index over embedded tags. Search is
// brute-force squared-L2 over unit vectors, same convention as the offline
// build. Safe for concurrent use without locking.
type Index struct {
	dimensions int
	entries    []Entry
}

// NewIndex creates an index over the given entries. Vectors must all have
// the given dimension.
func NewIndex(dimensions int, entries []Entry) (*Index, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	for i := range entries {
		if len(entries[i].Vector) != dimensions {
			return nil, fmt.Errorf("entry %s: vector dimension %d, expected %d",
				entries[i].Tag, len(entries[i].Vector), dimensions)
		}
	}
	return &Index{dimensions: dimensions, entries: entries}, nil
}

// Hit is a single nearest-neighbor result. Distance is squared L2; for unit
// vectors it equals 2*(1 - cosine similarity).
type Hit struct {
	Tag      string
	Category int
	Count    int
	Distance float64
}

// Search returns the k nearest entries to the query vector, closest first.
// Ties keep index order so repeated searches are deterministic.
func (idx *Index) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != idx.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), idx.dimensions)
	}
	if k <= 0 || len(idx.entries) == 0 {
		return nil, nil
	}
	hits := make([]Hit, len(idx.entries))
	for i := range idx.entries {
		e := &idx.entries[i]
		hits[i] = Hit{
			Tag:      e.Tag,
			Category: e.Category,
			Count:    e.Count,
			Distance: utils.SquaredL2Distance(query, e.Vector),
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Size returns the number of embedded tags.
func (idx *Index) Size() int {
	return len(idx.entries)
}

// Dimensions returns the vector dimension.
func (idx *Index) Dimensions() int {
	return idx.dimensions
}

// Save writes the index artifact to path. Directory is created if needed.
// Format: magic (4), version (4), dimensions (4), n (4), then per entry:
// tagLen (4), tag bytes, category (4), count (8), vector (dimensions*4).
// All little-endian.
func (idx *Index) Save(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()

	header := []uint32{indexMagic, indexVersion, uint32(idx.dimensions), uint32(len(idx.entries))}
	for _, v := range header {
		if err := binary.Write(f, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("write index header: %w", err)
		}
	}
	for i := range idx.entries {
		e := &idx.entries[i]
		tag := []byte(e.Tag)
		if err := binary.Write(f, binary.LittleEndian, uint32(len(tag))); err != nil {
			return fmt.Errorf("write tag len: %w", err)
		}
		if _, err := f.Write(tag); err != nil {
			return fmt.Errorf("write tag: %w", err)
		}
		if err := binary.Write(f, binary.LittleEndian, int32(e.Category)); err != nil {
			return fmt.Errorf("write category: %w", err)
		}
		if err := binary.Write(f, binary.LittleEndian, int64(e.Count)); err != nil {
			return fmt.Errorf("write count: %w", err)
		}
		if err := binary.Write(f, binary.LittleEndian, e.Vector); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// LoadIndex reads an index artifact from path. The whole artifact is read
// before the index becomes visible; a malformed file never yields a partial index.
func LoadIndex(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	var header [4]uint32
	for i := range header {
		if err := binary.Read(f, binary.LittleEndian, &header[i]); err != nil {
			return nil, fmt.Errorf("read index header: %w", err)
		}
	}
	if header[0] != indexMagic {
		return nil, fmt.Errorf("not an index file: %s", path)
	}
	if header[1] != indexVersion {
		return nil, fmt.Errorf("unsupported index version %d (expected %d)", header[1], indexVersion)
	}
	dimensions := int(header[2])
	n := int(header[3])
	if dimensions <= 0 {
		return nil, fmt.Errorf("index %s: bad dimensions %d", path, dimensions)
	}

	// The header counts are untrusted input; bound them by the file size
	// before allocating, so a corrupt artifact fails instead of ballooning.
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat index file: %w", err)
	}
	payload := info.Size() - 16
	minEntrySize := int64(4 + 4 + 8 + dimensions*4)
	if int64(n)*minEntrySize > payload {
		return nil, fmt.Errorf("index %s: header claims %d entries but file has %d payload bytes",
			path, n, payload)
	}

	entries := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		var tagLen uint32
		if err := binary.Read(f, binary.LittleEndian, &tagLen); err != nil {
			return nil, fmt.Errorf("read tag len: %w", err)
		}
		if int64(tagLen) > payload {
			return nil, fmt.Errorf("index %s: tag length %d exceeds file size", path, tagLen)
		}
		tag := make([]byte, tagLen)
		if _, err := io.ReadFull(f, tag); err != nil {
			return nil, fmt.Errorf("read tag: %w", err)
		}
		var category int32
		if err := binary.Read(f, binary.LittleEndian, &category); err != nil {
			return nil, fmt.Errorf("read category: %w", err)
		}
		var count int64
		if err := binary.Read(f, binary.LittleEndian, &count); err != nil {
			return nil, fmt.Errorf("read count: %w", err)
		}
		vector := make([]float32, dimensions)
		if err := binary.Read(f, binary.LittleEndian, vector); err != nil {
			return nil, fmt.Errorf("read vector: %w", err)
		}
		entries = append(entries, Entry{
			Tag:      string(tag),
			Category: int(category),
			Count:    int(count),
			Vector:   vector,
		})
	}
	return &Index{dimensions: dimensions, entries: entries}, nil
}
