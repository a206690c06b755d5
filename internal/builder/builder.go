// Package builder produces the semantic index artifact from a tag catalog.
// It is an offline step: embedding a large catalog takes minutes, so the
// server only ever loads the finished artifact.
package builder

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/fuda/internal/embedding"
	"github.com/hyperjump/fuda/internal/models"
	"github.com/hyperjump/fuda/internal/semantic"
	"github.com/hyperjump/fuda/internal/vocab"
	"github.com/hyperjump/fuda/pkg/utils"
)

// Count floors for the categories that are only worth embedding above a
// certain usage. General tags are always embedded, artist tags never are;
// a free-form description does not name artists.
const (
	copyrightCountFloor = 100
	characterCountFloor = 100
	metaCountFloor      = 1000
	maxEmbeddedAliases  = 5
	embedBatchSize      = 256
)

// Builder embeds catalog entries and writes the index artifact.
type Builder struct {
	embedder embedding.Embedder
	logger   *zap.Logger
}

// NewBuilder creates a builder using the given embedder.
func NewBuilder(embedder embedding.Embedder, logger *zap.Logger) *Builder {
	return &Builder{embedder: embedder, logger: logger}
}

// Build embeds the embeddable subset of entries and writes the artifact to
// path. Returns the built index so callers can swap it in without a reload
// from disk.
func (b *Builder) Build(ctx context.Context, entries []models.TagEntry, path string) (*semantic.Index, error) {
	if b.embedder == nil {
		return nil, fmt.Errorf("no embedder configured")
	}

	selected := make([]models.TagEntry, 0, len(entries))
	for _, e := range entries {
		if Embeddable(e) {
			selected = append(selected, e)
		}
	}
	b.logger.Info("Building semantic index",
		zap.Int("catalog_size", len(entries)),
		zap.Int("embeddable", len(selected)))

	indexed := make([]semantic.Entry, 0, len(selected))
	for start := 0; start < len(selected); start += embedBatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + embedBatchSize
		if end > len(selected) {
			end = len(selected)
		}
		batch := selected[start:end]

		texts := make([]string, len(batch))
		for i, e := range batch {
			texts[i] = EmbeddingText(e)
		}
		vectors, err := b.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed batch at %d: %w", start, err)
		}
		// Index keys use the same normalized spelling as the vocabulary
		// store, so search hits land on the canonical tag.
		for i, e := range batch {
			indexed = append(indexed, semantic.Entry{
				Tag:      vocab.Normalize(e.Name),
				Category: e.Category,
				Count:    e.Count,
				Vector:   vectors[i],
			})
		}
		b.logger.Debug("Embedded batch", zap.Int("done", end), zap.Int("total", len(selected)))
	}

	index, err := semantic.NewIndex(b.embedder.Dimensions(), indexed)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := index.Save(path); err != nil {
			return nil, err
		}
		b.logger.Info("Semantic index written", zap.String("path", path), zap.Int("entries", index.Size()))
	}
	return index, nil
}

// Embeddable reports whether an entry belongs in the semantic index.
func Embeddable(e models.TagEntry) bool {
	switch e.Category {
	case models.CategoryGeneral:
		return true
	case models.CategoryCopyright:
		return e.Count >= copyrightCountFloor
	case models.CategoryCharacter:
		return e.Count >= characterCountFloor
	case models.CategoryMeta:
		return e.Count >= metaCountFloor
	default:
		return false
	}
}

// EmbeddingText renders an entry as the text to embed: the name with spaces
// instead of underscores, plus a few ASCII aliases for extra surface. Aliases
// in other scripts are skipped; the embedding model is English-only.
func EmbeddingText(e models.TagEntry) string {
	var sb strings.Builder
	sb.WriteString(strings.ReplaceAll(e.Name, "_", " "))
	added := 0
	for _, alias := range e.Aliases {
		if added >= maxEmbeddedAliases {
			break
		}
		if alias == "" || !utils.IsASCII(alias) {
			continue
		}
		sb.WriteString(", ")
		sb.WriteString(strings.ReplaceAll(alias, "_", " "))
		added++
	}
	return sb.String()
}
