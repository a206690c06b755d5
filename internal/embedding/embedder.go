// Package embedding provides text embedding for tag and query strings via
// ONNX, with caching. The embedder is an expensive resource: it is
// constructed once at startup and shared by handle across dataset reloads.
package embedding

import "context"

// Embedder produces unit-normalized vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
