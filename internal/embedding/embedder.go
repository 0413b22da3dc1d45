// Package embedding provides text embedding via remote APIs and ONNX, with caching.
package embedding

import (
	"context"
	"errors"
)

// ErrEmbeddingUnavailable reports that no embedding provider is active.
// Similarity retrieval cannot work; lexical retrieval and raw storage still do.
var ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

// ErrProviderMismatch reports inconsistent embedding dimensions, either within
// one provider's responses or between stored vectors and the current provider.
var ErrProviderMismatch = errors.New("embedding provider mismatch")

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
