// Package keyword provides lexical (keyword) indexing and search over chunks.
package keyword

import (
	"context"

	"github.com/hyperjump/tamesu/internal/models"
)

// KeywordIndex defines lexical search operations over document chunks.
// It is the retrieval fallback when no embedding provider is available.
type KeywordIndex interface {
	Index(ctx context.Context, chunk *models.DocumentChunk) error
	IndexBatch(ctx context.Context, chunks []*models.DocumentChunk) error
	Search(ctx context.Context, query string, limit int) ([]*KeywordResult, error)
	Delete(ctx context.Context, id string) error
	// DocCount returns the total number of chunks in the index.
	DocCount() (uint64, error)
	Close() error
}

// KeywordResult is a single lexical search hit. The ID is a chunk ID; content
// and metadata live in storage.
type KeywordResult struct {
	ID    string
	Score float64
}
