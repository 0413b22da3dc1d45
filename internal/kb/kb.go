// Package kb provides the retrieval facade over the vector and lexical indices.
package kb

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/tamesu/internal/keyword"
	"github.com/hyperjump/tamesu/internal/models"
	"github.com/hyperjump/tamesu/internal/storage"
	"github.com/hyperjump/tamesu/internal/vector"
)

// KnowledgeBase answers retrieval queries against the indexed corpus. Query
// uses the vector index; LexicalQuery is the fallback when no embedding
// provider is available.
type KnowledgeBase struct {
	storage      storage.Storage
	vectorIndex  vector.VectorIndex
	keywordIndex keyword.KeywordIndex
	topK         int
	logger       *zap.Logger
}

// NewKnowledgeBase creates the retrieval facade. topK is the result count
// used when a query does not specify one.
func NewKnowledgeBase(
	store storage.Storage,
	vectorIndex vector.VectorIndex,
	keywordIndex keyword.KeywordIndex,
	topK int,
	logger *zap.Logger,
) *KnowledgeBase {
	if topK <= 0 {
		topK = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KnowledgeBase{
		storage:      store,
		vectorIndex:  vectorIndex,
		keywordIndex: keywordIndex,
		topK:         topK,
		logger:       logger,
	}
}

// Query runs similarity retrieval and normalizes the backend response into
// hits. Backend and embedding failures are returned to the caller, which may
// fall back to LexicalQuery.
func (k *KnowledgeBase) Query(ctx context.Context, query string, nResults int) ([]models.Hit, error) {
	if nResults <= 0 {
		nResults = k.topK
	}
	raw, err := k.vectorIndex.Query(ctx, query, nResults)
	if err != nil {
		return nil, fmt.Errorf("similarity retrieval: %w", err)
	}
	return NormalizeHits(raw), nil
}

// LexicalQuery retrieves chunks by keyword match. Hits carry no distance;
// chunk content and metadata are read back from storage by ID.
func (k *KnowledgeBase) LexicalQuery(ctx context.Context, query string, nResults int) ([]models.Hit, error) {
	if nResults <= 0 {
		nResults = k.topK
	}
	results, err := k.keywordIndex.Search(ctx, query, nResults)
	if err != nil {
		return nil, fmt.Errorf("lexical retrieval: %w", err)
	}
	hits := make([]models.Hit, 0, len(results))
	for _, r := range results {
		chunk, err := k.storage.GetChunk(ctx, r.ID)
		if err != nil {
			k.logger.Debug("lexical hit without stored chunk", zap.String("id", r.ID))
			continue
		}
		hits = append(hits, models.Hit{
			Document: chunk.Content,
			Metadata: chunk.Metadata(),
		})
	}
	return hits, nil
}
