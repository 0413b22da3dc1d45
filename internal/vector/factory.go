package vector

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/tamesu/internal/embedding"
)

// IndexType represents the type of vector index to use.
type IndexType string

const (
	// IndexTypeLocal uses in-process brute-force search with snapshot
	// persistence. Good for small corpora (<10k chunks).
	IndexTypeLocal IndexType = "local"
	// IndexTypeChroma talks to a Chroma server over REST.
	IndexTypeChroma IndexType = "chroma"
)

// Config selects and configures the index backend.
type Config struct {
	Type         string
	URL          string
	Collection   string
	SnapshotPath string
	Timeout      time.Duration
}

// New creates a vector index of the configured type.
// Supported types: "local" (default), "chroma".
func New(cfg Config, embedder embedding.Embedder, logger *zap.Logger) (VectorIndex, error) {
	switch IndexType(cfg.Type) {
	case IndexTypeLocal, "":
		return NewLocalIndex(embedder, cfg.SnapshotPath, logger)
	case IndexTypeChroma:
		return NewChromaIndex(ChromaConfig{
			URL:        cfg.URL,
			Collection: cfg.Collection,
			Timeout:    cfg.Timeout,
		}, embedder, logger)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: local, chroma)", cfg.Type)
	}
}
