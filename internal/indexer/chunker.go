// Package indexer provides document chunking and indexing.
package indexer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/tamesu/internal/models"
)

// ErrInvalidConfiguration is returned when chunking parameters cannot make
// forward progress through a document.
var ErrInvalidConfiguration = errors.New("invalid indexing configuration")

// Chunker splits text into overlapping word-based chunks.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap (in words).
// The overlap must be smaller than the size so each window advances.
func NewChunker(chunkSize, chunkOverlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", ErrInvalidConfiguration, chunkSize)
	}
	if chunkOverlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap %d must not be negative", ErrInvalidConfiguration, chunkOverlap)
	}
	if chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d", ErrInvalidConfiguration, chunkOverlap, chunkSize)
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}, nil
}

// Chunk splits text into DocumentChunks with overlapping windows. Chunk IDs
// are deterministic ("<source>_<index>") so re-indexing a file overwrites its
// previous chunks instead of accumulating duplicates.
func (c *Chunker) Chunk(docID, source, text string) []*models.DocumentChunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	chunks := make([]*models.DocumentChunk, 0)
	chunkIndex := 0
	step := c.chunkSize - c.chunkOverlap
	for i := 0; i < len(words); i += step {
		end := i + c.chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunkWords := words[i:end]
		chunkText := strings.Join(chunkWords, " ")
		chunk := &models.DocumentChunk{
			ID:         models.ChunkID(source, chunkIndex),
			DocumentID: docID,
			Content:    chunkText,
			ChunkIndex: chunkIndex,
			Source:     source,
		}
		chunks = append(chunks, chunk)
		chunkIndex++
		if end >= len(words) {
			break
		}
	}
	return chunks
}
