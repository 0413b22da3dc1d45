// Package models defines core data structures for documents, chunks, retrieval hits, and test cases.
package models

import (
	"fmt"
	"time"
)

// Document represents a stored source document.
type Document struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Path      string    `json:"path" db:"path"`
	Size      int64     `json:"size" db:"size"`
	ModTime   time.Time `json:"mod_time" db:"mod_time"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DocumentChunk represents a chunk of a document, used for semantic indexing.
// Chunk IDs are unique within the index: "<source>_<index>".
type DocumentChunk struct {
	ID         string    `json:"id" db:"id"`
	DocumentID string    `json:"document_id" db:"document_id"`
	Content    string    `json:"content" db:"content"`
	ChunkIndex int       `json:"chunk_index" db:"chunk_index"`
	Source     string    `json:"source" db:"source"`
	Embedding  []float32 `json:"-" db:"-"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ChunkID builds the canonical chunk identifier from a source filename and a
// zero-based chunk index.
func ChunkID(source string, index int) string {
	return fmt.Sprintf("%s_%d", source, index)
}

// Metadata returns the metadata mapping stored alongside the chunk in the
// vector index.
func (c *DocumentChunk) Metadata() map[string]interface{} {
	return map[string]interface{}{
		"source":    c.Source,
		"chunk_idx": c.ChunkIndex,
	}
}
