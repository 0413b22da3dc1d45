// Package indexer provides document indexing into storage, lexical, and vector indices.
package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/tamesu/internal/config"
	"github.com/hyperjump/tamesu/internal/extract"
	"github.com/hyperjump/tamesu/internal/fileid"
	"github.com/hyperjump/tamesu/internal/keyword"
	"github.com/hyperjump/tamesu/internal/models"
	"github.com/hyperjump/tamesu/internal/storage"
	"github.com/hyperjump/tamesu/internal/vector"
)

// Indexer indexes documents into storage, the lexical index, and the vector index.
type Indexer struct {
	storage      storage.Storage
	vectorIndex  vector.VectorIndex
	keywordIndex keyword.KeywordIndex
	chunker      *Chunker
	extractor    *extract.Extractor
	logger       *zap.Logger // optional; when set, logs debug events
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output (file indexed, document deleted, etc.).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// NewIndexer creates an indexer with the given dependencies.
// extractor may be nil; when nil, IndexFile treats all files as plain text.
// Returns an error when the chunking parameters are invalid.
func NewIndexer(
	storage storage.Storage,
	vectorIndex vector.VectorIndex,
	keywordIndex keyword.KeywordIndex,
	cfg *config.RetrievalConfig,
	extractor *extract.Extractor,
	opts ...IndexerOption,
) (*Indexer, error) {
	chunker, err := NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	idx := &Indexer{
		storage:      storage,
		vectorIndex:  vectorIndex,
		keywordIndex: keywordIndex,
		chunker:      chunker,
		extractor:    extractor,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx, nil
}

// IndexFile reads a file from path and indexes it. The document ID is derived from the
// absolute path so re-indexing updates the same document. If allowedExts is non-nil and
// non-empty, the file's extension must be in the list (case-insensitive). Returns an error
// if the path is not a regular file, cannot be read, or indexing fails.
// Skips indexing if the file is already indexed with the same mtime and size (incremental sync).
func (idx *Indexer) IndexFile(ctx context.Context, path string, allowedExts []string) error {
	if idx.logger != nil {
		idx.logger.Debug("indexer indexing file", zap.String("path", path))
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", absPath)
	}
	docID := fileid.FileDocID(absPath)
	if idx.shouldSkipFile(ctx, absPath, docID, info) {
		// Ensure the chunks are in the lexical index (repopulates if Bleve was opened empty).
		if chunks, getErr := idx.storage.GetChunksByDocumentID(ctx, docID); getErr == nil && len(chunks) > 0 {
			_ = idx.keywordIndex.IndexBatch(ctx, chunks)
		}
		if idx.logger != nil {
			idx.logger.Debug("indexer skipping unchanged file", zap.String("path", absPath))
		}
		return nil
	}
	text, err := idx.extractContent(absPath)
	if err != nil {
		return fmt.Errorf("extract content: %w", err)
	}

	source := filepath.Base(absPath)
	chunks := idx.chunker.Chunk(docID, source, text)

	// Chunk IDs are deterministic per source, so a shrunk file leaves stale
	// trailing IDs in the lexical index unless they are removed first.
	oldChunks, err := idx.storage.GetChunksByDocumentID(ctx, docID)
	if err != nil {
		return fmt.Errorf("failed to get existing chunks: %w", err)
	}
	if len(oldChunks) > len(chunks) {
		for _, old := range oldChunks[len(chunks):] {
			if delErr := idx.keywordIndex.Delete(ctx, old.ID); delErr != nil {
				return fmt.Errorf("failed to delete stale chunk %s: %w", old.ID, delErr)
			}
		}
	}

	if err := idx.storage.ReplaceChunks(ctx, docID, chunks); err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}
	if len(chunks) > 0 {
		if err := idx.keywordIndex.IndexBatch(ctx, chunks); err != nil {
			return fmt.Errorf("failed to index keywords: %w", err)
		}
		chunkIDs := make([]string, len(chunks))
		texts := make([]string, len(chunks))
		metadatas := make([]map[string]interface{}, len(chunks))
		for i, ch := range chunks {
			chunkIDs[i] = ch.ID
			texts[i] = ch.Content
			metadatas[i] = ch.Metadata()
		}
		if err := idx.vectorIndex.Upsert(ctx, chunkIDs, texts, metadatas); err != nil {
			return fmt.Errorf("failed to index vectors: %w", err)
		}
	}

	// The document row carries the mtime and size used by the skip check, so
	// it is written only after the rest of the pipeline succeeded.
	doc := &models.Document{
		ID:      docID,
		Name:    source,
		Path:    absPath,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
	if err := idx.storage.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	if idx.logger != nil {
		idx.logger.Debug("indexer file indexed",
			zap.String("path", absPath),
			zap.String("doc_id", docID),
			zap.Int("chunks", len(chunks)))
	}
	return nil
}

// shouldSkipFile returns true if the file is already indexed with the same mtime and size.
func (idx *Indexer) shouldSkipFile(ctx context.Context, absPath, docID string, info os.FileInfo) bool {
	doc, err := idx.storage.GetDocument(ctx, docID)
	if err != nil {
		return false
	}
	if doc.Path != absPath {
		return false
	}
	return doc.ModTime.UnixNano() == info.ModTime().UnixNano() && doc.Size == info.Size()
}

// IndexDirectory walks dir recursively and indexes each regular file whose extension
// is in allowedExts (if non-nil and non-empty; otherwise all files). Returns the number
// of files indexed and the first error encountered, if any. The vector index is
// flushed after the walk.
func (idx *Indexer) IndexDirectory(ctx context.Context, dir string, allowedExts []string) (n int, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
			return nil
		}
		// Resolve symlinks so we only index regular files
		finfo, statErr := os.Stat(path)
		if statErr != nil {
			return nil
		}
		if !finfo.Mode().IsRegular() {
			return nil
		}
		if indexErr := idx.IndexFile(ctx, path, allowedExts); indexErr != nil {
			return indexErr
		}
		n++
		return nil
	})
	if ferr := idx.vectorIndex.Flush(); ferr != nil && idx.logger != nil {
		idx.logger.Warn("failed to flush vector index", zap.Error(ferr))
	}
	return n, err
}

func (idx *Indexer) extractContent(path string) (string, error) {
	if idx.extractor != nil {
		return idx.extractor.Extract(path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}

// DeleteDocument removes a document and its chunks from storage and the
// lexical index. Vector entries are upsert-only and are superseded on the
// next index pass.
func (idx *Indexer) DeleteDocument(ctx context.Context, id string) error {
	if idx.logger != nil {
		idx.logger.Debug("indexer deleting document", zap.String("id", id))
	}
	chunks, err := idx.storage.GetChunksByDocumentID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get chunks: %w", err)
	}
	for _, ch := range chunks {
		if err := idx.keywordIndex.Delete(ctx, ch.ID); err != nil {
			return fmt.Errorf("failed to delete from keyword index: %w", err)
		}
	}
	if err := idx.storage.DeleteChunksByDocumentID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	if err := idx.storage.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if idx.logger != nil {
		idx.logger.Debug("indexer document deleted", zap.String("id", id))
	}
	return nil
}
