package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/tamesu/internal/models"
)

func TestSQLiteStorage_Documents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	store, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	doc := &models.Document{
		ID:      "doc1",
		Name:    "product_specs.md",
		Path:    "/kb/product_specs.md",
		Size:    1024,
		ModTime: time.Now().Truncate(time.Second),
	}
	if err := store.SaveDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	if doc.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	got, err := store.GetDocument(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "product_specs.md" || got.Size != 1024 {
		t.Errorf("got %+v", got)
	}

	doc.Size = 2048
	created := doc.CreatedAt
	if err := store.SaveDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetDocument(ctx, "doc1")
	if got.Size != 2048 {
		t.Errorf("expected size 2048 after re-save, got %d", got.Size)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("re-save should preserve CreatedAt: %v != %v", got.CreatedAt, created)
	}

	list, err := store.ListDocuments(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 doc, got %d", len(list))
	}

	if err := store.DeleteDocument(ctx, "doc1"); err != nil {
		t.Fatal(err)
	}
	_, err = store.GetDocument(ctx, "doc1")
	if err == nil {
		t.Error("expected error after delete")
	}
}

func TestSQLiteStorage_Chunks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.db")
	store, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	doc := &models.Document{ID: "d1", Name: "guide.txt", Path: "/kb/guide.txt"}
	_ = store.SaveDocument(ctx, doc)

	chunks := []*models.DocumentChunk{
		{ID: "guide.txt_0", DocumentID: "d1", Content: "chunk1", ChunkIndex: 0, Source: "guide.txt"},
		{ID: "guide.txt_1", DocumentID: "d1", Content: "chunk2", ChunkIndex: 1, Source: "guide.txt"},
		{ID: "guide.txt_2", DocumentID: "d1", Content: "chunk3", ChunkIndex: 2, Source: "guide.txt"},
	}
	if err := store.ReplaceChunks(ctx, "d1", chunks); err != nil {
		t.Fatal(err)
	}

	list, err := store.GetChunksByDocumentID(ctx, "d1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Errorf("expected 3 chunks, got %d", len(list))
	}

	got, err := store.GetChunk(ctx, "guide.txt_1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != "chunk2" || got.Source != "guide.txt" {
		t.Errorf("got %+v", got)
	}

	// Re-indexing a shrunk file must not leave stale chunks behind.
	shorter := []*models.DocumentChunk{
		{ID: "guide.txt_0", DocumentID: "d1", Content: "only chunk", ChunkIndex: 0, Source: "guide.txt"},
	}
	if err := store.ReplaceChunks(ctx, "d1", shorter); err != nil {
		t.Fatal(err)
	}
	list, _ = store.GetChunksByDocumentID(ctx, "d1")
	if len(list) != 1 {
		t.Errorf("expected 1 chunk after replace, got %d", len(list))
	}
	if list[0].Content != "only chunk" {
		t.Errorf("got %s", list[0].Content)
	}

	if err := store.DeleteChunksByDocumentID(ctx, "d1"); err != nil {
		t.Fatal(err)
	}
	list, _ = store.GetChunksByDocumentID(ctx, "d1")
	if len(list) != 0 {
		t.Errorf("expected 0 chunks after delete, got %d", len(list))
	}
}

func TestSQLiteStorage_Counts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "count.db")
	store, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	n, err := store.CountDocuments(ctx)
	if err != nil || n != 0 {
		t.Errorf("CountDocuments: %v, %d", err, n)
	}
	_ = store.SaveDocument(ctx, &models.Document{ID: "x", Name: "x.md", Path: "/kb/x.md"})
	_ = store.ReplaceChunks(ctx, "x", []*models.DocumentChunk{
		{ID: "x.md_0", DocumentID: "x", Content: "c", ChunkIndex: 0, Source: "x.md"},
	})
	n, _ = store.CountDocuments(ctx)
	if n != 1 {
		t.Errorf("expected 1 document, got %d", n)
	}
	c, _ := store.CountChunks(ctx)
	if c != 1 {
		t.Errorf("expected 1 chunk, got %d", c)
	}
}
