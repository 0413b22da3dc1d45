package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/tamesu/internal/config"
	"github.com/hyperjump/tamesu/internal/embedding"
	"github.com/hyperjump/tamesu/internal/extract"
	"github.com/hyperjump/tamesu/internal/fileid"
	"github.com/hyperjump/tamesu/internal/keyword"
	"github.com/hyperjump/tamesu/internal/storage"
	"github.com/hyperjump/tamesu/internal/vector"
)

func TestExtensionAllowed(t *testing.T) {
	tests := []struct {
		ext     string
		allowed []string
		want    bool
	}{
		{".txt", []string{".txt", ".md"}, true},
		{".TXT", []string{".txt"}, true},
		{".md", []string{".txt", ".md"}, true},
		{".go", []string{".txt"}, false},
		{"", []string{".txt"}, false},
		{".html", []string{".txt", ".md", ".html"}, true},
	}
	for _, tt := range tests {
		got := extensionAllowed(tt.ext, tt.allowed)
		if got != tt.want {
			t.Errorf("extensionAllowed(%q, %v) = %v, want %v", tt.ext, tt.allowed, got, tt.want)
		}
	}
}

type testEnv struct {
	idx   *Indexer
	store storage.Storage
	vec   vector.VectorIndex
	kw    keyword.KeywordIndex
}

func newTestEnv(t *testing.T, dir string, extractor *extract.Extractor) *testEnv {
	t.Helper()
	cfg := &config.RetrievalConfig{ChunkSize: 10, ChunkOverlap: 2, TopK: 5}
	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	embedder := embedding.NewMockEmbedder(4)
	t.Cleanup(func() { _ = embedder.Close() })
	vecIndex, err := vector.NewLocalIndex(embedder, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = vecIndex.Close() })
	kwIndex, err := keyword.NewBleveIndex(filepath.Join(dir, "bleve"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = kwIndex.Close() })
	idx, err := NewIndexer(store, vecIndex, kwIndex, cfg, extractor)
	if err != nil {
		t.Fatal(err)
	}
	return &testEnv{idx: idx, store: store, vec: vecIndex, kw: kwIndex}
}

func mustAbs(path string) string {
	a, err := filepath.Abs(path)
	if err != nil {
		panic(err)
	}
	return a
}

func TestNewIndexer_InvalidChunking(t *testing.T) {
	cfg := &config.RetrievalConfig{ChunkSize: 100, ChunkOverlap: 100}
	_, err := NewIndexer(nil, nil, nil, cfg, nil)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestIndexFile_createAndUpdate(t *testing.T) {
	dir := t.TempDir()
	env := newTestEnv(t, dir, nil)
	ctx := context.Background()

	fPath := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(fPath, []byte("Hello world content."), 0600); err != nil {
		t.Fatal(err)
	}
	if err := env.idx.IndexFile(ctx, fPath, []string{".txt", ".md"}); err != nil {
		t.Fatal(err)
	}
	docID := fileid.FileDocID(mustAbs(fPath))
	doc, err := env.store.GetDocument(ctx, docID)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Name != "doc.txt" || doc.Path != mustAbs(fPath) {
		t.Errorf("unexpected doc: name=%q path=%q", doc.Name, doc.Path)
	}
	chunks, err := env.store.GetChunksByDocumentID(ctx, docID)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].ID != "doc.txt_0" || chunks[0].Content != "Hello world content." {
		t.Errorf("chunk: id=%q content=%q", chunks[0].ID, chunks[0].Content)
	}
	if env.vec.Count() != 1 {
		t.Errorf("vector count = %d, want 1", env.vec.Count())
	}

	if err := os.WriteFile(fPath, []byte("Updated content."), 0600); err != nil {
		t.Fatal(err)
	}
	if err := env.idx.IndexFile(ctx, fPath, []string{".txt"}); err != nil {
		t.Fatal(err)
	}
	chunks2, err := env.store.GetChunksByDocumentID(ctx, docID)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks2) != 1 || chunks2[0].Content != "Updated content." {
		t.Errorf("after update: %+v", chunks2)
	}
	// Deterministic chunk IDs mean the vector entry is overwritten, not duplicated.
	if env.vec.Count() != 1 {
		t.Errorf("vector count after update = %d, want 1", env.vec.Count())
	}
}

func TestIndexFile_skipUnchanged(t *testing.T) {
	dir := t.TempDir()
	env := newTestEnv(t, dir, nil)
	ctx := context.Background()

	fPath := filepath.Join(dir, "stable.txt")
	if err := os.WriteFile(fPath, []byte("never changes"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := env.idx.IndexFile(ctx, fPath, nil); err != nil {
		t.Fatal(err)
	}
	docID := fileid.FileDocID(mustAbs(fPath))
	before, err := env.store.GetDocument(ctx, docID)
	if err != nil {
		t.Fatal(err)
	}

	if err := env.idx.IndexFile(ctx, fPath, nil); err != nil {
		t.Fatal(err)
	}
	after, err := env.store.GetDocument(ctx, docID)
	if err != nil {
		t.Fatal(err)
	}
	if !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Error("unchanged file should be skipped, but document row was rewritten")
	}
	// The skip path still repopulates the lexical index.
	results, err := env.kw.Search(ctx, "changes", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Error("chunk should remain searchable after skip")
	}
}

func TestIndexFile_shrunkFileRemovesStaleChunks(t *testing.T) {
	dir := t.TempDir()
	env := newTestEnv(t, dir, nil)
	ctx := context.Background()

	long := ""
	for i := 0; i < 30; i++ {
		if i > 0 {
			long += " "
		}
		long += "alpha" + string(rune('a'+i%26)) + "word"
	}
	long += " zebratail"
	fPath := filepath.Join(dir, "shrink.txt")
	if err := os.WriteFile(fPath, []byte(long), 0600); err != nil {
		t.Fatal(err)
	}
	if err := env.idx.IndexFile(ctx, fPath, nil); err != nil {
		t.Fatal(err)
	}
	docID := fileid.FileDocID(mustAbs(fPath))
	chunks, _ := env.store.GetChunksByDocumentID(ctx, docID)
	if len(chunks) < 2 {
		t.Fatalf("setup: expected multiple chunks, got %d", len(chunks))
	}

	if err := os.WriteFile(fPath, []byte("tiny now"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := env.idx.IndexFile(ctx, fPath, nil); err != nil {
		t.Fatal(err)
	}
	chunks2, _ := env.store.GetChunksByDocumentID(ctx, docID)
	if len(chunks2) != 1 {
		t.Errorf("expected 1 chunk after shrink, got %d", len(chunks2))
	}
	results, err := env.kw.Search(ctx, "zebratail", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("stale chunk still searchable after shrink: %v", results)
	}
}

func TestIndexFile_extensionFiltered(t *testing.T) {
	dir := t.TempDir()
	env := newTestEnv(t, dir, nil)
	ctx := context.Background()

	fPath := filepath.Join(dir, "script.sh")
	if err := os.WriteFile(fPath, []byte("#!/bin/bash"), 0600); err != nil {
		t.Fatal(err)
	}
	err := env.idx.IndexFile(ctx, fPath, []string{".txt", ".md"})
	if err == nil {
		t.Error("expected error for disallowed extension")
	}
}

func TestIndexFile_deleteByPath(t *testing.T) {
	dir := t.TempDir()
	env := newTestEnv(t, dir, nil)
	ctx := context.Background()

	fPath := filepath.Join(dir, "note.md")
	if err := os.WriteFile(fPath, []byte("Note content."), 0600); err != nil {
		t.Fatal(err)
	}
	if err := env.idx.IndexFile(ctx, fPath, nil); err != nil {
		t.Fatal(err)
	}
	docID := fileid.FileDocID(mustAbs(fPath))
	if _, err := env.store.GetDocument(ctx, docID); err != nil {
		t.Fatal(err)
	}
	if err := env.idx.DeleteDocument(ctx, docID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.store.GetDocument(ctx, docID); err == nil {
		t.Error("document should be deleted")
	}
	chunks, _ := env.store.GetChunksByDocumentID(ctx, docID)
	if len(chunks) != 0 {
		t.Errorf("chunks should be deleted, got %d", len(chunks))
	}
	results, err := env.kw.Search(ctx, "note", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("lexical entries should be deleted, got %v", results)
	}
}

func TestIndexFile_notRegularFile(t *testing.T) {
	dir := t.TempDir()
	env := newTestEnv(t, dir, nil)
	ctx := context.Background()

	err := env.idx.IndexFile(ctx, dir, []string{".txt"})
	if err == nil {
		t.Error("expected error for directory")
	}
}

func TestIndexFile_nonexistent(t *testing.T) {
	dir := t.TempDir()
	env := newTestEnv(t, dir, nil)
	ctx := context.Background()

	err := env.idx.IndexFile(ctx, filepath.Join(dir, "missing.txt"), nil)
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestIndexFile_excelWithExtractor(t *testing.T) {
	dir := t.TempDir()
	env := newTestEnv(t, dir, extract.NewExtractor())

	fPath := filepath.Join(dir, "data.xlsx")
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "Excel searchable content")
	if err := f.SaveAs(fPath); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()

	ctx := context.Background()
	if err := env.idx.IndexFile(ctx, fPath, []string{".xlsx", ".txt"}); err != nil {
		t.Fatalf("IndexFile: %v", err)
	}
	docID := fileid.FileDocID(mustAbs(fPath))
	chunks, err := env.store.GetChunksByDocumentID(ctx, docID)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 || chunks[0].Content != "Excel searchable content" {
		t.Errorf("unexpected chunks: %+v", chunks)
	}
}

func TestIndexDirectory(t *testing.T) {
	dir := t.TempDir()
	env := newTestEnv(t, dir, nil)
	ctx := context.Background()

	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("file a"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.txt"), []byte("file b"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "c.txt"), []byte("file c"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "skip.xyz"), []byte("skip"), 0600); err != nil {
		t.Fatal(err)
	}

	n, err := env.idx.IndexDirectory(ctx, dir, []string{".txt"})
	if err != nil {
		t.Fatalf("IndexDirectory: %v", err)
	}
	if n != 3 {
		t.Errorf("IndexDirectory: indexed %d files, want 3", n)
	}
	if env.vec.Count() != 3 {
		t.Errorf("vector count = %d, want 3", env.vec.Count())
	}
}
