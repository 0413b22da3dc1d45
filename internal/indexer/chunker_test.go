package indexer

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestChunker_Chunk(t *testing.T) {
	c, err := NewChunker(3, 1)
	if err != nil {
		t.Fatal(err)
	}
	chunks := c.Chunk("doc1", "notes.md", "one two three four five six seven")
	if len(chunks) < 2 {
		t.Errorf("expected at least 2 chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if ch.DocumentID != "doc1" {
			t.Errorf("chunk %d DocumentID=%s", i, ch.DocumentID)
		}
		if ch.Source != "notes.md" {
			t.Errorf("chunk %d Source=%s", i, ch.Source)
		}
		if ch.ChunkIndex != i {
			t.Errorf("chunk %d ChunkIndex=%d", i, ch.ChunkIndex)
		}
		want := fmt.Sprintf("notes.md_%d", i)
		if ch.ID != want {
			t.Errorf("chunk %d ID=%s, want %s", i, ch.ID, want)
		}
	}
}

func TestChunker_DefaultWindow(t *testing.T) {
	c, err := NewChunker(800, 100)
	if err != nil {
		t.Fatal(err)
	}
	words := make([]string, 1000)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	chunks := c.Chunk("d", "big.md", strings.Join(words, " "))
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks for 1000 words at 800/100, got %d", len(chunks))
	}
	if chunks[0].ID != "big.md_0" || chunks[1].ID != "big.md_1" {
		t.Errorf("IDs = %s, %s", chunks[0].ID, chunks[1].ID)
	}
	first := strings.Fields(chunks[0].Content)
	second := strings.Fields(chunks[1].Content)
	if len(first) != 800 {
		t.Errorf("first chunk has %d words, want 800", len(first))
	}
	if len(second) != 300 {
		t.Errorf("second chunk has %d words, want 300", len(second))
	}
	// The second window starts 100 words before the first ends.
	if second[0] != "w700" {
		t.Errorf("second chunk starts at %s, want w700", second[0])
	}
	if first[799] != "w799" || second[299] != "w999" {
		t.Errorf("window boundaries wrong: %s, %s", first[799], second[299])
	}
}

func TestChunker_OverlapReconstruction(t *testing.T) {
	c, err := NewChunker(4, 2)
	if err != nil {
		t.Fatal(err)
	}
	text := "a b c d e f g h i j"
	chunks := c.Chunk("d", "t.txt", text)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	// Dropping the leading overlap from every chunk after the first
	// reconstructs the original word sequence.
	words := strings.Fields(chunks[0].Content)
	for _, ch := range chunks[1:] {
		w := strings.Fields(ch.Content)
		if len(w) > 2 {
			w = w[2:]
		} else {
			w = nil
		}
		words = append(words, w...)
	}
	if got := strings.Join(words, " "); got != text {
		t.Errorf("reconstructed %q, want %q", got, text)
	}
}

func TestChunker_ChunkEmpty(t *testing.T) {
	c, err := NewChunker(5, 1)
	if err != nil {
		t.Fatal(err)
	}
	chunks := c.Chunk("d", "x.md", "   \n\t  ")
	if chunks != nil {
		t.Errorf("empty text should return nil, got %v", chunks)
	}
}

func TestChunker_ShortText(t *testing.T) {
	c, err := NewChunker(800, 100)
	if err != nil {
		t.Fatal(err)
	}
	chunks := c.Chunk("d", "tiny.md", "just a few words")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Content != "just a few words" {
		t.Errorf("content = %q", chunks[0].Content)
	}
	if chunks[0].ID != "tiny.md_0" {
		t.Errorf("ID = %s", chunks[0].ID)
	}
}

func TestNewChunker_InvalidConfiguration(t *testing.T) {
	cases := []struct {
		name          string
		size, overlap int
	}{
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
		{"zero size", 0, 0},
		{"negative overlap", 100, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewChunker(tc.size, tc.overlap)
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("NewChunker(%d, %d) error = %v, want ErrInvalidConfiguration", tc.size, tc.overlap, err)
			}
		})
	}
}
