package e2e

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/tamesu/internal/agent"
	"github.com/hyperjump/tamesu/internal/config"
	"github.com/hyperjump/tamesu/internal/embedding"
	"github.com/hyperjump/tamesu/internal/extract"
	"github.com/hyperjump/tamesu/internal/fileid"
	"github.com/hyperjump/tamesu/internal/indexer"
	"github.com/hyperjump/tamesu/internal/kb"
	"github.com/hyperjump/tamesu/internal/keyword"
	"github.com/hyperjump/tamesu/internal/models"
	"github.com/hyperjump/tamesu/internal/storage"
	"github.com/hyperjump/tamesu/internal/vector"
)

const (
	lexicalLimit = 15
	mockDims     = 32
)

// pipeline bundles the components under test, wired the way the server wires them.
type pipeline struct {
	store storage.Storage
	vec   *vector.LocalIndex
	kw    *keyword.BleveIndex
	idx   *indexer.Indexer
	kbase *kb.KnowledgeBase
}

// newPipeline builds a full pipeline on temp storage. embedder may be nil to
// simulate a deployment without any embedding provider.
func newPipeline(t *testing.T, embedder embedding.Embedder) *pipeline {
	t.Helper()
	dir := t.TempDir()

	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "db.sqlite"))
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	vecIndex, err := vector.NewLocalIndex(embedder, "", nil)
	if err != nil {
		t.Fatalf("vector index: %v", err)
	}

	kwIndex, err := keyword.NewBleveIndex(filepath.Join(dir, "bleve"))
	if err != nil {
		t.Fatalf("keyword index: %v", err)
	}
	t.Cleanup(func() { kwIndex.Close() })

	retrieval := &config.RetrievalConfig{ChunkSize: 120, ChunkOverlap: 10, TopK: 6}
	idx, err := indexer.NewIndexer(store, vecIndex, kwIndex, retrieval, extract.NewExtractor())
	if err != nil {
		t.Fatalf("indexer: %v", err)
	}

	return &pipeline{
		store: store,
		vec:   vecIndex,
		kw:    kwIndex,
		idx:   idx,
		kbase: kb.NewKnowledgeBase(store, vecIndex, kwIndex, retrieval.TopK, nil),
	}
}

// ingestCorpus writes the corpus to disk and indexes the directory, returning
// the corpus and the written paths in corpus order.
func ingestCorpus(t *testing.T, p *pipeline) (*Corpus, []string) {
	t.Helper()
	corpus := BuildCorpus()
	docDir := t.TempDir()
	paths, err := corpus.WriteFiles(docDir)
	if err != nil {
		t.Fatalf("write corpus files: %v", err)
	}
	n, err := p.idx.IndexDirectory(context.Background(), docDir, SupportedFileExtensions)
	if err != nil {
		t.Fatalf("index directory: %v", err)
	}
	if n != len(corpus.Documents) {
		t.Fatalf("indexed %d files, want %d", n, len(corpus.Documents))
	}
	return corpus, paths
}

func hitSources(hits []models.Hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Source()
	}
	return out
}

func hitsContainSource(hits []models.Hit, expected []string) bool {
	got := make(map[string]bool, len(hits))
	for _, h := range hits {
		got[h.Source()] = true
	}
	for _, src := range expected {
		if got[src] {
			return true
		}
	}
	return false
}

func TestPipeline_IngestAndLexicalRetrieval(t *testing.T) {
	p := newPipeline(t, embedding.NewMockEmbedder(mockDims))
	corpus, _ := ingestCorpus(t, p)
	ctx := context.Background()

	if got := p.vec.Count(); got != len(corpus.Documents) {
		t.Fatalf("vector index holds %d records, want %d (one chunk per document)", got, len(corpus.Documents))
	}
	t.Logf("indexed %d documents; running %d retrieval cases", len(corpus.Documents), len(corpus.TestCases))

	for _, tc := range corpus.TestCases {
		tc := tc
		t.Run(tc.Description, func(t *testing.T) {
			hits, err := p.kbase.LexicalQuery(ctx, tc.Query, lexicalLimit)
			if err != nil {
				t.Fatalf("lexical query: %v", err)
			}
			if len(hits) == 0 {
				t.Fatalf("no hits for %q", tc.Query)
			}
			if !hitsContainSource(hits, tc.ExpectedSources) {
				t.Errorf("query %q: expected one of %v among hit sources %v",
					tc.Query, tc.ExpectedSources, hitSources(hits))
			}
		})
	}
}

// Similarity retrieval with the deterministic test embedder cannot rank by
// meaning, but identical text always embeds to the identical vector, so a
// chunk queried by its own stored content must come back first at distance
// zero.
func TestPipeline_SimilarityRetrievalRanksExactChunkFirst(t *testing.T) {
	p := newPipeline(t, embedding.NewMockEmbedder(mockDims))
	corpus, paths := ingestCorpus(t, p)
	ctx := context.Background()

	for i, d := range corpus.Documents[:6] {
		absPath, err := filepath.Abs(paths[i])
		if err != nil {
			t.Fatalf("abs path: %v", err)
		}
		chunks, err := p.store.GetChunksByDocumentID(ctx, fileid.FileDocID(absPath))
		if err != nil {
			t.Fatalf("chunks for %s: %v", d.FileName, err)
		}
		if len(chunks) == 0 {
			t.Fatalf("no stored chunks for %s", d.FileName)
		}

		hits, err := p.kbase.Query(ctx, chunks[0].Content, 3)
		if err != nil {
			t.Fatalf("similarity query: %v", err)
		}
		if len(hits) == 0 {
			t.Fatalf("no similarity hits for %s", d.FileName)
		}
		if got := hits[0].Source(); got != d.FileName {
			t.Errorf("top hit source = %q, want %q", got, d.FileName)
		}
		if hits[0].Distance == nil {
			t.Error("top hit carries no distance")
		} else if *hits[0].Distance > 1e-4 {
			t.Errorf("top hit distance = %v, want ~0 for identical text", *hits[0].Distance)
		}
		for j := 1; j < len(hits); j++ {
			if hits[j].Distance != nil && hits[j-1].Distance != nil && *hits[j].Distance < *hits[j-1].Distance {
				t.Errorf("hits out of order: hit %d closer than hit %d", j, j-1)
			}
		}
	}
}

type scriptedGenerator struct {
	out     string
	prompts []string
}

func (s *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.out, nil
}

const passwordResetCases = `[
  {
    "Test_ID": "TC-101",
    "Feature": "Password Reset",
    "Test_Scenario": "Reset link expires after one hour",
    "Steps": ["Request a reset link", "Wait past the expiry", "Open the link"],
    "Expected_Result": "The link is rejected as expired",
    "Grounded_In": ["password-reset.md"]
  }
]`

func TestPipeline_GenerationOverIndexedCorpus(t *testing.T) {
	p := newPipeline(t, embedding.NewMockEmbedder(mockDims))
	ingestCorpus(t, p)
	ctx := context.Background()

	gen := &scriptedGenerator{out: passwordResetCases}
	a := agent.NewAgent(p.kbase, gen, "")

	result, err := a.GenerateTestCases(ctx, "how does the password reset link behave")
	if err != nil {
		t.Fatalf("GenerateTestCases: %v", err)
	}
	if len(result.TestCases) != 1 {
		t.Fatalf("got %d cases, want 1 (raw=%q note=%q)", len(result.TestCases), result.Raw, result.Note)
	}
	if result.TestCases[0].TestID != "TC-101" {
		t.Errorf("case ID = %q, want TC-101", result.TestCases[0].TestID)
	}
	if result.Raw != "" || result.Note != "" {
		t.Errorf("parseable output should carry no raw/note, got %+v", result)
	}
	if len(gen.prompts) != 1 {
		t.Fatalf("backend called %d times, want 1", len(gen.prompts))
	}
	if !strings.Contains(gen.prompts[0], "how does the password reset link behave") {
		t.Error("prompt does not carry the user request")
	}
	if !strings.Contains(gen.prompts[0], "Source:") {
		t.Error("prompt carries no retrieved context")
	}
}

func TestPipeline_DiscountCodeQueriesAreDeterministic(t *testing.T) {
	p := newPipeline(t, embedding.NewMockEmbedder(mockDims))
	ingestCorpus(t, p)

	a := agent.NewAgent(p.kbase, nil, "")
	result, err := a.GenerateTestCases(context.Background(), "Create test cases for the SAVE15 discount code")
	if err != nil {
		t.Fatalf("GenerateTestCases: %v", err)
	}
	if len(result.TestCases) != 4 {
		t.Fatalf("got %d cases, want 4", len(result.TestCases))
	}
	if result.TestCases[0].TestID != "TC-001" {
		t.Errorf("first case = %q, want TC-001", result.TestCases[0].TestID)
	}
}

// Without an embedding provider the vector index still ingests text and
// metadata, similarity queries fail with ErrEmbeddingUnavailable, and the
// agent degrades to lexical retrieval.
func TestPipeline_LexicalFallbackWithoutEmbeddingProvider(t *testing.T) {
	p := newPipeline(t, nil)
	ingestCorpus(t, p)
	ctx := context.Background()

	if _, err := p.kbase.Query(ctx, "gift card balance", 3); !errors.Is(err, embedding.ErrEmbeddingUnavailable) {
		t.Fatalf("Query error = %v, want ErrEmbeddingUnavailable", err)
	}

	gen := &scriptedGenerator{out: passwordResetCases}
	a := agent.NewAgent(p.kbase, gen, "")
	result, err := a.GenerateTestCases(ctx, "sixteen digit code")
	if err != nil {
		t.Fatalf("GenerateTestCases: %v", err)
	}
	if len(result.TestCases) != 1 {
		t.Fatalf("got %d cases, want 1 (raw=%q)", len(result.TestCases), result.Raw)
	}
	if len(gen.prompts) != 1 {
		t.Fatalf("backend called %d times, want 1", len(gen.prompts))
	}
	if !strings.Contains(gen.prompts[0], "gift-cards") {
		t.Error("prompt context should cite the gift-cards source")
	}
}
