package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/tamesu/internal/embedding"
)

// ChromaConfig configures the Chroma-backed index.
type ChromaConfig struct {
	URL        string
	Collection string
	Timeout    time.Duration
}

// ChromaIndex talks to a Chroma server over its REST API. Query responses are
// returned verbatim as decoded JSON: the payload shape varies between server
// generations and normalization is the knowledge-base facade's job.
type ChromaIndex struct {
	baseURL      string
	collection   string
	collectionID string
	embedder     embedding.Embedder
	client       *http.Client
	logger       *zap.Logger
}

// NewChromaIndex creates the client and gets or creates the collection. An
// unreachable server fails with ErrIndexUnavailable.
func NewChromaIndex(cfg ChromaConfig, embedder embedding.Embedder, logger *zap.Logger) (*ChromaIndex, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Collection == "" {
		cfg.Collection = "qa_agent"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	c := &ChromaIndex{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		collection: cfg.Collection,
		embedder:   embedder,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
	var out struct {
		ID string `json:"id"`
	}
	err := c.postJSON(context.Background(), "/api/v1/collections", map[string]interface{}{
		"name":          cfg.Collection,
		"get_or_create": true,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("get or create collection %q: %w", cfg.Collection, err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("%w: collection response missing id", ErrIndexUnavailable)
	}
	c.collectionID = out.ID
	return c, nil
}

// postJSON sends body to path and decodes the response into out when out is
// non-nil. Connection failures, 5xx responses, and undecodable payloads are
// ErrIndexUnavailable; other non-2xx statuses are plain errors.
func (c *ChromaIndex) postJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrIndexUnavailable, err)
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: %s: %s", ErrIndexUnavailable, resp.Status, strings.TrimSpace(string(payload)))
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("chroma request failed: %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}
	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("%w: decode response: %v", ErrIndexUnavailable, err)
		}
	}
	return nil
}

// Upsert stores the batch, embedding documents when an embedder is present.
// Without one the server must be configured to embed on its own.
func (c *ChromaIndex) Upsert(ctx context.Context, ids []string, documents []string, metadatas []map[string]interface{}) error {
	if len(ids) != len(documents) || len(ids) != len(metadatas) {
		return fmt.Errorf("ids, documents, and metadatas length mismatch")
	}
	if len(ids) == 0 {
		return nil
	}
	body := map[string]interface{}{
		"ids":       ids,
		"documents": documents,
		"metadatas": metadatas,
	}
	if c.embedder != nil {
		vecs, err := c.embedder.EmbedBatch(ctx, documents)
		if err != nil {
			return fmt.Errorf("embed documents: %w", err)
		}
		body["embeddings"] = vecs
	}
	return c.postJSON(ctx, "/api/v1/collections/"+c.collectionID+"/upsert", body, nil)
}

// Query embeds text and returns the server's response verbatim.
func (c *ChromaIndex) Query(ctx context.Context, text string, nResults int) (RawResponse, error) {
	if c.embedder == nil {
		return nil, fmt.Errorf("similarity query: %w", embedding.ErrEmbeddingUnavailable)
	}
	vec, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if nResults < 1 {
		nResults = 1
	}
	body := map[string]interface{}{
		"query_embeddings": [][]float32{vec},
		"n_results":        nResults,
		"include":          []string{"documents", "metadatas", "distances"},
	}
	var raw interface{}
	if err := c.postJSON(ctx, "/api/v1/collections/"+c.collectionID+"/query", body, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Flush is a no-op: the server owns persistence.
func (c *ChromaIndex) Flush() error {
	return nil
}

// Count asks the server for the collection size, returning zero when the
// server cannot answer.
func (c *ChromaIndex) Count() int {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/api/v1/collections/"+c.collectionID+"/count", nil)
	if err != nil {
		return 0
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("chroma count failed", zap.Error(err))
		return 0
	}
	defer resp.Body.Close()
	var n int
	if err := json.NewDecoder(resp.Body).Decode(&n); err != nil {
		return 0
	}
	return n
}

// Close is a no-op for ChromaIndex.
func (c *ChromaIndex) Close() error {
	return nil
}
