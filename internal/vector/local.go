package vector

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/tamesu/internal/embedding"
)

// LocalIndex is an in-process vector index using brute-force cosine ranking.
// It stores chunk text and metadata alongside vectors so queries are answered
// without touching other storage. Constructed without an embedder it still
// accepts upserts (text and metadata only) but cannot answer similarity
// queries.
type LocalIndex struct {
	embedder embedding.Embedder
	path     string
	logger   *zap.Logger

	mu         sync.RWMutex
	dimensions int
	ids        []string
	pos        map[string]int
	documents  []string
	metadatas  []map[string]interface{}
	vectors    [][]float32
}

// NewLocalIndex creates a local index. When snapshotPath is non-empty an
// existing snapshot is loaded; a corrupt or incompatible snapshot is logged
// and ignored so the process starts with an empty index.
func NewLocalIndex(embedder embedding.Embedder, snapshotPath string, logger *zap.Logger) (*LocalIndex, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &LocalIndex{
		embedder: embedder,
		path:     snapshotPath,
		logger:   logger,
		pos:      make(map[string]int),
	}
	if snapshotPath != "" {
		if err := m.load(snapshotPath); err != nil {
			logger.Warn("failed to load vector snapshot, starting fresh", zap.Error(err))
			m.reset()
		}
	}
	return m, nil
}

func (m *LocalIndex) reset() {
	m.dimensions = 0
	m.ids = nil
	m.pos = make(map[string]int)
	m.documents = nil
	m.metadatas = nil
	m.vectors = nil
}

// Upsert stores documents and their metadata under the given IDs, embedding
// each document when an embedder is present. Vectors are stored unit length
// so inner-product ranking equals cosine. Existing IDs are overwritten.
func (m *LocalIndex) Upsert(ctx context.Context, ids []string, documents []string, metadatas []map[string]interface{}) error {
	if len(ids) != len(documents) || len(ids) != len(metadatas) {
		return fmt.Errorf("ids, documents, and metadatas length mismatch")
	}
	var vecs [][]float32
	if m.embedder != nil {
		embedded, err := m.embedder.EmbedBatch(ctx, documents)
		if err != nil {
			return fmt.Errorf("embed documents: %w", err)
		}
		vecs = embedded
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, id := range ids {
		var vec []float32
		if vecs != nil {
			if m.dimensions == 0 {
				m.dimensions = len(vecs[i])
			} else if len(vecs[i]) != m.dimensions {
				return fmt.Errorf("%w: got %d dimensions, index has %d", embedding.ErrProviderMismatch, len(vecs[i]), m.dimensions)
			}
			vec = make([]float32, len(vecs[i]))
			copy(vec, vecs[i])
			Normalize(vec)
		}
		if p, ok := m.pos[id]; ok {
			m.documents[p] = documents[i]
			m.metadatas[p] = metadatas[i]
			m.vectors[p] = vec
			continue
		}
		m.pos[id] = len(m.ids)
		m.ids = append(m.ids, id)
		m.documents = append(m.documents, documents[i])
		m.metadatas = append(m.metadatas, metadatas[i])
		m.vectors = append(m.vectors, vec)
	}
	return nil
}

// Query embeds text and returns the nResults nearest records as a mapping
// with "ids", "documents", "metadatas", and "distances" keys, each nested one
// level (one inner sequence per query). Distance is cosine distance, lower
// is closer. Records stored without a vector are not ranked.
func (m *LocalIndex) Query(ctx context.Context, text string, nResults int) (RawResponse, error) {
	if m.embedder == nil {
		return nil, fmt.Errorf("similarity query: %w", embedding.ErrEmbeddingUnavailable)
	}
	query, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	// Embedders may hand back cached slices, so normalize a copy.
	queryVec := make([]float32, len(query))
	copy(queryVec, query)
	Normalize(queryVec)

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.dimensions > 0 && len(queryVec) != m.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d", embedding.ErrProviderMismatch, len(queryVec), m.dimensions)
	}
	type scored struct {
		idx      int
		distance float64
	}
	scores := make([]scored, 0, len(m.ids))
	for i, vec := range m.vectors {
		if vec == nil {
			continue
		}
		scores = append(scores, scored{idx: i, distance: 1 - InnerProduct(queryVec, vec)})
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].distance < scores[j].distance })
	k := nResults
	if k < 0 {
		k = 0
	}
	if k > len(scores) {
		k = len(scores)
	}

	ids := make([]interface{}, 0, k)
	docs := make([]interface{}, 0, k)
	metas := make([]interface{}, 0, k)
	dists := make([]interface{}, 0, k)
	for _, s := range scores[:k] {
		ids = append(ids, m.ids[s.idx])
		docs = append(docs, m.documents[s.idx])
		var meta interface{}
		if m.metadatas[s.idx] != nil {
			meta = m.metadatas[s.idx]
		}
		metas = append(metas, meta)
		dists = append(dists, s.distance)
	}
	return map[string]interface{}{
		"ids":       []interface{}{ids},
		"documents": []interface{}{docs},
		"metadatas": []interface{}{metas},
		"distances": []interface{}{dists},
	}, nil
}

// Flush persists a snapshot to the configured path. An index without a
// snapshot path flushes to nowhere.
func (m *LocalIndex) Flush() error {
	if m.path == "" {
		return nil
	}
	return m.save(m.path)
}

// save writes the snapshot. Format: dimensions (u32), count (u32), then per
// record: id, document, and metadata JSON as length-prefixed byte strings,
// a vector flag (u8), and the raw vector bytes when flagged.
func (m *LocalIndex) save(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer f.Close()
	if err := binary.Write(f, binary.LittleEndian, uint32(m.dimensions)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(m.ids))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for i, id := range m.ids {
		if err := writeBytes(f, []byte(id)); err != nil {
			return fmt.Errorf("write id: %w", err)
		}
		if err := writeBytes(f, []byte(m.documents[i])); err != nil {
			return fmt.Errorf("write document: %w", err)
		}
		meta, err := json.Marshal(m.metadatas[i])
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		if err := writeBytes(f, meta); err != nil {
			return fmt.Errorf("write metadata: %w", err)
		}
		if m.vectors[i] == nil {
			if _, err := f.Write([]byte{0}); err != nil {
				return fmt.Errorf("write vector flag: %w", err)
			}
			continue
		}
		if _, err := f.Write([]byte{1}); err != nil {
			return fmt.Errorf("write vector flag: %w", err)
		}
		if _, err := f.Write(float32SliceToBytes(m.vectors[i])); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// load replaces the index contents from the snapshot at path. A missing file
// is not an error. A snapshot whose dimensions disagree with the provider's
// known dimensions fails with ErrProviderMismatch.
func (m *LocalIndex) load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	var dim, n uint32
	if err := binary.Read(f, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("read dimensions: %w", err)
	}
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("read count: %w", err)
	}
	if m.embedder != nil && dim > 0 {
		if ed := m.embedder.Dimensions(); ed > 0 && int(dim) != ed {
			return fmt.Errorf("%w: snapshot has %d dimensions, provider produces %d", embedding.ErrProviderMismatch, dim, ed)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
	m.dimensions = int(dim)
	vecBuf := make([]byte, int(dim)*4)
	for i := uint32(0); i < n; i++ {
		id, err := readBytes(f)
		if err != nil {
			return fmt.Errorf("read id: %w", err)
		}
		doc, err := readBytes(f)
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}
		metaRaw, err := readBytes(f)
		if err != nil {
			return fmt.Errorf("read metadata: %w", err)
		}
		var meta map[string]interface{}
		if len(metaRaw) > 0 {
			if err := json.Unmarshal(metaRaw, &meta); err != nil {
				return fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		var flag [1]byte
		if _, err := io.ReadFull(f, flag[:]); err != nil {
			return fmt.Errorf("read vector flag: %w", err)
		}
		var vec []float32
		if flag[0] == 1 {
			if _, err := io.ReadFull(f, vecBuf); err != nil {
				return fmt.Errorf("read vector: %w", err)
			}
			vec = bytesToFloat32Slice(vecBuf)
		}
		m.pos[string(id)] = len(m.ids)
		m.ids = append(m.ids, string(id))
		m.documents = append(m.documents, string(doc))
		m.metadatas = append(m.metadatas, meta)
		m.vectors = append(m.vectors, vec)
	}
	return nil
}

func writeBytes(w io.Writer, b []byte) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readBytes(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}

// Count returns the number of records in the index.
func (m *LocalIndex) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

// Close is a no-op for LocalIndex.
func (m *LocalIndex) Close() error {
	return nil
}
