// Package vector provides vector index implementations for chunk storage and
// similarity retrieval.
package vector

import (
	"context"
	"errors"
)

// ErrIndexUnavailable reports that the index backend cannot be reached or
// returned a corrupt payload. Callers surface it verbatim.
var ErrIndexUnavailable = errors.New("vector index unavailable")

// RawResponse is the undecoded payload of a similarity query. Backends return
// either a mapping with "documents"/"metadatas"/"distances" keys (each a
// sequence of sequences, one inner sequence per query) or a bare positional
// sequence [documents, metadatas, distances]. The knowledge-base facade owns
// normalization; nothing else inspects this value.
type RawResponse = interface{}

// VectorIndex stores chunk text, metadata, and embeddings, and answers
// nearest-neighbor queries. Upserts are idempotent by ID, last write wins.
// nResults is a soft cap: fewer hits may be returned.
type VectorIndex interface {
	Upsert(ctx context.Context, ids []string, documents []string, metadatas []map[string]interface{}) error
	Query(ctx context.Context, text string, nResults int) (RawResponse, error)
	Flush() error
	Count() int
	Close() error
}
