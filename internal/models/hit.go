package models

import (
	"errors"
	"fmt"
)

// ErrMalformedMetadata reports hit metadata that is not a key/value mapping.
// Malformed metadata is never fatal to a query; callers that need a mapping
// use Mapping and fall back on this error.
var ErrMalformedMetadata = errors.New("malformed hit metadata")

// Hit is a single retrieval result. Metadata is untyped on purpose: index
// backends may return non-mapping values and resolving them is the caller's
// job. A nil Distance means the backend reported none.
type Hit struct {
	Document string      `json:"document"`
	Metadata interface{} `json:"metadata,omitempty"`
	Distance *float64    `json:"distance,omitempty"`
}

// Mapping returns the hit's metadata as a key/value mapping. Absent metadata
// yields an empty mapping; present non-mapping metadata yields
// ErrMalformedMetadata.
func (h Hit) Mapping() (map[string]interface{}, error) {
	switch m := h.Metadata.(type) {
	case nil:
		return map[string]interface{}{}, nil
	case map[string]interface{}:
		return m, nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrMalformedMetadata, h.Metadata)
	}
}

// Source resolves the citable source of the hit. Mapping metadata is cited by
// its "source" field, non-mapping metadata by its string representation, and
// anything else as "unknown".
func (h Hit) Source() string {
	m, err := h.Mapping()
	if err != nil {
		return fmt.Sprint(h.Metadata)
	}
	v, ok := m["source"]
	if !ok {
		return "unknown"
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
