package kb

import (
	"fmt"

	"github.com/hyperjump/tamesu/internal/models"
	"github.com/hyperjump/tamesu/internal/vector"
)

// NormalizeHits converts a raw vector backend response into hits. Two shapes
// are understood: a mapping with "documents", "metadatas", and "distances"
// keys, and a positional sequence [documents, metadatas, distances]. Each
// field may carry one level of per-query nesting, which is flattened
// independently. Documents drive the join: metadata and distance are attached
// positionally when present. Anything else yields no hits.
func NormalizeHits(raw vector.RawResponse) []models.Hit {
	var docsRaw, metasRaw, distsRaw interface{}
	switch v := raw.(type) {
	case map[string]interface{}:
		docsRaw = v["documents"]
		metasRaw = v["metadatas"]
		distsRaw = v["distances"]
	case []interface{}:
		if len(v) > 0 {
			docsRaw = v[0]
		}
		if len(v) > 1 {
			metasRaw = v[1]
		}
		if len(v) > 2 {
			distsRaw = v[2]
		}
	default:
		return nil
	}

	docs := flattenOne(docsRaw)
	metas := flattenOne(metasRaw)
	dists := flattenOne(distsRaw)
	if len(docs) == 0 {
		return nil
	}

	hits := make([]models.Hit, 0, len(docs))
	for i, d := range docs {
		hit := models.Hit{Document: documentText(d)}
		if i < len(metas) {
			hit.Metadata = metas[i]
		}
		if i < len(dists) {
			if f, ok := dists[i].(float64); ok {
				hit.Distance = &f
			}
		}
		hits = append(hits, hit)
	}
	return hits
}

// flattenOne unwraps one level of nesting: elements that are themselves
// sequences are spliced in, other elements are kept as-is.
func flattenOne(v interface{}) []interface{} {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]interface{}, 0, len(list))
	for _, el := range list {
		if inner, ok := el.([]interface{}); ok {
			out = append(out, inner...)
		} else {
			out = append(out, el)
		}
	}
	return out
}

func documentText(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
