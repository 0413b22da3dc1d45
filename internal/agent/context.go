package agent

import (
	"fmt"
	"strings"

	"github.com/hyperjump/tamesu/internal/models"
)

// buildContext renders hits into a prompt context block and collects the
// distinct source names in first-seen order.
func buildContext(hits []models.Hit) (string, []string) {
	if len(hits) == 0 {
		return "", nil
	}
	var b strings.Builder
	seen := make(map[string]struct{}, len(hits))
	sources := make([]string, 0, len(hits))
	for _, hit := range hits {
		src := hit.Source()
		fmt.Fprintf(&b, "\n---\nSource: %s\n%s\n", src, hit.Document)
		if _, ok := seen[src]; !ok {
			seen[src] = struct{}{}
			sources = append(sources, src)
		}
	}
	return b.String(), sources
}
