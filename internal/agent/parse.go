package agent

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/hyperjump/tamesu/internal/models"
)

// ErrGenerationParse reports that no test-case array could be extracted from
// a generation response. It is non-fatal; callers fall back to the developer
// test-case file.
var ErrGenerationParse = errors.New("unparseable generation output")

// parseTestCases extracts the first valid JSON test-case array from raw
// output. Generation backends wrap their JSON in prose often enough that the
// response is scanned bracket by bracket and decoded at the first position
// that yields a well-formed array.
func parseTestCases(raw string) ([]models.TestCase, error) {
	for i := 0; i < len(raw); i++ {
		if raw[i] != '[' {
			continue
		}
		var cases []models.TestCase
		dec := json.NewDecoder(strings.NewReader(raw[i:]))
		if err := dec.Decode(&cases); err == nil {
			return cases, nil
		}
	}
	return nil, ErrGenerationParse
}
