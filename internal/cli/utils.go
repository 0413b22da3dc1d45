// Package cli provides CLI utilities for Tamesu.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hyperjump/tamesu/internal/models"
	"github.com/hyperjump/tamesu/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one hit per line, tab-separated.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

type hitsOutput struct {
	Query string       `json:"query"`
	Hits  []models.Hit `json:"hits"`
}

// WriteHits writes retrieval hits to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteHits(w io.Writer, query string, hits []models.Hit, format OutputFormat) error {
	if hits == nil {
		hits = []models.Hit{}
	}
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(hitsOutput{Query: query, Hits: hits})
	case OutputCompact:
		writeHitsCompact(w, hits)
		return nil
	default:
		writeHitsText(w, query, hits)
		return nil
	}
}

func writeHitsCompact(w io.Writer, hits []models.Hit) {
	for i, hit := range hits {
		distance := "-"
		if hit.Distance != nil {
			distance = fmt.Sprintf("%.4f", *hit.Distance)
		}
		snippet := TruncateWords(strings.Join(strings.Fields(hit.Document), " "), 12)
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, distance, hit.Source(), snippet)
	}
}

func writeHitsText(w io.Writer, query string, hits []models.Hit) {
	fmt.Fprintf(w, "\nFound %d hits for %q\n\n", len(hits), TruncateWords(query, 20))
	for i, hit := range hits {
		writeOneHit(w, i+1, hit)
	}
}

func writeOneHit(w io.Writer, rank int, hit models.Hit) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Source: %s", rank, hit.Source())
	if hit.Distance != nil {
		fmt.Fprintf(w, " | Distance: %.4f", *hit.Distance)
	}
	fmt.Fprintf(w, "\n\n%s\n", utils.Truncate(hit.Document, 200))
	fmt.Fprintln(w)
}

// WriteGenerationResult writes a test-case generation result to w in the
// given format.
func WriteGenerationResult(w io.Writer, result *models.GenerationResult, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	default:
		writeGenerationResultText(w, result)
		return nil
	}
}

func writeGenerationResultText(w io.Writer, result *models.GenerationResult) {
	fmt.Fprintf(w, "\nGenerated %d test cases\n\n", len(result.TestCases))
	if result.Note != "" {
		fmt.Fprintf(w, "Note: %s\n\n", result.Note)
	}
	for _, tc := range result.TestCases {
		writeOneTestCase(w, tc)
	}
	if len(result.TestCases) == 0 && result.Raw != "" {
		fmt.Fprintf(w, "Raw backend output:\n%s\n", utils.Truncate(result.Raw, 500))
	}
}

func writeOneTestCase(w io.Writer, tc models.TestCase) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "%s: %s\n", tc.TestID, tc.TestScenario)
	if tc.Feature != "" {
		fmt.Fprintf(w, "Feature: %s\n", tc.Feature)
	}
	if len(tc.Steps) > 0 {
		fmt.Fprintln(w, "Steps:")
		for i, step := range tc.Steps {
			fmt.Fprintf(w, "  %d. %s\n", i+1, step)
		}
	}
	if tc.ExpectedResult != "" {
		fmt.Fprintf(w, "Expected: %s\n", tc.ExpectedResult)
	}
	if len(tc.GroundedIn) > 0 {
		fmt.Fprintf(w, "Grounded in: %s\n", strings.Join(tc.GroundedIn, ", "))
	}
	fmt.Fprintln(w)
}

// PrintHits prints retrieval hits to stdout in text format.
func PrintHits(query string, hits []models.Hit) {
	_ = WriteHits(os.Stdout, query, hits, OutputText)
}

// PrintGenerationResult prints a generation result to stdout in text format.
func PrintGenerationResult(result *models.GenerationResult) {
	_ = WriteGenerationResult(os.Stdout, result, OutputText)
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
