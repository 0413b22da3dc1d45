package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/tamesu/internal/embedding"
	"github.com/hyperjump/tamesu/internal/models"
)

// defaultContextHits is how many retrieval hits feed a generation prompt.
const defaultContextHits = 6

// parseFailureNote explains a fallback result to API consumers.
const parseFailureNote = "LLM fallback failed to return clean JSON; returning developer fallback if available."

const testCasePromptTemplate = `Return ONLY a JSON array (start with '[' and end with ']'). Each element must include Test_ID, Feature, Test_Scenario, Steps (array), Expected_Result, Grounded_In.

Context:
%s

User request:
%s
`

const seleniumPromptTemplate = `You are a Selenium (Python) expert. Using only the provided HTML and context docs, generate a runnable Selenium Python script (standalone) that implements the test case.

Constraints:
- Use Chrome webdriver.
- Use robust selectors (ids, names, CSS selectors) matching provided HTML.
- Include comments about required pip modules at top.
- The test must conclude with an assertion matching Expected_Result.
- Do NOT invent features not present in the HTML or docs.

Test case:
%s

HTML:
%s

Context:
%s

Output: ONLY the Python test script (no extra text).`

// Retriever is the slice of the knowledge base the agent depends on.
type Retriever interface {
	Query(ctx context.Context, query string, nResults int) ([]models.Hit, error)
	LexicalQuery(ctx context.Context, query string, nResults int) ([]models.Hit, error)
}

// Agent turns retrieved context into QA test cases and Selenium scripts.
// Queries about the documented discount code are answered deterministically;
// everything else goes through the generation backend when one is configured.
type Agent struct {
	kb           Retriever
	generator    Generator
	fallbackPath string
	contextHits  int
	logger       *zap.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets the logger used for retrieval and parse diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAgent creates an agent. generator may be nil, in which case every
// non-deterministic generation degrades to the fallback path.
func NewAgent(kb Retriever, generator Generator, fallbackPath string, opts ...Option) *Agent {
	a := &Agent{
		kb:           kb,
		generator:    generator,
		fallbackPath: fallbackPath,
		contextHits:  defaultContextHits,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// retrieve fetches prompt context, degrading to lexical retrieval when the
// embedding backend is unavailable. Other retrieval failures propagate.
func (a *Agent) retrieve(ctx context.Context, query string) ([]models.Hit, error) {
	hits, err := a.kb.Query(ctx, query, a.contextHits)
	if err == nil {
		return hits, nil
	}
	if !errors.Is(err, embedding.ErrEmbeddingUnavailable) {
		return nil, err
	}
	a.logger.Warn("similarity retrieval unavailable, falling back to lexical", zap.Error(err))
	return a.kb.LexicalQuery(ctx, query, a.contextHits)
}

// GenerateTestCases answers query with a list of test cases grounded in the
// knowledge base. Discount-code queries are synthesized deterministically.
// All other queries go to the generation backend; when its output carries no
// parseable test-case array, the result holds the raw output, a note, and
// the developer fallback cases instead, with a nil error.
func (a *Agent) GenerateTestCases(ctx context.Context, query string) (*models.GenerationResult, error) {
	hits, err := a.retrieve(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve context: %w", err)
	}
	contextText, sources := buildContext(hits)

	if mentionsDiscountCode(query) {
		return &models.GenerationResult{TestCases: synthesizeDiscountCases(sources)}, nil
	}

	raw := a.generate(ctx, fmt.Sprintf(testCasePromptTemplate, contextText, query))

	cases, err := parseTestCases(raw)
	if err == nil {
		return &models.GenerationResult{TestCases: cases}, nil
	}
	a.logger.Warn("generation output not parseable, returning fallback", zap.Error(err))
	return &models.GenerationResult{
		Raw:       raw,
		Note:      parseFailureNote,
		TestCases: loadFallbackCases(a.fallbackPath),
	}, nil
}

// GenerateSelenium produces a Selenium script for testCase against htmlText.
// Context is retrieved for the test scenario so the backend sees the same
// corpus the case was grounded in. Backend failures come back as the output
// text, not as an error.
func (a *Agent) GenerateSelenium(ctx context.Context, testCase models.TestCase, htmlText string) (string, error) {
	hits, err := a.retrieve(ctx, testCase.TestScenario)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve context: %w", err)
	}
	contextText, _ := buildContext(hits)

	encoded, err := json.MarshalIndent(testCase, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode test case: %w", err)
	}
	return a.generate(ctx, fmt.Sprintf(seleniumPromptTemplate, encoded, htmlText, contextText)), nil
}

// generate runs the prompt through the backend. A missing backend or a call
// failure yields the failure text itself, keeping generation non-fatal.
func (a *Agent) generate(ctx context.Context, prompt string) string {
	if a.generator == nil {
		return "LLM call failed: no generation backend configured"
	}
	out, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		a.logger.Warn("generation backend call failed", zap.Error(err))
		return fmt.Sprintf("LLM call failed: %v", err)
	}
	return out
}
