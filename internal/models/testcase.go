package models

// TestCase is a single generated or synthesized QA test case. The JSON field
// names are part of the output contract and must not change.
type TestCase struct {
	TestID         string   `json:"Test_ID"`
	Feature        string   `json:"Feature"`
	TestScenario   string   `json:"Test_Scenario"`
	Steps          []string `json:"Steps"`
	ExpectedResult string   `json:"Expected_Result"`
	GroundedIn     []string `json:"Grounded_In"`
}

// GenerationResult wraps the outcome of a test-case generation call. On the
// happy path only TestCases is set. When the backend's response could not be
// parsed, TestCases holds the fallback list (possibly empty), Raw the
// verbatim response, and Note a human-readable explanation.
type GenerationResult struct {
	TestCases []TestCase `json:"testcases"`
	Raw       string     `json:"raw,omitempty"`
	Note      string     `json:"note,omitempty"`
}
