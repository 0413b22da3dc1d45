package e2e

import (
	"path/filepath"
	"testing"
)

func TestBuildCorpus_DocumentsAreWellFormed(t *testing.T) {
	c := BuildCorpus()
	if len(c.Documents) == 0 {
		t.Fatal("corpus has no documents")
	}
	seen := make(map[string]bool)
	extSeen := make(map[string]bool)
	for _, d := range c.Documents {
		if d.FileName == "" || d.Content == "" {
			t.Errorf("document %+v missing file name or content", d)
		}
		if seen[d.FileName] {
			t.Errorf("duplicate file name %q", d.FileName)
		}
		seen[d.FileName] = true
		extSeen[filepath.Ext(d.FileName)] = true
	}
	for _, ext := range SupportedFileExtensions {
		if !extSeen[ext] {
			t.Errorf("no corpus document uses extension %s", ext)
		}
	}
}

func TestBuildCorpus_QueryTestCasesExist(t *testing.T) {
	c := BuildCorpus()
	if len(c.TestCases) == 0 {
		t.Fatal("expected at least one query test case")
	}
	for i, tc := range c.TestCases {
		if tc.Query == "" {
			t.Errorf("test case %d: empty query", i)
		}
		if len(tc.ExpectedSources) == 0 {
			t.Errorf("test case %d: no expected sources", i)
		}
	}
}

func TestBuildCorpus_ExpectedSourcesContainQueryPhrase(t *testing.T) {
	c := BuildCorpus()
	docByName := make(map[string]CorpusDocument)
	for _, d := range c.Documents {
		docByName[d.FileName] = d
	}
	for _, tc := range c.TestCases {
		for _, src := range tc.ExpectedSources {
			doc, ok := docByName[src]
			if !ok {
				t.Errorf("expected source %q not in corpus", src)
				continue
			}
			if !containsPhrase(doc, tc.Query) {
				t.Errorf("doc %q (title=%q) does not contain query phrase %q", src, doc.Title, tc.Query)
			}
		}
	}
}

func TestCorpus_WriteFiles(t *testing.T) {
	c := BuildCorpus()
	dir := t.TempDir()
	paths, err := c.WriteFiles(dir)
	if err != nil {
		t.Fatalf("WriteFiles: %v", err)
	}
	if len(paths) != len(c.Documents) {
		t.Fatalf("wrote %d files, want %d", len(paths), len(c.Documents))
	}
	for i, p := range paths {
		if filepath.Base(p) != c.Documents[i].FileName {
			t.Errorf("path %d = %q, want base %q", i, p, c.Documents[i].FileName)
		}
	}
}

func TestContainsPhrase(t *testing.T) {
	tests := []struct {
		doc     CorpusDocument
		phrase  string
		contain bool
	}{
		{CorpusDocument{Title: "Gift Cards", Content: "Gift cards carry a sixteen digit code."}, "sixteen digit code", true},
		{CorpusDocument{Title: "Gift Cards", Content: "Gift cards carry a sixteen digit code."}, "loyalty points", false},
		{CorpusDocument{Title: "Password Reset", Content: "sends a link"}, "Password Reset", true},
	}
	for i, tt := range tests {
		got := containsPhrase(tt.doc, tt.phrase)
		if got != tt.contain {
			t.Errorf("test %d: containsPhrase(%q) = %v, want %v", i, tt.phrase, got, tt.contain)
		}
	}
}
