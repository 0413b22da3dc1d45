package agent

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFallbackCases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "testcases.json")
	content := `[{"Test_ID":"TC-900","Feature":"Fallback","Steps":["noop"]}]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cases := loadFallbackCases(path)
	if len(cases) != 1 || cases[0].TestID != "TC-900" {
		t.Errorf("cases = %+v, want single TC-900", cases)
	}
}

func TestLoadFallbackCases_Degraded(t *testing.T) {
	badFile := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(badFile, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"empty path", ""},
		{"missing file", filepath.Join(t.TempDir(), "absent.json")},
		{"invalid JSON", badFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cases := loadFallbackCases(tt.path)
			if cases == nil {
				t.Fatal("cases = nil, want empty non-nil list")
			}
			if len(cases) != 0 {
				t.Errorf("cases = %+v, want empty", cases)
			}
		})
	}
}
