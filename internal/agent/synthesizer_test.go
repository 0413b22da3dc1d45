package agent

import (
	"reflect"
	"strings"
	"testing"
)

func TestMentionsDiscountCode(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"Generate test cases for SAVE15", true},
		{"does save15 work at checkout?", true},
		{"what about Save 15 percent", true},
		{"sAvE 15", true},
		{"SAVE  15 with two spaces", false},
		{"generate checkout tests", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := mentionsDiscountCode(tt.query); got != tt.want {
			t.Errorf("mentionsDiscountCode(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestSynthesizeDiscountCases(t *testing.T) {
	sources := []string{"checkout.html", "product_specs.md"}
	cases := synthesizeDiscountCases(sources)

	if len(cases) != 4 {
		t.Fatalf("got %d cases, want 4", len(cases))
	}
	wantIDs := []string{"TC-001", "TC-002", "TC-003", "TC-004"}
	for i, tc := range cases {
		if tc.TestID != wantIDs[i] {
			t.Errorf("case %d ID = %q, want %q", i, tc.TestID, wantIDs[i])
		}
		if len(tc.Steps) == 0 {
			t.Errorf("case %s has no steps", tc.TestID)
		}
	}

	if !strings.Contains(cases[0].ExpectedResult, "0.85") {
		t.Errorf("valid-code case should assert the 15%% multiplier, got %q", cases[0].ExpectedResult)
	}
	if !strings.Contains(cases[1].Steps[2], "BADCODE") {
		t.Errorf("invalid-code case should use BADCODE, got %q", cases[1].Steps[2])
	}
}

func TestSynthesizeDiscountCases_Deterministic(t *testing.T) {
	sources := []string{"product_specs.md", "ui_ux_guide.txt"}
	first := synthesizeDiscountCases(sources)
	second := synthesizeDiscountCases(sources)
	if !reflect.DeepEqual(first, second) {
		t.Error("same sources produced different cases")
	}
}

func TestDiscountGrounding(t *testing.T) {
	tests := []struct {
		name    string
		sources []string
		want    []string
	}{
		{
			name:    "priority files keep citation order",
			sources: []string{"notes.txt", "checkout.html", "product_specs.md"},
			want:    []string{"product_specs.md", "checkout.html"},
		},
		{
			name:    "no priority files cites the sources",
			sources: []string{"x.txt"},
			want:    []string{"x.txt"},
		},
		{
			name:    "no sources at all",
			sources: nil,
			want:    []string{"unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := discountGrounding(tt.sources)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("discountGrounding(%v) = %v, want %v", tt.sources, got, tt.want)
			}
		})
	}
}

func TestSynthesizeDiscountCases_SharedGrounding(t *testing.T) {
	cases := synthesizeDiscountCases([]string{"api_endpoints.json"})
	want := []string{"api_endpoints.json"}
	for _, tc := range cases {
		if !reflect.DeepEqual(tc.GroundedIn, want) {
			t.Errorf("case %s grounded in %v, want %v", tc.TestID, tc.GroundedIn, want)
		}
	}
}
