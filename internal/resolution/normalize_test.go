package resolution

import (
	"errors"
	"testing"

	"github.com/constructiq/safety-lead-pipeline/internal/apperrors"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"uppercases", "Turner Construction", "TURNER CONSTRUCTION"},
		{"strips inc with period", "Apex Roofing, Inc.", "APEX ROOFING"},
		{"strips llc", "Mesa Steel LLC", "MESA STEEL"},
		{"strips corp", "Brightline Corp", "BRIGHTLINE"},
		{"strips corporation", "Brightline Corporation", "BRIGHTLINE"},
		{"strips co", "Harbor Electric Co.", "HARBOR ELECTRIC"},
		{"strips ltd", "Windward Builders Ltd", "WINDWARD BUILDERS"},
		{"keeps hyphen", "A-1 Excavating", "A-1 EXCAVATING"},
		{"strips punctuation", "O'Brien & Sons", "OBRIEN SONS"},
		{"collapses whitespace", "  Acme   Concrete  ", "ACME CONCRETE"},
		{"suffix in the middle stays wordwise", "Coastal Inc Partners", "COASTAL PARTNERS"},
		{"multiple suffixes", "Summit Contracting Co Inc", "SUMMIT CONTRACTING"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeName(tt.input)
			if err != nil {
				t.Fatalf("NormalizeName(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeNameDeterministic(t *testing.T) {
	first, err := NormalizeName("Apex Roofing, Inc.")
	if err != nil {
		t.Fatal(err)
	}
	second, err := NormalizeName("Apex Roofing, Inc.")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("normalization not deterministic: %q vs %q", first, second)
	}
}

func TestNormalizeNameInvalid(t *testing.T) {
	for _, input := range []string{"", "   ", "Inc.", "&&&", "LLC, Inc."} {
		_, err := NormalizeName(input)
		if err == nil {
			t.Errorf("NormalizeName(%q) expected error, got nil", input)
			continue
		}
		if !errors.Is(err, apperrors.ErrInvalidName) {
			t.Errorf("NormalizeName(%q) error = %v, want INVALID_NAME", input, err)
		}
	}
}

func TestInferBusinessType(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Apex Roofing", "Sub"},
		{"Mesa Steel Erectors", "Sub"},
		{"Turner Construction", "GC"},
		{"Summit Contracting", "GC"},
		{"Lakeside Development", "Owner"},
		{"Harbor Properties", "Owner"},
		{"Quantum Widgets", "Unknown"},
	}
	for _, tt := range tests {
		if got := InferBusinessType(tt.input); string(got) != tt.want {
			t.Errorf("InferBusinessType(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
