package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/constructiq/safety-lead-pipeline/internal/apperrors"
)

func TestDefaultScoringConfigIsValid(t *testing.T) {
	cfg := DefaultScoringConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if math.Abs(cfg.Weights.Sum()-1.0) > 1e-9 {
		t.Errorf("default weights sum to %.6f, want 1.0", cfg.Weights.Sum())
	}
}

func TestValidateRejectsBadWeights(t *testing.T) {
	cfg := DefaultScoringConfig()
	cfg.Weights.Severity = 0.5

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for weights not summing to 1.0")
	}
	if !errors.Is(err, apperrors.ErrConfig) {
		t.Errorf("error = %v, want CONFIG_ERROR", err)
	}
}

func TestValidateRejectsNegativeWeight(t *testing.T) {
	cfg := DefaultScoringConfig()
	cfg.Weights.News = -0.05
	cfg.Weights.Recency = 0.40

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative weight")
	}
}

func TestValidateRejectsBadBenchmarks(t *testing.T) {
	cfg := DefaultScoringConfig()
	cfg.DARTBenchmarks["238160"] = -1

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative benchmark")
	}

	cfg = DefaultScoringConfig()
	cfg.DefaultBenchmark = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero default benchmark")
	}
}

func TestValidateRejectsBadThreshold(t *testing.T) {
	for _, threshold := range []float64{0, -0.5, 1.5} {
		cfg := DefaultScoringConfig()
		cfg.FuzzyThreshold = threshold
		if err := cfg.Validate(); err == nil {
			t.Errorf("threshold %.2f: expected error", threshold)
		}
	}
}

func TestLoadScoringConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoring.yaml")
	data := `
fuzzy_threshold: 0.9
weights:
  recency: 0.25
  severity: 0.25
  frequency: 0.20
  ita_ratio: 0.15
  trade_risk: 0.05
  relationship: 0.05
  news: 0.05
dart_benchmarks:
  "238160": 2.9
default_benchmark: 4.2
critical_trades: ["roofing"]
elevated_trades: ["electrical"]
negative_terms: ["lawsuit"]
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadScoringConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.FuzzyThreshold != 0.9 {
		t.Errorf("FuzzyThreshold = %.2f, want 0.9", cfg.FuzzyThreshold)
	}
	if cfg.Weights.Frequency != 0.20 {
		t.Errorf("Frequency weight = %.2f, want 0.20", cfg.Weights.Frequency)
	}
	if got := cfg.BenchmarkFor("238160"); got != 2.9 {
		t.Errorf("BenchmarkFor(238160) = %.2f, want 2.9", got)
	}
}

func TestLoadScoringConfigRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoring.yaml")
	data := `
weights:
  recency: 0.9
  severity: 0.9
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadScoringConfig(path); err == nil {
		t.Error("expected CONFIG_ERROR for weights summing past 1.0")
	}
}

func TestLoadScoringConfigEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadScoringConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.FuzzyThreshold != DefaultScoringConfig().FuzzyThreshold {
		t.Error("empty path should yield defaults")
	}
}

func TestBenchmarkForFallsBack(t *testing.T) {
	cfg := DefaultScoringConfig()
	if got := cfg.BenchmarkFor("999999"); got != cfg.DefaultBenchmark {
		t.Errorf("unknown NAICS benchmark = %.2f, want default %.2f", got, cfg.DefaultBenchmark)
	}
}
