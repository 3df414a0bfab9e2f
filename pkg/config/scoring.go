package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/constructiq/safety-lead-pipeline/internal/apperrors"
)

// Weights are the per-factor multipliers applied to raw sub-scores. They must
// sum to 1.0; anything else is a fatal configuration error.
type Weights struct {
	Recency      float64 `yaml:"recency"`
	Severity     float64 `yaml:"severity"`
	Frequency    float64 `yaml:"frequency"`
	ITARatio     float64 `yaml:"ita_ratio"`
	TradeRisk    float64 `yaml:"trade_risk"`
	Relationship float64 `yaml:"relationship"`
	News         float64 `yaml:"news"`
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Recency + w.Severity + w.Frequency + w.ITARatio + w.TradeRisk + w.Relationship + w.News
}

// ScoringConfig is the immutable scoring configuration passed through every
// pipeline entry point. No component reads it from ambient state.
type ScoringConfig struct {
	FuzzyThreshold   float64            `yaml:"fuzzy_threshold"`
	Weights          Weights            `yaml:"weights"`
	DARTBenchmarks   map[string]float64 `yaml:"dart_benchmarks"`
	DefaultBenchmark float64            `yaml:"default_benchmark"`
	CriticalTrades   []string           `yaml:"critical_trades"`
	ElevatedTrades   []string           `yaml:"elevated_trades"`
	NegativeTerms    []string           `yaml:"negative_terms"`
}

const weightTolerance = 1e-6

// DefaultScoringConfig returns the built-in scoring configuration.
func DefaultScoringConfig() *ScoringConfig {
	return &ScoringConfig{
		FuzzyThreshold: 0.85,
		Weights: Weights{
			Recency:      0.30,
			Severity:     0.25,
			Frequency:    0.15,
			ITARatio:     0.15,
			TradeRisk:    0.05,
			Relationship: 0.05,
			News:         0.05,
		},
		DARTBenchmarks: map[string]float64{
			"236220": 2.3, // commercial building construction
			"238110": 3.1, // poured concrete
			"238120": 4.4, // structural steel
			"238160": 3.5, // roofing
			"238910": 3.2, // site preparation / excavation
		},
		DefaultBenchmark: 4.0,
		CriticalTrades: []string{
			"steel erection", "roofing", "demolition", "excavation", "crane operation",
		},
		ElevatedTrades: []string{
			"electrical", "scaffolding", "concrete", "framing", "hvac",
		},
		NegativeTerms: []string{
			"lawsuit", "violation", "death", "fatality", "accident",
			"injury", "collapse", "penalty", "default", "delay",
		},
	}
}

// LoadScoringConfig reads a scoring configuration from a YAML file. An empty
// path yields the built-in defaults. The result is always validated; a
// configuration that fails validation is never returned.
func LoadScoringConfig(path string) (*ScoringConfig, error) {
	cfg := DefaultScoringConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, apperrors.ConfigError(fmt.Sprintf("cannot read scoring config %s", path), err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.ConfigError(fmt.Sprintf("cannot parse scoring config %s", path), err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on configurations that would corrupt scoring.
func (c *ScoringConfig) Validate() error {
	if math.Abs(c.Weights.Sum()-1.0) > weightTolerance {
		return apperrors.ConfigError(fmt.Sprintf("factor weights must sum to 1.0, got %.6f", c.Weights.Sum()), nil)
	}
	for name, w := range map[string]float64{
		"recency":      c.Weights.Recency,
		"severity":     c.Weights.Severity,
		"frequency":    c.Weights.Frequency,
		"ita_ratio":    c.Weights.ITARatio,
		"trade_risk":   c.Weights.TradeRisk,
		"relationship": c.Weights.Relationship,
		"news":         c.Weights.News,
	} {
		if w < 0 {
			return apperrors.ConfigError(fmt.Sprintf("weight %s must not be negative", name), nil)
		}
	}
	if c.DefaultBenchmark <= 0 {
		return apperrors.ConfigError("default DART benchmark must be positive", nil)
	}
	for naics, v := range c.DARTBenchmarks {
		if v <= 0 {
			return apperrors.ConfigError(fmt.Sprintf("DART benchmark for NAICS %s must be positive", naics), nil)
		}
	}
	if c.FuzzyThreshold <= 0 || c.FuzzyThreshold > 1 {
		return apperrors.ConfigError("fuzzy threshold must be in (0, 1]", nil)
	}
	return nil
}

// BenchmarkFor returns the DART benchmark for a NAICS code, falling back to
// the configured default when the code is absent.
func (c *ScoringConfig) BenchmarkFor(naics string) float64 {
	if v, ok := c.DARTBenchmarks[naics]; ok {
		return v
	}
	return c.DefaultBenchmark
}
