package scoring

import (
	"time"

	"github.com/constructiq/safety-lead-pipeline/internal/models"
	"github.com/constructiq/safety-lead-pipeline/internal/resolution"
	"github.com/constructiq/safety-lead-pipeline/pkg/config"
)

// Talk tracks, in the priority order the decision tree evaluates them.
const (
	TalkTrackPostIncident  = "post-incident stabilization"
	TalkTrackTrendAnalysis = "trend analysis & prevention"
	TalkTrackPortfolioRisk = "portfolio risk benchmarking"
	TalkTrackComplianceGap = "compliance gap assessment"
)

// Input carries everything a single scoring run needs. All fields are
// supplied by the pipeline; scoring itself never touches storage.
type Input struct {
	Event         models.Event
	Relationship  resolution.RelationshipContext
	IncidentCount int     // qualifying incidents in the trailing 24 months, driver inclusive
	DARTRate      float64 // most recent ITA DART rate for the subject, 0 when unknown
	Benchmark     float64 // NAICS benchmark (or configured default)
	AsOf          time.Time
}

// Result is a scored opportunity candidate with its full factor breakdown.
type Result struct {
	Score     float64                `json:"score"`
	TalkTrack string                 `json:"talk_track"`
	Factors   models.FactorBreakdown `json:"factors"`
}

// Factor returns the named factor's breakdown entry, or a zero entry if
// absent.
func (r Result) Factor(name string) models.FactorScore {
	for _, f := range r.Factors {
		if f.Factor == name {
			return f
		}
	}
	return models.FactorScore{Factor: name}
}

// Scorer aggregates the seven factor sub-scores into a propensity score and
// talk track under an immutable configuration.
type Scorer struct {
	cfg *config.ScoringConfig
}

// NewScorer creates a scorer. The configuration is re-validated here so a
// scorer can never exist over weights that do not sum to 1.0.
func NewScorer(cfg *config.ScoringConfig) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg}, nil
}

// Score computes the weighted propensity total and selects a talk track.
// Payloads are decoded here, at the factor boundary, so malformed data
// surfaces as an error for this one event instead of corrupting the score.
func (s *Scorer) Score(in Input) (Result, error) {
	var incident *models.IncidentPayload
	var news *models.NewsPayload
	var err error
	if in.Event.Type.IsIncident() {
		if incident, err = in.Event.IncidentPayload(); err != nil {
			return Result{}, err
		}
	}
	if in.Event.Type == models.EventTypeNews {
		if news, err = in.Event.NewsPayload(); err != nil {
			return Result{}, err
		}
	}

	narrative := ""
	if incident != nil {
		narrative = incident.Narrative
	}

	w := s.cfg.Weights
	factors := []models.FactorScore{
		entry(FactorRecency, RecencyScore(in.Event.OccurredOn, in.AsOf), MaxRecency, w.Recency),
		entry(FactorSeverity, SeverityScore(incident), MaxSeverity, w.Severity),
		entry(FactorFrequency, FrequencyScore(in.IncidentCount), MaxFrequency, w.Frequency),
		entry(FactorITARatio, ITARatioScore(in.DARTRate, in.Benchmark), MaxITARatio, w.ITARatio),
		entry(FactorTradeRisk, TradeRiskScore(in.Relationship.Trade, narrative, s.cfg), MaxTradeRisk, w.TradeRisk),
		entry(FactorRelationship, RelationshipScore(in.Relationship.Quality), MaxRelationship, w.Relationship),
		entry(FactorNews, NewsScore(news, s.cfg.NegativeTerms), MaxNews, w.News),
	}

	total := 0.0
	for _, f := range factors {
		total += f.Weighted
	}
	// The weighted design cannot exceed 100 given the factor maxima; the
	// clamp guards configuration drift.
	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}

	return Result{
		Score:     total,
		TalkTrack: s.talkTrack(factors, total),
		Factors:   factors,
	}, nil
}

// talkTrack walks the decision tree in fixed priority order over RAW
// sub-scores; the first matching rule wins. Severity and recency dominate
// because they mark the freshest engagement window.
func (s *Scorer) talkTrack(factors models.FactorBreakdown, total float64) string {
	raw := func(name string) float64 {
		for _, f := range factors {
			if f.Factor == name {
				return f.Raw
			}
		}
		return 0
	}
	switch {
	case raw(FactorSeverity) > 20 || raw(FactorRecency) > 25:
		return TalkTrackPostIncident
	case raw(FactorFrequency) > 10:
		return TalkTrackTrendAnalysis
	case raw(FactorITARatio) > 10 || total >= 60:
		return TalkTrackPortfolioRisk
	default:
		return TalkTrackComplianceGap
	}
}

func entry(name string, raw, max, weight float64) models.FactorScore {
	return models.FactorScore{
		Factor:   name,
		Raw:      raw,
		Max:      max,
		Weight:   weight,
		Weighted: raw * weight,
	}
}
