// Package scoring computes deterministic, auditable propensity scores from
// resolved events and their relationship context.
package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/constructiq/safety-lead-pipeline/internal/models"
	"github.com/constructiq/safety-lead-pipeline/internal/resolution"
	"github.com/constructiq/safety-lead-pipeline/pkg/config"
)

// Factor names as they appear in stored breakdowns.
const (
	FactorRecency      = "recency"
	FactorSeverity     = "severity"
	FactorFrequency    = "frequency"
	FactorITARatio     = "ita_ratio"
	FactorTradeRisk    = "trade_risk"
	FactorRelationship = "relationship"
	FactorNews         = "news"
)

// Per-factor maxima on the raw sub-score scale.
const (
	MaxRecency      = 30.0
	MaxSeverity     = 25.0
	MaxFrequency    = 15.0
	MaxITARatio     = 15.0
	MaxTradeRisk    = 5.0
	MaxRelationship = 5.0
	MaxNews         = 5.0
)

const (
	recencyHalfLifeDays = 90.0
	recencyCutoffDays   = 180.0
	frequencyWindow     = 24 * 30 * 24 * time.Hour // trailing 24 months
)

// RecencyScore decays exponentially with the event's age: 30*exp(-days/90)
// up to 180 days, then zero. Never negative-age: future-dated events score
// the full maximum.
func RecencyScore(occurredOn, asOf time.Time) float64 {
	days := asOf.Sub(occurredOn).Hours() / 24
	if days < 0 {
		days = 0
	}
	if days > recencyCutoffDays {
		return 0
	}
	return MaxRecency * math.Exp(-days/recencyHalfLifeDays)
}

// SeverityScore maps an incident payload onto the severity tiers. The
// highest matching tier wins; non-incident events carry no severity signal.
func SeverityScore(p *models.IncidentPayload) float64 {
	switch {
	case p == nil:
		return 0
	case p.Fatality:
		return 25
	case p.Catastrophic, strings.EqualFold(p.SeverityType, "willful"):
		return 20
	case strings.EqualFold(p.SeverityType, "serious"), p.Penalty > 50000:
		return 15
	case p.Violations >= 5:
		return 10
	default:
		return 5
	}
}

// FrequencyScore maps the count of qualifying incidents in the trailing
// 24-month window (driver event included) onto the frequency tiers.
func FrequencyScore(incidentCount int) float64 {
	switch {
	case incidentCount >= 5:
		return 15
	case incidentCount >= 3:
		return 10
	case incidentCount == 2:
		return 5
	default:
		return 0
	}
}

// CountQualifyingIncidents counts incident-type events in the 24 months up
// to and including asOf.
func CountQualifyingIncidents(history []models.Event, asOf time.Time) int {
	cutoff := asOf.Add(-frequencyWindow)
	count := 0
	for i := range history {
		e := &history[i]
		if !e.Type.IsIncident() {
			continue
		}
		if e.OccurredOn.Before(cutoff) || e.OccurredOn.After(asOf) {
			continue
		}
		count++
	}
	return count
}

// ITARatioScore compares the subject's DART rate against its NAICS
// benchmark. Unknown rates or benchmarks contribute nothing.
func ITARatioScore(dartRate, benchmark float64) float64 {
	if dartRate <= 0 || benchmark <= 0 {
		return 0
	}
	ratio := dartRate / benchmark
	switch {
	case ratio >= 2.0:
		return 15
	case ratio >= 1.5:
		return 10
	case ratio >= 1.2:
		return 5
	default:
		return 0
	}
}

// TradeRiskScore scores the relationship's trade label against the
// critical- and elevated-risk sets. When the label is silent, a critical
// trade mentioned in the incident narrative still counts at the elevated
// tier.
func TradeRiskScore(trade, narrative string, cfg *config.ScoringConfig) float64 {
	tradeLower := strings.ToLower(trade)
	if tradeLower != "" {
		for _, critical := range cfg.CriticalTrades {
			if strings.Contains(tradeLower, strings.ToLower(critical)) {
				return 5
			}
		}
		for _, elevated := range cfg.ElevatedTrades {
			if strings.Contains(tradeLower, strings.ToLower(elevated)) {
				return 3
			}
		}
	}
	narrativeLower := strings.ToLower(narrative)
	if narrativeLower != "" {
		for _, critical := range cfg.CriticalTrades {
			if strings.Contains(narrativeLower, strings.ToLower(critical)) {
				return 3
			}
		}
	}
	return 0
}

// RelationshipScore maps evidence quality onto the certainty tiers.
func RelationshipScore(q resolution.EvidenceQuality) float64 {
	switch q {
	case resolution.EvidenceHigh:
		return 5
	case resolution.EvidenceMedium:
		return 4
	case resolution.EvidenceLow:
		return 2
	default:
		return 0
	}
}

// NewsScore scans a news event's text for negative terms: a headline hit is
// worth 5, two or more distinct terms in the body 3, a single body mention 1.
// Non-news events score zero.
func NewsScore(p *models.NewsPayload, negativeTerms []string) float64 {
	if p == nil {
		return 0
	}
	headline := strings.ToLower(extractText(p.Headline))
	body := strings.ToLower(extractText(p.Body))

	bodyHits := 0
	for _, term := range negativeTerms {
		t := strings.ToLower(term)
		if strings.Contains(headline, t) {
			return 5
		}
		if strings.Contains(body, t) {
			bodyHits++
		}
	}
	switch {
	case bodyHits >= 2:
		return 3
	case bodyHits == 1:
		return 1
	default:
		return 0
	}
}

// extractText strips HTML from adapter-supplied news text. Plain text passes
// through untouched.
func extractText(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}
