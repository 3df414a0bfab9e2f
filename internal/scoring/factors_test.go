package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/constructiq/safety-lead-pipeline/internal/models"
	"github.com/constructiq/safety-lead-pipeline/internal/resolution"
	"github.com/constructiq/safety-lead-pipeline/pkg/config"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestRecencyScore(t *testing.T) {
	asOf := date(2025, 6, 1)
	tests := []struct {
		name       string
		occurredOn time.Time
		want       float64
		tolerance  float64
	}{
		{"same day is full score", asOf, 30, 1e-9},
		{"15 days", asOf.AddDate(0, 0, -15), 30 * math.Exp(-15.0/90.0), 1e-9},
		{"90 days is one half-life", asOf.AddDate(0, 0, -90), 30 / math.E, 1e-9},
		{"180 days still scores", asOf.AddDate(0, 0, -180), 30 * math.Exp(-2), 1e-9},
		{"181 days is zero", asOf.AddDate(0, 0, -181), 0, 0},
		{"two years is zero", asOf.AddDate(-2, 0, 0), 0, 0},
		{"future-dated clamps to full score", asOf.AddDate(0, 0, 10), 30, 1e-9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecencyScore(tt.occurredOn, asOf)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("RecencyScore = %.4f, want %.4f", got, tt.want)
			}
		})
	}
}

func TestRecencyScoreMonotone(t *testing.T) {
	asOf := date(2025, 6, 1)
	prev := math.Inf(1)
	for days := 0; days <= 180; days += 5 {
		got := RecencyScore(asOf.AddDate(0, 0, -days), asOf)
		if got > prev {
			t.Fatalf("recency increased at %d days: %.4f > %.4f", days, got, prev)
		}
		prev = got
	}
}

func TestSeverityScore(t *testing.T) {
	tests := []struct {
		name    string
		payload *models.IncidentPayload
		want    float64
	}{
		{"nil payload", nil, 0},
		{"fatality", &models.IncidentPayload{Fatality: true}, 25},
		{"fatality outranks willful", &models.IncidentPayload{Fatality: true, SeverityType: "Willful"}, 25},
		{"catastrophic", &models.IncidentPayload{Catastrophic: true}, 20},
		{"willful citation", &models.IncidentPayload{SeverityType: "Willful"}, 20},
		{"serious citation", &models.IncidentPayload{SeverityType: "Serious"}, 15},
		{"large penalty", &models.IncidentPayload{Penalty: 75000}, 15},
		{"penalty at threshold stays lower", &models.IncidentPayload{Penalty: 50000}, 5},
		{"five violations", &models.IncidentPayload{Violations: 5}, 10},
		{"minor incident", &models.IncidentPayload{Violations: 1}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SeverityScore(tt.payload); got != tt.want {
				t.Errorf("SeverityScore = %.1f, want %.1f", got, tt.want)
			}
		})
	}
}

func TestFrequencyScore(t *testing.T) {
	tests := []struct {
		count int
		want  float64
	}{
		{0, 0}, {1, 0}, {2, 5}, {3, 10}, {4, 10}, {5, 15}, {9, 15},
	}
	for _, tt := range tests {
		if got := FrequencyScore(tt.count); got != tt.want {
			t.Errorf("FrequencyScore(%d) = %.1f, want %.1f", tt.count, got, tt.want)
		}
	}
}

func TestCountQualifyingIncidents(t *testing.T) {
	asOf := date(2025, 6, 1)
	history := []models.Event{
		{Type: models.EventTypeAccident, OccurredOn: asOf},                    // driver itself
		{Type: models.EventTypeCitation, OccurredOn: asOf.AddDate(0, -6, 0)},  // inside window
		{Type: models.EventTypeInspection, OccurredOn: asOf.AddDate(-1, 0, 0)},
		{Type: models.EventTypeNews, OccurredOn: asOf.AddDate(0, -1, 0)},      // wrong type
		{Type: models.EventTypeAccident, OccurredOn: asOf.AddDate(-3, 0, 0)},  // too old
		{Type: models.EventTypeAccident, OccurredOn: asOf.AddDate(0, 1, 0)},   // after asOf
	}
	if got := CountQualifyingIncidents(history, asOf); got != 3 {
		t.Errorf("CountQualifyingIncidents = %d, want 3", got)
	}
}

func TestITARatioScore(t *testing.T) {
	tests := []struct {
		name      string
		dart      float64
		benchmark float64
		want      float64
	}{
		{"double the benchmark", 8.5, 3.5, 15},
		{"exactly 2x", 7.0, 3.5, 15},
		{"1.5x", 5.25, 3.5, 10},
		{"1.2x", 4.2, 3.5, 5},
		{"just under 1.2x", 4.1, 3.5, 0},
		{"at benchmark", 3.5, 3.5, 0},
		{"unknown rate", 0, 3.5, 0},
		{"unknown benchmark", 8.5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ITARatioScore(tt.dart, tt.benchmark); got != tt.want {
				t.Errorf("ITARatioScore(%.2f, %.2f) = %.1f, want %.1f", tt.dart, tt.benchmark, got, tt.want)
			}
		})
	}
}

func TestTradeRiskScore(t *testing.T) {
	cfg := config.DefaultScoringConfig()
	tests := []struct {
		name      string
		trade     string
		narrative string
		want      float64
	}{
		{"critical trade label", "Roofing", "", 5},
		{"critical label case-insensitive", "STEEL ERECTION", "", 5},
		{"elevated trade label", "Electrical", "", 3},
		{"no label, critical trade in narrative", "", "worker fell during roofing tear-off", 3},
		{"elevated label beats narrative", "Electrical", "roofing mentioned", 3},
		{"plain trade", "Painting", "", 0},
		{"nothing", "", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TradeRiskScore(tt.trade, tt.narrative, cfg); got != tt.want {
				t.Errorf("TradeRiskScore = %.1f, want %.1f", got, tt.want)
			}
		})
	}
}

func TestRelationshipScore(t *testing.T) {
	tests := []struct {
		quality resolution.EvidenceQuality
		want    float64
	}{
		{resolution.EvidenceHigh, 5},
		{resolution.EvidenceMedium, 4},
		{resolution.EvidenceLow, 2},
		{resolution.EvidenceNone, 0},
	}
	for _, tt := range tests {
		if got := RelationshipScore(tt.quality); got != tt.want {
			t.Errorf("RelationshipScore(%s) = %.1f, want %.1f", tt.quality, got, tt.want)
		}
	}
}

func TestNewsScore(t *testing.T) {
	terms := config.DefaultScoringConfig().NegativeTerms
	tests := []struct {
		name    string
		payload *models.NewsPayload
		want    float64
	}{
		{"nil payload", nil, 0},
		{"term in headline", &models.NewsPayload{Headline: "Lawsuit filed against GC"}, 5},
		{"two distinct body terms", &models.NewsPayload{Headline: "Project update", Body: "The accident led to a penalty."}, 3},
		{"one body term", &models.NewsPayload{Headline: "Project update", Body: "Schedule delay reported."}, 1},
		{"clean story", &models.NewsPayload{Headline: "Tower tops out", Body: "Crews celebrated."}, 0},
		{"html body is stripped", &models.NewsPayload{Headline: "Update", Body: "<p>A <b>collapse</b> and an injury on site.</p>"}, 3},
		{"term hidden in html attribute ignored", &models.NewsPayload{Headline: "Update", Body: `<a href="lawsuit.html">read more</a>`}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewsScore(tt.payload, terms); got != tt.want {
				t.Errorf("NewsScore = %.1f, want %.1f", got, tt.want)
			}
		})
	}
}
