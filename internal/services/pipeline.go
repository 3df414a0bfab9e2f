package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/constructiq/safety-lead-pipeline/internal/apperrors"
	"github.com/constructiq/safety-lead-pipeline/internal/metrics"
	"github.com/constructiq/safety-lead-pipeline/internal/models"
	"github.com/constructiq/safety-lead-pipeline/internal/repository"
	"github.com/constructiq/safety-lead-pipeline/internal/resolution"
	"github.com/constructiq/safety-lead-pipeline/internal/scoring"
	"github.com/constructiq/safety-lead-pipeline/pkg/config"
)

// RebuildPipeline recomputes target opportunities from the event history. It
// is the only writer of the target_opportunities table, and at most one
// rebuild runs at a time.
type RebuildPipeline struct {
	repos    *repository.Repositories
	resolver *resolution.Resolver
	locator  *resolution.Locator
	scorer   *scoring.Scorer
	cfg      *config.ScoringConfig
	metrics  *metrics.Manager
	log      *zap.Logger
	now      func() time.Time
	mu       sync.Mutex
}

// NewRebuildPipeline creates a rebuild pipeline. The scoring configuration is
// validated here, before any rebuild can touch storage.
func NewRebuildPipeline(repos *repository.Repositories, cfg *config.ScoringConfig, m *metrics.Manager, log *zap.Logger) (*RebuildPipeline, error) {
	scorer, err := scoring.NewScorer(cfg)
	if err != nil {
		return nil, err
	}
	return &RebuildPipeline{
		repos:    repos,
		resolver: resolution.NewResolver(repos, cfg.FuzzyThreshold, log),
		locator:  resolution.NewLocator(repos.Relationships),
		scorer:   scorer,
		cfg:      cfg,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}, nil
}

// RebuildSummary reports what a rebuild pass did.
type RebuildSummary struct {
	Processed int           `json:"processed"`
	Created   int           `json:"created"`
	Updated   int           `json:"updated"`
	Unchanged int           `json:"unchanged"`
	Skipped   int           `json:"skipped"`
	Errors    []string      `json:"errors,omitempty"`
	Warnings  []string      `json:"warnings,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Summary formats the pass for log output.
func (s *RebuildSummary) Summary() string {
	return fmt.Sprintf("processed=%d created=%d updated=%d unchanged=%d skipped=%d errors=%d warnings=%d in %v",
		s.Processed, s.Created, s.Updated, s.Unchanged, s.Skipped, len(s.Errors), len(s.Warnings), s.Duration.Round(time.Millisecond))
}

// Rebuild replays events in the window in ascending occurrence order and
// upserts the opportunities they drive. Nil bounds are open. Running it twice
// over unchanged inputs changes nothing: every write is an idempotent upsert.
// A concurrent call fails fast with ErrRebuildBusy instead of queueing, and
// cancellation stops between events, never mid-write, so a cancelled pass
// leaves a valid partial state the next pass completes.
func (p *RebuildPipeline) Rebuild(ctx context.Context, since, until *time.Time) (*RebuildSummary, error) {
	if !p.mu.TryLock() {
		return nil, apperrors.ErrRebuildBusy
	}
	defer p.mu.Unlock()

	p.metrics.RebuildsTotal.Inc()
	// Every event in the pass is scored against one reference instant, so
	// recency reflects true event age.
	asOf := p.now()
	start := time.Now()
	summary := &RebuildSummary{}

	events, err := p.repos.Events.ListBetween(ctx, since, until)
	if err != nil {
		return nil, err
	}
	p.log.Info("rebuild started", zap.Int("events", len(events)))

	for i := range events {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			p.log.Warn("rebuild cancelled", zap.Int("processed", summary.Processed))
			return summary, err
		}
		event := &events[i]
		if err := p.processEvent(ctx, event, summary, asOf); err != nil {
			// One bad event never aborts the pass; it is recorded and the
			// rebuild moves on.
			summary.Errors = append(summary.Errors, fmt.Sprintf("event %s: %v", event.ID, err))
			p.metrics.EventErrors.Inc()
			p.log.Warn("event skipped", zap.String("event_id", event.ID.String()), zap.Error(err))
			continue
		}
		summary.Processed++
		p.metrics.EventsProcessed.Inc()
	}

	summary.Duration = time.Since(start)
	p.metrics.RebuildDuration.Observe(summary.Duration.Seconds())
	p.log.Info("rebuild finished", zap.String("summary", summary.Summary()))
	return summary, nil
}

// processEvent resolves, locates and scores one event. ITA metric events
// refresh the metrics table instead of driving opportunities.
func (p *RebuildPipeline) processEvent(ctx context.Context, event *models.Event, summary *RebuildSummary, asOf time.Time) error {
	companyID, err := p.ensureCompany(ctx, event)
	if err != nil {
		return err
	}

	if event.Type == models.EventTypeITAMetric {
		return p.refreshITAMetrics(ctx, event, companyID)
	}

	rel, err := p.locator.Locate(ctx, companyID, event.OccurredOn)
	if err != nil {
		return err
	}
	if !rel.HasTarget() {
		summary.Skipped++
		return nil
	}
	if rel.Stale {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("event %s: %v", event.ID, apperrors.StaleRelationship("no active relationship, using most recently ended")))
	}

	input, err := p.buildScoringInput(ctx, event, companyID, rel, asOf)
	if err != nil {
		return err
	}
	result, err := p.scorer.Score(input)
	if err != nil {
		return err
	}

	return p.repos.Tx.WithTransaction(ctx, func(repos *repository.Repositories) error {
		for _, target := range opportunityTargets(rel) {
			outcome, err := repos.Opportunities.Upsert(ctx, &models.TargetOpportunity{
				DriverEventID:   event.ID,
				TargetCompanyID: target.companyID,
				TargetRole:      target.role,
				PropensityScore: result.Score,
				Confidence:      rel.Quality.Confidence(),
				TalkTrack:       result.TalkTrack,
				EvidenceQuality: string(rel.Quality),
				Breakdown:       result.Factors,
			})
			if err != nil {
				return err
			}
			switch outcome {
			case repository.UpsertCreated:
				summary.Created++
				p.metrics.OpportunitiesCreated.Inc()
			case repository.UpsertUpdated:
				summary.Updated++
				p.metrics.OpportunitiesUpdated.Inc()
			default:
				summary.Unchanged++
			}
		}
		return nil
	})
}

// ensureCompany returns the event's resolved company, resolving and
// backfilling the reference when ingestion left it empty.
func (p *RebuildPipeline) ensureCompany(ctx context.Context, event *models.Event) (uuid.UUID, error) {
	if event.CompanyID != nil {
		return *event.CompanyID, nil
	}
	res, err := p.resolver.Resolve(ctx, event.RawCompanyName, models.BusinessTypeUnknown)
	if err != nil {
		return uuid.Nil, err
	}
	if res.Created {
		p.metrics.ResolutionsCreated.Inc()
	}
	if err := p.repos.Events.SetCompany(ctx, event.ID, res.CompanyID); err != nil {
		return uuid.Nil, err
	}
	event.CompanyID = &res.CompanyID
	return res.CompanyID, nil
}

func (p *RebuildPipeline) refreshITAMetrics(ctx context.Context, event *models.Event, companyID uuid.UUID) error {
	payload, err := event.ITAPayload()
	if err != nil {
		return err
	}
	return p.repos.Metrics.Upsert(ctx, &models.MetricsITA{
		CompanyID:   companyID,
		Year:        payload.Year,
		Recordables: payload.Recordables,
		DARTCases:   payload.DARTCases,
		HoursWorked: payload.HoursWorked,
		DARTRate:    payload.DARTRate,
		SourceLink:  event.Link,
	})
}

// buildScoringInput gathers the incident history, latest DART rate and NAICS
// benchmark for one scoring run. The frequency window stays anchored to the
// driver event; only recency is measured against the pass clock.
func (p *RebuildPipeline) buildScoringInput(ctx context.Context, event *models.Event, companyID uuid.UUID, rel resolution.RelationshipContext, asOf time.Time) (scoring.Input, error) {
	windowStart := event.OccurredOn.AddDate(-2, 0, 0)
	history, err := p.repos.Events.ListIncidentsForCompany(ctx, companyID, windowStart, event.OccurredOn)
	if err != nil {
		return scoring.Input{}, err
	}

	dartRate := 0.0
	if m, err := p.repos.Metrics.LatestForCompany(ctx, companyID); err == nil {
		dartRate = m.DARTRate
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return scoring.Input{}, err
	}

	benchmark := p.cfg.DefaultBenchmark
	if company, err := p.repos.Companies.GetByID(ctx, companyID); err == nil {
		benchmark = p.cfg.BenchmarkFor(company.NAICS)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return scoring.Input{}, err
	}

	return scoring.Input{
		Event:         *event,
		Relationship:  rel,
		IncidentCount: scoring.CountQualifyingIncidents(history, event.OccurredOn),
		DARTRate:      dartRate,
		Benchmark:     benchmark,
		AsOf:          asOf,
	}, nil
}

type opportunityTarget struct {
	companyID uuid.UUID
	role      models.TargetRole
}

// opportunityTargets lists the GC and owner targets a context yields, GC
// first. A company appearing on both sides gets a single GC-role opportunity.
func opportunityTargets(rel resolution.RelationshipContext) []opportunityTarget {
	var targets []opportunityTarget
	if rel.GCID != nil {
		targets = append(targets, opportunityTarget{companyID: *rel.GCID, role: models.TargetRoleGC})
	}
	if rel.OwnerID != nil && (rel.GCID == nil || *rel.OwnerID != *rel.GCID) {
		targets = append(targets, opportunityTarget{companyID: *rel.OwnerID, role: models.TargetRoleOwner})
	}
	return targets
}
