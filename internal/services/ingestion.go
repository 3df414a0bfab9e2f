package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/constructiq/safety-lead-pipeline/internal/models"
	"github.com/constructiq/safety-lead-pipeline/internal/repository"
	"github.com/constructiq/safety-lead-pipeline/internal/resolution"
	"github.com/constructiq/safety-lead-pipeline/pkg/config"
)

// IngestionService accepts normalized events from source adapters, resolving
// the raw company name before the event is stored. Scoring happens later, in
// rebuild passes, so ingestion stays cheap.
type IngestionService struct {
	repos    *repository.Repositories
	resolver *resolution.Resolver
	log      *zap.Logger
}

// NewIngestionService creates an ingestion service.
func NewIngestionService(repos *repository.Repositories, cfg *config.ScoringConfig, log *zap.Logger) *IngestionService {
	return &IngestionService{
		repos:    repos,
		resolver: resolution.NewResolver(repos, cfg.FuzzyThreshold, log),
		log:      log,
	}
}

// Ingest resolves the event's raw company name and stores the event. The
// resolution outcome is returned so callers can surface low-confidence or
// provisional matches.
func (s *IngestionService) Ingest(ctx context.Context, event *models.Event) (resolution.Resolution, error) {
	res, err := s.resolver.Resolve(ctx, event.RawCompanyName, models.BusinessTypeUnknown)
	if err != nil {
		return resolution.Resolution{}, err
	}
	event.CompanyID = &res.CompanyID

	if err := s.repos.Events.Create(ctx, event); err != nil {
		return resolution.Resolution{}, err
	}
	s.log.Info("event ingested",
		zap.String("event_id", event.ID.String()),
		zap.String("event_type", string(event.Type)),
		zap.String("company_id", res.CompanyID.String()),
		zap.Float64("resolution_confidence", res.Confidence))
	return res, nil
}
