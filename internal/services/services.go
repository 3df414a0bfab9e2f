// Package services wires the resolution, scoring and import layers into the
// operations the API and CLI expose.
package services

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/constructiq/safety-lead-pipeline/internal/metrics"
	"github.com/constructiq/safety-lead-pipeline/internal/repository"
	"github.com/constructiq/safety-lead-pipeline/pkg/config"
)

// Services contains all application services.
type Services struct {
	Pipeline  *RebuildPipeline
	Ingestion *IngestionService
	Import    *ImportService
	Repos     *repository.Repositories
	Metrics   *metrics.Manager
}

// NewServices creates a Services instance with all dependencies. It fails
// when the scoring configuration is invalid, before any service can run.
func NewServices(db *sql.DB, scoringCfg *config.ScoringConfig, log *zap.Logger) (*Services, error) {
	repos := repository.NewRepositories(db)
	m := metrics.NewManager()

	pipeline, err := NewRebuildPipeline(repos, scoringCfg, m, log)
	if err != nil {
		return nil, err
	}
	return &Services{
		Pipeline:  pipeline,
		Ingestion: NewIngestionService(repos, scoringCfg, log),
		Import:    NewImportService(repos, scoringCfg, log),
		Repos:     repos,
		Metrics:   m,
	}, nil
}
