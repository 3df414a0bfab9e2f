package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/constructiq/safety-lead-pipeline/internal/apperrors"
	"github.com/constructiq/safety-lead-pipeline/internal/models"
)

const metricsITAColumns = `id, company_id, year, recordables, dart_cases, hours_worked, dart_rate, source_link`

// metricsITARepository implements MetricsITARepository.
type metricsITARepository struct {
	db dbExecutor
}

// NewMetricsITARepository creates a new ITA metrics repository.
func NewMetricsITARepository(db dbExecutor) MetricsITARepository {
	return &metricsITARepository{db: db}
}

// Upsert inserts or replaces a company's ITA submission for a year. Later
// submissions for the same year overwrite earlier ones.
func (r *metricsITARepository) Upsert(ctx context.Context, m *models.MetricsITA) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	query := `
		INSERT INTO metrics_ita (` + metricsITAColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (company_id, year) DO UPDATE SET
			recordables = EXCLUDED.recordables,
			dart_cases = EXCLUDED.dart_cases,
			hours_worked = EXCLUDED.hours_worked,
			dart_rate = EXCLUDED.dart_rate,
			source_link = EXCLUDED.source_link
	`
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.CompanyID, m.Year, m.Recordables, m.DARTCases,
		m.HoursWorked, m.DARTRate, m.SourceLink,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert ITA metrics: %w", err)
	}
	return nil
}

// LatestForCompany retrieves the company's most recent ITA submission by
// reporting year.
func (r *metricsITARepository) LatestForCompany(ctx context.Context, companyID uuid.UUID) (*models.MetricsITA, error) {
	query := `
		SELECT ` + metricsITAColumns + `
		FROM metrics_ita WHERE company_id = $1
		ORDER BY year DESC LIMIT 1
	`
	m := &models.MetricsITA{}
	err := r.db.QueryRowContext(ctx, query, companyID).Scan(
		&m.ID, &m.CompanyID, &m.Year, &m.Recordables, &m.DARTCases,
		&m.HoursWorked, &m.DARTRate, &m.SourceLink,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound(fmt.Sprintf("no ITA metrics for company %s", companyID), err)
		}
		return nil, fmt.Errorf("failed to get ITA metrics: %w", err)
	}
	return m, nil
}
