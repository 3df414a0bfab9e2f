package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/constructiq/safety-lead-pipeline/internal/apperrors"
	"github.com/constructiq/safety-lead-pipeline/internal/models"
)

const opportunityColumns = `id, driver_event_id, target_company_id, target_role, propensity_score, confidence, talk_track, evidence_quality, breakdown, created_at, computed_at`

// opportunityRepository implements OpportunityRepository.
type opportunityRepository struct {
	db dbExecutor
}

// NewOpportunityRepository creates a new opportunity repository.
func NewOpportunityRepository(db dbExecutor) OpportunityRepository {
	return &opportunityRepository{db: db}
}

func scanOpportunities(rows *sql.Rows) ([]models.TargetOpportunity, error) {
	var opps []models.TargetOpportunity
	for rows.Next() {
		var o models.TargetOpportunity
		err := rows.Scan(
			&o.ID, &o.DriverEventID, &o.TargetCompanyID, &o.TargetRole,
			&o.PropensityScore, &o.Confidence, &o.TalkTrack, &o.EvidenceQuality,
			&o.Breakdown, &o.CreatedAt, &o.ComputedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan opportunity: %w", err)
		}
		opps = append(opps, o)
	}
	return opps, rows.Err()
}

// Upsert inserts an opportunity or replaces the existing one for the same
// (driver event, target company) pair. The replacement only happens when the
// new score is greater than or equal to the old, so higher scores win and
// ties keep the freshest computation. (xmax = 0) in the RETURNING clause is
// true only for newly inserted rows, which lets callers distinguish created,
// updated and suppressed writes without a second round trip.
func (r *opportunityRepository) Upsert(ctx context.Context, opp *models.TargetOpportunity) (UpsertOutcome, error) {
	if opp.ID == uuid.Nil {
		opp.ID = uuid.New()
	}
	now := time.Now()
	if opp.CreatedAt.IsZero() {
		opp.CreatedAt = now
	}
	if opp.ComputedAt.IsZero() {
		opp.ComputedAt = now
	}

	query := `
		INSERT INTO target_opportunities (` + opportunityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (driver_event_id, target_company_id) DO UPDATE SET
			target_role = EXCLUDED.target_role,
			propensity_score = EXCLUDED.propensity_score,
			confidence = EXCLUDED.confidence,
			talk_track = EXCLUDED.talk_track,
			evidence_quality = EXCLUDED.evidence_quality,
			breakdown = EXCLUDED.breakdown,
			computed_at = EXCLUDED.computed_at
		WHERE target_opportunities.propensity_score <= EXCLUDED.propensity_score
		RETURNING (xmax = 0)
	`
	var created bool
	err := r.db.QueryRowContext(ctx, query,
		opp.ID, opp.DriverEventID, opp.TargetCompanyID, opp.TargetRole,
		opp.PropensityScore, opp.Confidence, opp.TalkTrack, opp.EvidenceQuality,
		opp.Breakdown, opp.CreatedAt, opp.ComputedAt,
	).Scan(&created)
	if err != nil {
		// No row returned means the conflict row had a strictly higher
		// score and the update was suppressed. That is not an error.
		if errors.Is(err, sql.ErrNoRows) {
			return UpsertUnchanged, nil
		}
		return UpsertUnchanged, fmt.Errorf("failed to upsert opportunity: %w", err)
	}
	if created {
		return UpsertCreated, nil
	}
	return UpsertUpdated, nil
}

// GetByID retrieves an opportunity by ID with its full factor breakdown.
func (r *opportunityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.TargetOpportunity, error) {
	query := `SELECT ` + opportunityColumns + ` FROM target_opportunities WHERE id = $1`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query opportunity: %w", err)
	}
	defer rows.Close()

	opps, err := scanOpportunities(rows)
	if err != nil {
		return nil, err
	}
	if len(opps) == 0 {
		return nil, apperrors.NotFound(fmt.Sprintf("opportunity %s not found", id), sql.ErrNoRows)
	}
	return &opps[0], nil
}

// List retrieves opportunities matching the filters, highest score first.
func (r *opportunityRepository) List(ctx context.Context, filters OpportunityFilters) ([]models.TargetOpportunity, error) {
	query := `SELECT ` + opportunityColumns + ` FROM target_opportunities`
	var whereClauses []string
	var args []interface{}
	argIndex := 1

	if filters.MinScore != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("propensity_score >= $%d", argIndex))
		args = append(args, *filters.MinScore)
		argIndex++
	}
	if filters.TargetID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("target_company_id = $%d", argIndex))
		args = append(args, *filters.TargetID)
		argIndex++
	}
	if filters.TalkTrack != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("talk_track = $%d", argIndex))
		args = append(args, filters.TalkTrack)
		argIndex++
	}
	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}
	query += " ORDER BY propensity_score DESC, computed_at DESC, id"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filters.Limit)
		argIndex++
	}
	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filters.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query opportunities: %w", err)
	}
	defer rows.Close()
	return scanOpportunities(rows)
}

// CountLive counts all stored opportunities.
func (r *opportunityRepository) CountLive(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM target_opportunities`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count opportunities: %w", err)
	}
	return count, nil
}
