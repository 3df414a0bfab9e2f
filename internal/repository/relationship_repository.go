package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/constructiq/safety-lead-pipeline/internal/apperrors"
	"github.com/constructiq/safety-lead-pipeline/internal/models"
)

const relationshipColumns = `id, sub_id, gc_id, owner_id, project_id, trade, po_value, start_date, end_date, created_at`

// relationshipRepository implements RelationshipRepository.
type relationshipRepository struct {
	db dbExecutor
}

// NewRelationshipRepository creates a new relationship repository.
func NewRelationshipRepository(db dbExecutor) RelationshipRepository {
	return &relationshipRepository{db: db}
}

func scanRelationships(rows *sql.Rows) ([]models.SubRelationship, error) {
	var rels []models.SubRelationship
	for rows.Next() {
		var rel models.SubRelationship
		err := rows.Scan(
			&rel.ID, &rel.SubID, &rel.GCID, &rel.OwnerID, &rel.ProjectID,
			&rel.Trade, &rel.POValue, &rel.StartDate, &rel.EndDate, &rel.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		rels = append(rels, rel)
	}
	return rels, rows.Err()
}

// Create creates a new subcontractor relationship.
func (r *relationshipRepository) Create(ctx context.Context, rel *models.SubRelationship) error {
	if rel.ID == uuid.Nil {
		rel.ID = uuid.New()
	}
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO sub_relationships (` + relationshipColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		rel.ID, rel.SubID, rel.GCID, rel.OwnerID, rel.ProjectID,
		rel.Trade, rel.POValue, rel.StartDate, rel.EndDate, rel.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create relationship: %w", err)
	}
	return nil
}

// ActiveForSub retrieves the subcontractor's relationships whose date range
// contains asOf. Null bounds count as open-ended.
func (r *relationshipRepository) ActiveForSub(ctx context.Context, subID uuid.UUID, asOf time.Time) ([]models.SubRelationship, error) {
	query := `
		SELECT ` + relationshipColumns + `
		FROM sub_relationships
		WHERE sub_id = $1
		  AND (start_date IS NULL OR start_date <= $2)
		  AND (end_date IS NULL OR end_date >= $2)
		ORDER BY start_date DESC NULLS LAST, id
	`
	rows, err := r.db.QueryContext(ctx, query, subID, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to query active relationships: %w", err)
	}
	defer rows.Close()
	return scanRelationships(rows)
}

// MostRecentlyEnded retrieves the relationship that ended most recently
// before the given time, for stale-data fallback. Returns nil without error
// when the subcontractor has none.
func (r *relationshipRepository) MostRecentlyEnded(ctx context.Context, subID uuid.UUID, before time.Time) (*models.SubRelationship, error) {
	query := `
		SELECT ` + relationshipColumns + `
		FROM sub_relationships
		WHERE sub_id = $1 AND end_date IS NOT NULL AND end_date < $2
		ORDER BY end_date DESC, id
		LIMIT 1
	`
	rows, err := r.db.QueryContext(ctx, query, subID, before)
	if err != nil {
		return nil, fmt.Errorf("failed to query ended relationships: %w", err)
	}
	defer rows.Close()

	rels, err := scanRelationships(rows)
	if err != nil {
		return nil, err
	}
	if len(rels) == 0 {
		return nil, nil
	}
	return &rels[0], nil
}

// ListForSub retrieves all relationships for a subcontractor.
func (r *relationshipRepository) ListForSub(ctx context.Context, subID uuid.UUID) ([]models.SubRelationship, error) {
	query := `
		SELECT ` + relationshipColumns + `
		FROM sub_relationships WHERE sub_id = $1
		ORDER BY start_date DESC NULLS LAST, id
	`
	rows, err := r.db.QueryContext(ctx, query, subID)
	if err != nil {
		return nil, fmt.Errorf("failed to query relationships: %w", err)
	}
	defer rows.Close()
	return scanRelationships(rows)
}

// CountForCompany counts relationships where the company appears on any
// side. Used as the fuzzy-match tie-breaker.
func (r *relationshipRepository) CountForCompany(ctx context.Context, companyID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*) FROM sub_relationships
		WHERE sub_id = $1 OR gc_id = $1 OR owner_id = $1
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, companyID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count relationships: %w", err)
	}
	return count, nil
}

// projectRepository implements ProjectRepository.
type projectRepository struct {
	db dbExecutor
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db dbExecutor) ProjectRepository {
	return &projectRepository{db: db}
}

// GetByName retrieves a project by name.
func (r *projectRepository) GetByName(ctx context.Context, name string) (*models.Project, error) {
	query := `
		SELECT id, name, location, owner_id, gc_id, start_date, end_date, created_at
		FROM projects WHERE name = $1
		ORDER BY id LIMIT 1
	`
	p := &models.Project{}
	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&p.ID, &p.Name, &p.Location, &p.OwnerID, &p.GCID, &p.StartDate, &p.EndDate, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound(fmt.Sprintf("project %q not found", name), err)
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// Create creates a new project.
func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO projects (id, name, location, owner_id, gc_id, start_date, end_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		project.ID, project.Name, project.Location, project.OwnerID, project.GCID,
		project.StartDate, project.EndDate, project.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}
