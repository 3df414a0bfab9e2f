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

// aliasRepository implements AliasRepository.
type aliasRepository struct {
	db dbExecutor
}

// NewAliasRepository creates a new alias repository.
func NewAliasRepository(db dbExecutor) AliasRepository {
	return &aliasRepository{db: db}
}

// GetByAlias retrieves an alias entry by its normalized text. When the same
// alias somehow points at several companies the lexicographically smallest
// company wins, keeping lookups deterministic.
func (r *aliasRepository) GetByAlias(ctx context.Context, alias string) (*models.CompanyAlias, error) {
	query := `
		SELECT id, company_id, alias, confidence, created_at
		FROM company_aliases WHERE alias = $1
		ORDER BY company_id LIMIT 1
	`
	a := &models.CompanyAlias{}
	err := r.db.QueryRowContext(ctx, query, alias).Scan(
		&a.ID, &a.CompanyID, &a.Alias, &a.Confidence, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound(fmt.Sprintf("no alias %q", alias), err)
		}
		return nil, fmt.Errorf("failed to get alias: %w", err)
	}
	return a, nil
}

// Upsert inserts an alias, leaving any existing (company_id, alias) row
// untouched. The conflict target makes concurrent resolutions of the same
// raw name race-free: exactly one row survives.
func (r *aliasRepository) Upsert(ctx context.Context, alias *models.CompanyAlias) error {
	if alias.ID == uuid.Nil {
		alias.ID = uuid.New()
	}
	if alias.CreatedAt.IsZero() {
		alias.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO company_aliases (id, company_id, alias, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (company_id, alias) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query,
		alias.ID, alias.CompanyID, alias.Alias, alias.Confidence, alias.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert alias: %w", err)
	}
	return nil
}

// List retrieves all aliases for the fuzzy matcher.
func (r *aliasRepository) List(ctx context.Context) ([]models.CompanyAlias, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, company_id, alias, confidence, created_at
		FROM company_aliases ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query aliases: %w", err)
	}
	defer rows.Close()

	var aliases []models.CompanyAlias
	for rows.Next() {
		var a models.CompanyAlias
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.Alias, &a.Confidence, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alias: %w", err)
		}
		aliases = append(aliases, a)
	}
	return aliases, rows.Err()
}
