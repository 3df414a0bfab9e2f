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

const companyColumns = `id, name, type, naics, state, canonical_key, provisional, created_at, updated_at`

// companyRepository implements CompanyRepository.
type companyRepository struct {
	db dbExecutor
}

// NewCompanyRepository creates a new company repository.
func NewCompanyRepository(db dbExecutor) CompanyRepository {
	return &companyRepository{db: db}
}

func scanCompany(row interface{ Scan(...interface{}) error }) (*models.Company, error) {
	company := &models.Company{}
	err := row.Scan(
		&company.ID, &company.Name, &company.Type, &company.NAICS, &company.State,
		&company.CanonicalKey, &company.Provisional, &company.CreatedAt, &company.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return company, nil
}

// GetByID retrieves a company by ID.
func (r *companyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`
	company, err := scanCompany(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound(fmt.Sprintf("company %s not found", id), err)
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return company, nil
}

// GetByCanonicalKey retrieves a company by its canonical comparison key.
func (r *companyRepository) GetByCanonicalKey(ctx context.Context, key string) (*models.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE canonical_key = $1 ORDER BY id LIMIT 1`
	company, err := scanCompany(r.db.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound(fmt.Sprintf("no company with canonical key %q", key), err)
		}
		return nil, fmt.Errorf("failed to get company by key: %w", err)
	}
	return company, nil
}

// Create creates a new company.
func (r *companyRepository) Create(ctx context.Context, company *models.Company) error {
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	now := time.Now()
	company.CreatedAt = now
	company.UpdatedAt = now

	query := `
		INSERT INTO companies (` + companyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		company.ID, company.Name, company.Type, company.NAICS, company.State,
		company.CanonicalKey, company.Provisional, company.CreatedAt, company.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create company: %w", err)
	}
	return nil
}

// Update updates an existing company. The canonical key is always rewritten
// so it can never drift from the display name.
func (r *companyRepository) Update(ctx context.Context, company *models.Company) error {
	company.UpdatedAt = time.Now()

	query := `
		UPDATE companies SET
			name = $2, type = $3, naics = $4, state = $5,
			canonical_key = $6, provisional = $7, updated_at = $8
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		company.ID, company.Name, company.Type, company.NAICS, company.State,
		company.CanonicalKey, company.Provisional, company.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update company: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NotFound(fmt.Sprintf("company %s not found", company.ID), nil)
	}
	return nil
}

// ListKeys retrieves every company's canonical key for the fuzzy matcher.
func (r *companyRepository) ListKeys(ctx context.Context) ([]CompanyKey, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, canonical_key FROM companies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query company keys: %w", err)
	}
	defer rows.Close()

	var keys []CompanyKey
	for rows.Next() {
		var k CompanyKey
		if err := rows.Scan(&k.ID, &k.CanonicalKey); err != nil {
			return nil, fmt.Errorf("failed to scan company key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
