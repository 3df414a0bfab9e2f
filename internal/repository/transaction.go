package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/constructiq/safety-lead-pipeline/internal/apperrors"
)

// dbExecutor is the subset of database operations both *sql.DB and *sql.Tx
// implement, so repositories work identically inside and outside a
// transaction.
type dbExecutor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// transactionManager implements TransactionManager.
type transactionManager struct {
	db *sql.DB
}

// NewTransactionManager creates a new transaction manager.
func NewTransactionManager(db *sql.DB) TransactionManager {
	return &transactionManager{db: db}
}

// WithTransaction executes fn within a database transaction, rolling back on
// error.
func (tm *transactionManager) WithTransaction(ctx context.Context, fn func(repos *Repositories) error) error {
	tx, err := tm.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.DatabaseError("failed to begin transaction", err)
	}

	repos := newRepositories(tx, tm)
	if err := fn(repos); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("transaction failed: %v, rollback failed: %w", err, rollbackErr)
		}
		return fmt.Errorf("transaction failed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.DatabaseError("failed to commit transaction", err)
	}
	return nil
}

// NewRepositories creates the repository collection over a database handle.
func NewRepositories(db *sql.DB) *Repositories {
	return newRepositories(db, NewTransactionManager(db))
}

func newRepositories(db dbExecutor, tx TransactionManager) *Repositories {
	return &Repositories{
		Companies:     NewCompanyRepository(db),
		Aliases:       NewAliasRepository(db),
		Relationships: NewRelationshipRepository(db),
		Projects:      NewProjectRepository(db),
		Events:        NewEventRepository(db),
		Metrics:       NewMetricsITARepository(db),
		Opportunities: NewOpportunityRepository(db),
		Tx:            tx,
	}
}
