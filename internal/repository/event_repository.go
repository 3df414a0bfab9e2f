package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/constructiq/safety-lead-pipeline/internal/apperrors"
	"github.com/constructiq/safety-lead-pipeline/internal/models"
)

const eventColumns = `id, source, event_type, raw_company_name, company_id, project_id, occurred_on, severity_score, payload, link, created_at`

// eventRepository implements EventRepository.
type eventRepository struct {
	db dbExecutor
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db dbExecutor) EventRepository {
	return &eventRepository{db: db}
}

func scanEvents(rows *sql.Rows) ([]models.Event, error) {
	var events []models.Event
	for rows.Next() {
		var e models.Event
		err := rows.Scan(
			&e.ID, &e.Source, &e.Type, &e.RawCompanyName, &e.CompanyID, &e.ProjectID,
			&e.OccurredOn, &e.SeverityScore, &e.Payload, &e.Link, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Create creates a new event.
func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if len(event.Payload) == 0 {
		event.Payload = models.Payload("{}")
	}

	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.Source, event.Type, event.RawCompanyName, event.CompanyID,
		event.ProjectID, event.OccurredOn, event.SeverityScore, event.Payload,
		event.Link, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// GetByID retrieves an event by ID.
func (r *eventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query event: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, apperrors.NotFound(fmt.Sprintf("event %s not found", id), sql.ErrNoRows)
	}
	return &events[0], nil
}

// ListBetween retrieves events in a time window ordered by ascending
// occurrence time, so rebuild passes process history in order. Nil bounds
// are open.
func (r *eventRepository) ListBetween(ctx context.Context, since, until *time.Time) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events`
	var whereClauses []string
	var args []interface{}
	argIndex := 1

	if since != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("occurred_on >= $%d", argIndex))
		args = append(args, *since)
		argIndex++
	}
	if until != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("occurred_on <= $%d", argIndex))
		args = append(args, *until)
		argIndex++
	}
	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}
	query += " ORDER BY occurred_on ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListIncidentsForCompany retrieves incident-type events for a company in
// [from, to], the shape the frequency window needs.
func (r *eventRepository) ListIncidentsForCompany(ctx context.Context, companyID uuid.UUID, from, to time.Time) ([]models.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE company_id = $1
		  AND event_type IN ('inspection', 'citation', 'accident')
		  AND occurred_on >= $2 AND occurred_on <= $3
		ORDER BY occurred_on ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query incidents: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListForCompany retrieves a company's most recent events.
func (r *eventRepository) ListForCompany(ctx context.Context, companyID uuid.UUID, limit int) ([]models.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events WHERE company_id = $1
		ORDER BY occurred_on DESC, id
		LIMIT $2
	`
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, query, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query company events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// SetCompany backfills the resolved company reference onto an event. This is
// the only mutation events allow after creation.
func (r *eventRepository) SetCompany(ctx context.Context, eventID, companyID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `UPDATE events SET company_id = $2 WHERE id = $1`, eventID, companyID)
	if err != nil {
		return fmt.Errorf("failed to set event company: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NotFound(fmt.Sprintf("event %s not found", eventID), nil)
	}
	return nil
}
