package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/constructiq/safety-lead-pipeline/internal/models"
)

// CompanyKey pairs a company identity with its canonical comparison key, the
// minimal shape the fuzzy matcher needs to scan every candidate.
type CompanyKey struct {
	ID           uuid.UUID
	CanonicalKey string
}

// CompanyRepository defines the interface for company data access.
type CompanyRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	GetByCanonicalKey(ctx context.Context, key string) (*models.Company, error)
	Create(ctx context.Context, company *models.Company) error
	Update(ctx context.Context, company *models.Company) error
	ListKeys(ctx context.Context) ([]CompanyKey, error)
}

// AliasRepository defines the interface for the alias index. Upsert must be
// atomic on (company_id, alias) so concurrent resolution of the same raw
// name never produces duplicate aliases.
type AliasRepository interface {
	GetByAlias(ctx context.Context, alias string) (*models.CompanyAlias, error)
	Upsert(ctx context.Context, alias *models.CompanyAlias) error
	List(ctx context.Context) ([]models.CompanyAlias, error)
}

// RelationshipRepository defines the interface for subcontractor
// relationship data access.
type RelationshipRepository interface {
	Create(ctx context.Context, rel *models.SubRelationship) error
	ActiveForSub(ctx context.Context, subID uuid.UUID, asOf time.Time) ([]models.SubRelationship, error)
	MostRecentlyEnded(ctx context.Context, subID uuid.UUID, before time.Time) (*models.SubRelationship, error)
	ListForSub(ctx context.Context, subID uuid.UUID) ([]models.SubRelationship, error)
	CountForCompany(ctx context.Context, companyID uuid.UUID) (int, error)
}

// ProjectRepository defines the interface for project data access.
type ProjectRepository interface {
	GetByName(ctx context.Context, name string) (*models.Project, error)
	Create(ctx context.Context, project *models.Project) error
}

// EventRepository defines the interface for event data access.
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	// ListBetween returns events ordered by ascending occurrence time so a
	// rebuild pass sees history in order. Nil bounds are open.
	ListBetween(ctx context.Context, since, until *time.Time) ([]models.Event, error)
	ListIncidentsForCompany(ctx context.Context, companyID uuid.UUID, from, to time.Time) ([]models.Event, error)
	ListForCompany(ctx context.Context, companyID uuid.UUID, limit int) ([]models.Event, error)
	SetCompany(ctx context.Context, eventID, companyID uuid.UUID) error
}

// MetricsITARepository defines the interface for ITA safety metrics.
type MetricsITARepository interface {
	Upsert(ctx context.Context, m *models.MetricsITA) error
	LatestForCompany(ctx context.Context, companyID uuid.UUID) (*models.MetricsITA, error)
}

// OpportunityFilters narrows opportunity listings.
type OpportunityFilters struct {
	MinScore  *float64
	TargetID  *uuid.UUID
	TalkTrack string
	Limit     int
	Offset    int
}

// UpsertOutcome says what an opportunity upsert did to the stored row.
type UpsertOutcome int

const (
	// UpsertCreated means a new row was inserted.
	UpsertCreated UpsertOutcome = iota
	// UpsertUpdated means the existing row was replaced in place.
	UpsertUpdated
	// UpsertUnchanged means the existing row held a strictly higher score
	// and the write was suppressed.
	UpsertUnchanged
)

// OpportunityRepository defines the interface for target opportunities.
// Upsert enforces at-most-one live row per (driver_event_id,
// target_company_id): on conflict the higher score wins and ties keep the
// most recently computed record.
type OpportunityRepository interface {
	Upsert(ctx context.Context, opp *models.TargetOpportunity) (UpsertOutcome, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.TargetOpportunity, error)
	List(ctx context.Context, filters OpportunityFilters) ([]models.TargetOpportunity, error)
	CountLive(ctx context.Context) (int, error)
}

// TransactionManager defines the interface for database transaction
// management.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(repos *Repositories) error) error
}

// Repositories groups all repository interfaces.
type Repositories struct {
	Companies     CompanyRepository
	Aliases       AliasRepository
	Relationships RelationshipRepository
	Projects      ProjectRepository
	Events        EventRepository
	Metrics       MetricsITARepository
	Opportunities OpportunityRepository
	Tx            TransactionManager
}
