package models

import (
	"time"

	"github.com/google/uuid"
)

// BusinessType classifies a company's role in the construction ecosystem.
type BusinessType string

const (
	BusinessTypeGC      BusinessType = "GC"
	BusinessTypeOwner   BusinessType = "Owner"
	BusinessTypeSub     BusinessType = "Sub"
	BusinessTypeUnknown BusinessType = "Unknown"
)

// Company represents a canonical company entity. CanonicalKey is the
// normalized comparison form of Name and must be recomputed whenever the
// name changes.
type Company struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	Name         string       `json:"name" db:"name"`
	Type         BusinessType `json:"type" db:"type"`
	NAICS        string       `json:"naics" db:"naics"`
	State        string       `json:"state" db:"state"`
	CanonicalKey string       `json:"canonical_key" db:"canonical_key"`
	Provisional  bool         `json:"provisional" db:"provisional"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// CompanyAlias maps an alternate normalized name onto a company. Aliases are
// written by manual upload or by the resolver when it accepts a fuzzy match;
// they are never deleted automatically so resolution decisions stay auditable.
type CompanyAlias struct {
	ID         uuid.UUID `json:"id" db:"id"`
	CompanyID  uuid.UUID `json:"company_id" db:"company_id"`
	Alias      string    `json:"alias" db:"alias"`
	Confidence float64   `json:"confidence" db:"confidence"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Project is a construction project that relationships and events may
// reference.
type Project struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Location  string     `json:"location" db:"location"`
	OwnerID   *uuid.UUID `json:"owner_id" db:"owner_id"`
	GCID      *uuid.UUID `json:"gc_id" db:"gc_id"`
	StartDate *time.Time `json:"start_date" db:"start_date"`
	EndDate   *time.Time `json:"end_date" db:"end_date"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// SubRelationship links a subcontractor to a general contractor and/or owner,
// optionally through a project. A subcontractor typically has several of
// these; the locator range-queries them by date.
type SubRelationship struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	SubID     uuid.UUID  `json:"sub_id" db:"sub_id"`
	GCID      *uuid.UUID `json:"gc_id" db:"gc_id"`
	OwnerID   *uuid.UUID `json:"owner_id" db:"owner_id"`
	ProjectID *uuid.UUID `json:"project_id" db:"project_id"`
	Trade     string     `json:"trade" db:"trade"`
	POValue   *float64   `json:"po_value" db:"po_value"`
	StartDate *time.Time `json:"start_date" db:"start_date"`
	EndDate   *time.Time `json:"end_date" db:"end_date"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// ActiveAt reports whether the relationship's date range contains t. An open
// start or end bound counts as unbounded on that side.
func (r *SubRelationship) ActiveAt(t time.Time) bool {
	if r.StartDate != nil && t.Before(*r.StartDate) {
		return false
	}
	if r.EndDate != nil && t.After(*r.EndDate) {
		return false
	}
	return true
}

// HasProjectDetail reports whether the relationship carries project and date
// information, which raises evidence quality.
func (r *SubRelationship) HasProjectDetail() bool {
	return r.ProjectID != nil && r.StartDate != nil && r.EndDate != nil
}

// MetricsITA holds per-company per-year OSHA ITA safety statistics. Unique
// per (company, year).
type MetricsITA struct {
	ID          uuid.UUID `json:"id" db:"id"`
	CompanyID   uuid.UUID `json:"company_id" db:"company_id"`
	Year        int       `json:"year" db:"year"`
	Recordables int       `json:"recordables" db:"recordables"`
	DARTCases   int       `json:"dart_cases" db:"dart_cases"`
	HoursWorked int64     `json:"hours_worked" db:"hours_worked"`
	DARTRate    float64   `json:"dart_rate" db:"dart_rate"`
	SourceLink  string    `json:"source_link" db:"source_link"`
}
