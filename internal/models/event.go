package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType identifies the shape of an event's payload.
type EventType string

const (
	EventTypeInspection EventType = "inspection"
	EventTypeCitation   EventType = "citation"
	EventTypeAccident   EventType = "accident"
	EventTypeNews       EventType = "news"
	EventTypeITAMetric  EventType = "ita-metric"
)

// IsIncident reports whether the event type counts toward incident frequency
// windows (inspections, citations and accidents do; news and ITA metrics
// do not).
func (t EventType) IsIncident() bool {
	switch t {
	case EventTypeInspection, EventTypeCitation, EventTypeAccident:
		return true
	}
	return false
}

// Event is a normalized safety-incident record handed over by a source
// adapter. Immutable once created, except that CompanyID may be backfilled
// when resolution runs after ingestion.
type Event struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Source         string     `json:"source" db:"source"`
	Type           EventType  `json:"event_type" db:"event_type"`
	RawCompanyName string     `json:"raw_company_name" db:"raw_company_name"`
	CompanyID      *uuid.UUID `json:"company_id" db:"company_id"`
	ProjectID      *uuid.UUID `json:"project_id" db:"project_id"`
	OccurredOn     time.Time  `json:"occurred_on" db:"occurred_on"`
	SeverityScore  float64    `json:"severity_score" db:"severity_score"`
	Payload        Payload    `json:"payload" db:"payload"`
	Link           string     `json:"link" db:"link"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// Payload is the event's structured data blob. Its shape depends on the
// event type, so it is stored raw and decoded into a typed variant at the
// scoring boundary rather than trusted as schema-free.
type Payload json.RawMessage

// Value implements driver.Valuer for Payload.
func (p Payload) Value() (driver.Value, error) {
	if len(p) == 0 {
		return []byte("{}"), nil
	}
	return []byte(p), nil
}

// Scan implements sql.Scanner for Payload.
func (p *Payload) Scan(value interface{}) error {
	if value == nil {
		*p = Payload("{}")
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into Payload", value)
	}
	*p = Payload(append([]byte(nil), bytes...))
	return nil
}

// MarshalJSON renders the raw payload as-is.
func (p Payload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("{}"), nil
	}
	return []byte(p), nil
}

// UnmarshalJSON stores the raw bytes without interpreting them.
func (p *Payload) UnmarshalJSON(data []byte) error {
	*p = Payload(append([]byte(nil), data...))
	return nil
}

// IncidentPayload is the payload variant for inspection, citation and
// accident events.
type IncidentPayload struct {
	Fatality     bool    `json:"fatality"`
	Catastrophic bool    `json:"catastrophic"`
	SeverityType string  `json:"severity_type"` // e.g. "Willful", "Serious", "Other"
	Penalty      float64 `json:"penalty"`
	Violations   int     `json:"violations"`
	Narrative    string  `json:"narrative"`
}

// NewsPayload is the payload variant for news events. Body may contain HTML
// depending on the upstream adapter.
type NewsPayload struct {
	Headline string `json:"headline"`
	Body     string `json:"body"`
	Outlet   string `json:"outlet"`
}

// ITAPayload is the payload variant for ita-metric events.
type ITAPayload struct {
	Year        int     `json:"year"`
	Recordables int     `json:"recordables"`
	DARTCases   int     `json:"dart_cases"`
	HoursWorked int64   `json:"hours_worked"`
	DARTRate    float64 `json:"dart_rate"`
}

// IncidentPayload decodes the payload as an incident variant. Only valid for
// inspection, citation and accident events.
func (e *Event) IncidentPayload() (*IncidentPayload, error) {
	if !e.Type.IsIncident() {
		return nil, fmt.Errorf("event %s has type %q, not an incident type", e.ID, e.Type)
	}
	var p IncidentPayload
	if err := json.Unmarshal([]byte(e.Payload), &p); err != nil {
		return nil, fmt.Errorf("invalid incident payload on event %s: %w", e.ID, err)
	}
	return &p, nil
}

// NewsPayload decodes the payload as a news variant.
func (e *Event) NewsPayload() (*NewsPayload, error) {
	if e.Type != EventTypeNews {
		return nil, fmt.Errorf("event %s has type %q, not news", e.ID, e.Type)
	}
	var p NewsPayload
	if err := json.Unmarshal([]byte(e.Payload), &p); err != nil {
		return nil, fmt.Errorf("invalid news payload on event %s: %w", e.ID, err)
	}
	return &p, nil
}

// ITAPayload decodes the payload as an ITA metrics variant.
func (e *Event) ITAPayload() (*ITAPayload, error) {
	if e.Type != EventTypeITAMetric {
		return nil, fmt.Errorf("event %s has type %q, not ita-metric", e.ID, e.Type)
	}
	var p ITAPayload
	if err := json.Unmarshal([]byte(e.Payload), &p); err != nil {
		return nil, fmt.Errorf("invalid ita payload on event %s: %w", e.ID, err)
	}
	return &p, nil
}
