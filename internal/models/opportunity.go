package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TargetRole says which side of the relationship an opportunity targets.
type TargetRole string

const (
	TargetRoleGC    TargetRole = "gc"
	TargetRoleOwner TargetRole = "owner"
)

// FactorScore is one factor's contribution to an opportunity score. Raw is
// on the factor's own 0-Max scale; Weighted = Raw * Weight.
type FactorScore struct {
	Factor   string  `json:"factor"`
	Raw      float64 `json:"raw"`
	Max      float64 `json:"max"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
}

// FactorBreakdown is the full per-factor breakdown stored alongside an
// opportunity so downstream messaging can see which factors drove the score.
type FactorBreakdown []FactorScore

// Value implements driver.Valuer for FactorBreakdown.
func (b FactorBreakdown) Value() (driver.Value, error) {
	return json.Marshal(b)
}

// Scan implements sql.Scanner for FactorBreakdown.
func (b *FactorBreakdown) Scan(value interface{}) error {
	if value == nil {
		*b = FactorBreakdown{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into FactorBreakdown", value)
	}
	return json.Unmarshal(bytes, b)
}

// TargetOpportunity is a ranked engagement opportunity against a GC or owner,
// driven by a single event. At most one live row exists per
// (driver event, target company) pair; it is derivative state and can be
// recomputed from events and relationships at any time.
type TargetOpportunity struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	DriverEventID   uuid.UUID       `json:"driver_event_id" db:"driver_event_id"`
	TargetCompanyID uuid.UUID       `json:"target_company_id" db:"target_company_id"`
	TargetRole      TargetRole      `json:"target_role" db:"target_role"`
	PropensityScore float64         `json:"propensity_score" db:"propensity_score"`
	Confidence      float64         `json:"confidence" db:"confidence"`
	TalkTrack       string          `json:"talk_track" db:"talk_track"`
	EvidenceQuality string          `json:"evidence_quality" db:"evidence_quality"`
	Breakdown       FactorBreakdown `json:"breakdown" db:"breakdown"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	ComputedAt      time.Time       `json:"computed_at" db:"computed_at"`
}
