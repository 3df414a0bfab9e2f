package resolution

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/constructiq/safety-lead-pipeline/internal/models"
	"github.com/constructiq/safety-lead-pipeline/internal/repository"
)

// EvidenceQuality is the categorical confidence in a resolved business
// relationship, derived from how much detail the relationship carries.
type EvidenceQuality string

const (
	EvidenceHigh   EvidenceQuality = "high"
	EvidenceMedium EvidenceQuality = "medium"
	EvidenceLow    EvidenceQuality = "low"
	EvidenceNone   EvidenceQuality = "none"
)

// Confidence maps evidence quality onto the [0,1] relationship confidence
// stored on opportunities.
func (q EvidenceQuality) Confidence() float64 {
	switch q {
	case EvidenceHigh:
		return 0.9
	case EvidenceMedium:
		return 0.7
	case EvidenceLow:
		return 0.4
	default:
		return 0
	}
}

func lowerTier(q EvidenceQuality) EvidenceQuality {
	switch q {
	case EvidenceHigh:
		return EvidenceMedium
	case EvidenceMedium:
		return EvidenceLow
	default:
		// Lowering below "low" would suppress the opportunity entirely,
		// which contradicts producing it at reduced quality.
		return EvidenceLow
	}
}

// RelationshipContext is the GC/owner/project context active for a
// subcontractor at a point in time.
type RelationshipContext struct {
	GCID      *uuid.UUID      `json:"gc_id"`
	OwnerID   *uuid.UUID      `json:"owner_id"`
	ProjectID *uuid.UUID      `json:"project_id"`
	Trade     string          `json:"trade"`
	Quality   EvidenceQuality `json:"evidence_quality"`
	Stale     bool            `json:"stale"`
}

// HasTarget reports whether at least one of GC or owner was resolved.
func (c RelationshipContext) HasTarget() bool {
	return c.GCID != nil || c.OwnerID != nil
}

// Locator finds the relationship context for a subcontractor as of a given
// date.
type Locator struct {
	relationships repository.RelationshipRepository
}

// NewLocator creates a relationship locator.
func NewLocator(relationships repository.RelationshipRepository) *Locator {
	return &Locator{relationships: relationships}
}

// Locate selects the subcontractor's relationships whose active range
// contains asOf. When none is active it falls back to the most recently
// ended relationship, marking the context stale and its evidence quality one
// tier lower. With no relationship at all the context carries quality "none"
// and no targets; the event still exists but yields no opportunity.
func (l *Locator) Locate(ctx context.Context, subID uuid.UUID, asOf time.Time) (RelationshipContext, error) {
	active, err := l.relationships.ActiveForSub(ctx, subID, asOf)
	if err != nil {
		return RelationshipContext{}, err
	}
	if len(active) > 0 {
		return buildContext(active, false), nil
	}

	stale, err := l.relationships.MostRecentlyEnded(ctx, subID, asOf)
	if err != nil {
		return RelationshipContext{}, err
	}
	if stale == nil {
		return RelationshipContext{Quality: EvidenceNone}, nil
	}
	return buildContext([]models.SubRelationship{*stale}, true), nil
}

// buildContext derives targets and evidence quality from a relationship set.
// Ordering is fixed (newest start first, then identifier) so repeated runs
// resolve the same GC and owner.
func buildContext(rels []models.SubRelationship, stale bool) RelationshipContext {
	sort.Slice(rels, func(i, j int) bool {
		si, sj := rels[i].StartDate, rels[j].StartDate
		switch {
		case si != nil && sj != nil && !si.Equal(*sj):
			return si.After(*sj)
		case si != nil && sj == nil:
			return true
		case si == nil && sj != nil:
			return false
		}
		return rels[i].ID.String() < rels[j].ID.String()
	})

	out := RelationshipContext{Stale: stale}
	detailed := 0
	for i := range rels {
		rel := &rels[i]
		if rel.HasProjectDetail() {
			detailed++
			if out.ProjectID == nil {
				out.ProjectID = rel.ProjectID
			}
		}
		if out.GCID == nil && rel.GCID != nil {
			out.GCID = rel.GCID
		}
		if out.OwnerID == nil && rel.OwnerID != nil {
			out.OwnerID = rel.OwnerID
		}
		if out.Trade == "" {
			out.Trade = rel.Trade
		}
	}

	switch {
	case len(rels) > 1 && detailed > 1:
		out.Quality = EvidenceHigh
	case detailed >= 1:
		out.Quality = EvidenceMedium
	default:
		out.Quality = EvidenceLow
	}
	if stale {
		out.Quality = lowerTier(out.Quality)
	}
	return out
}
