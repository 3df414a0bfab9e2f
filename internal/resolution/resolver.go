package resolution

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/constructiq/safety-lead-pipeline/internal/apperrors"
	"github.com/constructiq/safety-lead-pipeline/internal/models"
	"github.com/constructiq/safety-lead-pipeline/internal/repository"
)

// Resolution is the outcome of resolving a raw company name.
type Resolution struct {
	CompanyID  uuid.UUID `json:"company_id"`
	Confidence float64   `json:"confidence"`
	Created    bool      `json:"created"`
}

// Resolver maps raw company names onto canonical company entities. Accepted
// fuzzy matches are written back to the alias index so future lookups
// short-circuit the fuzzy path.
type Resolver struct {
	companies     repository.CompanyRepository
	aliases       repository.AliasRepository
	relationships repository.RelationshipRepository
	threshold     float64
	similarity    *metrics.SorensenDice
	log           *zap.Logger
}

// NewResolver creates a resolver with the given similarity acceptance
// threshold on a 0-1 scale.
func NewResolver(repos *repository.Repositories, threshold float64, log *zap.Logger) *Resolver {
	return &Resolver{
		companies:     repos.Companies,
		aliases:       repos.Aliases,
		relationships: repos.Relationships,
		threshold:     threshold,
		similarity:    metrics.NewSorensenDice(),
		log:           log,
	}
}

// Resolve maps a raw name to a company identity. Resolution order: exact
// canonical key, exact alias, fuzzy similarity over keys and aliases, then
// provisional creation. It never fails on ambiguity; ties are broken
// deterministically by relationship count and then lexicographic identifier.
func (r *Resolver) Resolve(ctx context.Context, rawName string, hint models.BusinessType) (Resolution, error) {
	key, err := NormalizeName(rawName)
	if err != nil {
		return Resolution{}, err
	}

	// 1. Exact canonical-key match.
	if company, err := r.companies.GetByCanonicalKey(ctx, key); err == nil {
		return Resolution{CompanyID: company.ID, Confidence: 1.0}, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return Resolution{}, err
	}

	// 2. Exact alias match.
	if alias, err := r.aliases.GetByAlias(ctx, key); err == nil {
		return Resolution{CompanyID: alias.CompanyID, Confidence: alias.Confidence}, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return Resolution{}, err
	}

	// 3. Fuzzy similarity over all canonical keys and aliases.
	match, err := r.bestFuzzyMatch(ctx, key)
	if err != nil {
		return Resolution{}, err
	}
	if match != nil {
		if match.score < 1.0 {
			// Self-reinforcing cache: future lookups of this exact raw name
			// hit the alias index instead of re-running the fuzzy scan.
			if err := r.aliases.Upsert(ctx, &models.CompanyAlias{
				CompanyID:  match.companyID,
				Alias:      key,
				Confidence: match.score,
			}); err != nil {
				return Resolution{}, err
			}
		}
		return Resolution{CompanyID: match.companyID, Confidence: match.score}, nil
	}

	// 4. Nothing cleared the threshold: create a provisional company and
	// queue it for manual review instead of failing the pipeline.
	companyType := hint
	if companyType == "" || companyType == models.BusinessTypeUnknown {
		companyType = InferBusinessType(rawName)
	}
	company := &models.Company{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(rawName),
		Type:         companyType,
		CanonicalKey: key,
		Provisional:  true,
	}
	if err := r.companies.Create(ctx, company); err != nil {
		return Resolution{}, err
	}
	r.log.Info("created provisional company for manual review",
		zap.String("company_id", company.ID.String()),
		zap.String("raw_name", rawName),
		zap.String("type", string(companyType)))
	return Resolution{CompanyID: company.ID, Confidence: 0.5, Created: true}, nil
}

type fuzzyMatch struct {
	companyID uuid.UUID
	score     float64
}

// bestFuzzyMatch scans every canonical key and alias and returns the highest
// scoring candidate at or above the threshold, or nil if none qualifies.
// Equal scores are broken by existing relationship count (more wins), then by
// lexicographically smallest identifier, so repeated runs pick the same
// company.
func (r *Resolver) bestFuzzyMatch(ctx context.Context, key string) (*fuzzyMatch, error) {
	keys, err := r.companies.ListKeys(ctx)
	if err != nil {
		return nil, err
	}
	aliases, err := r.aliases.List(ctx)
	if err != nil {
		return nil, err
	}

	best := make(map[uuid.UUID]float64)
	consider := func(companyID uuid.UUID, candidate string) {
		score := strutil.Similarity(key, candidate, r.similarity)
		if score >= r.threshold && score > best[companyID] {
			best[companyID] = score
		}
	}
	for _, ck := range keys {
		consider(ck.ID, ck.CanonicalKey)
	}
	for _, a := range aliases {
		consider(a.CompanyID, a.Alias)
	}
	if len(best) == 0 {
		return nil, nil
	}

	top := -1.0
	for _, score := range best {
		if score > top {
			top = score
		}
	}
	var tied []uuid.UUID
	for id, score := range best {
		if score == top {
			tied = append(tied, id)
		}
	}
	winner, err := r.breakTie(ctx, tied)
	if err != nil {
		return nil, err
	}
	return &fuzzyMatch{companyID: winner, score: top}, nil
}

func (r *Resolver) breakTie(ctx context.Context, candidates []uuid.UUID) (uuid.UUID, error) {
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	winner := uuid.Nil
	winnerRels := -1
	for _, id := range candidates {
		rels, err := r.relationships.CountForCompany(ctx, id)
		if err != nil {
			return uuid.Nil, fmt.Errorf("counting relationships for tie-break: %w", err)
		}
		switch {
		case rels > winnerRels:
			winner, winnerRels = id, rels
		case rels == winnerRels && id.String() < winner.String():
			winner = id
		}
	}
	return winner, nil
}

// InferBusinessType guesses a company's role from name keywords. Used only
// for provisional companies created without a type hint.
func InferBusinessType(name string) models.BusinessType {
	lower := strings.ToLower(name)
	for _, word := range []string{"roofing", "steel", "demolition", "electric", "plumbing", "excavat", "scaffold"} {
		if strings.Contains(lower, word) {
			return models.BusinessTypeSub
		}
	}
	for _, word := range []string{"construction", "contracting", "contractor", "builders"} {
		if strings.Contains(lower, word) {
			return models.BusinessTypeGC
		}
	}
	for _, word := range []string{"development", "properties", "real estate", "holdings"} {
		if strings.Contains(lower, word) {
			return models.BusinessTypeOwner
		}
	}
	return models.BusinessTypeUnknown
}
