package resolution

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/constructiq/safety-lead-pipeline/internal/apperrors"
	"github.com/constructiq/safety-lead-pipeline/internal/models"
	"github.com/constructiq/safety-lead-pipeline/internal/repository"
)

// In-memory repository fakes. Maps keyed by ID with deterministic iteration
// via sorted copies, mirroring the ORDER BY clauses of the real queries.

type fakeCompanyRepo struct {
	companies map[uuid.UUID]*models.Company
}

func newFakeCompanyRepo() *fakeCompanyRepo {
	return &fakeCompanyRepo{companies: make(map[uuid.UUID]*models.Company)}
}

func (r *fakeCompanyRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Company, error) {
	if c, ok := r.companies[id]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, apperrors.NotFound("company not found", nil)
}

func (r *fakeCompanyRepo) GetByCanonicalKey(_ context.Context, key string) (*models.Company, error) {
	var match *models.Company
	for _, c := range r.companies {
		if c.CanonicalKey != key {
			continue
		}
		if match == nil || c.ID.String() < match.ID.String() {
			match = c
		}
	}
	if match == nil {
		return nil, apperrors.NotFound("no company with key", nil)
	}
	clone := *match
	return &clone, nil
}

func (r *fakeCompanyRepo) Create(_ context.Context, company *models.Company) error {
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	clone := *company
	r.companies[company.ID] = &clone
	return nil
}

func (r *fakeCompanyRepo) Update(_ context.Context, company *models.Company) error {
	if _, ok := r.companies[company.ID]; !ok {
		return apperrors.NotFound("company not found", nil)
	}
	clone := *company
	r.companies[company.ID] = &clone
	return nil
}

func (r *fakeCompanyRepo) ListKeys(_ context.Context) ([]repository.CompanyKey, error) {
	keys := make([]repository.CompanyKey, 0, len(r.companies))
	for _, c := range r.companies {
		keys = append(keys, repository.CompanyKey{ID: c.ID, CanonicalKey: c.CanonicalKey})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].ID.String() < keys[j].ID.String() })
	return keys, nil
}

type fakeAliasRepo struct {
	aliases []models.CompanyAlias
}

func (r *fakeAliasRepo) GetByAlias(_ context.Context, alias string) (*models.CompanyAlias, error) {
	var match *models.CompanyAlias
	for i := range r.aliases {
		a := &r.aliases[i]
		if a.Alias != alias {
			continue
		}
		if match == nil || a.CompanyID.String() < match.CompanyID.String() {
			match = a
		}
	}
	if match == nil {
		return nil, apperrors.NotFound("no alias", nil)
	}
	clone := *match
	return &clone, nil
}

func (r *fakeAliasRepo) Upsert(_ context.Context, alias *models.CompanyAlias) error {
	for _, existing := range r.aliases {
		if existing.CompanyID == alias.CompanyID && existing.Alias == alias.Alias {
			return nil
		}
	}
	if alias.ID == uuid.Nil {
		alias.ID = uuid.New()
	}
	r.aliases = append(r.aliases, *alias)
	return nil
}

func (r *fakeAliasRepo) List(_ context.Context) ([]models.CompanyAlias, error) {
	out := make([]models.CompanyAlias, len(r.aliases))
	copy(out, r.aliases)
	return out, nil
}

type fakeRelationshipRepo struct {
	rels []models.SubRelationship
}

func (r *fakeRelationshipRepo) Create(_ context.Context, rel *models.SubRelationship) error {
	if rel.ID == uuid.Nil {
		rel.ID = uuid.New()
	}
	r.rels = append(r.rels, *rel)
	return nil
}

func (r *fakeRelationshipRepo) ActiveForSub(_ context.Context, subID uuid.UUID, asOf time.Time) ([]models.SubRelationship, error) {
	var out []models.SubRelationship
	for i := range r.rels {
		rel := r.rels[i]
		if rel.SubID == subID && rel.ActiveAt(asOf) {
			out = append(out, rel)
		}
	}
	return out, nil
}

func (r *fakeRelationshipRepo) MostRecentlyEnded(_ context.Context, subID uuid.UUID, before time.Time) (*models.SubRelationship, error) {
	var match *models.SubRelationship
	for i := range r.rels {
		rel := &r.rels[i]
		if rel.SubID != subID || rel.EndDate == nil || !rel.EndDate.Before(before) {
			continue
		}
		if match == nil || rel.EndDate.After(*match.EndDate) {
			match = rel
		}
	}
	if match == nil {
		return nil, nil
	}
	clone := *match
	return &clone, nil
}

func (r *fakeRelationshipRepo) ListForSub(_ context.Context, subID uuid.UUID) ([]models.SubRelationship, error) {
	var out []models.SubRelationship
	for i := range r.rels {
		if r.rels[i].SubID == subID {
			out = append(out, r.rels[i])
		}
	}
	return out, nil
}

func (r *fakeRelationshipRepo) CountForCompany(_ context.Context, companyID uuid.UUID) (int, error) {
	count := 0
	for i := range r.rels {
		rel := &r.rels[i]
		if rel.SubID == companyID ||
			(rel.GCID != nil && *rel.GCID == companyID) ||
			(rel.OwnerID != nil && *rel.OwnerID == companyID) {
			count++
		}
	}
	return count, nil
}

func newTestRepos() (*repository.Repositories, *fakeCompanyRepo, *fakeAliasRepo, *fakeRelationshipRepo) {
	companies := newFakeCompanyRepo()
	aliases := &fakeAliasRepo{}
	rels := &fakeRelationshipRepo{}
	repos := &repository.Repositories{
		Companies:     companies,
		Aliases:       aliases,
		Relationships: rels,
	}
	return repos, companies, aliases, rels
}
