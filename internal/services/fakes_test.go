package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/constructiq/safety-lead-pipeline/internal/apperrors"
	"github.com/constructiq/safety-lead-pipeline/internal/models"
	"github.com/constructiq/safety-lead-pipeline/internal/repository"
)

// In-memory fakes implementing the repository interfaces. Iteration over maps
// is sorted to match the ORDER BY clauses of the real queries.

type memCompanies struct {
	byID map[uuid.UUID]*models.Company
}

func (r *memCompanies) GetByID(_ context.Context, id uuid.UUID) (*models.Company, error) {
	if c, ok := r.byID[id]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, apperrors.NotFound("company not found", nil)
}

func (r *memCompanies) GetByCanonicalKey(_ context.Context, key string) (*models.Company, error) {
	var match *models.Company
	for _, c := range r.byID {
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

func (r *memCompanies) Create(_ context.Context, company *models.Company) error {
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	clone := *company
	r.byID[company.ID] = &clone
	return nil
}

func (r *memCompanies) Update(_ context.Context, company *models.Company) error {
	if _, ok := r.byID[company.ID]; !ok {
		return apperrors.NotFound("company not found", nil)
	}
	clone := *company
	r.byID[company.ID] = &clone
	return nil
}

func (r *memCompanies) ListKeys(_ context.Context) ([]repository.CompanyKey, error) {
	keys := make([]repository.CompanyKey, 0, len(r.byID))
	for _, c := range r.byID {
		keys = append(keys, repository.CompanyKey{ID: c.ID, CanonicalKey: c.CanonicalKey})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].ID.String() < keys[j].ID.String() })
	return keys, nil
}

type memAliases struct {
	aliases []models.CompanyAlias
}

func (r *memAliases) GetByAlias(_ context.Context, alias string) (*models.CompanyAlias, error) {
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

func (r *memAliases) Upsert(_ context.Context, alias *models.CompanyAlias) error {
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

func (r *memAliases) List(_ context.Context) ([]models.CompanyAlias, error) {
	out := make([]models.CompanyAlias, len(r.aliases))
	copy(out, r.aliases)
	return out, nil
}

type memRelationships struct {
	rels []models.SubRelationship
}

func (r *memRelationships) Create(_ context.Context, rel *models.SubRelationship) error {
	if rel.ID == uuid.Nil {
		rel.ID = uuid.New()
	}
	r.rels = append(r.rels, *rel)
	return nil
}

func (r *memRelationships) ActiveForSub(_ context.Context, subID uuid.UUID, asOf time.Time) ([]models.SubRelationship, error) {
	var out []models.SubRelationship
	for i := range r.rels {
		if r.rels[i].SubID == subID && r.rels[i].ActiveAt(asOf) {
			out = append(out, r.rels[i])
		}
	}
	return out, nil
}

func (r *memRelationships) MostRecentlyEnded(_ context.Context, subID uuid.UUID, before time.Time) (*models.SubRelationship, error) {
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

func (r *memRelationships) ListForSub(_ context.Context, subID uuid.UUID) ([]models.SubRelationship, error) {
	var out []models.SubRelationship
	for i := range r.rels {
		if r.rels[i].SubID == subID {
			out = append(out, r.rels[i])
		}
	}
	return out, nil
}

func (r *memRelationships) CountForCompany(_ context.Context, companyID uuid.UUID) (int, error) {
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

type memProjects struct {
	projects []models.Project
}

func (r *memProjects) GetByName(_ context.Context, name string) (*models.Project, error) {
	for i := range r.projects {
		if r.projects[i].Name == name {
			clone := r.projects[i]
			return &clone, nil
		}
	}
	return nil, apperrors.NotFound("project not found", nil)
}

func (r *memProjects) Create(_ context.Context, project *models.Project) error {
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	r.projects = append(r.projects, *project)
	return nil
}

type memEvents struct {
	events []models.Event
	// listGate, when set, blocks ListBetween until closed; listStarted is
	// closed on entry. Used to hold a rebuild mid-flight.
	listGate    chan struct{}
	listStarted chan struct{}
}

func (r *memEvents) Create(_ context.Context, event *models.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	r.events = append(r.events, *event)
	return nil
}

func (r *memEvents) GetByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	for i := range r.events {
		if r.events[i].ID == id {
			clone := r.events[i]
			return &clone, nil
		}
	}
	return nil, apperrors.NotFound("event not found", nil)
}

func (r *memEvents) ListBetween(_ context.Context, since, until *time.Time) ([]models.Event, error) {
	if r.listGate != nil {
		if r.listStarted != nil {
			close(r.listStarted)
			r.listStarted = nil
		}
		<-r.listGate
	}
	var out []models.Event
	for i := range r.events {
		e := r.events[i]
		if since != nil && e.OccurredOn.Before(*since) {
			continue
		}
		if until != nil && e.OccurredOn.After(*until) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredOn.Equal(out[j].OccurredOn) {
			return out[i].OccurredOn.Before(out[j].OccurredOn)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *memEvents) ListIncidentsForCompany(_ context.Context, companyID uuid.UUID, from, to time.Time) ([]models.Event, error) {
	var out []models.Event
	for i := range r.events {
		e := r.events[i]
		if e.CompanyID == nil || *e.CompanyID != companyID || !e.Type.IsIncident() {
			continue
		}
		if e.OccurredOn.Before(from) || e.OccurredOn.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *memEvents) ListForCompany(_ context.Context, companyID uuid.UUID, limit int) ([]models.Event, error) {
	var out []models.Event
	for i := range r.events {
		if r.events[i].CompanyID != nil && *r.events[i].CompanyID == companyID {
			out = append(out, r.events[i])
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memEvents) SetCompany(_ context.Context, eventID, companyID uuid.UUID) error {
	for i := range r.events {
		if r.events[i].ID == eventID {
			id := companyID
			r.events[i].CompanyID = &id
			return nil
		}
	}
	return apperrors.NotFound("event not found", nil)
}

type memMetrics struct {
	metrics []models.MetricsITA
}

func (r *memMetrics) Upsert(_ context.Context, m *models.MetricsITA) error {
	for i := range r.metrics {
		if r.metrics[i].CompanyID == m.CompanyID && r.metrics[i].Year == m.Year {
			r.metrics[i] = *m
			return nil
		}
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.metrics = append(r.metrics, *m)
	return nil
}

func (r *memMetrics) LatestForCompany(_ context.Context, companyID uuid.UUID) (*models.MetricsITA, error) {
	var match *models.MetricsITA
	for i := range r.metrics {
		m := &r.metrics[i]
		if m.CompanyID != companyID {
			continue
		}
		if match == nil || m.Year > match.Year {
			match = m
		}
	}
	if match == nil {
		return nil, apperrors.NotFound("no metrics", nil)
	}
	clone := *match
	return &clone, nil
}

type memOpportunities struct {
	opps []models.TargetOpportunity
}

func (r *memOpportunities) Upsert(_ context.Context, opp *models.TargetOpportunity) (repository.UpsertOutcome, error) {
	if opp.ID == uuid.Nil {
		opp.ID = uuid.New()
	}
	now := time.Now()
	if opp.CreatedAt.IsZero() {
		opp.CreatedAt = now
	}
	if opp.ComputedAt.IsZero() {
		opp.ComputedAt = now
	}
	for i := range r.opps {
		existing := &r.opps[i]
		if existing.DriverEventID != opp.DriverEventID || existing.TargetCompanyID != opp.TargetCompanyID {
			continue
		}
		if existing.PropensityScore > opp.PropensityScore {
			return repository.UpsertUnchanged, nil
		}
		replacement := *opp
		replacement.ID = existing.ID
		replacement.CreatedAt = existing.CreatedAt
		*existing = replacement
		return repository.UpsertUpdated, nil
	}
	r.opps = append(r.opps, *opp)
	return repository.UpsertCreated, nil
}

func (r *memOpportunities) GetByID(_ context.Context, id uuid.UUID) (*models.TargetOpportunity, error) {
	for i := range r.opps {
		if r.opps[i].ID == id {
			clone := r.opps[i]
			return &clone, nil
		}
	}
	return nil, apperrors.NotFound("opportunity not found", nil)
}

func (r *memOpportunities) List(_ context.Context, filters repository.OpportunityFilters) ([]models.TargetOpportunity, error) {
	var out []models.TargetOpportunity
	for i := range r.opps {
		o := r.opps[i]
		if filters.MinScore != nil && o.PropensityScore < *filters.MinScore {
			continue
		}
		if filters.TargetID != nil && o.TargetCompanyID != *filters.TargetID {
			continue
		}
		if filters.TalkTrack != "" && o.TalkTrack != filters.TalkTrack {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PropensityScore > out[j].PropensityScore })
	return out, nil
}

func (r *memOpportunities) CountLive(_ context.Context) (int, error) {
	return len(r.opps), nil
}

type memTx struct {
	repos *repository.Repositories
}

func (tx *memTx) WithTransaction(_ context.Context, fn func(repos *repository.Repositories) error) error {
	return fn(tx.repos)
}

func newMemRepos() *repository.Repositories {
	repos := &repository.Repositories{
		Companies:     &memCompanies{byID: make(map[uuid.UUID]*models.Company)},
		Aliases:       &memAliases{},
		Relationships: &memRelationships{},
		Projects:      &memProjects{},
		Events:        &memEvents{},
		Metrics:       &memMetrics{},
		Opportunities: &memOpportunities{},
	}
	repos.Tx = &memTx{repos: repos}
	return repos
}
