package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/constructiq/safety-lead-pipeline/internal/apperrors"
	"github.com/constructiq/safety-lead-pipeline/internal/models"
	"github.com/constructiq/safety-lead-pipeline/internal/repository"
	"github.com/constructiq/safety-lead-pipeline/internal/resolution"
	"github.com/constructiq/safety-lead-pipeline/pkg/config"
)

const importDateFormat = "2006-01-02"

// curatedAliasConfidence is stored on aliases loaded from curated mapping
// files, above the fuzzy threshold but below an exact match.
const curatedAliasConfidence = 0.9

// ImportService loads curated relationship and alias mappings from CSV
// uploads. Bad rows are collected, never fatal, so one typo does not reject a
// whole file.
type ImportService struct {
	repos    *repository.Repositories
	resolver *resolution.Resolver
	log      *zap.Logger
}

// NewImportService creates an import service.
func NewImportService(repos *repository.Repositories, cfg *config.ScoringConfig, log *zap.Logger) *ImportService {
	return &ImportService{
		repos:    repos,
		resolver: resolution.NewResolver(repos, cfg.FuzzyThreshold, log),
		log:      log,
	}
}

// ImportSummary reports a bulk import's outcome.
type ImportSummary struct {
	Imported int      `json:"imported"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportRelationships reads a relationship CSV with the header
// gc_name,owner_name,sub_name,project_name,location,trade,po_value,start_date,end_date
// and creates a sub relationship per row. Company and project names are
// resolved through the usual entity resolution path, so spelling variants
// land on existing companies.
func (s *ImportService) ImportRelationships(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	rows, err := readCSV(r, []string{"gc_name", "owner_name", "sub_name", "project_name", "location", "trade", "po_value", "start_date", "end_date"})
	if err != nil {
		return nil, err
	}

	summary := &ImportSummary{}
	for i, row := range rows {
		if err := s.importRelationshipRow(ctx, row); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("row %d: %v", i+2, err))
			continue
		}
		summary.Imported++
	}
	s.log.Info("relationship import finished",
		zap.Int("imported", summary.Imported), zap.Int("errors", len(summary.Errors)))
	return summary, nil
}

func (s *ImportService) importRelationshipRow(ctx context.Context, row map[string]string) error {
	if strings.TrimSpace(row["sub_name"]) == "" {
		return apperrors.InvalidName(row["sub_name"])
	}
	sub, err := s.resolver.Resolve(ctx, row["sub_name"], models.BusinessTypeSub)
	if err != nil {
		return err
	}

	rel := &models.SubRelationship{SubID: sub.CompanyID, Trade: strings.TrimSpace(row["trade"])}

	if name := strings.TrimSpace(row["gc_name"]); name != "" {
		gc, err := s.resolver.Resolve(ctx, name, models.BusinessTypeGC)
		if err != nil {
			return err
		}
		rel.GCID = &gc.CompanyID
	}
	if name := strings.TrimSpace(row["owner_name"]); name != "" {
		owner, err := s.resolver.Resolve(ctx, name, models.BusinessTypeOwner)
		if err != nil {
			return err
		}
		rel.OwnerID = &owner.CompanyID
	}
	if rel.GCID == nil && rel.OwnerID == nil {
		return fmt.Errorf("row names neither a GC nor an owner")
	}

	if name := strings.TrimSpace(row["project_name"]); name != "" {
		projectID, err := s.ensureProject(ctx, name, strings.TrimSpace(row["location"]), rel)
		if err != nil {
			return err
		}
		rel.ProjectID = &projectID
	}

	if v := strings.TrimSpace(row["po_value"]); v != "" {
		po, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid po_value %q: %w", v, err)
		}
		rel.POValue = &po
	}
	if rel.StartDate, err = parseDate(row["start_date"]); err != nil {
		return err
	}
	if rel.EndDate, err = parseDate(row["end_date"]); err != nil {
		return err
	}

	return s.repos.Relationships.Create(ctx, rel)
}

// ImportAliases reads an alias CSV with the header canonical_name,alias and
// records each alias against the canonical company, creating the company when
// it does not exist yet.
func (s *ImportService) ImportAliases(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	rows, err := readCSV(r, []string{"canonical_name", "alias"})
	if err != nil {
		return nil, err
	}

	summary := &ImportSummary{}
	for i, row := range rows {
		if err := s.importAliasRow(ctx, row); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("row %d: %v", i+2, err))
			continue
		}
		summary.Imported++
	}
	s.log.Info("alias import finished",
		zap.Int("imported", summary.Imported), zap.Int("errors", len(summary.Errors)))
	return summary, nil
}

func (s *ImportService) importAliasRow(ctx context.Context, row map[string]string) error {
	canonical, err := s.resolver.Resolve(ctx, row["canonical_name"], models.BusinessTypeUnknown)
	if err != nil {
		return err
	}
	key, err := resolution.NormalizeName(row["alias"])
	if err != nil {
		return err
	}
	return s.repos.Aliases.Upsert(ctx, &models.CompanyAlias{
		CompanyID:  canonical.CompanyID,
		Alias:      key,
		Confidence: curatedAliasConfidence,
	})
}

func (s *ImportService) ensureProject(ctx context.Context, name, location string, rel *models.SubRelationship) (uuid.UUID, error) {
	if project, err := s.repos.Projects.GetByName(ctx, name); err == nil {
		return project.ID, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return uuid.Nil, err
	}
	project := &models.Project{
		Name:     name,
		Location: location,
		GCID:     rel.GCID,
		OwnerID:  rel.OwnerID,
	}
	if err := s.repos.Projects.Create(ctx, project); err != nil {
		return uuid.Nil, err
	}
	return project.ID, nil
}

// readCSV parses a CSV stream, validates the header and returns rows as
// header-keyed maps.
func readCSV(r io.Reader, wantHeader []string) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) != len(wantHeader) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(wantHeader), len(header))
	}
	for i, col := range wantHeader {
		if strings.TrimSpace(strings.ToLower(header[i])) != col {
			return nil, fmt.Errorf("expected column %d to be %q, got %q", i+1, col, header[i])
		}
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		row := make(map[string]string, len(wantHeader))
		for i, col := range wantHeader {
			row[col] = record[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(importDateFormat, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return &t, nil
}
