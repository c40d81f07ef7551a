package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"familytree/internal/genealogy"
	"familytree/internal/logging"
	"familytree/internal/models"
	"familytree/internal/repository"
)

// ExportVersion identifies the layout of FamilyExport
const ExportVersion = "1"

// Format is an export encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, yaml or yml
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, s)
	}
}

// FamilyExport is the complete content of one family
type FamilyExport struct {
	Version       string                `json:"version" yaml:"version"`
	ExportedAt    time.Time             `json:"exported_at" yaml:"exported_at"`
	Family        models.Family         `json:"family" yaml:"family"`
	Persons       []models.Person       `json:"persons" yaml:"persons"`
	Relationships []models.Relationship `json:"relationships" yaml:"relationships"`
}

// ImportResult summarizes an import
type ImportResult struct {
	Family        *models.Family `json:"family"`
	Persons       int            `json:"persons"`
	Relationships int            `json:"relationships"`
}

// ExportService moves whole families in and out of the store
type ExportService struct {
	families   *FamilyService
	familyRepo *repository.FamilyRepository
	persons    *repository.PersonRepository
	store      genealogy.Reader
	mutator    *genealogy.Mutator
	logger     *slog.Logger
}

// NewExportService creates a new export service
func NewExportService(families *FamilyService, familyRepo *repository.FamilyRepository, persons *repository.PersonRepository, store genealogy.Reader, mutator *genealogy.Mutator, logger *slog.Logger) *ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportService{
		families:   families,
		familyRepo: familyRepo,
		persons:    persons,
		store:      store,
		mutator:    mutator,
		logger:     logger.With(logging.Scope("service.export")),
	}
}

// Export loads a family with all of its persons and relationships
func (s *ExportService) Export(ctx context.Context, familyID int64) (*FamilyExport, error) {
	family, err := s.familyRepo.GetFamilyByID(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}
	if family == nil {
		return nil, ErrFamilyNotFound
	}

	var persons []models.Person
	var relationships []models.Relationship

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		persons, err = s.persons.ListPersons(gctx, familyID)
		return err
	})
	g.Go(func() error {
		var err error
		relationships, err = s.store.ListRelationships(gctx, familyID, genealogy.RelationshipFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to export family %d: %w", familyID, err)
	}

	return &FamilyExport{
		Version:       ExportVersion,
		ExportedAt:    time.Now().UTC(),
		Family:        *family,
		Persons:       persons,
		Relationships: relationships,
	}, nil
}

// Import recreates data as a new family owned by ownerID. Person ids are
// remapped; parent and spouse edges are replayed through the mutator, which
// regenerates their reciprocals, so stored child edges are skipped.
func (s *ExportService) Import(ctx context.Context, ownerID int64, data *FamilyExport) (*ImportResult, error) {
	if data.Version != ExportVersion {
		return nil, fmt.Errorf("%w: version %q", ErrUnsupportedFormat, data.Version)
	}

	family, err := s.families.CreateFamily(ctx, data.Family.Name, data.Family.Description, ownerID)
	if err != nil {
		return nil, err
	}

	result, err := s.load(ctx, family, ownerID, data)
	if err != nil {
		if cleanupErr := s.familyRepo.DeleteFamily(ctx, family.ID); cleanupErr != nil {
			s.logger.ErrorContext(ctx, "failed to remove partially imported family",
				slog.Int64("family_id", family.ID),
				logging.Error(cleanupErr))
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "family imported",
		slog.Int64("family_id", family.ID),
		slog.Int("persons", result.Persons),
		slog.Int("relationships", result.Relationships))
	return result, nil
}

func (s *ExportService) load(ctx context.Context, family *models.Family, ownerID int64, data *FamilyExport) (*ImportResult, error) {
	result := &ImportResult{Family: family}
	remapped := make(map[int64]models.Person, len(data.Persons))

	for _, p := range data.Persons {
		person := p
		person.ID = 0
		person.FamilyID = family.ID
		person.CreatedBy = &ownerID
		if err := s.persons.CreatePerson(ctx, &person); err != nil {
			return nil, fmt.Errorf("failed to import person %d: %w", p.ID, err)
		}
		remapped[p.ID] = person
		result.Persons++
	}

	actor := genealogy.Actor{UserID: ownerID}
	for _, rel := range data.Relationships {
		if rel.Type == models.RelationshipChild {
			continue
		}
		person, ok := remapped[rel.PersonID]
		if !ok {
			return nil, fmt.Errorf("relationship %d references unknown person %d: %w", rel.ID, rel.PersonID, genealogy.ErrNotFound)
		}
		related, ok := remapped[rel.RelatedPersonID]
		if !ok {
			return nil, fmt.Errorf("relationship %d references unknown person %d: %w", rel.ID, rel.RelatedPersonID, genealogy.ErrNotFound)
		}
		if _, err := s.mutator.Create(ctx, family.ID, person, related, rel.Type, actor); err != nil {
			return nil, fmt.Errorf("failed to import relationship %d: %w", rel.ID, err)
		}
		result.Relationships++
	}
	return result, nil
}

// Encode writes export to w in format
func Encode(w io.Writer, format Format, export *FamilyExport) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(export)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(export); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// Decode reads an export in format from r
func Decode(r io.Reader, format Format) (*FamilyExport, error) {
	var export FamilyExport
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&export); err != nil {
			return nil, fmt.Errorf("failed to decode export: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&export); err != nil {
			return nil, fmt.Errorf("failed to decode export: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return &export, nil
}
