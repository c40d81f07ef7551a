package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"familytree/internal/genealogy"
	"familytree/internal/logging"
	"familytree/internal/models"
	"familytree/internal/repository"
)

// EdgePurger removes every relationship edge touching a person. Both the
// SQL and the Neo4j relationship stores implement it.
type EdgePurger interface {
	DeleteTouching(ctx context.Context, familyID, personID int64) (int64, error)
}

// PersonInput carries the editable fields of a person as submitted
type PersonInput struct {
	FirstName  string
	MiddleName string
	LastName   string
	Gender     string
	BirthDate  string
	BirthPlace string
	DeathDate  string
	DeathPlace string
	// IsLiving defaults to true, or false when a death date is given
	IsLiving *bool
	Notes    string
}

func (in PersonInput) apply(p *models.Person) error {
	p.FirstName = strings.TrimSpace(in.FirstName)
	p.MiddleName = strings.TrimSpace(in.MiddleName)
	p.LastName = strings.TrimSpace(in.LastName)
	p.BirthPlace = strings.TrimSpace(in.BirthPlace)
	p.DeathPlace = strings.TrimSpace(in.DeathPlace)
	p.Notes = strings.TrimSpace(in.Notes)
	if p.FirstName == "" {
		return fmt.Errorf("%w: first name is required", ErrInvalidPerson)
	}

	gender, err := models.ParseGender(in.Gender)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPerson, err)
	}
	p.Gender = gender

	if p.BirthDate, err = models.ParseDate(in.BirthDate); err != nil {
		return fmt.Errorf("%w: birth date: %v", ErrInvalidPerson, err)
	}
	if p.DeathDate, err = models.ParseDate(in.DeathDate); err != nil {
		return fmt.Errorf("%w: death date: %v", ErrInvalidPerson, err)
	}
	if p.BirthDate != nil && p.DeathDate != nil && p.DeathDate.Before(*p.BirthDate) {
		return fmt.Errorf("%w: death date is before birth date", ErrInvalidPerson)
	}

	p.IsLiving = p.DeathDate == nil
	if in.IsLiving != nil {
		if *in.IsLiving && p.DeathDate != nil {
			return fmt.Errorf("%w: a person with a death date cannot be living", ErrInvalidPerson)
		}
		p.IsLiving = *in.IsLiving
	}
	return nil
}

// PersonService handles person records of a family
type PersonService struct {
	families *FamilyService
	persons  *repository.PersonRepository
	edges    EdgePurger
	recorder genealogy.ActivityRecorder
	logger   *slog.Logger
}

// NewPersonService creates a new person service
func NewPersonService(families *FamilyService, persons *repository.PersonRepository, edges EdgePurger, recorder genealogy.ActivityRecorder, logger *slog.Logger) *PersonService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PersonService{
		families: families,
		persons:  persons,
		edges:    edges,
		recorder: recorder,
		logger:   logger.With(logging.Scope("service.person")),
	}
}

// CreatePerson adds a person to the family
func (s *PersonService) CreatePerson(ctx context.Context, userID, familyID int64, input PersonInput) (*models.Person, error) {
	if _, err := s.families.Authorize(ctx, familyID, userID, models.RoleMember); err != nil {
		return nil, err
	}

	person := &models.Person{FamilyID: familyID, CreatedBy: &userID}
	if err := input.apply(person); err != nil {
		return nil, err
	}
	if err := s.persons.CreatePerson(ctx, person); err != nil {
		return nil, err
	}

	recordActivity(ctx, s.recorder, s.logger, genealogy.ActivityEvent{
		FamilyID:    familyID,
		ActorID:     userID,
		Action:      models.ActionCreate,
		TargetType:  models.TargetPerson,
		TargetID:    person.ID,
		Description: fmt.Sprintf("Added %s", person.FullName()),
	})
	return person, nil
}

// GetPerson retrieves one person of the family
func (s *PersonService) GetPerson(ctx context.Context, userID, familyID, personID int64) (*models.Person, error) {
	if _, err := s.families.Authorize(ctx, familyID, userID, models.RoleMember); err != nil {
		return nil, err
	}
	return s.getPerson(ctx, familyID, personID)
}

func (s *PersonService) getPerson(ctx context.Context, familyID, personID int64) (*models.Person, error) {
	person, err := s.persons.GetPerson(ctx, familyID, personID)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, fmt.Errorf("person %d: %w", personID, genealogy.ErrNotFound)
	}
	return person, nil
}

// ListPersons lists every person of the family
func (s *PersonService) ListPersons(ctx context.Context, userID, familyID int64) ([]models.Person, error) {
	if _, err := s.families.Authorize(ctx, familyID, userID, models.RoleMember); err != nil {
		return nil, err
	}
	return s.persons.ListPersons(ctx, familyID)
}

// UpdatePerson replaces the editable fields of a person
func (s *PersonService) UpdatePerson(ctx context.Context, userID, familyID, personID int64, input PersonInput) (*models.Person, error) {
	if _, err := s.families.Authorize(ctx, familyID, userID, models.RoleAdmin); err != nil {
		return nil, err
	}

	person, err := s.getPerson(ctx, familyID, personID)
	if err != nil {
		return nil, err
	}
	if err := input.apply(person); err != nil {
		return nil, err
	}
	err = s.persons.UpdatePerson(ctx, person)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("person %d: %w", personID, genealogy.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	recordActivity(ctx, s.recorder, s.logger, genealogy.ActivityEvent{
		FamilyID:    familyID,
		ActorID:     userID,
		Action:      models.ActionUpdate,
		TargetType:  models.TargetPerson,
		TargetID:    person.ID,
		Description: fmt.Sprintf("Updated %s", person.FullName()),
	})
	return person, nil
}

// DeletePerson removes a person together with every relationship edge that
// references it
func (s *PersonService) DeletePerson(ctx context.Context, userID, familyID, personID int64) error {
	if _, err := s.families.Authorize(ctx, familyID, userID, models.RoleAdmin); err != nil {
		return err
	}

	person, err := s.getPerson(ctx, familyID, personID)
	if err != nil {
		return err
	}

	removed, err := s.edges.DeleteTouching(ctx, familyID, personID)
	if err != nil {
		return fmt.Errorf("failed to delete relationships of person %d: %w", personID, err)
	}
	err = s.persons.DeletePerson(ctx, familyID, personID)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("person %d: %w", personID, genealogy.ErrNotFound)
	}
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "person deleted",
		slog.Int64("family_id", familyID),
		slog.Int64("person_id", personID),
		slog.Int64("edges_removed", removed))

	recordActivity(ctx, s.recorder, s.logger, genealogy.ActivityEvent{
		FamilyID:    familyID,
		ActorID:     userID,
		Action:      models.ActionDelete,
		TargetType:  models.TargetPerson,
		TargetID:    personID,
		Description: fmt.Sprintf("Deleted %s", person.FullName()),
	})
	return nil
}

// SearchPersons filters the family's persons
func (s *PersonService) SearchPersons(ctx context.Context, userID, familyID int64, search repository.PersonSearch) ([]models.Person, error) {
	if _, err := s.families.Authorize(ctx, familyID, userID, models.RoleMember); err != nil {
		return nil, err
	}
	if search.BirthYearFrom > 0 && search.BirthYearTo > 0 && search.BirthYearFrom > search.BirthYearTo {
		return nil, fmt.Errorf("%w: birth year range is reversed", ErrInvalidPerson)
	}
	return s.persons.SearchPersons(ctx, familyID, search)
}

// Autocomplete suggests persons whose first name contains term
func (s *PersonService) Autocomplete(ctx context.Context, userID, familyID int64, term string) ([]models.Person, error) {
	if _, err := s.families.Authorize(ctx, familyID, userID, models.RoleMember); err != nil {
		return nil, err
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return []models.Person{}, nil
	}
	return s.persons.AutocompletePersons(ctx, familyID, term)
}

// SpouseCandidates lists the persons that may be recorded as spouse of personID
func (s *PersonService) SpouseCandidates(ctx context.Context, userID, familyID, personID int64) ([]models.Person, error) {
	if _, err := s.families.Authorize(ctx, familyID, userID, models.RoleMember); err != nil {
		return nil, err
	}
	person, err := s.getPerson(ctx, familyID, personID)
	if err != nil {
		return nil, err
	}
	return s.persons.SpouseCandidates(ctx, *person)
}
