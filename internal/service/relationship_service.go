package service

import (
	"context"
	"fmt"
	"log/slog"

	"familytree/internal/genealogy"
	"familytree/internal/logging"
	"familytree/internal/metrics"
	"familytree/internal/models"
)

// PersonRelations groups a person's direct relatives by kind
type PersonRelations struct {
	Person        models.Person         `json:"person"`
	Parents       []models.Person       `json:"parents"`
	Children      []models.Person       `json:"children"`
	Spouses       []models.Person       `json:"spouses"`
	Relationships []models.Relationship `json:"relationships"`
}

// RelationshipService authorizes relationship changes and hands them to the
// mutator
type RelationshipService struct {
	families *FamilyService
	store    genealogy.Store
	mutator  *genealogy.Mutator
	logger   *slog.Logger
}

// NewRelationshipService creates a new relationship service
func NewRelationshipService(families *FamilyService, store genealogy.Store, mutator *genealogy.Mutator, logger *slog.Logger) *RelationshipService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RelationshipService{
		families: families,
		store:    store,
		mutator:  mutator,
		logger:   logger.With(logging.Scope("service.relationship")),
	}
}

// CreateRelationship records that personID is typeName of relatedID
func (s *RelationshipService) CreateRelationship(ctx context.Context, userID, familyID, personID, relatedID int64, typeName string) (models.Relationship, error) {
	if _, err := s.families.Authorize(ctx, familyID, userID, models.RoleMember); err != nil {
		return models.Relationship{}, err
	}

	t, err := models.ParseRelationshipType(typeName)
	if err != nil {
		return models.Relationship{}, fmt.Errorf("%w: %q", genealogy.ErrInvalidRelationshipType, typeName)
	}

	person, err := s.store.FindPerson(ctx, familyID, personID)
	if err != nil {
		return models.Relationship{}, err
	}
	related, err := s.store.FindPerson(ctx, familyID, relatedID)
	if err != nil {
		return models.Relationship{}, err
	}

	rel, err := s.mutator.Create(ctx, familyID, person, related, t, genealogy.Actor{UserID: userID})
	metrics.ObserveMutation("create", err)
	if err != nil {
		if genealogy.IsViolation(err) {
			s.logger.InfoContext(ctx, "relationship rejected",
				slog.Int64("family_id", familyID),
				slog.Int64("person_id", personID),
				slog.Int64("related_person_id", relatedID),
				slog.String("type", string(t)),
				slog.String("reason", metrics.RejectionReason(err)))
		}
		return models.Relationship{}, err
	}
	return rel, nil
}

// DeleteRelationship removes a relationship and the edges pointing back
func (s *RelationshipService) DeleteRelationship(ctx context.Context, userID, familyID, relationshipID int64) error {
	if _, err := s.families.Authorize(ctx, familyID, userID, models.RoleAdmin); err != nil {
		return err
	}

	rel, err := s.store.FindRelationship(ctx, familyID, relationshipID)
	if err != nil {
		return err
	}

	err = s.mutator.Delete(ctx, familyID, rel, genealogy.Actor{UserID: userID})
	metrics.ObserveMutation("delete", err)
	return err
}

// PersonRelations lists a person's outgoing edges and the relatives they name
func (s *RelationshipService) PersonRelations(ctx context.Context, userID, familyID, personID int64) (*PersonRelations, error) {
	if _, err := s.families.Authorize(ctx, familyID, userID, models.RoleMember); err != nil {
		return nil, err
	}

	person, err := s.store.FindPerson(ctx, familyID, personID)
	if err != nil {
		return nil, err
	}
	edges, err := s.store.ListRelationships(ctx, familyID, genealogy.From(personID))
	if err != nil {
		return nil, err
	}

	relations := &PersonRelations{
		Person:        person,
		Parents:       []models.Person{},
		Children:      []models.Person{},
		Spouses:       []models.Person{},
		Relationships: edges,
	}
	for _, edge := range edges {
		related, err := s.store.FindPerson(ctx, familyID, edge.RelatedPersonID)
		if err != nil {
			return nil, err
		}
		// The edge type says what person is to related.
		switch edge.Type {
		case models.RelationshipChild:
			relations.Parents = append(relations.Parents, related)
		case models.RelationshipParent:
			relations.Children = append(relations.Children, related)
		case models.RelationshipSpouse:
			relations.Spouses = append(relations.Spouses, related)
		}
	}
	return relations, nil
}
