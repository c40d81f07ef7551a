package genealogy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"familytree/internal/logging"
	"familytree/internal/models"
)

// Mutator is the only writer of relationship edges. Every edge it writes is
// paired with its reciprocal in the same transaction.
type Mutator struct {
	store    Store
	recorder ActivityRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewMutator creates a mutator. recorder may be nil.
func NewMutator(store Store, recorder ActivityRecorder, logger *slog.Logger) *Mutator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mutator{
		store:    store,
		recorder: recorder,
		logger:   logger.With(logging.Scope("genealogy.mutator")),
		now:      time.Now,
	}
}

// Create records that person is t of related, together with the reciprocal
// edge. Creating an edge that already exists is a no-op returning the
// stored edge.
func (m *Mutator) Create(ctx context.Context, familyID int64, person, related models.Person, t models.RelationshipType, actor Actor) (models.Relationship, error) {
	if !t.Valid() {
		return models.Relationship{}, fmt.Errorf("%w: %q", ErrInvalidRelationshipType, t)
	}
	if person.ID == related.ID {
		return models.Relationship{}, ErrSelfRelationship
	}
	if person.FamilyID != familyID || related.FamilyID != familyID {
		return models.Relationship{}, ErrCrossFamily
	}

	var primary models.Relationship
	err := m.store.WithinTx(ctx, func(tx Store) error {
		var err error
		person, related, err = reloadPair(ctx, tx, familyID, person.ID, related.ID)
		if err != nil {
			return err
		}
		if err := NewValidator(tx).Validate(ctx, person, related, t); err != nil {
			return err
		}

		edge := models.Relationship{
			FamilyID:        familyID,
			PersonID:        person.ID,
			RelatedPersonID: related.ID,
			Type:            t,
			CreatedAt:       m.now().UTC(),
		}
		if actor.UserID != 0 {
			edge.CreatedBy = &actor.UserID
		}

		if primary, err = upsertEdge(ctx, tx, edge); err != nil {
			return err
		}
		_, err = upsertEdge(ctx, tx, edge.Reverse())
		return err
	})
	if err != nil {
		return models.Relationship{}, err
	}

	m.record(ctx, ActivityEvent{
		FamilyID:    familyID,
		ActorID:     actor.UserID,
		Action:      models.ActionCreate,
		TargetType:  models.TargetRelationship,
		TargetID:    primary.ID,
		Description: fmt.Sprintf("Created %s relationship between %s and %s", t, person, related),
	})
	return primary, nil
}

// Delete removes rel and every parent, child or spouse edge pointing from
// rel's related person back to rel's person.
func (m *Mutator) Delete(ctx context.Context, familyID int64, rel models.Relationship, actor Actor) error {
	if rel.FamilyID != familyID {
		return fmt.Errorf("relationship %d: %w", rel.ID, ErrNotFound)
	}

	var removed int64
	err := m.store.WithinTx(ctx, func(tx Store) error {
		n, err := tx.DeleteRelationships(ctx, familyID, Between(rel.PersonID, rel.RelatedPersonID, rel.Type))
		if err != nil {
			return err
		}
		back, err := tx.DeleteRelationships(ctx, familyID, Between(rel.RelatedPersonID, rel.PersonID, models.AllRelationshipTypes...))
		if err != nil {
			return err
		}
		removed = n + back
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.DebugContext(ctx, "relationship deleted",
		slog.Int64("family_id", familyID),
		slog.Int64("relationship_id", rel.ID),
		slog.Int64("edges_removed", removed))

	m.record(ctx, ActivityEvent{
		FamilyID:   familyID,
		ActorID:    actor.UserID,
		Action:     models.ActionDelete,
		TargetType: models.TargetRelationship,
		TargetID:   rel.ID,
		Description: fmt.Sprintf("Deleted %s relationship between person %d and person %d",
			rel.Type, rel.PersonID, rel.RelatedPersonID),
	})
	return nil
}

// reloadPair reads both persons inside the transaction, lower id first so
// concurrent mutations lock rows in the same order.
func reloadPair(ctx context.Context, tx Store, familyID, personID, relatedID int64) (models.Person, models.Person, error) {
	firstID, secondID := personID, relatedID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}
	first, err := tx.FindPerson(ctx, familyID, firstID)
	if err != nil {
		return models.Person{}, models.Person{}, err
	}
	second, err := tx.FindPerson(ctx, familyID, secondID)
	if err != nil {
		return models.Person{}, models.Person{}, err
	}
	if first.ID == personID {
		return first, second, nil
	}
	return second, first, nil
}

// upsertEdge inserts edge, treating a unique-key collision as success.
func upsertEdge(ctx context.Context, tx Store, edge models.Relationship) (models.Relationship, error) {
	rel, err := tx.InsertRelationship(ctx, edge)
	if err == nil {
		return rel, nil
	}
	if !errors.Is(err, ErrDuplicateEdge) {
		return models.Relationship{}, err
	}

	existing, err := tx.ListRelationships(ctx, edge.FamilyID, Between(edge.PersonID, edge.RelatedPersonID, edge.Type))
	if err != nil {
		return models.Relationship{}, err
	}
	if len(existing) == 0 {
		return models.Relationship{}, fmt.Errorf("%w: duplicate %s edge %d->%d is not readable",
			ErrStoreUnavailable, edge.Type, edge.PersonID, edge.RelatedPersonID)
	}
	return existing[0], nil
}

func (m *Mutator) record(ctx context.Context, event ActivityEvent) {
	if m.recorder == nil {
		return
	}
	if err := m.recorder.Record(ctx, event); err != nil {
		m.logger.WarnContext(ctx, "failed to record activity",
			slog.String("action", event.Action),
			slog.Int64("target_id", event.TargetID),
			logging.Error(err))
	}
}
