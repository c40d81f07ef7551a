package repository

import (
	"context"
	"errors"
	"fmt"

	"familytree/internal/database"
	"familytree/internal/genealogy"
	"familytree/internal/models"
)

// GraphStore implements genealogy.Store on the SQL tables. Inside WithinTx
// person reads lock their rows until commit.
type GraphStore struct {
	db            *database.DB
	conn          database.DBTX
	persons       *PersonRepository
	relationships *RelationshipRepository
	inTx          bool
}

// NewGraphStore creates a store over db
func NewGraphStore(db *database.DB) *GraphStore {
	return newGraphStore(db, db, false)
}

func newGraphStore(db *database.DB, conn database.DBTX, inTx bool) *GraphStore {
	return &GraphStore{
		db:            db,
		conn:          conn,
		persons:       NewPersonRepository(conn),
		relationships: NewRelationshipRepository(conn),
		inTx:          inTx,
	}
}

func (s *GraphStore) FindPerson(ctx context.Context, familyID, personID int64) (models.Person, error) {
	var (
		person *models.Person
		err    error
	)
	if s.inTx {
		person, err = s.persons.GetPersonForUpdate(ctx, familyID, personID)
	} else {
		person, err = s.persons.GetPerson(ctx, familyID, personID)
	}
	if err != nil {
		return models.Person{}, unavailable(err)
	}
	if person == nil {
		return models.Person{}, fmt.Errorf("person %d: %w", personID, genealogy.ErrNotFound)
	}
	return *person, nil
}

func (s *GraphStore) ListRelationships(ctx context.Context, familyID int64, filter genealogy.RelationshipFilter) ([]models.Relationship, error) {
	rels, err := s.relationships.ListRelationships(ctx, familyID, filter)
	if err != nil {
		return nil, unavailable(err)
	}
	return rels, nil
}

func (s *GraphStore) FindRelationship(ctx context.Context, familyID, relationshipID int64) (models.Relationship, error) {
	rel, err := s.relationships.GetRelationship(ctx, familyID, relationshipID)
	if err != nil {
		return models.Relationship{}, unavailable(err)
	}
	if rel == nil {
		return models.Relationship{}, fmt.Errorf("relationship %d: %w", relationshipID, genealogy.ErrNotFound)
	}
	return *rel, nil
}

// InsertRelationship returns the stored edge when rel already exists.
func (s *GraphStore) InsertRelationship(ctx context.Context, rel models.Relationship) (models.Relationship, error) {
	stored, inserted, err := s.relationships.InsertRelationship(ctx, rel)
	if err != nil {
		if s.conn.GetDialect().IsUniqueViolation(err) {
			return models.Relationship{}, genealogy.ErrDuplicateEdge
		}
		return models.Relationship{}, unavailable(err)
	}
	if inserted {
		return stored, nil
	}

	existing, err := s.ListRelationships(ctx, rel.FamilyID, genealogy.Between(rel.PersonID, rel.RelatedPersonID, rel.Type))
	if err != nil {
		return models.Relationship{}, err
	}
	if len(existing) == 0 {
		// The colliding row belongs to another family or was removed meanwhile.
		return models.Relationship{}, genealogy.ErrDuplicateEdge
	}
	return existing[0], nil
}

func (s *GraphStore) DeleteRelationships(ctx context.Context, familyID int64, filter genealogy.RelationshipFilter) (int64, error) {
	n, err := s.relationships.DeleteRelationships(ctx, familyID, filter)
	if err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

// DeleteTouching removes every edge starting or ending at personID
func (s *GraphStore) DeleteTouching(ctx context.Context, familyID, personID int64) (int64, error) {
	n, err := s.relationships.DeleteTouching(ctx, familyID, personID)
	if err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

// WithinTx runs fn in a database transaction. Nested calls join the
// outer transaction.
func (s *GraphStore) WithinTx(ctx context.Context, fn func(tx genealogy.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	if err := fn(newGraphStore(s.db, tx, true)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return unavailable(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

func unavailable(err error) error {
	if errors.Is(err, genealogy.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", genealogy.ErrStoreUnavailable, err)
}
