package genealogy

import (
	"context"

	"familytree/internal/models"
)

// RelationshipFilter narrows ListRelationships and DeleteRelationships.
// Nil or empty fields match everything.
type RelationshipFilter struct {
	PersonID        *int64
	RelatedPersonID *int64
	Types           []models.RelationshipType
}

// Matches reports whether rel satisfies the filter
func (f RelationshipFilter) Matches(rel models.Relationship) bool {
	if f.PersonID != nil && rel.PersonID != *f.PersonID {
		return false
	}
	if f.RelatedPersonID != nil && rel.RelatedPersonID != *f.RelatedPersonID {
		return false
	}
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if rel.Type == t {
			return true
		}
	}
	return false
}

// From filters edges leaving personID
func From(personID int64, types ...models.RelationshipType) RelationshipFilter {
	return RelationshipFilter{PersonID: &personID, Types: types}
}

// Between filters edges from personID to relatedPersonID
func Between(personID, relatedPersonID int64, types ...models.RelationshipType) RelationshipFilter {
	return RelationshipFilter{PersonID: &personID, RelatedPersonID: &relatedPersonID, Types: types}
}

// Reader is the read side of the person/relationship store. Every call is
// scoped to one family; records of other families are never returned.
type Reader interface {
	// FindPerson returns ErrNotFound when the person does not exist in the family.
	FindPerson(ctx context.Context, familyID, personID int64) (models.Person, error)
	// ListRelationships returns matching edges ordered by relationship id.
	ListRelationships(ctx context.Context, familyID int64, filter RelationshipFilter) ([]models.Relationship, error)
	// FindRelationship returns ErrNotFound when the edge does not exist in the family.
	FindRelationship(ctx context.Context, familyID, relationshipID int64) (models.Relationship, error)
}

// Store adds writes and a transactional scope to Reader.
type Store interface {
	Reader
	// InsertRelationship is idempotent on (person, related person, type): an
	// existing edge is returned unchanged. Implementations may instead report
	// ErrDuplicateEdge when a concurrent insert wins the race.
	InsertRelationship(ctx context.Context, rel models.Relationship) (models.Relationship, error)
	DeleteRelationships(ctx context.Context, familyID int64, filter RelationshipFilter) (int64, error)
	// WithinTx runs fn against a store bound to a single transaction. Reads of
	// persons inside fn hold them against concurrent mutation until commit.
	// Returning an error from fn rolls every write back.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// ActivityEvent describes one successful mutation for the audit trail
type ActivityEvent struct {
	FamilyID    int64
	ActorID     int64
	Action      string
	TargetType  string
	TargetID    int64
	Description string
}

// ActivityRecorder receives mutation events
type ActivityRecorder interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// Actor identifies who performs a mutation
type Actor struct {
	UserID int64
}
