package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"familytree/internal/genealogy"
	"familytree/internal/models"
)

// PersonFinder loads person records, which stay in the relational store.
// It returns nil without error when the person does not exist.
type PersonFinder interface {
	GetPerson(ctx context.Context, familyID, personID int64) (*models.Person, error)
}

const (
	personConstraintCypher   = `CREATE CONSTRAINT person_id IF NOT EXISTS FOR (p:Person) REQUIRE p.id IS UNIQUE`
	sequenceConstraintCypher = `CREATE CONSTRAINT relationship_sequence IF NOT EXISTS FOR (s:Sequence) REQUIRE s.name IS UNIQUE`

	lockPersonCypher = `
MERGE (p:Person {id: $person_id})
ON CREATE SET p.family_id = $family_id
SET p.locked_at = timestamp()
RETURN p.id AS id`

	nextIDCypher = `
MERGE (s:Sequence {name: 'relationship'})
ON CREATE SET s.value = 0
SET s.value = s.value + 1
RETURN s.value AS value`

	mergeEdgeCypher = `
MERGE (a:Person {id: $person_id})
ON CREATE SET a.family_id = $family_id
MERGE (b:Person {id: $related_person_id})
ON CREATE SET b.family_id = $family_id
MERGE (a)-[r:RELATED {type: $type}]->(b)
ON CREATE SET r.id = $id, r.family_id = $family_id, r.created_by = $created_by, r.created_at = $created_at
RETURN r.id AS id, a.id AS person_id, b.id AS related_person_id, r.type AS type,
       r.created_by AS created_by, r.created_at AS created_at`

	edgeFilter = `
MATCH (a:Person)-[r:RELATED]->(b:Person)
WHERE r.family_id = $family_id
  AND ($person_id IS NULL OR a.id = $person_id)
  AND ($related_person_id IS NULL OR b.id = $related_person_id)
  AND (size($types) = 0 OR r.type IN $types)`

	listEdgesCypher = edgeFilter + `
RETURN r.id AS id, a.id AS person_id, b.id AS related_person_id, r.type AS type,
       r.created_by AS created_by, r.created_at AS created_at
ORDER BY r.id`

	deleteEdgesCypher = edgeFilter + `
DELETE r
RETURN count(*) AS deleted`

	findEdgeCypher = `
MATCH (a:Person)-[r:RELATED {id: $id}]->(b:Person)
WHERE r.family_id = $family_id
RETURN r.id AS id, a.id AS person_id, b.id AS related_person_id, r.type AS type,
       r.created_by AS created_by, r.created_at AS created_at`

	deleteTouchingCypher = `
MATCH (p:Person {id: $person_id})-[r:RELATED]-()
WHERE r.family_id = $family_id
DELETE r
RETURN count(*) AS deleted`
)

// Store implements genealogy.Store with relationship edges kept in a graph
// database as (:Person)-[:RELATED {type}]->(:Person). Person nodes carry
// only the id and family; records are read through PersonFinder.
type Store struct {
	client  Client
	persons PersonFinder
	tx      Runner
}

// NewStore creates a graph-backed store
func NewStore(client Client, persons PersonFinder) *Store {
	return &Store{client: client, persons: persons}
}

// schemaCyphers must all hold before the store is used. The sequence
// constraint keeps concurrent first inserts from creating two counters.
var schemaCyphers = []string{personConstraintCypher, sequenceConstraintCypher}

// EnsureSchema creates the uniqueness constraints on person and sequence nodes
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, cypher := range schemaCyphers {
		if _, err := s.client.ExecuteWrite(ctx, cypher, nil); err != nil {
			return fmt.Errorf("ensure graph schema: %w", err)
		}
	}
	return nil
}

// FindPerson loads the person record. Inside WithinTx it also write-locks
// the person's node until the transaction ends.
func (s *Store) FindPerson(ctx context.Context, familyID, personID int64) (models.Person, error) {
	person, err := s.persons.GetPerson(ctx, familyID, personID)
	if err != nil {
		return models.Person{}, unavailable(err)
	}
	if person == nil {
		return models.Person{}, fmt.Errorf("person %d: %w", personID, genealogy.ErrNotFound)
	}

	if s.tx != nil {
		params := map[string]any{"person_id": personID, "family_id": familyID}
		if _, err := s.tx.Run(ctx, lockPersonCypher, params); err != nil {
			return models.Person{}, unavailable(err)
		}
	}
	return *person, nil
}

func (s *Store) ListRelationships(ctx context.Context, familyID int64, filter genealogy.RelationshipFilter) ([]models.Relationship, error) {
	res, err := s.read(ctx, listEdgesCypher, filterParams(familyID, filter))
	if err != nil {
		return nil, unavailable(err)
	}

	rels := make([]models.Relationship, 0, len(res.Records))
	for _, rec := range res.Records {
		rels = append(rels, decodeRelationship(familyID, rec))
	}
	return rels, nil
}

func (s *Store) FindRelationship(ctx context.Context, familyID, relationshipID int64) (models.Relationship, error) {
	res, err := s.read(ctx, findEdgeCypher, map[string]any{"id": relationshipID, "family_id": familyID})
	if err != nil {
		return models.Relationship{}, unavailable(err)
	}
	if len(res.Records) == 0 {
		return models.Relationship{}, fmt.Errorf("relationship %d: %w", relationshipID, genealogy.ErrNotFound)
	}
	return decodeRelationship(familyID, res.Records[0]), nil
}

// InsertRelationship merges the edge; an existing edge is returned as stored
// without drawing a new id from the sequence.
func (s *Store) InsertRelationship(ctx context.Context, rel models.Relationship) (models.Relationship, error) {
	if s.tx == nil {
		var stored models.Relationship
		err := s.WithinTx(ctx, func(tx genealogy.Store) error {
			var err error
			stored, err = tx.InsertRelationship(ctx, rel)
			return err
		})
		return stored, err
	}

	existing, err := s.tx.Run(ctx, listEdgesCypher,
		filterParams(rel.FamilyID, genealogy.Between(rel.PersonID, rel.RelatedPersonID, rel.Type)))
	if err != nil {
		return models.Relationship{}, unavailable(err)
	}
	if len(existing.Records) > 0 {
		return decodeRelationship(rel.FamilyID, existing.Records[0]), nil
	}

	seq, err := s.tx.Run(ctx, nextIDCypher, nil)
	if err != nil {
		return models.Relationship{}, unavailable(err)
	}
	if len(seq.Records) == 0 {
		return models.Relationship{}, unavailable(errors.New("relationship sequence returned no value"))
	}

	var createdBy any
	if rel.CreatedBy != nil {
		createdBy = *rel.CreatedBy
	}
	createdAt := rel.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.tx.Run(ctx, mergeEdgeCypher, map[string]any{
		"id":                toInt64(seq.Records[0]["value"]),
		"family_id":         rel.FamilyID,
		"person_id":         rel.PersonID,
		"related_person_id": rel.RelatedPersonID,
		"type":              string(rel.Type),
		"created_by":        createdBy,
		"created_at":        createdAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return models.Relationship{}, unavailable(err)
	}
	if len(res.Records) == 0 {
		return models.Relationship{}, unavailable(errors.New("merge returned no relationship"))
	}
	return decodeRelationship(rel.FamilyID, res.Records[0]), nil
}

func (s *Store) DeleteRelationships(ctx context.Context, familyID int64, filter genealogy.RelationshipFilter) (int64, error) {
	res, err := s.write(ctx, deleteEdgesCypher, filterParams(familyID, filter))
	if err != nil {
		return 0, unavailable(err)
	}
	return deletedCount(res), nil
}

// DeleteTouching removes every edge starting or ending at personID
func (s *Store) DeleteTouching(ctx context.Context, familyID, personID int64) (int64, error) {
	res, err := s.write(ctx, deleteTouchingCypher, map[string]any{"person_id": personID, "family_id": familyID})
	if err != nil {
		return 0, unavailable(err)
	}
	return deletedCount(res), nil
}

// WithinTx runs fn in one graph write transaction. Nested calls join the
// outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(tx genealogy.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	var fnErr error
	err := s.client.ExecuteWriteTx(ctx, func(tx Runner) error {
		fnErr = fn(&Store{client: s.client, persons: s.persons, tx: tx})
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Store) read(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	if s.tx != nil {
		return s.tx.Run(ctx, cypher, params)
	}
	return s.client.ExecuteRead(ctx, cypher, params)
}

func (s *Store) write(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	if s.tx != nil {
		return s.tx.Run(ctx, cypher, params)
	}
	return s.client.ExecuteWrite(ctx, cypher, params)
}

func filterParams(familyID int64, filter genealogy.RelationshipFilter) map[string]any {
	params := map[string]any{
		"family_id":         familyID,
		"person_id":         nil,
		"related_person_id": nil,
	}
	if filter.PersonID != nil {
		params["person_id"] = *filter.PersonID
	}
	if filter.RelatedPersonID != nil {
		params["related_person_id"] = *filter.RelatedPersonID
	}
	types := make([]string, 0, len(filter.Types))
	for _, t := range filter.Types {
		types = append(types, string(t))
	}
	params["types"] = types
	return params
}

func unavailable(err error) error {
	if errors.Is(err, genealogy.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", genealogy.ErrStoreUnavailable, err)
}
