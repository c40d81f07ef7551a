package genealogy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"familytree/internal/models"
)

// MemoryStore is an in-process Store used by tests and tooling. WithinTx
// serialises transactions and restores the edge set when fn fails.
type MemoryStore struct {
	mu               sync.Mutex
	persons          map[int64]models.Person
	relationships    []models.Relationship
	nextPersonID     int64
	nextRelID        int64
	err              error
	rejectDuplicates bool
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{persons: make(map[int64]models.Person)}
}

// WithError makes every subsequent call fail with err wrapped in ErrStoreUnavailable
func (s *MemoryStore) WithError(err error) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	return s
}

// RejectDuplicates makes InsertRelationship report ErrDuplicateEdge for an
// existing edge, as a database unique constraint would under a race.
func (s *MemoryStore) RejectDuplicates() *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectDuplicates = true
	return s
}

// AddPerson stores p, assigning an id when p.ID is zero
func (s *MemoryStore) AddPerson(p models.Person) models.Person {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		s.nextPersonID++
		p.ID = s.nextPersonID
	} else if p.ID > s.nextPersonID {
		s.nextPersonID = p.ID
	}
	s.persons[p.ID] = p
	return p
}

// Relationships returns a snapshot of every stored edge
func (s *MemoryStore) Relationships() []models.Relationship {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Relationship(nil), s.relationships...)
}

func (s *MemoryStore) FindPerson(ctx context.Context, familyID, personID int64) (models.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findPerson(familyID, personID)
}

func (s *MemoryStore) ListRelationships(ctx context.Context, familyID int64, filter RelationshipFilter) ([]models.Relationship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listRelationships(familyID, filter)
}

func (s *MemoryStore) FindRelationship(ctx context.Context, familyID, relationshipID int64) (models.Relationship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findRelationship(familyID, relationshipID)
}

func (s *MemoryStore) InsertRelationship(ctx context.Context, rel models.Relationship) (models.Relationship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertRelationship(rel)
}

func (s *MemoryStore) DeleteRelationships(ctx context.Context, familyID int64, filter RelationshipFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteRelationships(familyID, filter)
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, s.err)
	}

	saved := append([]models.Relationship(nil), s.relationships...)
	savedID := s.nextRelID
	if err := fn(&memoryTx{s: s}); err != nil {
		s.relationships = saved
		s.nextRelID = savedID
		return err
	}
	return nil
}

func (s *MemoryStore) findPerson(familyID, personID int64) (models.Person, error) {
	if s.err != nil {
		return models.Person{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, s.err)
	}
	p, ok := s.persons[personID]
	if !ok || p.FamilyID != familyID {
		return models.Person{}, fmt.Errorf("person %d: %w", personID, ErrNotFound)
	}
	return p, nil
}

func (s *MemoryStore) listRelationships(familyID int64, filter RelationshipFilter) ([]models.Relationship, error) {
	if s.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, s.err)
	}
	var out []models.Relationship
	for _, rel := range s.relationships {
		if rel.FamilyID == familyID && filter.Matches(rel) {
			out = append(out, rel)
		}
	}
	return out, nil
}

func (s *MemoryStore) findRelationship(familyID, relationshipID int64) (models.Relationship, error) {
	if s.err != nil {
		return models.Relationship{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, s.err)
	}
	for _, rel := range s.relationships {
		if rel.ID == relationshipID && rel.FamilyID == familyID {
			return rel, nil
		}
	}
	return models.Relationship{}, fmt.Errorf("relationship %d: %w", relationshipID, ErrNotFound)
}

func (s *MemoryStore) insertRelationship(rel models.Relationship) (models.Relationship, error) {
	if s.err != nil {
		return models.Relationship{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, s.err)
	}
	for _, existing := range s.relationships {
		if existing.PersonID == rel.PersonID && existing.RelatedPersonID == rel.RelatedPersonID && existing.Type == rel.Type {
			if s.rejectDuplicates {
				return models.Relationship{}, ErrDuplicateEdge
			}
			return existing, nil
		}
	}
	s.nextRelID++
	rel.ID = s.nextRelID
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = time.Now().UTC()
	}
	s.relationships = append(s.relationships, rel)
	return rel, nil
}

func (s *MemoryStore) deleteRelationships(familyID int64, filter RelationshipFilter) (int64, error) {
	if s.err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, s.err)
	}
	kept := s.relationships[:0]
	var removed int64
	for _, rel := range s.relationships {
		if rel.FamilyID == familyID && filter.Matches(rel) {
			removed++
			continue
		}
		kept = append(kept, rel)
	}
	s.relationships = kept
	return removed, nil
}

// memoryTx runs against a MemoryStore whose lock is already held.
type memoryTx struct {
	s *MemoryStore
}

func (t *memoryTx) FindPerson(ctx context.Context, familyID, personID int64) (models.Person, error) {
	return t.s.findPerson(familyID, personID)
}

func (t *memoryTx) ListRelationships(ctx context.Context, familyID int64, filter RelationshipFilter) ([]models.Relationship, error) {
	return t.s.listRelationships(familyID, filter)
}

func (t *memoryTx) FindRelationship(ctx context.Context, familyID, relationshipID int64) (models.Relationship, error) {
	return t.s.findRelationship(familyID, relationshipID)
}

func (t *memoryTx) InsertRelationship(ctx context.Context, rel models.Relationship) (models.Relationship, error) {
	return t.s.insertRelationship(rel)
}

func (t *memoryTx) DeleteRelationships(ctx context.Context, familyID int64, filter RelationshipFilter) (int64, error) {
	return t.s.deleteRelationships(familyID, filter)
}

func (t *memoryTx) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return fn(t)
}
