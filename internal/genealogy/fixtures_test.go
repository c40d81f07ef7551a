package genealogy

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"familytree/internal/models"
)

const testFamily int64 = 1

type recordingRecorder struct {
	mu     sync.Mutex
	events []ActivityEvent
	err    error
}

func (r *recordingRecorder) Record(_ context.Context, event ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *recordingRecorder) Events() []ActivityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ActivityEvent(nil), r.events...)
}

var errBoom = errors.New("boom")

func born(year int) *time.Time {
	t := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return &t
}

func addPerson(store *MemoryStore, first string, birthYear int) models.Person {
	p := models.Person{
		FamilyID:  testFamily,
		FirstName: first,
		LastName:  "Test",
		Gender:    models.GenderOther,
		IsLiving:  true,
	}
	if birthYear != 0 {
		p.BirthDate = born(birthYear)
	}
	return store.AddPerson(p)
}

func newMutator(t *testing.T, store Store) (*Mutator, *recordingRecorder) {
	t.Helper()
	recorder := &recordingRecorder{}
	return NewMutator(store, recorder, nil), recorder
}

func mustCreate(t *testing.T, m *Mutator, person, related models.Person, rt models.RelationshipType) models.Relationship {
	t.Helper()
	rel, err := m.Create(context.Background(), testFamily, person, related, rt, Actor{UserID: 42})
	if err != nil {
		t.Fatalf("Create(%s, %s, %s) error = %v", person.FirstName, related.FirstName, rt, err)
	}
	return rel
}

func hasEdge(edges []models.Relationship, from, to int64, rt models.RelationshipType) bool {
	for _, e := range edges {
		if e.PersonID == from && e.RelatedPersonID == to && e.Type == rt {
			return true
		}
	}
	return false
}

func ids(persons []models.Person) []int64 {
	out := make([]int64, len(persons))
	for i, p := range persons {
		out[i] = p.ID
	}
	return out
}
