package genealogy

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familytree/internal/models"
)

func TestCreateWritesReciprocalEdge(t *testing.T) {
	tests := []struct {
		name        string
		rt          models.RelationshipType
		reciprocalT models.RelationshipType
	}{
		{"parent", models.RelationshipParent, models.RelationshipChild},
		{"child", models.RelationshipChild, models.RelationshipParent},
		{"spouse", models.RelationshipSpouse, models.RelationshipSpouse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			a := addPerson(store, "A", 0)
			b := addPerson(store, "B", 0)
			m, _ := newMutator(t, store)

			rel := mustCreate(t, m, a, b, tt.rt)

			assert.Equal(t, a.ID, rel.PersonID)
			assert.Equal(t, b.ID, rel.RelatedPersonID)
			assert.Equal(t, tt.rt, rel.Type)
			require.NotNil(t, rel.CreatedBy)
			assert.Equal(t, int64(42), *rel.CreatedBy)

			edges := store.Relationships()
			require.Len(t, edges, 2)
			assert.True(t, hasEdge(edges, a.ID, b.ID, tt.rt))
			assert.True(t, hasEdge(edges, b.ID, a.ID, tt.reciprocalT))
		})
	}
}

func TestCreateIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	a := addPerson(store, "A", 1950)
	b := addPerson(store, "B", 1980)
	m, _ := newMutator(t, store)

	first := mustCreate(t, m, a, b, models.RelationshipParent)
	second := mustCreate(t, m, a, b, models.RelationshipParent)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.Relationships(), 2)
}

func TestCreateAbsorbsDuplicateEdgeErrors(t *testing.T) {
	store := NewMemoryStore().RejectDuplicates()
	a := addPerson(store, "A", 0)
	b := addPerson(store, "B", 0)
	m, _ := newMutator(t, store)

	first := mustCreate(t, m, a, b, models.RelationshipSpouse)
	second, err := m.Create(context.Background(), testFamily, a, b, models.RelationshipSpouse, Actor{})

	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.Relationships(), 2)
}

func TestConcurrentIdenticalCreatesNeverFail(t *testing.T) {
	store := NewMemoryStore().RejectDuplicates()
	a := addPerson(store, "A", 1940)
	b := addPerson(store, "B", 1970)
	m, _ := newMutator(t, store)

	const callers = 16
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Create(context.Background(), testFamily, a, b, models.RelationshipParent, Actor{UserID: 7})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Len(t, store.Relationships(), 2)
}

func TestCreateRejections(t *testing.T) {
	store := NewMemoryStore()
	a := addPerson(store, "A", 2000)
	b := addPerson(store, "B", 1970)
	c := addPerson(store, "C", 0)
	stranger := store.AddPerson(models.Person{FamilyID: 2, FirstName: "Stranger", IsLiving: true})
	m, _ := newMutator(t, store)
	ctx := context.Background()

	tests := []struct {
		name    string
		person  models.Person
		related models.Person
		rt      models.RelationshipType
		want    error
	}{
		{"self spouse", a, a, models.RelationshipSpouse, ErrSelfRelationship},
		{"self parent", c, c, models.RelationshipParent, ErrSelfRelationship},
		{"cross family", a, stranger, models.RelationshipSpouse, ErrCrossFamily},
		{"younger parent", a, b, models.RelationshipParent, ErrAgeOrder},
		{"older child", b, a, models.RelationshipChild, ErrAgeOrder},
		{"unknown type", a, c, models.RelationshipType("cousin"), ErrInvalidRelationshipType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Create(ctx, testFamily, tt.person, tt.related, tt.rt, Actor{UserID: 1})
			require.ErrorIs(t, err, tt.want)
			assert.Empty(t, store.Relationships())
		})
	}
}

func TestCreateRejectsEqualBirthDates(t *testing.T) {
	store := NewMemoryStore()
	a := addPerson(store, "A", 1980)
	b := addPerson(store, "B", 1980)
	m, _ := newMutator(t, store)

	_, err := m.Create(context.Background(), testFamily, a, b, models.RelationshipParent, Actor{})

	require.ErrorIs(t, err, ErrAgeOrder)
	assert.True(t, IsViolation(err))
}

func TestCreateRejectsCircularAncestry(t *testing.T) {
	store := NewMemoryStore()
	a := addPerson(store, "A", 0)
	b := addPerson(store, "B", 0)
	c := addPerson(store, "C", 0)
	m, _ := newMutator(t, store)
	ctx := context.Background()

	mustCreate(t, m, a, b, models.RelationshipParent)
	mustCreate(t, m, b, c, models.RelationshipParent)
	before := store.Relationships()

	t.Run("direct reversal", func(t *testing.T) {
		_, err := m.Create(ctx, testFamily, b, a, models.RelationshipParent, Actor{})
		require.ErrorIs(t, err, ErrCircularAncestry)
	})
	t.Run("grandchild as parent", func(t *testing.T) {
		_, err := m.Create(ctx, testFamily, c, a, models.RelationshipParent, Actor{})
		require.ErrorIs(t, err, ErrCircularAncestry)
	})
	t.Run("grandparent as child", func(t *testing.T) {
		_, err := m.Create(ctx, testFamily, a, c, models.RelationshipChild, Actor{})
		require.ErrorIs(t, err, ErrCircularAncestry)
	})

	assert.Equal(t, before, store.Relationships())
}

func TestCreatePropagatesStoreFailure(t *testing.T) {
	store := NewMemoryStore()
	a := addPerson(store, "A", 0)
	b := addPerson(store, "B", 0)
	store.WithError(errBoom)
	m, recorder := newMutator(t, store)

	_, err := m.Create(context.Background(), testFamily, a, b, models.RelationshipSpouse, Actor{})

	require.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Empty(t, recorder.Events())
}

func TestCreateRecordsActivity(t *testing.T) {
	store := NewMemoryStore()
	a := addPerson(store, "Ada", 0)
	b := addPerson(store, "Ben", 0)
	m, recorder := newMutator(t, store)

	rel := mustCreate(t, m, a, b, models.RelationshipSpouse)

	events := recorder.Events()
	require.Len(t, events, 1)
	assert.Equal(t, ActivityEvent{
		FamilyID:    testFamily,
		ActorID:     42,
		Action:      models.ActionCreate,
		TargetType:  models.TargetRelationship,
		TargetID:    rel.ID,
		Description: "Created spouse relationship between Ada Test and Ben Test",
	}, events[0])
}

func TestRecorderFailureDoesNotFailMutation(t *testing.T) {
	store := NewMemoryStore()
	a := addPerson(store, "A", 0)
	b := addPerson(store, "B", 0)
	m := NewMutator(store, &recordingRecorder{err: errBoom}, nil)

	_, err := m.Create(context.Background(), testFamily, a, b, models.RelationshipSpouse, Actor{})

	require.NoError(t, err)
	assert.Len(t, store.Relationships(), 2)
}

func TestDeletePurgesEveryEdgeBack(t *testing.T) {
	store := NewMemoryStore()
	a := addPerson(store, "A", 0)
	b := addPerson(store, "B", 0)
	c := addPerson(store, "C", 0)
	m, recorder := newMutator(t, store)

	parent := mustCreate(t, m, a, b, models.RelationshipParent)
	mustCreate(t, m, b, a, models.RelationshipSpouse)
	mustCreate(t, m, a, c, models.RelationshipParent)

	require.NoError(t, m.Delete(context.Background(), testFamily, parent, Actor{UserID: 3}))

	edges := store.Relationships()
	assert.False(t, hasEdge(edges, a.ID, b.ID, models.RelationshipParent))
	assert.False(t, hasEdge(edges, b.ID, a.ID, models.RelationshipChild))
	assert.False(t, hasEdge(edges, b.ID, a.ID, models.RelationshipSpouse))
	assert.True(t, hasEdge(edges, a.ID, b.ID, models.RelationshipSpouse))
	assert.True(t, hasEdge(edges, a.ID, c.ID, models.RelationshipParent))
	assert.True(t, hasEdge(edges, c.ID, a.ID, models.RelationshipChild))
	assert.Len(t, edges, 3)

	events := recorder.Events()
	last := events[len(events)-1]
	assert.Equal(t, models.ActionDelete, last.Action)
	assert.Equal(t, parent.ID, last.TargetID)
	assert.Equal(t, int64(3), last.ActorID)
}

func TestDeleteOutsideFamilyIsNotFound(t *testing.T) {
	store := NewMemoryStore()
	a := addPerson(store, "A", 0)
	b := addPerson(store, "B", 0)
	m, _ := newMutator(t, store)
	rel := mustCreate(t, m, a, b, models.RelationshipSpouse)

	err := m.Delete(context.Background(), testFamily+1, rel, Actor{})

	require.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, store.Relationships(), 2)
}
