package genealogy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familytree/internal/models"
)

// threeGenerations builds grandparent -> parent -> child with a spouse
// attached to the parent.
func threeGenerations(t *testing.T) (*MemoryStore, map[string]models.Person) {
	t.Helper()
	store := NewMemoryStore()
	people := map[string]models.Person{
		"grandparent": addPerson(store, "Grandparent", 1920),
		"parent":      addPerson(store, "Parent", 1950),
		"spouse":      addPerson(store, "Spouse", 1952),
		"child":       addPerson(store, "Child", 1980),
	}
	m, _ := newMutator(t, store)
	mustCreate(t, m, people["grandparent"], people["parent"], models.RelationshipParent)
	mustCreate(t, m, people["parent"], people["child"], models.RelationshipParent)
	mustCreate(t, m, people["spouse"], people["parent"], models.RelationshipSpouse)
	return store, people
}

func TestPathFindsShortestChain(t *testing.T) {
	store, people := threeGenerations(t)
	q := NewQuery(store)

	path, err := q.Path(context.Background(), testFamily, people["grandparent"].ID, people["child"].ID)

	require.NoError(t, err)
	assert.Equal(t, []int64{people["grandparent"].ID, people["parent"].ID, people["child"].ID}, ids(path))
}

func TestPathPrefersFewerHops(t *testing.T) {
	store := NewMemoryStore()
	a := addPerson(store, "A", 0)
	b := addPerson(store, "B", 0)
	c := addPerson(store, "C", 0)
	d := addPerson(store, "D", 0)
	m, _ := newMutator(t, store)
	mustCreate(t, m, a, b, models.RelationshipParent)
	mustCreate(t, m, b, c, models.RelationshipParent)
	mustCreate(t, m, c, d, models.RelationshipParent)
	mustCreate(t, m, a, d, models.RelationshipSpouse)

	path, err := NewQuery(store).Path(context.Background(), testFamily, a.ID, d.ID)

	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, d.ID}, ids(path))
}

func TestPathFollowsReciprocalEdgesUpward(t *testing.T) {
	store, people := threeGenerations(t)

	path, err := NewQuery(store).Path(context.Background(), testFamily, people["child"].ID, people["spouse"].ID)

	require.NoError(t, err)
	assert.Equal(t, []int64{people["child"].ID, people["parent"].ID, people["spouse"].ID}, ids(path))
}

func TestPathEdgeCases(t *testing.T) {
	store, people := threeGenerations(t)
	loner := addPerson(store, "Loner", 0)
	q := NewQuery(store)
	ctx := context.Background()

	t.Run("same person", func(t *testing.T) {
		path, err := q.Path(ctx, testFamily, loner.ID, loner.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{loner.ID}, ids(path))
	})

	t.Run("unreachable", func(t *testing.T) {
		path, err := q.Path(ctx, testFamily, people["child"].ID, loner.ID)
		require.NoError(t, err)
		assert.Nil(t, path)
	})

	t.Run("missing person", func(t *testing.T) {
		_, err := q.Path(ctx, testFamily, people["child"].ID, 999)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("other family", func(t *testing.T) {
		_, err := q.Path(ctx, testFamily+1, people["child"].ID, people["parent"].ID)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAncestorsAndDescendants(t *testing.T) {
	store, people := threeGenerations(t)
	q := NewQuery(store)
	ctx := context.Background()

	ancestors, err := q.Ancestors(ctx, testFamily, people["child"].ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{people["grandparent"].ID, people["parent"].ID}, ids(ancestors))

	descendants, err := q.Descendants(ctx, testFamily, people["grandparent"].ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{people["parent"].ID, people["child"].ID}, ids(descendants))

	none, err := q.Ancestors(ctx, testFamily, people["grandparent"].ID)
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)

	spouseLine, err := q.Descendants(ctx, testFamily, people["spouse"].ID)
	require.NoError(t, err)
	assert.Empty(t, spouseLine)
}

func TestClosureVisitsSharedAncestorsOnce(t *testing.T) {
	store := NewMemoryStore()
	root := addPerson(store, "Root", 1900)
	left := addPerson(store, "Left", 1930)
	right := addPerson(store, "Right", 1932)
	child := addPerson(store, "Child", 1960)
	m, _ := newMutator(t, store)
	mustCreate(t, m, root, left, models.RelationshipParent)
	mustCreate(t, m, root, right, models.RelationshipParent)
	mustCreate(t, m, left, child, models.RelationshipParent)
	mustCreate(t, m, right, child, models.RelationshipParent)

	ancestors, err := NewQuery(store).Ancestors(context.Background(), testFamily, child.ID)

	require.NoError(t, err)
	assert.Equal(t, []int64{root.ID, left.ID, right.ID}, ids(ancestors))
}

func TestQueryPropagatesStoreFailure(t *testing.T) {
	store, people := threeGenerations(t)
	store.WithError(errBoom)
	q := NewQuery(store)

	_, err := q.Descendants(context.Background(), testFamily, people["grandparent"].ID)

	require.ErrorIs(t, err, ErrStoreUnavailable)
}
