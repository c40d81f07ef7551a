package genealogy

import (
	"context"
	"sort"

	"familytree/internal/models"
)

// Query answers read-only graph questions over one family's edges. The
// traversals read edges one person at a time and do not see a consistent
// snapshot across concurrent mutations.
type Query struct {
	store Reader
}

// NewQuery creates a query engine reading from store
func NewQuery(store Reader) *Query {
	return &Query{store: store}
}

// Path returns the shortest chain of persons from start to end, both
// included, following edges of any type in their stored direction. Ties
// between equally short paths go to the first discovered in edge order.
// A nil slice with a nil error means end is unreachable.
func (q *Query) Path(ctx context.Context, familyID, startID, endID int64) ([]models.Person, error) {
	start, err := q.store.FindPerson(ctx, familyID, startID)
	if err != nil {
		return nil, err
	}
	end, err := q.store.FindPerson(ctx, familyID, endID)
	if err != nil {
		return nil, err
	}
	if start.ID == end.ID {
		return []models.Person{start}, nil
	}

	previous := make(map[int64]int64)
	visited := map[int64]bool{start.ID: true}
	queue := []int64{start.ID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		edges, err := q.store.ListRelationships(ctx, familyID, From(current))
		if err != nil {
			return nil, err
		}
		for _, edge := range edges {
			next := edge.RelatedPersonID
			if visited[next] {
				continue
			}
			visited[next] = true
			previous[next] = current
			if next == end.ID {
				return q.walkBack(ctx, familyID, previous, start, end)
			}
			queue = append(queue, next)
		}
	}
	return nil, nil
}

func (q *Query) walkBack(ctx context.Context, familyID int64, previous map[int64]int64, start, end models.Person) ([]models.Person, error) {
	ids := []int64{end.ID}
	for id := end.ID; id != start.ID; {
		id = previous[id]
		ids = append(ids, id)
	}

	path := make([]models.Person, len(ids))
	for i, id := range ids {
		pos := len(ids) - 1 - i
		switch id {
		case start.ID:
			path[pos] = start
		case end.ID:
			path[pos] = end
		default:
			p, err := q.store.FindPerson(ctx, familyID, id)
			if err != nil {
				return nil, err
			}
			path[pos] = p
		}
	}
	return path, nil
}

// Ancestors returns everyone reachable from the person through child edges,
// ordered by id. The person itself is never included.
func (q *Query) Ancestors(ctx context.Context, familyID, personID int64) ([]models.Person, error) {
	return q.closure(ctx, familyID, personID, models.RelationshipChild)
}

// Descendants returns everyone reachable from the person through parent
// edges, ordered by id. The person itself is never included.
func (q *Query) Descendants(ctx context.Context, familyID, personID int64) ([]models.Person, error) {
	return q.closure(ctx, familyID, personID, models.RelationshipParent)
}

func (q *Query) closure(ctx context.Context, familyID, personID int64, via models.RelationshipType) ([]models.Person, error) {
	root, err := q.store.FindPerson(ctx, familyID, personID)
	if err != nil {
		return nil, err
	}

	visited := map[int64]bool{root.ID: true}
	stack := []int64{root.ID}
	found := []models.Person{}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		edges, err := q.store.ListRelationships(ctx, familyID, From(current, via))
		if err != nil {
			return nil, err
		}
		for _, edge := range edges {
			next := edge.RelatedPersonID
			if visited[next] {
				continue
			}
			visited[next] = true
			p, err := q.store.FindPerson(ctx, familyID, next)
			if err != nil {
				return nil, err
			}
			found = append(found, p)
			stack = append(stack, next)
		}
	}

	sort.Slice(found, func(i, j int) bool { return found[i].ID < found[j].ID })
	return found, nil
}
