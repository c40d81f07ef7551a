package genealogy

import (
	"context"

	"familytree/internal/models"
)

// DefaultTreeDepth is the number of generations rendered below the root
// when the caller does not ask for a depth.
const DefaultTreeDepth = 3

// TreeNode is one person in a rendered descendant tree
type TreeNode struct {
	ID       int64         `json:"id"`
	Name     string        `json:"name"`
	Gender   models.Gender `json:"gender"`
	IsLiving bool          `json:"is_living"`
	Children []*TreeNode   `json:"children"`
	HasMore  bool          `json:"has_more"`
}

// TreeOptions bounds BuildTree
type TreeOptions struct {
	// MaxDepth is the deepest generation expanded; the root is depth 0.
	MaxDepth int
	// IncludeDeceased keeps deceased children. When false they are pruned
	// together with their subtrees.
	IncludeDeceased bool
}

// BuildTree renders the descendants of root by following parent edges.
// Nodes at MaxDepth are not expanded; HasMore marks those that have
// further visible children. Work is bounded by MaxDepth even if the edge
// set contains a cycle.
func (q *Query) BuildTree(ctx context.Context, familyID, rootID int64, opts TreeOptions) (*TreeNode, error) {
	root, err := q.store.FindPerson(ctx, familyID, rootID)
	if err != nil {
		return nil, err
	}
	if opts.MaxDepth < 0 {
		opts.MaxDepth = 0
	}
	return q.expand(ctx, familyID, root, 0, opts)
}

func (q *Query) expand(ctx context.Context, familyID int64, person models.Person, depth int, opts TreeOptions) (*TreeNode, error) {
	node := &TreeNode{
		ID:       person.ID,
		Name:     person.FullName(),
		Gender:   person.Gender,
		IsLiving: person.IsLiving,
		Children: []*TreeNode{},
	}

	edges, err := q.store.ListRelationships(ctx, familyID, From(person.ID, models.RelationshipParent))
	if err != nil {
		return nil, err
	}

	if depth >= opts.MaxDepth {
		more, err := q.anyVisible(ctx, familyID, edges, opts.IncludeDeceased)
		if err != nil {
			return nil, err
		}
		node.HasMore = more
		return node, nil
	}

	for _, edge := range edges {
		child, err := q.store.FindPerson(ctx, familyID, edge.RelatedPersonID)
		if err != nil {
			return nil, err
		}
		if !opts.IncludeDeceased && !child.IsLiving {
			continue
		}
		sub, err := q.expand(ctx, familyID, child, depth+1, opts)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, sub)
	}
	return node, nil
}

func (q *Query) anyVisible(ctx context.Context, familyID int64, edges []models.Relationship, includeDeceased bool) (bool, error) {
	if includeDeceased {
		return len(edges) > 0, nil
	}
	for _, edge := range edges {
		child, err := q.store.FindPerson(ctx, familyID, edge.RelatedPersonID)
		if err != nil {
			return false, err
		}
		if child.IsLiving {
			return true, nil
		}
	}
	return false, nil
}
