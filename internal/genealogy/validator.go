package genealogy

import (
	"context"
	"fmt"

	"familytree/internal/models"
)

// Validator decides whether a proposed edge keeps the family graph valid.
// It only reads through the store.
type Validator struct {
	store Reader
}

// NewValidator creates a validator reading graph state from store
func NewValidator(store Reader) *Validator {
	return &Validator{store: store}
}

// Validate checks the edge (person, related, t). Rules run in order and the
// first failure wins: self relationship, cross family, circular ancestry,
// age order. Spouse edges only get the first two.
func (v *Validator) Validate(ctx context.Context, person, related models.Person, t models.RelationshipType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRelationshipType, t)
	}
	if person.ID == related.ID {
		return ErrSelfRelationship
	}
	if person.FamilyID != related.FamilyID {
		return ErrCrossFamily
	}

	switch t {
	case models.RelationshipParent:
		return v.checkParentage(ctx, person, related)
	case models.RelationshipChild:
		return v.checkParentage(ctx, related, person)
	}
	return nil
}

// checkParentage validates parent becoming a parent of child.
func (v *Validator) checkParentage(ctx context.Context, parent, child models.Person) error {
	cyclic, err := v.IsAncestor(ctx, parent.FamilyID, child.ID, parent.ID)
	if err != nil {
		return err
	}
	if cyclic {
		return fmt.Errorf("%w: %s is already an ancestor of %s", ErrCircularAncestry, child, parent)
	}

	if parent.BirthDate != nil && child.BirthDate != nil && !parent.BirthDate.Before(*child.BirthDate) {
		return fmt.Errorf("%w: %s (born %s) cannot be a parent of %s (born %s)", ErrAgeOrder,
			parent, models.FormatDate(parent.BirthDate), child, models.FormatDate(child.BirthDate))
	}
	return nil
}

// IsAncestor reports whether candidate is reachable from descendant by
// following child edges, i.e. candidate is recorded as an ancestor.
func (v *Validator) IsAncestor(ctx context.Context, familyID, candidate, descendant int64) (bool, error) {
	visited := make(map[int64]bool)
	stack := []int64{descendant}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current == candidate {
			return true, nil
		}
		if visited[current] {
			continue
		}
		visited[current] = true

		edges, err := v.store.ListRelationships(ctx, familyID, From(current, models.RelationshipChild))
		if err != nil {
			return false, err
		}
		for _, edge := range edges {
			if !visited[edge.RelatedPersonID] {
				stack = append(stack, edge.RelatedPersonID)
			}
		}
	}
	return false, nil
}
