package genealogy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familytree/internal/models"
)

func TestIsAncestor(t *testing.T) {
	store, people := threeGenerations(t)
	v := NewValidator(store)
	ctx := context.Background()

	tests := []struct {
		name       string
		candidate  string
		descendant string
		want       bool
	}{
		{"direct parent", "parent", "child", true},
		{"grandparent", "grandparent", "child", true},
		{"reversed", "child", "grandparent", false},
		{"spouse is not ancestor", "spouse", "child", false},
		{"self", "child", "child", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.IsAncestor(ctx, testFamily, people[tt.candidate].ID, people[tt.descendant].ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateSkipsAgeCheckWithoutBirthDates(t *testing.T) {
	store := NewMemoryStore()
	a := addPerson(store, "A", 0)
	b := addPerson(store, "B", 1990)
	v := NewValidator(store)

	assert.NoError(t, v.Validate(context.Background(), a, b, models.RelationshipParent))
	assert.NoError(t, v.Validate(context.Background(), b, a, models.RelationshipChild))
}

func TestValidateRuleOrder(t *testing.T) {
	store := NewMemoryStore()
	a := addPerson(store, "A", 1990)
	other := store.AddPerson(models.Person{FamilyID: 2, FirstName: "Other", BirthDate: born(2000)})
	v := NewValidator(store)

	// Both cross family and age order are violated; cross family is reported.
	err := v.Validate(context.Background(), other, a, models.RelationshipParent)
	require.ErrorIs(t, err, ErrCrossFamily)
}
