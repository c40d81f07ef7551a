package models

import (
	"fmt"
	"strings"
	"time"
)

// RelationshipType describes what the person is to the related person.
// An edge (A, B, parent) records that A is a parent of B; (A, B, child)
// records that A is a child of B.
type RelationshipType string

const (
	RelationshipParent RelationshipType = "parent"
	RelationshipChild  RelationshipType = "child"
	RelationshipSpouse RelationshipType = "spouse"
)

// AllRelationshipTypes lists every stored edge type
var AllRelationshipTypes = []RelationshipType{RelationshipParent, RelationshipChild, RelationshipSpouse}

// ParseRelationshipType validates a relationship type name
func ParseRelationshipType(s string) (RelationshipType, error) {
	t := RelationshipType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown relationship type %q", s)
	}
	return t, nil
}

// Valid reports whether t is a known relationship type
func (t RelationshipType) Valid() bool {
	switch t {
	case RelationshipParent, RelationshipChild, RelationshipSpouse:
		return true
	}
	return false
}

// Reciprocal returns the type of the mandatory inverse edge.
// Parent and child are mutual inverses; spouse is its own inverse.
func (t RelationshipType) Reciprocal() RelationshipType {
	switch t {
	case RelationshipParent:
		return RelationshipChild
	case RelationshipChild:
		return RelationshipParent
	default:
		return t
	}
}

// Relationship is a directed, typed edge between two persons of one family
type Relationship struct {
	ID              int64            `json:"id" yaml:"id"`
	FamilyID        int64            `json:"family_id" yaml:"family_id"`
	PersonID        int64            `json:"person_id" yaml:"person_id"`
	RelatedPersonID int64            `json:"related_person_id" yaml:"related_person_id"`
	Type            RelationshipType `json:"relationship_type" yaml:"relationship_type"`
	CreatedBy       *int64           `json:"created_by,omitempty" yaml:"created_by,omitempty"`
	CreatedAt       time.Time        `json:"created_at" yaml:"created_at"`
}

// Reverse builds the reciprocal edge of r
func (r Relationship) Reverse() Relationship {
	return Relationship{
		FamilyID:        r.FamilyID,
		PersonID:        r.RelatedPersonID,
		RelatedPersonID: r.PersonID,
		Type:            r.Type.Reciprocal(),
		CreatedBy:       r.CreatedBy,
		CreatedAt:       r.CreatedAt,
	}
}
