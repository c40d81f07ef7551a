package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familytree/internal/genealogy"
	"familytree/internal/models"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{" yml ", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	family := env.newFamily(t)
	ctx := context.Background()

	gran := env.addPerson(t, family.ID, "Gran", "female", "1930-01-01")
	grandad := env.addPerson(t, family.ID, "Grandad", "male", "1928-06-15")
	mum := env.addPerson(t, family.ID, "Mum", "female", "1960-01-01")
	for _, link := range []struct {
		person, related int64
		kind            string
	}{
		{gran.ID, mum.ID, "parent"},
		{grandad.ID, mum.ID, "parent"},
		{gran.ID, grandad.ID, "spouse"},
	} {
		_, err := env.relationships.CreateRelationship(ctx, memberID, family.ID, link.person, link.related, link.kind)
		require.NoError(t, err)
	}

	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			exported, err := env.exports.Export(ctx, family.ID)
			require.NoError(t, err)
			assert.Len(t, exported.Persons, 3)
			assert.Len(t, exported.Relationships, 6)

			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, format, exported))
			decoded, err := Decode(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, family.Name, decoded.Family.Name)

			result, err := env.exports.Import(ctx, otherID, decoded)
			require.NoError(t, err)
			assert.NotEqual(t, family.ID, result.Family.ID)
			assert.Equal(t, 3, result.Persons)
			assert.Equal(t, 4, result.Relationships)

			edges, err := env.store.ListRelationships(ctx, result.Family.ID, genealogy.RelationshipFilter{})
			require.NoError(t, err)
			assert.Len(t, edges, 6)

			member, err := env.families.Authorize(ctx, result.Family.ID, otherID, models.RoleOwner)
			require.NoError(t, err)
			assert.Equal(t, models.RoleOwner, member.Role)

			persons, err := env.persons.ListPersons(ctx, otherID, result.Family.ID)
			require.NoError(t, err)
			require.Len(t, persons, 3)
			for _, p := range persons {
				if p.FirstName == "Grandad" {
					require.NotNil(t, p.BirthDate)
					assert.Equal(t, mustDate(t, "1928-06-15"), p.BirthDate.UTC())
				}
			}
		})
	}
}

func TestImportRejectsBrokenExports(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.exports.Import(ctx, ownerID, &FamilyExport{Version: "0", Family: models.Family{Name: "Old"}})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	broken := &FamilyExport{
		Version: ExportVersion,
		Family:  models.Family{Name: "Broken"},
		Persons: []models.Person{{ID: 1, FirstName: "Solo", Gender: models.GenderOther, IsLiving: true}},
		Relationships: []models.Relationship{
			{ID: 1, PersonID: 1, RelatedPersonID: 2, Type: models.RelationshipSpouse},
		},
	}
	_, err = env.exports.Import(ctx, ownerID, broken)
	assert.ErrorIs(t, err, genealogy.ErrNotFound)

	families, err := env.families.GetUserFamilies(ctx, ownerID)
	require.NoError(t, err)
	assert.Empty(t, families)
}

func TestExportMissingFamily(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.exports.Export(context.Background(), 4242)
	assert.ErrorIs(t, err, ErrFamilyNotFound)
}
