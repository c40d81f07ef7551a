package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"familytree/internal/config"
	"familytree/internal/database"
	"familytree/internal/genealogy"
	"familytree/internal/models"
	"familytree/internal/repository"
)

const (
	ownerID  int64 = 100
	adminID  int64 = 200
	memberID int64 = 300
	otherID  int64 = 400
)

type testEnv struct {
	db            *database.DB
	families      *FamilyService
	persons       *PersonService
	relationships *RelationshipService
	trees         *TreeService
	activity      *ActivityService
	exports       *ExportService
	store         *repository.GraphStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping SQLite-backed test in short mode")
	}

	ctx := context.Background()
	db, err := database.Initialize(ctx, filepath.Join(t.TempDir(), "familytree.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(ctx, nil))

	familyRepo := repository.NewFamilyRepository(db)
	personRepo := repository.NewPersonRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	store := repository.NewGraphStore(db)
	mutator := genealogy.NewMutator(store, activityRepo, nil)

	families := NewFamilyService(familyRepo, activityRepo, nil)
	return &testEnv{
		db:            db,
		families:      families,
		persons:       NewPersonService(families, personRepo, store, activityRepo, nil),
		relationships: NewRelationshipService(families, store, mutator, nil),
		trees:         NewTreeService(families, genealogy.NewQuery(store), config.TreeConfig{DefaultDepth: 3, MaxDepth: 10}),
		activity:      NewActivityService(families, repository.NewActivityRepository(db)),
		exports:       NewExportService(families, familyRepo, personRepo, store, mutator, nil),
		store:         store,
	}
}

// newFamily creates a family owned by ownerID with adminID as admin and
// memberID as member
func (e *testEnv) newFamily(t *testing.T) *models.Family {
	t.Helper()
	ctx := context.Background()

	family, err := e.families.CreateFamily(ctx, "The Testers", "", ownerID)
	require.NoError(t, err)
	_, err = e.families.JoinFamily(ctx, adminID, family.Code)
	require.NoError(t, err)
	_, err = e.families.JoinFamily(ctx, memberID, family.Code)
	require.NoError(t, err)
	require.NoError(t, e.families.ChangeMemberRole(ctx, ownerID, family.ID, adminID, "admin"))
	return family
}

func (e *testEnv) addPerson(t *testing.T, familyID int64, first, gender, birth string) *models.Person {
	t.Helper()
	person, err := e.persons.CreatePerson(context.Background(), memberID, familyID, PersonInput{
		FirstName: first,
		LastName:  "Tester",
		Gender:    gender,
		BirthDate: birth,
	})
	require.NoError(t, err)
	return person
}

func boolPtr(b bool) *bool {
	return &b
}

func intPtr(i int) *int {
	return &i
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(models.DateLayout, s)
	require.NoError(t, err)
	return d
}
