package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"familytree/internal/database"
	"familytree/internal/models"
)

var codeCounter atomic.Int64

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping SQLite-backed test in short mode")
	}

	ctx := context.Background()
	db, err := database.Initialize(ctx, filepath.Join(t.TempDir(), "familytree.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations(ctx, nil))
	return db
}

func createFamily(t *testing.T, db *database.DB, ownerID int64) *models.Family {
	t.Helper()
	family := &models.Family{
		Name:    "Test Family",
		Code:    fmt.Sprintf("TEST%08d", codeCounter.Add(1)),
		OwnerID: ownerID,
	}
	require.NoError(t, NewFamilyRepository(db).CreateFamily(context.Background(), family))
	return family
}

func date(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func createPerson(t *testing.T, db *database.DB, familyID int64, first string, gender models.Gender, birth *time.Time) models.Person {
	t.Helper()
	p := &models.Person{
		FamilyID:  familyID,
		FirstName: first,
		LastName:  "Tester",
		Gender:    gender,
		BirthDate: birth,
		IsLiving:  true,
	}
	require.NoError(t, NewPersonRepository(db).CreatePerson(context.Background(), p))
	return *p
}
