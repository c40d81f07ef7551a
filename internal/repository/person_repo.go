package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"familytree/internal/database"
	"familytree/internal/models"
)

const personColumns = `id, family_id, first_name, middle_name, last_name, gender,
	birth_date, birth_place, death_date, death_place, is_living, notes,
	created_by, created_at, updated_at`

// AutocompleteLimit caps autocomplete results
const AutocompleteLimit = 10

// PersonSearch narrows SearchPersons. Zero values match everything.
type PersonSearch struct {
	Name          string
	Gender        models.Gender
	IsLiving      *bool
	BirthYearFrom int
	BirthYearTo   int
}

// PersonRepository handles database operations for persons
type PersonRepository struct {
	db database.DBTX
}

// NewPersonRepository creates a new person repository
func NewPersonRepository(db database.DBTX) *PersonRepository {
	return &PersonRepository{db: db}
}

// CreatePerson inserts p and fills in its ID and timestamps
func (r *PersonRepository) CreatePerson(ctx context.Context, p *models.Person) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO persons (family_id, first_name, middle_name, last_name, gender,
			birth_date, birth_place, death_date, death_place, is_living, notes,
			created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		p.FamilyID, p.FirstName, p.MiddleName, p.LastName, string(p.Gender),
		nullableDate(p.BirthDate), p.BirthPlace, nullableDate(p.DeathDate), p.DeathPlace,
		p.IsLiving, p.Notes, nullableInt64(p.CreatedBy), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create person: %w", err)
	}

	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// GetPerson retrieves a person of a family, or nil when there is none
func (r *PersonRepository) GetPerson(ctx context.Context, familyID, personID int64) (*models.Person, error) {
	return r.getPerson(ctx, familyID, personID, "")
}

// GetPersonForUpdate is GetPerson holding the row until the surrounding
// transaction ends
func (r *PersonRepository) GetPersonForUpdate(ctx context.Context, familyID, personID int64) (*models.Person, error) {
	return r.getPerson(ctx, familyID, personID, r.db.GetDialect().LockClause())
}

func (r *PersonRepository) getPerson(ctx context.Context, familyID, personID int64, lock string) (*models.Person, error) {
	query := "SELECT " + personColumns + " FROM persons WHERE id = ? AND family_id = ?" + lock
	person, err := scanPerson(r.db.QueryRowContext(ctx, query, personID, familyID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return person, nil
}

// ListPersons returns every person of a family ordered by name
func (r *PersonRepository) ListPersons(ctx context.Context, familyID int64) ([]models.Person, error) {
	query := "SELECT " + personColumns + " FROM persons WHERE family_id = ? ORDER BY last_name, first_name, id"
	return r.queryPersons(ctx, query, familyID)
}

// UpdatePerson overwrites the editable fields of p
func (r *PersonRepository) UpdatePerson(ctx context.Context, p *models.Person) error {
	now := time.Now().UTC()
	query := `
		UPDATE persons SET first_name = ?, middle_name = ?, last_name = ?, gender = ?,
			birth_date = ?, birth_place = ?, death_date = ?, death_place = ?,
			is_living = ?, notes = ?, updated_at = ?
		WHERE id = ? AND family_id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		p.FirstName, p.MiddleName, p.LastName, string(p.Gender),
		nullableDate(p.BirthDate), p.BirthPlace, nullableDate(p.DeathDate), p.DeathPlace,
		p.IsLiving, p.Notes, now, p.ID, p.FamilyID,
	)
	if err != nil {
		return fmt.Errorf("failed to update person: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update person %d: %w", p.ID, ErrNotFound)
	}
	p.UpdatedAt = now
	return nil
}

// DeletePerson removes a person row
func (r *PersonRepository) DeletePerson(ctx context.Context, familyID, personID int64) error {
	query := "DELETE FROM persons WHERE id = ? AND family_id = ?"
	result, err := r.db.ExecContext(ctx, query, personID, familyID)
	if err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to delete person %d: %w", personID, ErrNotFound)
	}
	return nil
}

// SearchPersons filters a family's persons by name substring, gender,
// living flag and birth-year range
func (r *PersonRepository) SearchPersons(ctx context.Context, familyID int64, search PersonSearch) ([]models.Person, error) {
	conditions := []string{"family_id = ?"}
	args := []interface{}{familyID}

	if name := strings.ToLower(strings.TrimSpace(search.Name)); name != "" {
		pattern := "%" + escapeLike(name) + "%"
		conditions = append(conditions,
			"(LOWER(first_name) LIKE ? ESCAPE '!' OR LOWER(middle_name) LIKE ? ESCAPE '!' OR LOWER(last_name) LIKE ? ESCAPE '!')")
		args = append(args, pattern, pattern, pattern)
	}
	if search.Gender != "" {
		conditions = append(conditions, "gender = ?")
		args = append(args, string(search.Gender))
	}
	if search.IsLiving != nil {
		conditions = append(conditions, "is_living = ?")
		args = append(args, *search.IsLiving)
	}
	if search.BirthYearFrom > 0 {
		conditions = append(conditions, "birth_date >= ?")
		args = append(args, fmt.Sprintf("%04d-01-01", search.BirthYearFrom))
	}
	if search.BirthYearTo > 0 {
		conditions = append(conditions, "birth_date <= ?")
		args = append(args, fmt.Sprintf("%04d-12-31", search.BirthYearTo))
	}

	query := "SELECT " + personColumns + " FROM persons WHERE " +
		strings.Join(conditions, " AND ") + " ORDER BY last_name, first_name, id"
	return r.queryPersons(ctx, query, args...)
}

// AutocompletePersons returns up to AutocompleteLimit persons whose first
// name contains term
func (r *PersonRepository) AutocompletePersons(ctx context.Context, familyID int64, term string) ([]models.Person, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return []models.Person{}, nil
	}
	query := "SELECT " + personColumns + ` FROM persons
		WHERE family_id = ? AND LOWER(first_name) LIKE ? ESCAPE '!'
		ORDER BY first_name, last_name, id
		LIMIT ?`
	return r.queryPersons(ctx, query, familyID, "%"+escapeLike(term)+"%", AutocompleteLimit)
}

// SpouseCandidates lists everyone in the family except person, limited to
// the opposite gender when person is male or female
func (r *PersonRepository) SpouseCandidates(ctx context.Context, person models.Person) ([]models.Person, error) {
	query := "SELECT " + personColumns + " FROM persons WHERE family_id = ? AND id <> ?"
	args := []interface{}{person.FamilyID, person.ID}

	switch person.Gender {
	case models.GenderMale:
		query += " AND gender = ?"
		args = append(args, string(models.GenderFemale))
	case models.GenderFemale:
		query += " AND gender = ?"
		args = append(args, string(models.GenderMale))
	}

	query += " ORDER BY last_name, first_name, id"
	return r.queryPersons(ctx, query, args...)
}

func (r *PersonRepository) queryPersons(ctx context.Context, query string, args ...interface{}) ([]models.Person, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query persons: %w", err)
	}
	defer rows.Close()

	persons := []models.Person{}
	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		persons = append(persons, *person)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate persons: %w", err)
	}

	return persons, nil
}

func scanPerson(row rowScanner) (*models.Person, error) {
	var (
		p            models.Person
		gender       string
		birth, death sql.NullString
		createdBy    sql.NullInt64
	)
	err := row.Scan(
		&p.ID, &p.FamilyID, &p.FirstName, &p.MiddleName, &p.LastName, &gender,
		&birth, &p.BirthPlace, &death, &p.DeathPlace, &p.IsLiving, &p.Notes,
		&createdBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Gender = models.Gender(gender)
	p.CreatedBy = int64Ptr(createdBy)
	if p.BirthDate, err = datePtr(birth); err != nil {
		return nil, err
	}
	if p.DeathDate, err = datePtr(death); err != nil {
		return nil, err
	}
	return &p, nil
}

// likeEscaper escapes LIKE wildcards with '!', which needs no quoting in
// any supported dialect
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
