package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"familytree/internal/database"
	"familytree/internal/models"
)

// FamilyRepository handles database operations for families and memberships
type FamilyRepository struct {
	db *database.DB
}

// NewFamilyRepository creates a new family repository
func NewFamilyRepository(db *database.DB) *FamilyRepository {
	return &FamilyRepository{db: db}
}

// CreateFamily inserts family and makes its owner a member with the owner
// role, in one transaction
func (r *FamilyRepository) CreateFamily(ctx context.Context, family *models.Family) error {
	now := time.Now().UTC()

	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		query := `
			INSERT INTO families (name, description, code, owner_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`
		familyID, err := tx.ExecReturningID(ctx, query,
			family.Name, family.Description, family.Code, family.OwnerID, now, now)
		if err != nil {
			if tx.GetDialect().IsUniqueViolation(err) {
				return ErrDuplicateCode
			}
			return fmt.Errorf("failed to create family: %w", err)
		}

		// Add creator as owner
		if err := addMember(ctx, tx, familyID, family.OwnerID, models.RoleOwner, now); err != nil {
			return err
		}

		family.ID = familyID
		return nil
	})
	if err != nil {
		return err
	}

	family.CreatedAt = now
	family.UpdatedAt = now
	return nil
}

// CodeExists reports whether a join code is already taken
func (r *FamilyRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM families WHERE code = ?", code).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check family code: %w", err)
	}
	return count > 0, nil
}

// GetFamilyByID retrieves a family by ID
func (r *FamilyRepository) GetFamilyByID(ctx context.Context, familyID int64) (*models.Family, error) {
	return r.getFamily(ctx, "id = ?", familyID)
}

// GetFamilyByCode retrieves a family by its join code
func (r *FamilyRepository) GetFamilyByCode(ctx context.Context, code string) (*models.Family, error) {
	return r.getFamily(ctx, "code = ?", code)
}

func (r *FamilyRepository) getFamily(ctx context.Context, where string, arg interface{}) (*models.Family, error) {
	query := "SELECT id, name, description, code, owner_id, created_at, updated_at FROM families WHERE " + where
	family := &models.Family{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&family.ID,
		&family.Name,
		&family.Description,
		&family.Code,
		&family.OwnerID,
		&family.CreatedAt,
		&family.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}

	return family, nil
}

// GetUserFamilies retrieves all families a user belongs to
func (r *FamilyRepository) GetUserFamilies(ctx context.Context, userID int64) ([]models.Family, error) {
	query := `
		SELECT f.id, f.name, f.description, f.code, f.owner_id, f.created_at, f.updated_at
		FROM families f
		INNER JOIN family_members fm ON f.id = fm.family_id
		WHERE fm.user_id = ?
		ORDER BY f.created_at DESC, f.id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query families: %w", err)
	}
	defer rows.Close()

	families := []models.Family{}
	for rows.Next() {
		var family models.Family
		if err := rows.Scan(&family.ID, &family.Name, &family.Description, &family.Code,
			&family.OwnerID, &family.CreatedAt, &family.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan family: %w", err)
		}
		families = append(families, family)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate families: %w", err)
	}

	return families, nil
}

// UpdateFamily updates a family's name and description
func (r *FamilyRepository) UpdateFamily(ctx context.Context, family *models.Family) error {
	now := time.Now().UTC()
	query := "UPDATE families SET name = ?, description = ?, updated_at = ? WHERE id = ?"
	result, err := r.db.ExecContext(ctx, query, family.Name, family.Description, now, family.ID)
	if err != nil {
		return fmt.Errorf("failed to update family: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update family %d: %w", family.ID, ErrNotFound)
	}
	family.UpdatedAt = now
	return nil
}

// DeleteFamily deletes a family and all associated data
func (r *FamilyRepository) DeleteFamily(ctx context.Context, familyID int64) error {
	query := "DELETE FROM families WHERE id = ?"
	_, err := r.db.ExecContext(ctx, query, familyID)
	if err != nil {
		return fmt.Errorf("failed to delete family: %w", err)
	}
	return nil
}

// AddFamilyMember adds a user to a family
func (r *FamilyRepository) AddFamilyMember(ctx context.Context, familyID, userID int64, role models.Role) error {
	return addMember(ctx, r.db, familyID, userID, role, time.Now().UTC())
}

func addMember(ctx context.Context, db database.DBTX, familyID, userID int64, role models.Role, joinedAt time.Time) error {
	query := "INSERT INTO family_members (family_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)"
	_, err := db.ExecContext(ctx, query, familyID, userID, string(role), joinedAt)
	if err != nil {
		if db.GetDialect().IsUniqueViolation(err) {
			return ErrDuplicateMember
		}
		return fmt.Errorf("failed to add family member: %w", err)
	}
	return nil
}

// GetFamilyMember returns a user's membership, or nil when the user does
// not belong to the family
func (r *FamilyRepository) GetFamilyMember(ctx context.Context, familyID, userID int64) (*models.FamilyMember, error) {
	query := "SELECT id, family_id, user_id, role, joined_at FROM family_members WHERE family_id = ? AND user_id = ?"
	member, err := scanMember(r.db.QueryRowContext(ctx, query, familyID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family member: %w", err)
	}
	return member, nil
}

// GetFamilyMembers retrieves all members of a family in join order
func (r *FamilyRepository) GetFamilyMembers(ctx context.Context, familyID int64) ([]models.FamilyMember, error) {
	query := `
		SELECT id, family_id, user_id, role, joined_at
		FROM family_members
		WHERE family_id = ?
		ORDER BY joined_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query family members: %w", err)
	}
	defer rows.Close()

	members := []models.FamilyMember{}
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan family member: %w", err)
		}
		members = append(members, *member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate family members: %w", err)
	}

	return members, nil
}

// UpdateMemberRole changes a member's role
func (r *FamilyRepository) UpdateMemberRole(ctx context.Context, familyID, userID int64, role models.Role) error {
	query := "UPDATE family_members SET role = ? WHERE family_id = ? AND user_id = ?"
	result, err := r.db.ExecContext(ctx, query, string(role), familyID, userID)
	if err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update role of user %d: %w", userID, ErrNotFound)
	}
	return nil
}

// RemoveFamilyMember removes a user from a family
func (r *FamilyRepository) RemoveFamilyMember(ctx context.Context, familyID, userID int64) error {
	query := "DELETE FROM family_members WHERE family_id = ? AND user_id = ?"
	result, err := r.db.ExecContext(ctx, query, familyID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove family member: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to remove user %d: %w", userID, ErrNotFound)
	}
	return nil
}

func scanMember(row rowScanner) (*models.FamilyMember, error) {
	var member models.FamilyMember
	var role string
	if err := row.Scan(&member.ID, &member.FamilyID, &member.UserID, &role, &member.JoinedAt); err != nil {
		return nil, err
	}
	member.Role = models.Role(role)
	return &member, nil
}
