package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"familytree/internal/database"
	"familytree/internal/genealogy"
	"familytree/internal/models"
)

const relationshipColumns = "id, family_id, person_id, related_person_id, relationship_type, created_by, created_at"

// RelationshipRepository handles database operations for relationship edges
type RelationshipRepository struct {
	db database.DBTX
}

// NewRelationshipRepository creates a new relationship repository
func NewRelationshipRepository(db database.DBTX) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

// InsertRelationship stores rel unless an edge with the same person,
// related person and type exists. inserted is false in that case and the
// returned edge carries no ID.
func (r *RelationshipRepository) InsertRelationship(ctx context.Context, rel models.Relationship) (models.Relationship, bool, error) {
	dialect := r.db.GetDialect()
	query := dialect.InsertIgnore("relationships",
		"family_id", "person_id", "related_person_id", "relationship_type", "created_by", "created_at")
	args := []interface{}{
		rel.FamilyID, rel.PersonID, rel.RelatedPersonID, string(rel.Type),
		nullableInt64(rel.CreatedBy), rel.CreatedAt,
	}

	if !dialect.SupportsLastInsertId() {
		var id int64
		err := r.db.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return rel, false, nil
		}
		if err != nil {
			return rel, false, fmt.Errorf("failed to insert relationship: %w", err)
		}
		rel.ID = id
		return rel, true, nil
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return rel, false, fmt.Errorf("failed to insert relationship: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return rel, false, fmt.Errorf("failed to insert relationship: %w", err)
	}
	if affected == 0 {
		return rel, false, nil
	}
	if rel.ID, err = result.LastInsertId(); err != nil {
		return rel, false, fmt.Errorf("failed to read relationship id: %w", err)
	}
	return rel, true, nil
}

// GetRelationship retrieves one edge of a family, or nil when there is none
func (r *RelationshipRepository) GetRelationship(ctx context.Context, familyID, relationshipID int64) (*models.Relationship, error) {
	query := "SELECT " + relationshipColumns + " FROM relationships WHERE id = ? AND family_id = ?"
	rel, err := scanRelationship(r.db.QueryRowContext(ctx, query, relationshipID, familyID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get relationship: %w", err)
	}
	return rel, nil
}

// ListRelationships returns the family's edges matching filter ordered by id
func (r *RelationshipRepository) ListRelationships(ctx context.Context, familyID int64, filter genealogy.RelationshipFilter) ([]models.Relationship, error) {
	where, args := filterClause(familyID, filter)
	query := "SELECT " + relationshipColumns + " FROM relationships WHERE " + where + " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query relationships: %w", err)
	}
	defer rows.Close()

	relationships := []models.Relationship{}
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		relationships = append(relationships, *rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate relationships: %w", err)
	}

	return relationships, nil
}

// DeleteRelationships removes the family's edges matching filter
func (r *RelationshipRepository) DeleteRelationships(ctx context.Context, familyID int64, filter genealogy.RelationshipFilter) (int64, error) {
	where, args := filterClause(familyID, filter)
	result, err := r.db.ExecContext(ctx, "DELETE FROM relationships WHERE "+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete relationships: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted relationships: %w", err)
	}
	return n, nil
}

// DeleteTouching removes every edge that starts or ends at personID
func (r *RelationshipRepository) DeleteTouching(ctx context.Context, familyID, personID int64) (int64, error) {
	query := "DELETE FROM relationships WHERE family_id = ? AND (person_id = ? OR related_person_id = ?)"
	result, err := r.db.ExecContext(ctx, query, familyID, personID, personID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete relationships of person %d: %w", personID, err)
	}
	return result.RowsAffected()
}

func filterClause(familyID int64, filter genealogy.RelationshipFilter) (string, []interface{}) {
	conditions := []string{"family_id = ?"}
	args := []interface{}{familyID}

	if filter.PersonID != nil {
		conditions = append(conditions, "person_id = ?")
		args = append(args, *filter.PersonID)
	}
	if filter.RelatedPersonID != nil {
		conditions = append(conditions, "related_person_id = ?")
		args = append(args, *filter.RelatedPersonID)
	}
	if len(filter.Types) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(filter.Types)), ", ")
		conditions = append(conditions, "relationship_type IN ("+placeholders+")")
		for _, t := range filter.Types {
			args = append(args, string(t))
		}
	}

	return strings.Join(conditions, " AND "), args
}

func scanRelationship(row rowScanner) (*models.Relationship, error) {
	var (
		rel       models.Relationship
		relType   string
		createdBy sql.NullInt64
	)
	err := row.Scan(&rel.ID, &rel.FamilyID, &rel.PersonID, &rel.RelatedPersonID, &relType, &createdBy, &rel.CreatedAt)
	if err != nil {
		return nil, err
	}
	rel.Type = models.RelationshipType(relType)
	rel.CreatedBy = int64Ptr(createdBy)
	return &rel, nil
}
