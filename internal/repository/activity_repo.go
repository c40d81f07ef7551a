package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"familytree/internal/database"
	"familytree/internal/genealogy"
	"familytree/internal/models"
)

// DefaultActivityLimit bounds ListActivity when no limit is given
const DefaultActivityLimit = 100

// ActivityRepository stores the audit trail of family changes
type ActivityRepository struct {
	db database.DBTX
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db database.DBTX) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Record stores one activity event
func (r *ActivityRepository) Record(ctx context.Context, event genealogy.ActivityEvent) error {
	var userID interface{}
	if event.ActorID != 0 {
		userID = event.ActorID
	}

	query := `
		INSERT INTO activity_logs (family_id, user_id, action, target_type, target_id, description, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.FamilyID, userID, event.Action, event.TargetType, event.TargetID, event.Description, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// ListActivity returns a family's most recent activity, newest first
func (r *ActivityRepository) ListActivity(ctx context.Context, familyID int64, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	query := `
		SELECT id, family_id, user_id, action, target_type, target_id, description, timestamp
		FROM activity_logs
		WHERE family_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, familyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer rows.Close()

	logs := []models.ActivityLog{}
	for rows.Next() {
		var entry models.ActivityLog
		var userID sql.NullInt64
		if err := rows.Scan(&entry.ID, &entry.FamilyID, &userID, &entry.Action, &entry.TargetType,
			&entry.TargetID, &entry.Description, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		entry.UserID = int64Ptr(userID)
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity: %w", err)
	}

	return logs, nil
}
