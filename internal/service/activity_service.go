package service

import (
	"context"

	"familytree/internal/models"
	"familytree/internal/repository"
)

// ActivityService exposes a family's audit trail to its admins
type ActivityService struct {
	families *FamilyService
	activity *repository.ActivityRepository
}

// NewActivityService creates a new activity service
func NewActivityService(families *FamilyService, activity *repository.ActivityRepository) *ActivityService {
	return &ActivityService{families: families, activity: activity}
}

// ListActivity returns the most recent activity, newest first
func (s *ActivityService) ListActivity(ctx context.Context, userID, familyID int64, limit int) ([]models.ActivityLog, error) {
	if _, err := s.families.Authorize(ctx, familyID, userID, models.RoleAdmin); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > repository.DefaultActivityLimit {
		limit = repository.DefaultActivityLimit
	}
	return s.activity.ListActivity(ctx, familyID, limit)
}
