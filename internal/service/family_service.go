package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"familytree/internal/credentials"
	"familytree/internal/genealogy"
	"familytree/internal/logging"
	"familytree/internal/models"
	"familytree/internal/repository"
)

// maxCodeAttempts bounds join code generation
const maxCodeAttempts = 100

// FamilyService handles families, membership and role checks
type FamilyService struct {
	familyRepo *repository.FamilyRepository
	recorder   genealogy.ActivityRecorder
	logger     *slog.Logger

	generateCode func() (string, error)
}

// NewFamilyService creates a new family service. recorder may be nil.
func NewFamilyService(familyRepo *repository.FamilyRepository, recorder genealogy.ActivityRecorder, logger *slog.Logger) *FamilyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FamilyService{
		familyRepo:   familyRepo,
		recorder:     recorder,
		logger:       logger.With(logging.Scope("service.family")),
		generateCode: credentials.GenerateFamilyCode,
	}
}

// CreateFamily creates a new family with the creator as owner
func (s *FamilyService) CreateFamily(ctx context.Context, name, description string, creatorUserID int64) (*models.Family, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: family name is required", ErrInvalidFamily)
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.generateCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate family code: %w", err)
		}
		exists, err := s.familyRepo.CodeExists(ctx, code)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		family := &models.Family{
			Name:        name,
			Description: strings.TrimSpace(description),
			Code:        code,
			OwnerID:     creatorUserID,
		}
		err = s.familyRepo.CreateFamily(ctx, family)
		if errors.Is(err, repository.ErrDuplicateCode) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create family: %w", err)
		}

		s.logger.InfoContext(ctx, "family created",
			slog.Int64("family_id", family.ID),
			slog.Int64("owner_id", creatorUserID))
		return family, nil
	}

	return nil, ErrCodeGenerationFail
}

// GetUserFamilies retrieves all families a user belongs to
func (s *FamilyService) GetUserFamilies(ctx context.Context, userID int64) ([]models.Family, error) {
	families, err := s.familyRepo.GetUserFamilies(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user families: %w", err)
	}
	return families, nil
}

// GetFamily retrieves a family the user belongs to
func (s *FamilyService) GetFamily(ctx context.Context, userID, familyID int64) (*models.Family, error) {
	if _, err := s.Authorize(ctx, familyID, userID, models.RoleMember); err != nil {
		return nil, err
	}
	family, err := s.familyRepo.GetFamilyByID(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}
	if family == nil {
		return nil, ErrFamilyNotFound
	}
	return family, nil
}

// Authorize checks that userID belongs to familyID with at least the min role
func (s *FamilyService) Authorize(ctx context.Context, familyID, userID int64, min models.Role) (*models.FamilyMember, error) {
	member, err := s.familyRepo.GetFamilyMember(ctx, familyID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify family access: %w", err)
	}
	if member == nil {
		family, err := s.familyRepo.GetFamilyByID(ctx, familyID)
		if err != nil {
			return nil, fmt.Errorf("failed to verify family access: %w", err)
		}
		if family == nil {
			return nil, ErrFamilyNotFound
		}
		return nil, ErrNotFamilyMember
	}
	if !member.Role.AtLeast(min) {
		return nil, ErrInsufficientRole
	}
	return member, nil
}

// JoinFamily adds the user to the family identified by code as a member
func (s *FamilyService) JoinFamily(ctx context.Context, userID int64, code string) (*models.Family, error) {
	code = credentials.NormalizeFamilyCode(code)
	if !credentials.IsFamilyCode(code) {
		return nil, ErrInvalidFamilyCode
	}

	family, err := s.familyRepo.GetFamilyByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up family code: %w", err)
	}
	if family == nil {
		return nil, ErrInvalidFamilyCode
	}

	err = s.familyRepo.AddFamilyMember(ctx, family.ID, userID, models.RoleMember)
	if errors.Is(err, repository.ErrDuplicateMember) {
		return nil, ErrAlreadyMember
	}
	if err != nil {
		return nil, err
	}

	s.record(ctx, genealogy.ActivityEvent{
		FamilyID:    family.ID,
		ActorID:     userID,
		Action:      models.ActionCreate,
		TargetType:  models.TargetMember,
		TargetID:    userID,
		Description: fmt.Sprintf("User %d joined the family", userID),
	})
	return family, nil
}

// LeaveFamily removes the user from the family. Owners cannot leave.
func (s *FamilyService) LeaveFamily(ctx context.Context, userID, familyID int64) error {
	member, err := s.Authorize(ctx, familyID, userID, models.RoleMember)
	if err != nil {
		return err
	}
	if member.Role == models.RoleOwner {
		return ErrOwnerCannotLeave
	}

	if err := s.familyRepo.RemoveFamilyMember(ctx, familyID, userID); err != nil {
		return err
	}

	s.record(ctx, genealogy.ActivityEvent{
		FamilyID:    familyID,
		ActorID:     userID,
		Action:      models.ActionDelete,
		TargetType:  models.TargetMember,
		TargetID:    userID,
		Description: fmt.Sprintf("User %d left the family", userID),
	})
	return nil
}

// GetMembers lists a family's members
func (s *FamilyService) GetMembers(ctx context.Context, userID, familyID int64) ([]models.FamilyMember, error) {
	if _, err := s.Authorize(ctx, familyID, userID, models.RoleMember); err != nil {
		return nil, err
	}
	return s.familyRepo.GetFamilyMembers(ctx, familyID)
}

// ChangeMemberRole sets targetUserID's role. Only the owner may do this and
// the owner's own role is fixed.
func (s *FamilyService) ChangeMemberRole(ctx context.Context, actorID, familyID, targetUserID int64, roleName string) error {
	if _, err := s.Authorize(ctx, familyID, actorID, models.RoleOwner); err != nil {
		return err
	}

	role, err := models.ParseRole(roleName)
	if err != nil || role == models.RoleOwner {
		return ErrInvalidRole
	}

	target, err := s.familyRepo.GetFamilyMember(ctx, familyID, targetUserID)
	if err != nil {
		return fmt.Errorf("failed to get family member: %w", err)
	}
	if target == nil {
		return ErrNotFamilyMember
	}
	if target.Role == models.RoleOwner {
		return ErrCannotChangeOwner
	}

	if err := s.familyRepo.UpdateMemberRole(ctx, familyID, targetUserID, role); err != nil {
		return err
	}

	s.record(ctx, genealogy.ActivityEvent{
		FamilyID:    familyID,
		ActorID:     actorID,
		Action:      models.ActionUpdate,
		TargetType:  models.TargetMember,
		TargetID:    targetUserID,
		Description: fmt.Sprintf("Changed role of user %d to %s", targetUserID, role),
	})
	return nil
}

func (s *FamilyService) record(ctx context.Context, event genealogy.ActivityEvent) {
	recordActivity(ctx, s.recorder, s.logger, event)
}

// recordActivity stores event, logging instead of failing the caller
func recordActivity(ctx context.Context, recorder genealogy.ActivityRecorder, logger *slog.Logger, event genealogy.ActivityEvent) {
	if recorder == nil {
		return
	}
	if err := recorder.Record(ctx, event); err != nil {
		logger.WarnContext(ctx, "failed to record activity",
			slog.Int64("family_id", event.FamilyID),
			slog.String("action", event.Action),
			slog.String("target_type", event.TargetType),
			logging.Error(err))
	}
}
