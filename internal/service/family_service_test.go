package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familytree/internal/credentials"
	"familytree/internal/models"
)

func TestCreateFamilyMakesCreatorOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	family, err := env.families.CreateFamily(ctx, "  The Smiths ", "Our tree", ownerID)
	require.NoError(t, err)
	assert.Equal(t, "The Smiths", family.Name)
	assert.True(t, credentials.IsFamilyCode(family.Code), "code %q", family.Code)

	member, err := env.families.Authorize(ctx, family.ID, ownerID, models.RoleOwner)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, member.Role)

	families, err := env.families.GetUserFamilies(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, family.ID, families[0].ID)

	_, err = env.families.CreateFamily(ctx, "   ", "", ownerID)
	assert.ErrorIs(t, err, ErrInvalidFamily)
}

func TestCreateFamilyRetriesTakenCodes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	codes := []string{"AAAAAAAAAAAA", "AAAAAAAAAAAA", "BBBBBBBBBBBB"}
	env.families.generateCode = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}

	first, err := env.families.CreateFamily(ctx, "First", "", ownerID)
	require.NoError(t, err)
	assert.Equal(t, "AAAAAAAAAAAA", first.Code)

	second, err := env.families.CreateFamily(ctx, "Second", "", ownerID)
	require.NoError(t, err)
	assert.Equal(t, "BBBBBBBBBBBB", second.Code)

	env.families.generateCode = func() (string, error) { return "AAAAAAAAAAAA", nil }
	_, err = env.families.CreateFamily(ctx, "Third", "", ownerID)
	assert.ErrorIs(t, err, ErrCodeGenerationFail)
}

func TestJoinFamily(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	family, err := env.families.CreateFamily(ctx, "The Smiths", "", ownerID)
	require.NoError(t, err)

	joined, err := env.families.JoinFamily(ctx, memberID, " "+strings.ToLower(family.Code)+" ")
	require.NoError(t, err)
	assert.Equal(t, family.ID, joined.ID)

	member, err := env.families.Authorize(ctx, family.ID, memberID, models.RoleMember)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, member.Role)

	_, err = env.families.JoinFamily(ctx, memberID, family.Code)
	assert.ErrorIs(t, err, ErrAlreadyMember)

	_, err = env.families.JoinFamily(ctx, otherID, "short")
	assert.ErrorIs(t, err, ErrInvalidFamilyCode)

	_, err = env.families.JoinFamily(ctx, otherID, "ZZZZZZZZZZZZ")
	assert.ErrorIs(t, err, ErrInvalidFamilyCode)
}

func TestAuthorize(t *testing.T) {
	env := newTestEnv(t)
	family := env.newFamily(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		userID  int64
		min     models.Role
		wantErr error
	}{
		{"owner acts as owner", ownerID, models.RoleOwner, nil},
		{"admin acts as admin", adminID, models.RoleAdmin, nil},
		{"admin is not owner", adminID, models.RoleOwner, ErrInsufficientRole},
		{"member reads", memberID, models.RoleMember, nil},
		{"member is not admin", memberID, models.RoleAdmin, ErrInsufficientRole},
		{"stranger", otherID, models.RoleMember, ErrNotFamilyMember},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.families.Authorize(ctx, family.ID, tt.userID, tt.min)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}

	_, err := env.families.Authorize(ctx, family.ID+1000, ownerID, models.RoleMember)
	assert.ErrorIs(t, err, ErrFamilyNotFound)
}

func TestLeaveFamily(t *testing.T) {
	env := newTestEnv(t)
	family := env.newFamily(t)
	ctx := context.Background()

	assert.ErrorIs(t, env.families.LeaveFamily(ctx, ownerID, family.ID), ErrOwnerCannotLeave)
	require.NoError(t, env.families.LeaveFamily(ctx, memberID, family.ID))
	assert.ErrorIs(t, env.families.LeaveFamily(ctx, memberID, family.ID), ErrNotFamilyMember)

	members, err := env.families.GetMembers(ctx, ownerID, family.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestChangeMemberRole(t *testing.T) {
	env := newTestEnv(t)
	family := env.newFamily(t)
	ctx := context.Background()

	assert.ErrorIs(t, env.families.ChangeMemberRole(ctx, adminID, family.ID, memberID, "admin"), ErrInsufficientRole)
	assert.ErrorIs(t, env.families.ChangeMemberRole(ctx, ownerID, family.ID, memberID, "owner"), ErrInvalidRole)
	assert.ErrorIs(t, env.families.ChangeMemberRole(ctx, ownerID, family.ID, memberID, "editor"), ErrInvalidRole)
	assert.ErrorIs(t, env.families.ChangeMemberRole(ctx, ownerID, family.ID, ownerID, "member"), ErrCannotChangeOwner)
	assert.ErrorIs(t, env.families.ChangeMemberRole(ctx, ownerID, family.ID, otherID, "admin"), ErrNotFamilyMember)

	require.NoError(t, env.families.ChangeMemberRole(ctx, ownerID, family.ID, adminID, "member"))
	_, err := env.families.Authorize(ctx, family.ID, adminID, models.RoleAdmin)
	assert.ErrorIs(t, err, ErrInsufficientRole)

	logs, err := env.activity.ListActivity(ctx, ownerID, family.ID, 0)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.Equal(t, models.TargetMember, logs[0].TargetType)
	assert.Equal(t, models.ActionUpdate, logs[0].Action)
}
