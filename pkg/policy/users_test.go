package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openhearth/hearth/pkg/errs"
	"github.com/openhearth/hearth/pkg/identity"
	"github.com/openhearth/hearth/pkg/model"
	"github.com/openhearth/hearth/pkg/roles"
)

// visibilityReader backs the identity context for ViewUserRecords tests.
type visibilityReader struct {
	publicUsers []int64
}

func (r *visibilityReader) MemberSpaceIDs(ctx context.Context, userID int64) ([]int64, error) {
	return nil, nil
}

func (r *visibilityReader) MemberChannelIDs(ctx context.Context, userID int64) ([]int64, error) {
	return nil, nil
}

func (r *visibilityReader) SpaceMemberUserIDs(ctx context.Context, spaceIDs []int64) ([]int64, error) {
	return nil, nil
}

func (r *visibilityReader) PublicUserIDs(ctx context.Context) ([]int64, error) {
	return r.publicUsers, nil
}

func (r *visibilityReader) NonPrivateSpaceIDs(ctx context.Context) ([]int64, error) {
	return nil, nil
}

func TestViewUserRecords(t *testing.T) {
	engine := New(newFakeStore())
	ctx := context.Background()
	idc := identity.New(&model.User{ID: 10}, &visibilityReader{publicUsers: []int64{20}})

	assert.NoError(t, engine.ViewUserRecords(ctx, idc, 10))
	assert.NoError(t, engine.ViewUserRecords(ctx, idc, 20))

	// Invisible users read as absent, not forbidden.
	assert.True(t, errs.IsNotFound(engine.ViewUserRecords(ctx, idc, 30)))
}

func TestUserProfileSelfOnly(t *testing.T) {
	engine := New(newFakeStore())
	profile := &model.UserProfile{ID: 3, UserID: 10}

	assert.NoError(t, engine.UpdateUserProfile(authedAs(10), 10, profile))
	assert.True(t, errs.IsForbidden(engine.UpdateUserProfile(authedAs(11), 10, profile)))
	assert.True(t, errs.IsForbidden(engine.UpdateUserProfile(anonymous(), 10, profile)))

	// Route mismatch reads as absent.
	assert.True(t, errs.IsNotFound(engine.UpdateUserProfile(authedAs(10), 11, profile)))

	assert.NoError(t, engine.DeleteUserProfile(authedAs(10), 10, profile))
	assert.True(t, errs.IsForbidden(engine.DeleteUserProfile(authedAs(11), 10, profile)))

	assert.NoError(t, engine.CreateUserProfile(authedAs(10), 10))
	assert.True(t, errs.IsForbidden(engine.CreateUserProfile(authedAs(11), 10)))
}

func TestUserSettingSelfOnly(t *testing.T) {
	engine := New(newFakeStore())
	setting := &model.UserSetting{ID: 4, UserID: 10}

	assert.NoError(t, engine.CreateUserSetting(authedAs(10), 10))
	assert.True(t, errs.IsForbidden(engine.CreateUserSetting(authedAs(11), 10)))

	assert.NoError(t, engine.UpdateUserSetting(authedAs(10), 10, setting))
	assert.True(t, errs.IsForbidden(engine.UpdateUserSetting(authedAs(11), 10, setting)))

	assert.NoError(t, engine.DeleteUserSetting(authedAs(10), 10, setting))

	// The one restore any rule permits: a user restoring their own setting.
	assert.NoError(t, engine.RestoreUserSetting(authedAs(10), 10, setting))
	assert.True(t, errs.IsForbidden(engine.RestoreUserSetting(authedAs(11), 10, setting)))
}

func TestCreateUserPrivacyOncePerUser(t *testing.T) {
	store := newFakeStore()
	engine := New(store)
	ctx := context.Background()

	assert.NoError(t, engine.CreateUserPrivacy(ctx, authedAs(10), 10))
	assert.True(t, errs.IsForbidden(engine.CreateUserPrivacy(ctx, authedAs(11), 10)))

	store.userPrivacy[10] = true
	assert.True(t, errs.IsConflict(engine.CreateUserPrivacy(ctx, authedAs(10), 10)))
}

func TestUserPrivacySelfOnly(t *testing.T) {
	engine := New(newFakeStore())
	privacy := &model.UserPrivacySetting{ID: 6, UserID: 10}

	assert.NoError(t, engine.UpdateUserPrivacy(authedAs(10), 10, privacy))
	assert.True(t, errs.IsForbidden(engine.UpdateUserPrivacy(authedAs(11), 10, privacy)))
	assert.NoError(t, engine.DeleteUserPrivacy(authedAs(10), 10, privacy))
	assert.True(t, errs.IsNotFound(engine.DeleteUserPrivacy(authedAs(10), 11, privacy)))
}

func TestSpacePrivacyRequiresAdmin(t *testing.T) {
	store := newFakeStore()
	engine := New(store)
	ctx := context.Background()
	space := &model.Space{ID: 1}

	store.addSpaceMember(1, 10, roles.RoleAdmin)
	store.addSpaceMember(1, 12, roles.RoleModerator)

	assert.NoError(t, engine.CreateSpacePrivacy(ctx, authedAs(10), space))
	assert.True(t, errs.IsForbidden(engine.CreateSpacePrivacy(ctx, authedAs(12), space)))

	store.spacePrivacy[1] = true
	assert.True(t, errs.IsConflict(engine.CreateSpacePrivacy(ctx, authedAs(10), space)))

	setting := &model.SpacePrivacySetting{ID: 2, SpaceID: 1}
	assert.NoError(t, engine.UpdateSpacePrivacy(ctx, authedAs(10), space, setting))
	assert.True(t, errs.IsForbidden(engine.DeleteSpacePrivacy(ctx, authedAs(12), space, setting)))

	foreign := &model.SpacePrivacySetting{ID: 3, SpaceID: 2}
	assert.True(t, errs.IsNotFound(engine.UpdateSpacePrivacy(ctx, authedAs(10), space, foreign)))
}
