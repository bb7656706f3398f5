package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openhearth/hearth/pkg/errs"
	"github.com/openhearth/hearth/pkg/model"
	"github.com/openhearth/hearth/pkg/roles"
)

func TestViewChannelMemberParentChain(t *testing.T) {
	engine := New(newFakeStore())
	space := &model.Space{ID: 1}
	channel := &model.Channel{ID: 5, SpaceID: 1}
	member := &model.ChannelMember{ID: 7, ChannelID: 5}

	assert.NoError(t, engine.ViewChannelMember(space, channel, member))

	wrongChannel := &model.ChannelMember{ID: 7, ChannelID: 6}
	assert.True(t, errs.IsNotFound(engine.ViewChannelMember(space, channel, wrongChannel)))

	foreignChannel := &model.Channel{ID: 5, SpaceID: 2}
	assert.True(t, errs.IsNotFound(engine.ViewChannelMember(space, foreignChannel, member)))
}

func TestCreateChannelMemberRequiresSpaceMembership(t *testing.T) {
	store := newFakeStore()
	engine := New(store)
	ctx := context.Background()
	space := &model.Space{ID: 1}
	channel := &model.Channel{ID: 5, SpaceID: 1, Privacy: model.PrivacyPublic}

	store.addSpaceMember(1, 10, roles.RoleMember)
	store.addChannelMember(5, 10, roles.RoleAdmin)

	// Target user 20 is not in the space.
	err := engine.CreateChannelMember(ctx, authedAs(10), space, channel, 20, roles.RoleMember)
	assert.True(t, errs.IsForbidden(err))

	store.addSpaceMember(1, 20, roles.RoleMember)
	assert.NoError(t, engine.CreateChannelMember(ctx, authedAs(10), space, channel, 20, roles.RoleMember))
}

func TestCreateChannelMemberSelfJoin(t *testing.T) {
	store := newFakeStore()
	engine := New(store)
	ctx := context.Background()
	space := &model.Space{ID: 1}
	public := &model.Channel{ID: 5, SpaceID: 1, Privacy: model.PrivacyPublic}
	private := &model.Channel{ID: 6, SpaceID: 1, Privacy: model.PrivacyPrivate}

	store.addSpaceMember(1, 20, roles.RoleMember)

	// Space members may self-join public channels at the base role.
	assert.NoError(t, engine.CreateChannelMember(ctx, authedAs(20), space, public, 20, roles.RoleMember))

	// Not at an elevated role, and not on private channels.
	assert.True(t, errs.IsForbidden(engine.CreateChannelMember(ctx, authedAs(20), space, public, 20, roles.RoleAdmin)))
	assert.True(t, errs.IsForbidden(engine.CreateChannelMember(ctx, authedAs(20), space, private, 20, roles.RoleMember)))
}

func TestCreateChannelMemberRankRules(t *testing.T) {
	store := newFakeStore()
	engine := New(store)
	ctx := context.Background()
	space := &model.Space{ID: 1}
	channel := &model.Channel{ID: 5, SpaceID: 1, Privacy: model.PrivacyPrivate}

	store.addSpaceMember(1, 10, roles.RoleMember)
	store.addSpaceMember(1, 11, roles.RoleMember)
	store.addSpaceMember(1, 20, roles.RoleMember)
	store.addChannelMember(5, 10, roles.RoleModerator)
	store.addChannelMember(5, 11, roles.RoleMember)

	// Moderators may add at or below their rank.
	assert.NoError(t, engine.CreateChannelMember(ctx, authedAs(10), space, channel, 20, roles.RoleModerator))
	assert.True(t, errs.IsForbidden(engine.CreateChannelMember(ctx, authedAs(10), space, channel, 20, roles.RoleAdmin)))

	// Base-role channel members may not add anyone.
	assert.True(t, errs.IsForbidden(engine.CreateChannelMember(ctx, authedAs(11), space, channel, 20, roles.RoleMember)))
}

func TestCreateChannelMemberOwnerNeverGrantable(t *testing.T) {
	store := newFakeStore()
	engine := New(store)
	ctx := context.Background()
	space := &model.Space{ID: 1}
	channel := &model.Channel{ID: 5, SpaceID: 1, Privacy: model.PrivacyPrivate}

	store.addSpaceMember(1, 10, roles.RoleMember)
	store.addSpaceMember(1, 20, roles.RoleMember)
	store.addChannelMember(5, 10, roles.RoleOwner)

	err := engine.CreateChannelMember(ctx, authedAs(10), space, channel, 20, roles.RoleOwner)
	assert.True(t, errs.IsForbidden(err))
}

func TestUpdateChannelMember(t *testing.T) {
	store := newFakeStore()
	engine := New(store)
	ctx := context.Background()
	space := &model.Space{ID: 1}
	channel := &model.Channel{ID: 5, SpaceID: 1}

	owner := store.addChannelMember(5, 10, roles.RoleOwner)
	store.addChannelMember(5, 11, roles.RoleAdmin)
	moderator := store.addChannelMember(5, 12, roles.RoleModerator)
	member := store.addChannelMember(5, 13, roles.RoleMember)

	// Admins change roles at or below their rank.
	assert.NoError(t, engine.UpdateChannelMember(ctx, authedAs(11), space, channel, moderator, roles.RoleMember))

	// But never to owner.
	assert.True(t, errs.IsForbidden(engine.UpdateChannelMember(ctx, authedAs(11), space, channel, moderator, roles.RoleOwner)))

	// Changing someone else's role requires owner or admin standing.
	assert.True(t, errs.IsForbidden(engine.UpdateChannelMember(ctx, authedAs(12), space, channel, member, roles.RoleMember)))

	// Admins cannot touch the role of someone who outranks them.
	assert.True(t, errs.IsForbidden(engine.UpdateChannelMember(ctx, authedAs(11), space, channel, owner, roles.RoleAdmin)))
}

func TestUpdateChannelMemberSelf(t *testing.T) {
	store := newFakeStore()
	engine := New(store)
	ctx := context.Background()
	space := &model.Space{ID: 1}
	channel := &model.Channel{ID: 5, SpaceID: 1}

	moderator := store.addChannelMember(5, 12, roles.RoleModerator)
	member := store.addChannelMember(5, 13, roles.RoleMember)

	// Any member may change their own role within their rank.
	assert.NoError(t, engine.UpdateChannelMember(ctx, authedAs(12), space, channel, moderator, roles.RoleMember))
	assert.NoError(t, engine.UpdateChannelMember(ctx, authedAs(13), space, channel, member, roles.RoleMember))

	// But not above it.
	assert.True(t, errs.IsForbidden(engine.UpdateChannelMember(ctx, authedAs(12), space, channel, moderator, roles.RoleAdmin)))
	assert.True(t, errs.IsForbidden(engine.UpdateChannelMember(ctx, authedAs(13), space, channel, member, roles.RoleModerator)))
}

func TestUpdateChannelMemberOwnerStepDown(t *testing.T) {
	store := newFakeStore()
	engine := New(store)
	ctx := context.Background()
	space := &model.Space{ID: 1}
	channel := &model.Channel{ID: 5, SpaceID: 1}

	owner := store.addChannelMember(5, 10, roles.RoleOwner)

	// The owner cannot demote themself; ownership moves only by transfer.
	err := engine.UpdateChannelMember(ctx, authedAs(10), space, channel, owner, roles.RoleAdmin)
	assert.True(t, errs.IsForbidden(err))

	// A no-op owner-to-owner update of themself is allowed.
	assert.NoError(t, engine.UpdateChannelMember(ctx, authedAs(10), space, channel, owner, roles.RoleOwner))
}

func TestDeleteChannelMember(t *testing.T) {
	store := newFakeStore()
	engine := New(store)
	ctx := context.Background()
	space := &model.Space{ID: 1}
	channel := &model.Channel{ID: 5, SpaceID: 1}

	owner := store.addChannelMember(5, 10, roles.RoleOwner)
	admin := store.addChannelMember(5, 11, roles.RoleAdmin)
	moderator := store.addChannelMember(5, 12, roles.RoleModerator)
	member := store.addChannelMember(5, 13, roles.RoleMember)

	// The owner membership is irremovable.
	assert.True(t, errs.IsForbidden(engine.DeleteChannelMember(ctx, authedAs(10), space, channel, owner)))

	// Members may leave.
	assert.NoError(t, engine.DeleteChannelMember(ctx, authedAs(13), space, channel, member))

	// Removing someone else requires outranking them.
	assert.NoError(t, engine.DeleteChannelMember(ctx, authedAs(11), space, channel, moderator))
	assert.True(t, errs.IsForbidden(engine.DeleteChannelMember(ctx, authedAs(12), space, channel, admin)))
	assert.True(t, errs.IsForbidden(engine.DeleteChannelMember(ctx, authedAs(13), space, channel, moderator)))
}
