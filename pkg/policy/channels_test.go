package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openhearth/hearth/pkg/errs"
	"github.com/openhearth/hearth/pkg/model"
	"github.com/openhearth/hearth/pkg/roles"
)

func TestViewChannelParentMismatch(t *testing.T) {
	engine := New(newFakeStore())
	space := &model.Space{ID: 1}

	assert.NoError(t, engine.ViewChannel(space, &model.Channel{ID: 5, SpaceID: 1}))
	assert.True(t, errs.IsNotFound(engine.ViewChannel(space, &model.Channel{ID: 5, SpaceID: 2})))
}

func TestCreateChannel(t *testing.T) {
	store := newFakeStore()
	engine := New(store)
	ctx := context.Background()
	space := &model.Space{ID: 1}

	store.addSpaceMember(1, 13, roles.RoleMember)

	// Any active space member may create channels, regardless of role.
	assert.NoError(t, engine.CreateChannel(ctx, authedAs(13), space))
	assert.True(t, errs.IsForbidden(engine.CreateChannel(ctx, authedAs(99), space)))
	assert.True(t, errs.IsForbidden(engine.CreateChannel(ctx, anonymous(), space)))
}

func TestUpdateChannel(t *testing.T) {
	store := newFakeStore()
	engine := New(store)
	ctx := context.Background()
	space := &model.Space{ID: 1}
	channel := &model.Channel{ID: 5, SpaceID: 1, OwnerID: 10}

	store.addChannelMember(5, 10, roles.RoleOwner)
	store.addChannelMember(5, 11, roles.RoleAdmin)
	store.addChannelMember(5, 12, roles.RoleModerator)

	assert.NoError(t, engine.UpdateChannel(ctx, authedAs(10), space, channel))
	assert.NoError(t, engine.UpdateChannel(ctx, authedAs(11), space, channel))
	assert.True(t, errs.IsForbidden(engine.UpdateChannel(ctx, authedAs(12), space, channel)))
	assert.True(t, errs.IsForbidden(engine.UpdateChannel(ctx, authedAs(99), space, channel)))
}

func TestDeleteChannel(t *testing.T) {
	engine := New(newFakeStore())
	space := &model.Space{ID: 1}
	channel := &model.Channel{ID: 5, SpaceID: 1, OwnerID: 10}

	assert.NoError(t, engine.DeleteChannel(authedAs(10), space, channel))
	assert.True(t, errs.IsForbidden(engine.DeleteChannel(authedAs(11), space, channel)))

	mismatched := &model.Channel{ID: 5, SpaceID: 2, OwnerID: 10}
	assert.True(t, errs.IsNotFound(engine.DeleteChannel(authedAs(10), space, mismatched)))
}

func TestTransferChannelOwnership(t *testing.T) {
	store := newFakeStore()
	engine := New(store)
	ctx := context.Background()
	space := &model.Space{ID: 1}
	channel := &model.Channel{ID: 5, SpaceID: 1, OwnerID: 10}

	target := store.addChannelMember(5, 20, roles.RoleModerator)

	assert.NoError(t, engine.TransferChannelOwnership(ctx, authedAs(10), space, channel, target))
	assert.True(t, errs.IsForbidden(engine.TransferChannelOwnership(ctx, authedAs(20), space, channel, target)))

	foreign := &model.ChannelMember{ID: 99, ChannelID: 6, UserID: 20}
	assert.True(t, errs.IsNotFound(engine.TransferChannelOwnership(ctx, authedAs(10), space, channel, foreign)))
}

func TestRestoreChannelAlwaysDenied(t *testing.T) {
	engine := New(newFakeStore())
	channel := &model.Channel{ID: 5, SpaceID: 1, OwnerID: 10}

	assert.True(t, errs.IsForbidden(engine.RestoreChannel(authedAs(10), channel)))
}
