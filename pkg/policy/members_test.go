package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openhearth/hearth/pkg/errs"
	"github.com/openhearth/hearth/pkg/model"
	"github.com/openhearth/hearth/pkg/roles"
)

func TestViewSpaceMemberParentMismatch(t *testing.T) {
	engine := New(newFakeStore())
	space := &model.Space{ID: 1}
	member := &model.SpaceMember{ID: 5, SpaceID: 2, UserID: 10}

	// A member reached under the wrong space reads as absent.
	assert.True(t, errs.IsNotFound(engine.ViewSpaceMember(space, member)))
}

func TestCreateSpaceMemberSelfJoin(t *testing.T) {
	store := newFakeStore()
	engine := New(store)
	ctx := context.Background()

	public := &model.Space{ID: 1, Privacy: model.PrivacyPublic}
	private := &model.Space{ID: 2, Privacy: model.PrivacyPrivate}
	protected := &model.Space{ID: 3, Privacy: model.PrivacyProtected}

	selfJoin := &model.CreateSpaceMemberRequest{UserID: 10}

	// Non-members may self-join only public spaces.
	assert.NoError(t, engine.CreateSpaceMember(ctx, authedAs(10), public, selfJoin))
	assert.True(t, errs.IsForbidden(engine.CreateSpaceMember(ctx, authedAs(10), private, selfJoin)))
	assert.True(t, errs.IsForbidden(engine.CreateSpaceMember(ctx, authedAs(10), protected, selfJoin)))

	// Adding someone else without standing is denied even on a public space.
	other := &model.CreateSpaceMemberRequest{UserID: 20}
	assert.True(t, errs.IsForbidden(engine.CreateSpaceMember(ctx, authedAs(10), public, other)))

	assert.True(t, errs.IsForbidden(engine.CreateSpaceMember(ctx, anonymous(), public, selfJoin)))
}

func TestCreateSpaceMemberByExistingMember(t *testing.T) {
	store := newFakeStore()
	engine := New(store)
	ctx := context.Background()
	space := &model.Space{ID: 1, Privacy: model.PrivacyPrivate}

	store.addSpaceMember(1, 10, roles.RoleModerator)
	store.addSpaceMember(1, 11, roles.RoleMember)

	req := &model.CreateSpaceMemberRequest{UserID: 20}

	assert.NoError(t, engine.CreateSpaceMember(ctx, authedAs(10), space, req))
	assert.True(t, errs.IsForbidden(engine.CreateSpaceMember(ctx, authedAs(11), space, req)))
}

func TestUpdateSpaceMemberSelfOnly(t *testing.T) {
	store := newFakeStore()
	engine := New(store)
	space := &model.Space{ID: 1}

	member := store.addSpaceMember(1, 10, roles.RoleMember)
	store.addSpaceMember(1, 11, roles.RoleOwner)

	assert.NoError(t, engine.UpdateSpaceMember(authedAs(10), space, member))
	// Even the owner may not edit someone else's membership profile.
	assert.True(t, errs.IsForbidden(engine.UpdateSpaceMember(authedAs(11), space, member)))
	assert.True(t, errs.IsForbidden(engine.UpdateSpaceMember(anonymous(), space, member)))
}

func TestDeleteSpaceMember(t *testing.T) {
	store := newFakeStore()
	engine := New(store)
	ctx := context.Background()
	space := &model.Space{ID: 1, OwnerID: 10}

	owner := store.addSpaceMember(1, 10, roles.RoleOwner)
	admin := store.addSpaceMember(1, 11, roles.RoleAdmin)
	moderator := store.addSpaceMember(1, 12, roles.RoleModerator)
	member := store.addSpaceMember(1, 13, roles.RoleMember)

	// The owner membership is irremovable, even by the owner.
	assert.True(t, errs.IsForbidden(engine.DeleteSpaceMember(ctx, authedAs(10), space, owner)))

	// Members may leave.
	assert.NoError(t, engine.DeleteSpaceMember(ctx, authedAs(13), space, member))

	// Removing someone else requires outranking them.
	assert.NoError(t, engine.DeleteSpaceMember(ctx, authedAs(11), space, moderator))
	assert.NoError(t, engine.DeleteSpaceMember(ctx, authedAs(12), space, member))
	assert.True(t, errs.IsForbidden(engine.DeleteSpaceMember(ctx, authedAs(12), space, admin)))

	// Base-role members may not remove others.
	assert.True(t, errs.IsForbidden(engine.DeleteSpaceMember(ctx, authedAs(13), space, moderator)))

	// Outsiders may not remove anyone.
	assert.True(t, errs.IsForbidden(engine.DeleteSpaceMember(ctx, authedAs(99), space, member)))
}

func TestRestoreSpaceMemberAlwaysDenied(t *testing.T) {
	store := newFakeStore()
	engine := New(store)
	member := store.addSpaceMember(1, 10, roles.RoleMember)

	assert.True(t, errs.IsForbidden(engine.RestoreSpaceMember(authedAs(10), member)))
}
