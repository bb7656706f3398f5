package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openhearth/hearth/pkg/errs"
	"github.com/openhearth/hearth/pkg/model"
	"github.com/openhearth/hearth/pkg/roles"
)

func TestCreateSpace(t *testing.T) {
	engine := New(newFakeStore())

	assert.NoError(t, engine.CreateSpace(authedAs(10)))
	assert.True(t, errs.IsForbidden(engine.CreateSpace(anonymous())))
}

func TestUpdateSpace(t *testing.T) {
	store := newFakeStore()
	engine := New(store)
	ctx := context.Background()
	space := &model.Space{ID: 1, OwnerID: 10}

	store.addSpaceMember(1, 10, roles.RoleOwner)
	store.addSpaceMember(1, 11, roles.RoleAdmin)
	store.addSpaceMember(1, 12, roles.RoleModerator)
	store.addSpaceMember(1, 13, roles.RoleMember)

	assert.NoError(t, engine.UpdateSpace(ctx, authedAs(10), space))
	assert.NoError(t, engine.UpdateSpace(ctx, authedAs(11), space))
	assert.True(t, errs.IsForbidden(engine.UpdateSpace(ctx, authedAs(12), space)))
	assert.True(t, errs.IsForbidden(engine.UpdateSpace(ctx, authedAs(13), space)))

	// A non-member of the space, even an authenticated one.
	assert.True(t, errs.IsForbidden(engine.UpdateSpace(ctx, authedAs(99), space)))
	assert.True(t, errs.IsForbidden(engine.UpdateSpace(ctx, anonymous(), space)))
}

func TestDeleteSpace(t *testing.T) {
	engine := New(newFakeStore())
	space := &model.Space{ID: 1, OwnerID: 10}

	assert.NoError(t, engine.DeleteSpace(authedAs(10), space))
	assert.True(t, errs.IsForbidden(engine.DeleteSpace(authedAs(11), space)))
	assert.True(t, errs.IsForbidden(engine.DeleteSpace(anonymous(), space)))
}

func TestRestoreSpaceAlwaysDenied(t *testing.T) {
	engine := New(newFakeStore())
	space := &model.Space{ID: 1, OwnerID: 10}

	assert.True(t, errs.IsForbidden(engine.RestoreSpace(authedAs(10), space)))
}
