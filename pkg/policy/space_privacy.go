package policy

import (
	"context"

	"github.com/openhearth/hearth/pkg/errs"
	"github.com/openhearth/hearth/pkg/identity"
	"github.com/openhearth/hearth/pkg/model"
)

// ViewSpacePrivacy verifies the route parent chain.
func (e *Engine) ViewSpacePrivacy(space *model.Space, privacy *model.SpacePrivacySetting) error {
	if privacy.SpaceID != space.ID {
		return errs.NotFound("space privacy setting")
	}
	return nil
}

// CreateSpacePrivacy requires an administrative role and at most one active
// setting row per space.
func (e *Engine) CreateSpacePrivacy(ctx context.Context, idc *identity.Context, space *model.Space) error {
	if err := e.requireSpaceAdmin(ctx, idc, space); err != nil {
		return err
	}
	exists, err := e.store.SpacePrivacyExists(ctx, space.ID)
	if err != nil {
		return err
	}
	if exists {
		return errs.Conflict("space_id", "space already has a privacy setting")
	}
	return nil
}

// UpdateSpacePrivacy requires an administrative role in the space.
func (e *Engine) UpdateSpacePrivacy(ctx context.Context, idc *identity.Context, space *model.Space, privacy *model.SpacePrivacySetting) error {
	if err := e.ViewSpacePrivacy(space, privacy); err != nil {
		return err
	}
	return e.requireSpaceAdmin(ctx, idc, space)
}

// DeleteSpacePrivacy requires an administrative role in the space.
func (e *Engine) DeleteSpacePrivacy(ctx context.Context, idc *identity.Context, space *model.Space, privacy *model.SpacePrivacySetting) error {
	if err := e.ViewSpacePrivacy(space, privacy); err != nil {
		return err
	}
	return e.requireSpaceAdmin(ctx, idc, space)
}

func (e *Engine) requireSpaceAdmin(ctx context.Context, idc *identity.Context, space *model.Space) error {
	if err := requireAuth(idc); err != nil {
		return err
	}
	member, err := e.actingMember(ctx, idc, space.ID)
	if err != nil {
		return err
	}
	if member == nil || !member.Role.IsAdministrative() {
		return errs.Forbidden("only space owners and admins may manage privacy settings")
	}
	return nil
}
