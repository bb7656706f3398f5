package policy

import (
	"context"

	"github.com/openhearth/hearth/pkg/errs"
	"github.com/openhearth/hearth/pkg/identity"
	"github.com/openhearth/hearth/pkg/model"
	"github.com/openhearth/hearth/pkg/roles"
)

// ViewSpaceMember verifies the route parent chain.
func (e *Engine) ViewSpaceMember(space *model.Space, member *model.SpaceMember) error {
	if member.SpaceID != space.ID {
		return errs.NotFound("space member")
	}
	return nil
}

// CreateSpaceMember governs adding a user to a space. Self-joining is open on
// public spaces; otherwise the actor must be a member ranked above the base
// role.
func (e *Engine) CreateSpaceMember(ctx context.Context, idc *identity.Context, space *model.Space, req *model.CreateSpaceMemberRequest) error {
	if err := requireAuth(idc); err != nil {
		return err
	}
	acting, err := e.actingMember(ctx, idc, space.ID)
	if err != nil {
		return err
	}
	if acting == nil {
		if idc.ActorID() == req.UserID && space.Privacy == model.PrivacyPublic {
			return nil
		}
		return errs.Forbidden("only space members may add members")
	}
	if acting.Role == roles.RoleMember {
		return errs.Forbidden("members may not add other members")
	}
	return nil
}

// UpdateSpaceMember allows members to edit only their own membership profile.
func (e *Engine) UpdateSpaceMember(idc *identity.Context, space *model.Space, member *model.SpaceMember) error {
	if err := e.ViewSpaceMember(space, member); err != nil {
		return err
	}
	if err := requireAuth(idc); err != nil {
		return err
	}
	if idc.ActorID() != member.UserID {
		return errs.Forbidden("members may only update their own membership")
	}
	return nil
}

// DeleteSpaceMember governs removing a member. Owner memberships are
// irremovable; ownership must be transferred first. Removing someone else
// requires an elevated role that outranks or equals the target's.
func (e *Engine) DeleteSpaceMember(ctx context.Context, idc *identity.Context, space *model.Space, member *model.SpaceMember) error {
	if err := e.ViewSpaceMember(space, member); err != nil {
		return err
	}
	if member.Role == roles.RoleOwner {
		return errs.Forbidden("the space owner cannot be removed")
	}
	if err := requireAuth(idc); err != nil {
		return err
	}
	acting, err := e.actingMember(ctx, idc, space.ID)
	if err != nil {
		return err
	}
	if acting == nil {
		return errs.Forbidden("only space members may remove members")
	}
	if idc.ActorID() != member.UserID {
		if acting.Role == roles.RoleMember {
			return errs.Forbidden("members may not remove other members")
		}
		if !acting.Role.OutranksOrEquals(member.Role) {
			return errs.Forbidden("cannot remove a member with a higher role")
		}
	}
	return nil
}

// RestoreSpaceMember is never permitted.
func (e *Engine) RestoreSpaceMember(idc *identity.Context, member *model.SpaceMember) error {
	return errs.Forbidden("space members cannot be restored")
}
