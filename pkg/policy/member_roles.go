package policy

import (
	"context"

	"github.com/openhearth/hearth/pkg/errs"
	"github.com/openhearth/hearth/pkg/identity"
	"github.com/openhearth/hearth/pkg/model"
	"github.com/openhearth/hearth/pkg/roles"
)

// ViewSpaceMemberRole verifies the full route parent chain.
func (e *Engine) ViewSpaceMemberRole(space *model.Space, member *model.SpaceMember, role *model.SpaceMemberRole) error {
	if member.SpaceID != space.ID || role.MemberID != member.ID {
		return errs.NotFound("space member role")
	}
	return nil
}

// CreateSpaceMemberRole governs granting a role to a member. Only owners and
// admins grant roles, the owner role is only reachable through ownership
// transfer, and a member can hold at most one role.
func (e *Engine) CreateSpaceMemberRole(ctx context.Context, idc *identity.Context, space *model.Space, member *model.SpaceMember, requested roles.Role) error {
	if err := e.ViewSpaceMember(space, member); err != nil {
		return err
	}
	if err := requireAuth(idc); err != nil {
		return err
	}
	acting, err := e.actingMember(ctx, idc, space.ID)
	if err != nil {
		return err
	}
	if acting == nil || !acting.Role.IsAdministrative() {
		return errs.Forbidden("only space owners and admins may grant roles")
	}
	if requested == roles.RoleOwner {
		return errs.Forbidden("the owner role can only be granted through ownership transfer")
	}
	exists, err := e.store.MemberHasRoleRow(ctx, member.ID)
	if err != nil {
		return err
	}
	if exists {
		return errs.Conflict("role", "member already has a role")
	}
	return nil
}

// UpdateSpaceMemberRole governs changing an existing role. Neither side of an
// update may be the owner role.
func (e *Engine) UpdateSpaceMemberRole(ctx context.Context, idc *identity.Context, space *model.Space, member *model.SpaceMember, role *model.SpaceMemberRole, requested roles.Role) error {
	if err := e.ViewSpaceMemberRole(space, member, role); err != nil {
		return err
	}
	if err := requireAuth(idc); err != nil {
		return err
	}
	acting, err := e.actingMember(ctx, idc, space.ID)
	if err != nil {
		return err
	}
	if acting == nil || !acting.Role.IsAdministrative() {
		return errs.Forbidden("only space owners and admins may change roles")
	}
	if role.Role == roles.RoleOwner || requested == roles.RoleOwner {
		return errs.Forbidden("the owner role can only change through ownership transfer")
	}
	return nil
}

// TransferSpaceOwnership requires the actor to be the current space owner.
func (e *Engine) TransferSpaceOwnership(ctx context.Context, idc *identity.Context, space *model.Space, member *model.SpaceMember, role *model.SpaceMemberRole) error {
	if err := e.ViewSpaceMemberRole(space, member, role); err != nil {
		return err
	}
	if err := requireAuth(idc); err != nil {
		return err
	}
	acting, err := e.actingMember(ctx, idc, space.ID)
	if err != nil {
		return err
	}
	if acting == nil || acting.Role != roles.RoleOwner {
		return errs.Forbidden("only the space owner may transfer ownership")
	}
	return nil
}

// DeleteSpaceMemberRole governs revoking a role. The owner role cannot be
// revoked.
func (e *Engine) DeleteSpaceMemberRole(ctx context.Context, idc *identity.Context, space *model.Space, member *model.SpaceMember, role *model.SpaceMemberRole) error {
	if err := e.ViewSpaceMemberRole(space, member, role); err != nil {
		return err
	}
	if role.Role == roles.RoleOwner {
		return errs.Forbidden("the owner role cannot be revoked")
	}
	if err := requireAuth(idc); err != nil {
		return err
	}
	acting, err := e.actingMember(ctx, idc, space.ID)
	if err != nil {
		return err
	}
	if acting == nil || !acting.Role.IsAdministrative() {
		return errs.Forbidden("only space owners and admins may revoke roles")
	}
	return nil
}
