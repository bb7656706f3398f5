package policy

import (
	"context"

	"github.com/openhearth/hearth/pkg/errs"
	"github.com/openhearth/hearth/pkg/identity"
	"github.com/openhearth/hearth/pkg/model"
	"github.com/openhearth/hearth/pkg/roles"
)

// ViewChannelMember verifies the full route parent chain.
func (e *Engine) ViewChannelMember(space *model.Space, channel *model.Channel, member *model.ChannelMember) error {
	if channel.SpaceID != space.ID || member.ChannelID != channel.ID {
		return errs.NotFound("channel member")
	}
	return nil
}

// CreateChannelMember governs adding a user to a channel. The target must
// already belong to the parent space. Self-joining at the base role is open on
// public channels; otherwise the actor needs channel standing that outranks or
// equals the requested role, and the owner role is never grantable.
func (e *Engine) CreateChannelMember(ctx context.Context, idc *identity.Context, space *model.Space, channel *model.Channel, userID int64, requested roles.Role) error {
	if err := e.ViewChannel(space, channel); err != nil {
		return err
	}
	if err := requireAuth(idc); err != nil {
		return err
	}
	inSpace, err := e.store.SpaceHasMemberUser(ctx, space.ID, userID)
	if err != nil {
		return err
	}
	if !inSpace {
		return errs.Forbidden("user must be a member of the space before joining a channel")
	}
	acting, err := e.actingChannelMember(ctx, idc, channel.ID)
	if err != nil {
		return err
	}
	if acting == nil {
		if idc.ActorID() == userID && requested == roles.RoleMember && channel.Privacy == model.PrivacyPublic {
			return nil
		}
		return errs.Forbidden("only channel members may add members")
	}
	if acting.Role == roles.RoleMember {
		return errs.Forbidden("members may not add other members")
	}
	if !acting.Role.OutranksOrEquals(requested) {
		return errs.Forbidden("cannot grant a role above your own")
	}
	if requested == roles.RoleOwner {
		return errs.Forbidden("the owner role can only be granted through ownership transfer")
	}
	return nil
}

// UpdateChannelMember governs changing a membership's role. Rank is checked
// against both the requested role and the target's current role. Self-updates
// within rank are open to any member; updating someone else additionally
// requires owner or admin standing. The owner role only moves through
// ownership transfer.
func (e *Engine) UpdateChannelMember(ctx context.Context, idc *identity.Context, space *model.Space, channel *model.Channel, member *model.ChannelMember, requested roles.Role) error {
	if err := e.ViewChannelMember(space, channel, member); err != nil {
		return err
	}
	if err := requireAuth(idc); err != nil {
		return err
	}
	acting, err := e.actingChannelMember(ctx, idc, channel.ID)
	if err != nil {
		return err
	}
	if acting == nil {
		return errs.Forbidden("only channel members may change roles")
	}
	if !acting.Role.OutranksOrEquals(requested) || !acting.Role.OutranksOrEquals(member.Role) {
		return errs.Forbidden("cannot change a role above your own")
	}
	if idc.ActorID() == member.UserID {
		if acting.Role == roles.RoleOwner && requested != roles.RoleOwner {
			return errs.Forbidden("the channel owner must transfer ownership before stepping down")
		}
		return nil
	}
	if requested == roles.RoleOwner {
		return errs.Forbidden("the owner role can only be granted through ownership transfer")
	}
	if !acting.Role.IsAdministrative() {
		return errs.Forbidden("only channel owners and admins may change roles")
	}
	return nil
}

// DeleteChannelMember governs removing a membership. The owner membership is
// irremovable; removing someone else requires an elevated role that outranks
// or equals the target's.
func (e *Engine) DeleteChannelMember(ctx context.Context, idc *identity.Context, space *model.Space, channel *model.Channel, member *model.ChannelMember) error {
	if err := e.ViewChannelMember(space, channel, member); err != nil {
		return err
	}
	if member.Role == roles.RoleOwner {
		return errs.Forbidden("the channel owner cannot be removed")
	}
	if err := requireAuth(idc); err != nil {
		return err
	}
	acting, err := e.actingChannelMember(ctx, idc, channel.ID)
	if err != nil {
		return err
	}
	if acting == nil {
		return errs.Forbidden("only channel members may remove members")
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
