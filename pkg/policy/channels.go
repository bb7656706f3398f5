package policy

import (
	"context"

	"github.com/openhearth/hearth/pkg/errs"
	"github.com/openhearth/hearth/pkg/identity"
	"github.com/openhearth/hearth/pkg/model"
)

// ViewChannel verifies the route parent chain. A channel reached under the
// wrong space reads as absent, not forbidden.
func (e *Engine) ViewChannel(space *model.Space, channel *model.Channel) error {
	if channel.SpaceID != space.ID {
		return errs.NotFound("channel")
	}
	return nil
}

// CreateChannel requires the actor to be an active member of the parent space.
func (e *Engine) CreateChannel(ctx context.Context, idc *identity.Context, space *model.Space) error {
	if err := requireAuth(idc); err != nil {
		return err
	}
	member, err := e.actingMember(ctx, idc, space.ID)
	if err != nil {
		return err
	}
	if member == nil {
		return errs.Forbidden("only space members may create channels")
	}
	return nil
}

// UpdateChannel requires an administrative role on the channel itself.
func (e *Engine) UpdateChannel(ctx context.Context, idc *identity.Context, space *model.Space, channel *model.Channel) error {
	if err := e.ViewChannel(space, channel); err != nil {
		return err
	}
	if err := requireAuth(idc); err != nil {
		return err
	}
	member, err := e.actingChannelMember(ctx, idc, channel.ID)
	if err != nil {
		return err
	}
	if member == nil || !member.Role.IsAdministrative() {
		return errs.Forbidden("only channel owners and admins may update the channel")
	}
	return nil
}

// DeleteChannel requires the actor to be the channel owner.
func (e *Engine) DeleteChannel(idc *identity.Context, space *model.Space, channel *model.Channel) error {
	if err := e.ViewChannel(space, channel); err != nil {
		return err
	}
	if err := requireAuth(idc); err != nil {
		return err
	}
	if idc.ActorID() != channel.OwnerID {
		return errs.Forbidden("only the channel owner may delete the channel")
	}
	return nil
}

// TransferChannelOwnership requires the actor to be the current channel owner.
func (e *Engine) TransferChannelOwnership(ctx context.Context, idc *identity.Context, space *model.Space, channel *model.Channel, target *model.ChannelMember) error {
	if err := e.ViewChannel(space, channel); err != nil {
		return err
	}
	if target.ChannelID != channel.ID {
		return errs.NotFound("channel member")
	}
	if err := requireAuth(idc); err != nil {
		return err
	}
	if idc.ActorID() != channel.OwnerID {
		return errs.Forbidden("only the channel owner may transfer ownership")
	}
	return nil
}

// RestoreChannel is never permitted.
func (e *Engine) RestoreChannel(idc *identity.Context, channel *model.Channel) error {
	return errs.Forbidden("channels cannot be restored")
}
