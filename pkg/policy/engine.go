// Package policy implements the authorization rules for every entity type.
//
// Handlers resolve route-bound entities through the scoped store first, then
// ask the engine whether the acting identity may perform the operation. The
// engine answers with nil (allow), a NotFound error (route parent mismatch,
// reported exactly like an invisible row) or a Forbidden error.
//
// Rules never trust roles carried on request bodies; the actor's standing is
// always re-read through the unscoped membership lookups.
package policy

import (
	"context"

	"github.com/openhearth/hearth/pkg/errs"
	"github.com/openhearth/hearth/pkg/identity"
	"github.com/openhearth/hearth/pkg/model"
)

// Store is the narrow unscoped query surface the rules need.
type Store interface {
	SpaceMembershipUnscoped(ctx context.Context, spaceID, userID int64) (*model.SpaceMember, error)
	ChannelMembershipUnscoped(ctx context.Context, channelID, userID int64) (*model.ChannelMember, error)
	SpaceHasMemberUser(ctx context.Context, spaceID, userID int64) (bool, error)
	MemberHasRoleRow(ctx context.Context, memberID int64) (bool, error)
	UserPrivacyExists(ctx context.Context, userID int64) (bool, error)
	SpacePrivacyExists(ctx context.Context, spaceID int64) (bool, error)
}

// Engine evaluates authorization rules against the acting identity.
type Engine struct {
	store Store
}

// New creates an Engine backed by the given store.
func New(store Store) *Engine {
	return &Engine{store: store}
}

// actingMember loads the actor's membership in a space, or nil when the actor
// is not an active member.
func (e *Engine) actingMember(ctx context.Context, idc *identity.Context, spaceID int64) (*model.SpaceMember, error) {
	if !idc.Authenticated() {
		return nil, nil
	}
	return e.store.SpaceMembershipUnscoped(ctx, spaceID, idc.ActorID())
}

// actingChannelMember loads the actor's membership in a channel, or nil when
// the actor is not an active member.
func (e *Engine) actingChannelMember(ctx context.Context, idc *identity.Context, channelID int64) (*model.ChannelMember, error) {
	if !idc.Authenticated() {
		return nil, nil
	}
	return e.store.ChannelMembershipUnscoped(ctx, channelID, idc.ActorID())
}

func requireAuth(idc *identity.Context) error {
	if !idc.Authenticated() {
		return errs.Forbidden("authentication required")
	}
	return nil
}
