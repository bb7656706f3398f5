// Package scope implements the row-scoping engine: for every entity type
// with visibility semantics it produces the SQL predicate that restricts
// reads to what the acting identity may see.
//
// Every scoped read in the store composes one of these predicates before any
// other constraint, regardless of entry point (direct fetch, relation
// traversal or aggregate). Each predicate also filters soft-deleted rows.
// A query path that skips the predicate is a security bug; the only
// sanctioned bypasses are the store's internal unscoped lookups used inside
// authorization rules.
package scope

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/openhearth/hearth/pkg/identity"
)

// Predicate is a SQL fragment plus its arguments. Placeholders are numbered
// from the predicate's start index; callers append their own arguments after
// Args and continue numbering at Next().
type Predicate struct {
	SQL  string
	Args []interface{}
	next int
}

// Next returns the placeholder index available after the predicate's own
// arguments.
func (p *Predicate) Next() int {
	return p.next
}

// Space restricts a query on the spaces table to the actor's visible spaces.
func Space(ctx context.Context, idc *identity.Context, start int) (*Predicate, error) {
	visible, err := idc.VisibleSpaceIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to derive visible space ids: %w", err)
	}
	return &Predicate{
		SQL:  fmt.Sprintf("spaces.id = ANY($%d) AND spaces.deleted_at IS NULL", start),
		Args: []interface{}{pq.Array(visible)},
		next: start + 1,
	}, nil
}

// Channel restricts a query on the channels table: the channel's space must
// be one the actor belongs to, and the channel must be either joined by the
// actor or non-private.
func Channel(ctx context.Context, idc *identity.Context, start int) (*Predicate, error) {
	spaceIDs, err := idc.SpaceIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to derive member space ids: %w", err)
	}
	channelIDs, err := idc.ChannelIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to derive member channel ids: %w", err)
	}
	return &Predicate{
		SQL: fmt.Sprintf(
			"channels.space_id = ANY($%d) AND (channels.id = ANY($%d) OR channels.privacy IN ('protected', 'public')) AND channels.deleted_at IS NULL",
			start, start+1,
		),
		Args: []interface{}{pq.Array(spaceIDs), pq.Array(channelIDs)},
		next: start + 2,
	}, nil
}

// SpaceMember restricts a query on the space_members table to members of
// visible spaces.
func SpaceMember(ctx context.Context, idc *identity.Context, start int) (*Predicate, error) {
	return spaceScoped(ctx, idc, "space_members", start)
}

// SpaceMemberRole restricts a query on the space_member_roles table to roles
// within visible spaces.
func SpaceMemberRole(ctx context.Context, idc *identity.Context, start int) (*Predicate, error) {
	return spaceScoped(ctx, idc, "space_member_roles", start)
}

// SpacePrivacySetting restricts a query on the space_privacy_settings table
// to settings of visible spaces.
func SpacePrivacySetting(ctx context.Context, idc *identity.Context, start int) (*Predicate, error) {
	return spaceScoped(ctx, idc, "space_privacy_settings", start)
}

// ChannelMember restricts a query on the channel_members table to members of
// visible channels, transitively applying the channel predicate.
func ChannelMember(ctx context.Context, idc *identity.Context, start int) (*Predicate, error) {
	channel, err := Channel(ctx, idc, start)
	if err != nil {
		return nil, err
	}
	return &Predicate{
		SQL: fmt.Sprintf(
			"channel_members.channel_id IN (SELECT channels.id FROM channels WHERE %s) AND channel_members.deleted_at IS NULL",
			channel.SQL,
		),
		Args: channel.Args,
		next: channel.next,
	}, nil
}

// UserProfile restricts a query on the user_profiles table to profiles of
// visible users.
func UserProfile(ctx context.Context, idc *identity.Context, start int) (*Predicate, error) {
	return userScoped(ctx, idc, "user_profiles", start)
}

// UserSetting restricts a query on the user_settings table to settings of
// visible users.
func UserSetting(ctx context.Context, idc *identity.Context, start int) (*Predicate, error) {
	return userScoped(ctx, idc, "user_settings", start)
}

// UserPrivacySetting restricts a query on the user_privacy_settings table to
// settings of visible users.
func UserPrivacySetting(ctx context.Context, idc *identity.Context, start int) (*Predicate, error) {
	return userScoped(ctx, idc, "user_privacy_settings", start)
}

func spaceScoped(ctx context.Context, idc *identity.Context, table string, start int) (*Predicate, error) {
	visible, err := idc.VisibleSpaceIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to derive visible space ids: %w", err)
	}
	return &Predicate{
		SQL:  fmt.Sprintf("%s.space_id = ANY($%d) AND %s.deleted_at IS NULL", table, start, table),
		Args: []interface{}{pq.Array(visible)},
		next: start + 1,
	}, nil
}

func userScoped(ctx context.Context, idc *identity.Context, table string, start int) (*Predicate, error) {
	visible, err := idc.VisibleUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to derive visible user ids: %w", err)
	}
	return &Predicate{
		SQL:  fmt.Sprintf("%s.user_id = ANY($%d) AND %s.deleted_at IS NULL", table, start, table),
		Args: []interface{}{pq.Array(visible)},
		next: start + 1,
	}, nil
}
