package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/openhearth/hearth/pkg/model"
)

// This file implements identity.TrustedReader plus the unscoped lookups the
// authorization rules need. None of these methods take router-bound input
// directly; handlers always resolve entities through the scoped accessors
// first.

// MemberSpaceIDs returns the ids of spaces the user actively belongs to.
func (s *Store) MemberSpaceIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT space_id FROM space_members WHERE user_id = $1 AND deleted_at IS NULL
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query member space ids: %w", err)
	}
	return scanInt64s(rows)
}

// MemberChannelIDs returns the ids of channels the user actively belongs to.
func (s *Store) MemberChannelIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT channel_id FROM channel_members WHERE user_id = $1 AND deleted_at IS NULL
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query member channel ids: %w", err)
	}
	return scanInt64s(rows)
}

// SpaceMemberUserIDs returns the user ids of all active members of the given
// spaces.
func (s *Store) SpaceMemberUserIDs(ctx context.Context, spaceIDs []int64) ([]int64, error) {
	if len(spaceIDs) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id FROM space_members WHERE space_id = ANY($1) AND deleted_at IS NULL
	`, pq.Array(spaceIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query space member user ids: %w", err)
	}
	return scanInt64s(rows)
}

// PublicUserIDs returns the ids of users whose privacy setting marks them
// public.
func (s *Store) PublicUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id FROM user_privacy_settings WHERE is_public AND deleted_at IS NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query public user ids: %w", err)
	}
	return scanInt64s(rows)
}

// NonPrivateSpaceIDs returns the ids of spaces with privacy public or
// protected.
func (s *Store) NonPrivateSpaceIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM spaces WHERE privacy IN ('public', 'protected') AND deleted_at IS NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query non-private space ids: %w", err)
	}
	return scanInt64s(rows)
}

// SpaceMembershipUnscoped returns the acting membership for a user in a space
// with its role hydrated, or nil when the user is not an active member.
// Authorization rules use it to inspect the actor's standing regardless of
// what the actor can see.
func (s *Store) SpaceMembershipUnscoped(ctx context.Context, spaceID, userID int64) (*model.SpaceMember, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+spaceMemberColumns+`, `+spaceMemberRoleJoin+`
		FROM space_members
		LEFT JOIN space_member_roles
			ON space_member_roles.member_id = space_members.id
			AND space_member_roles.deleted_at IS NULL
		WHERE space_members.space_id = $1 AND space_members.user_id = $2 AND space_members.deleted_at IS NULL
	`, spaceID, userID)
	member, err := scanSpaceMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query space membership: %w", err)
	}
	return member, nil
}

// ChannelMembershipUnscoped returns the acting membership for a user in a
// channel, or nil when the user is not an active member.
func (s *Store) ChannelMembershipUnscoped(ctx context.Context, channelID, userID int64) (*model.ChannelMember, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+channelMemberColumns+`
		FROM channel_members
		WHERE channel_id = $1 AND user_id = $2 AND deleted_at IS NULL
	`, channelID, userID)
	member, err := scanChannelMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query channel membership: %w", err)
	}
	return member, nil
}

// SpaceHasMemberUser reports whether the given user is an active member of the
// space.
func (s *Store) SpaceHasMemberUser(ctx context.Context, spaceID, userID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM space_members
			WHERE space_id = $1 AND user_id = $2 AND deleted_at IS NULL
		)
	`, spaceID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check space membership: %w", err)
	}
	return exists, nil
}

// MemberHasRoleRow reports whether the member already has an active role row.
func (s *Store) MemberHasRoleRow(ctx context.Context, memberID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM space_member_roles
			WHERE member_id = $1 AND deleted_at IS NULL
		)
	`, memberID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check member role row: %w", err)
	}
	return exists, nil
}

// UserPrivacyExists reports whether the user already has an active privacy
// setting row.
func (s *Store) UserPrivacyExists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM user_privacy_settings
			WHERE user_id = $1 AND deleted_at IS NULL
		)
	`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user privacy setting: %w", err)
	}
	return exists, nil
}

// SpacePrivacyExists reports whether the space already has an active privacy
// setting row.
func (s *Store) SpacePrivacyExists(ctx context.Context, spaceID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM space_privacy_settings
			WHERE space_id = $1 AND deleted_at IS NULL
		)
	`, spaceID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check space privacy setting: %w", err)
	}
	return exists, nil
}
