package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/openhearth/hearth/pkg/errs"
	"github.com/openhearth/hearth/pkg/identity"
	"github.com/openhearth/hearth/pkg/model"
	"github.com/openhearth/hearth/pkg/roles"
	"github.com/openhearth/hearth/pkg/scope"
)

const channelMemberColumns = `
	channel_members.id, channel_members.channel_id, channel_members.user_id, channel_members.role,
	channel_members.created_by, channel_members.updated_by, channel_members.deleted_by,
	channel_members.created_at, channel_members.updated_at, channel_members.deleted_at
`

func scanChannelMember(scanner rowScanner) (*model.ChannelMember, error) {
	member := &model.ChannelMember{}
	err := scanner.Scan(
		&member.ID, &member.ChannelID, &member.UserID, &member.Role,
		&member.CreatedBy, &member.UpdatedBy, &member.DeletedBy,
		&member.CreatedAt, &member.UpdatedAt, &member.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return member, nil
}

// CreateChannelMember adds a user to a channel with the given role.
func (s *Store) CreateChannelMember(ctx context.Context, idc *identity.Context, channelID, userID int64, role roles.Role) (*model.ChannelMember, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO channel_members (channel_id, user_id, role, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING `+channelMemberColumns,
		channelID, userID, role, idc.ActorID(),
	)
	member, err := scanChannelMember(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errs.Conflict("user_id", "user is already a member of this channel")
		}
		return nil, fmt.Errorf("failed to create channel member: %w", err)
	}
	return member, nil
}

// GetChannelMember fetches a member of a visible channel.
func (s *Store) GetChannelMember(ctx context.Context, idc *identity.Context, id int64) (*model.ChannelMember, error) {
	pred, err := scope.ChannelMember(ctx, idc, 1)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(
		"SELECT %s FROM channel_members WHERE %s AND channel_members.id = $%d",
		channelMemberColumns, pred.SQL, pred.Next(),
	)
	args := append(pred.Args, id)
	member, err := scanChannelMember(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("channel member")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel member: %w", err)
	}
	return member, nil
}

// ListChannelMembers returns the members of one visible channel.
func (s *Store) ListChannelMembers(ctx context.Context, idc *identity.Context, channelID int64) ([]*model.ChannelMember, error) {
	pred, err := scope.ChannelMember(ctx, idc, 1)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(
		"SELECT %s FROM channel_members WHERE %s AND channel_members.channel_id = $%d ORDER BY channel_members.created_at ASC",
		channelMemberColumns, pred.SQL, pred.Next(),
	)
	args := append(pred.Args, channelID)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list channel members: %w", err)
	}
	defer rows.Close()

	var members []*model.ChannelMember
	for rows.Next() {
		member, err := scanChannelMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel member: %w", err)
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

// UpdateChannelMemberRole changes the inline role of a channel membership.
func (s *Store) UpdateChannelMemberRole(ctx context.Context, idc *identity.Context, id int64, role roles.Role) (*model.ChannelMember, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE channel_members
		SET role = $1, updated_by = $2, updated_at = NOW()
		WHERE id = $3 AND deleted_at IS NULL
		RETURNING `+channelMemberColumns,
		role, idc.ActorID(), id,
	)
	member, err := scanChannelMember(row)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("channel member")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update channel member: %w", err)
	}
	return member, nil
}

// TransferChannelOwnership atomically demotes the current channel owner to
// admin, promotes the target membership to owner, and repoints the channel's
// owner_id. Same race posture as the space variant.
func (s *Store) TransferChannelOwnership(ctx context.Context, idc *identity.Context, channelID, memberID int64) (*model.ChannelMember, error) {
	if err := requireActor(idc); err != nil {
		return nil, err
	}
	actorID := idc.ActorID()

	var promoted *model.ChannelMember
	err := s.inTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(tx *sql.Tx) error {
		var ownerMemberID, ownerUserID int64
		err := tx.QueryRowContext(ctx, `
			SELECT id, user_id FROM channel_members
			WHERE channel_id = $1 AND role = $2 AND deleted_at IS NULL
			FOR UPDATE
		`, channelID, roles.RoleOwner).Scan(&ownerMemberID, &ownerUserID)
		if err == sql.ErrNoRows {
			return errs.Conflict("role", "channel has no active owner")
		}
		if err != nil {
			return fmt.Errorf("failed to lock owner membership: %w", err)
		}
		if ownerUserID != actorID {
			return errs.Conflict("role", "channel ownership changed concurrently")
		}
		if ownerMemberID == memberID {
			return errs.Conflict("role", "cannot transfer ownership to the current owner")
		}

		var targetUserID int64
		err = tx.QueryRowContext(ctx, `
			SELECT user_id FROM channel_members
			WHERE id = $1 AND channel_id = $2 AND deleted_at IS NULL
			FOR UPDATE
		`, memberID, channelID).Scan(&targetUserID)
		if err == sql.ErrNoRows {
			return errs.NotFound("channel member")
		}
		if err != nil {
			return fmt.Errorf("failed to lock target membership: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE channel_members SET role = $1, updated_by = $2, updated_at = NOW() WHERE id = $3
		`, roles.RoleAdmin, actorID, ownerMemberID); err != nil {
			return fmt.Errorf("failed to demote current owner: %w", err)
		}

		row := tx.QueryRowContext(ctx, `
			UPDATE channel_members SET role = $1, updated_by = $2, updated_at = NOW() WHERE id = $3
			RETURNING `+channelMemberColumns,
			roles.RoleOwner, actorID, memberID,
		)
		promoted, err = scanChannelMember(row)
		if err != nil {
			return fmt.Errorf("failed to promote new owner: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE channels SET owner_id = $1, updated_by = $2, updated_at = NOW() WHERE id = $3 AND deleted_at IS NULL
		`, targetUserID, actorID, channelID); err != nil {
			return fmt.Errorf("failed to update channel owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return promoted, nil
}

// DeleteChannelMember soft-deletes a channel membership.
func (s *Store) DeleteChannelMember(ctx context.Context, idc *identity.Context, id int64) error {
	return s.softDelete(ctx, s.db, "channel_members", "channel member", id, idc.ActorID())
}
