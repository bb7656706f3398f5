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

const channelColumns = `
	channels.id, channels.space_id, channels.name, channels.description,
	channels.latitude, channels.longitude, channels.privacy, channels.owner_id,
	channels.created_by, channels.updated_by, channels.deleted_by,
	channels.created_at, channels.updated_at, channels.deleted_at
`

func scanChannel(scanner rowScanner) (*model.Channel, error) {
	channel := &model.Channel{}
	err := scanner.Scan(
		&channel.ID, &channel.SpaceID, &channel.Name, &channel.Description,
		&channel.Latitude, &channel.Longitude, &channel.Privacy, &channel.OwnerID,
		&channel.CreatedBy, &channel.UpdatedBy, &channel.DeletedBy,
		&channel.CreatedAt, &channel.UpdatedAt, &channel.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return channel, nil
}

// CreateChannel creates a channel together with its owner membership in one
// transaction. The acting identity becomes the owner regardless of any
// client-supplied value.
func (s *Store) CreateChannel(ctx context.Context, idc *identity.Context, spaceID int64, req *model.CreateChannelRequest) (*model.Channel, error) {
	if err := requireActor(idc); err != nil {
		return nil, err
	}
	actorID := idc.ActorID()

	var channel *model.Channel
	err := s.inTx(ctx, nil, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			INSERT INTO channels (space_id, name, description, latitude, longitude, privacy, owner_id, created_by, updated_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
			RETURNING `+channelColumns,
			spaceID, req.Name, req.Description, req.Latitude, req.Longitude, req.Privacy,
			actorID, actorID,
		)
		var err error
		channel, err = scanChannel(row)
		if err != nil {
			return fmt.Errorf("failed to create channel: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO channel_members (channel_id, user_id, role, created_by, updated_by)
			VALUES ($1, $2, $3, $4, $4)
		`, channel.ID, actorID, roles.RoleOwner, actorID)
		if err != nil {
			return fmt.Errorf("failed to create owner membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return channel, nil
}

// GetChannel fetches a channel visible to the acting identity.
func (s *Store) GetChannel(ctx context.Context, idc *identity.Context, id int64) (*model.Channel, error) {
	pred, err := scope.Channel(ctx, idc, 1)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(
		"SELECT %s FROM channels WHERE %s AND channels.id = $%d",
		channelColumns, pred.SQL, pred.Next(),
	)
	args := append(pred.Args, id)
	channel, err := scanChannel(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("channel")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	return channel, nil
}

// ListChannels returns the channels of one space visible to the acting
// identity.
func (s *Store) ListChannels(ctx context.Context, idc *identity.Context, spaceID int64) ([]*model.Channel, error) {
	pred, err := scope.Channel(ctx, idc, 1)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(
		"SELECT %s FROM channels WHERE %s AND channels.space_id = $%d ORDER BY channels.created_at ASC",
		channelColumns, pred.SQL, pred.Next(),
	)
	args := append(pred.Args, spaceID)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	var channels []*model.Channel
	for rows.Next() {
		channel, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		channels = append(channels, channel)
	}
	return channels, rows.Err()
}

// UpdateChannel applies the non-nil fields of req and stamps the actor.
func (s *Store) UpdateChannel(ctx context.Context, idc *identity.Context, id int64, req *model.UpdateChannelRequest) (*model.Channel, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE channels
		SET name = COALESCE($1, name),
		    description = COALESCE($2, description),
		    latitude = COALESCE($3, latitude),
		    longitude = COALESCE($4, longitude),
		    privacy = COALESCE($5, privacy),
		    updated_by = $6, updated_at = NOW()
		WHERE id = $7 AND deleted_at IS NULL
		RETURNING `+channelColumns,
		req.Name, req.Description, req.Latitude, req.Longitude, req.Privacy,
		idc.ActorID(), id,
	)
	channel, err := scanChannel(row)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("channel")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update channel: %w", err)
	}
	return channel, nil
}

// DeleteChannel soft-deletes a channel.
func (s *Store) DeleteChannel(ctx context.Context, idc *identity.Context, id int64) error {
	return s.softDelete(ctx, s.db, "channels", "channel", id, idc.ActorID())
}
