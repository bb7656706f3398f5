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

const spaceColumns = `
	spaces.id, spaces.name, spaces.bio, spaces.website, spaces.phone_number,
	spaces.latitude, spaces.longitude, spaces.address, spaces.privacy, spaces.owner_id,
	spaces.created_by, spaces.updated_by, spaces.deleted_by,
	spaces.created_at, spaces.updated_at, spaces.deleted_at
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSpace(scanner rowScanner) (*model.Space, error) {
	space := &model.Space{}
	err := scanner.Scan(
		&space.ID, &space.Name, &space.Bio, &space.Website, &space.PhoneNumber,
		&space.Latitude, &space.Longitude, &space.Address, &space.Privacy, &space.OwnerID,
		&space.CreatedBy, &space.UpdatedBy, &space.DeletedBy,
		&space.CreatedAt, &space.UpdatedAt, &space.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return space, nil
}

// CreateSpace creates a space together with its owning member and owner role
// in one transaction. The acting identity becomes the owner regardless of any
// client-supplied value.
func (s *Store) CreateSpace(ctx context.Context, idc *identity.Context, req *model.CreateSpaceRequest) (*model.Space, error) {
	if err := requireActor(idc); err != nil {
		return nil, err
	}
	actorID := idc.ActorID()

	var space *model.Space
	err := s.inTx(ctx, nil, func(tx *sql.Tx) error {
		query := `
			INSERT INTO spaces (name, bio, website, phone_number, latitude, longitude, address, privacy, owner_id, created_by, updated_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
			RETURNING ` + spaceColumns
		row := tx.QueryRowContext(ctx, query,
			req.Name, req.Bio, req.Website, req.PhoneNumber,
			req.Latitude, req.Longitude, req.Address, req.Privacy,
			actorID, actorID,
		)
		var err error
		space, err = scanSpace(row)
		if err != nil {
			return fmt.Errorf("failed to create space: %w", err)
		}

		var memberID int64
		err = tx.QueryRowContext(ctx, `
			INSERT INTO space_members (space_id, user_id, created_by, updated_by)
			VALUES ($1, $2, $3, $3)
			RETURNING id
		`, space.ID, actorID, actorID).Scan(&memberID)
		if err != nil {
			return fmt.Errorf("failed to create owning member: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO space_member_roles (space_id, user_id, member_id, role, created_by, updated_by)
			VALUES ($1, $2, $3, $4, $5, $5)
		`, space.ID, actorID, memberID, roles.RoleOwner, actorID)
		if err != nil {
			return fmt.Errorf("failed to create owner role: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return space, nil
}

// GetSpace fetches a space visible to the acting identity. Invisible and
// deleted spaces are indistinguishable from absent ones.
func (s *Store) GetSpace(ctx context.Context, idc *identity.Context, id int64) (*model.Space, error) {
	pred, err := scope.Space(ctx, idc, 1)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(
		"SELECT %s FROM spaces WHERE %s AND spaces.id = $%d",
		spaceColumns, pred.SQL, pred.Next(),
	)
	args := append(pred.Args, id)
	space, err := scanSpace(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("space")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get space: %w", err)
	}
	return space, nil
}

// ListSpaces returns every space visible to the acting identity.
func (s *Store) ListSpaces(ctx context.Context, idc *identity.Context) ([]*model.Space, error) {
	pred, err := scope.Space(ctx, idc, 1)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(
		"SELECT %s FROM spaces WHERE %s ORDER BY spaces.created_at ASC",
		spaceColumns, pred.SQL,
	)
	rows, err := s.db.QueryContext(ctx, query, pred.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list spaces: %w", err)
	}
	defer rows.Close()

	var spaces []*model.Space
	for rows.Next() {
		space, err := scanSpace(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan space: %w", err)
		}
		spaces = append(spaces, space)
	}
	return spaces, rows.Err()
}

// UpdateSpace applies the non-nil fields of req and stamps the actor.
func (s *Store) UpdateSpace(ctx context.Context, idc *identity.Context, id int64, req *model.UpdateSpaceRequest) (*model.Space, error) {
	query := `
		UPDATE spaces
		SET name = COALESCE($1, name),
		    bio = COALESCE($2, bio),
		    website = COALESCE($3, website),
		    phone_number = COALESCE($4, phone_number),
		    latitude = COALESCE($5, latitude),
		    longitude = COALESCE($6, longitude),
		    address = COALESCE($7, address),
		    privacy = COALESCE($8, privacy),
		    updated_by = $9, updated_at = NOW()
		WHERE id = $10 AND deleted_at IS NULL
		RETURNING ` + spaceColumns
	row := s.db.QueryRowContext(ctx, query,
		req.Name, req.Bio, req.Website, req.PhoneNumber,
		req.Latitude, req.Longitude, req.Address, req.Privacy,
		idc.ActorID(), id,
	)
	space, err := scanSpace(row)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("space")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update space: %w", err)
	}
	return space, nil
}

// DeleteSpace soft-deletes a space.
func (s *Store) DeleteSpace(ctx context.Context, idc *identity.Context, id int64) error {
	return s.softDelete(ctx, s.db, "spaces", "space", id, idc.ActorID())
}

// TransferSpaceOwnership atomically demotes the current owner to admin,
// promotes the member behind roleID to owner, and repoints the space's
// owner_id. Runs serializable so concurrent transfers on the same space
// cannot produce two owners or zero; the loser observes the owner role
// already changed and fails with a Conflict.
func (s *Store) TransferSpaceOwnership(ctx context.Context, idc *identity.Context, spaceID, memberID, roleID int64) (*model.SpaceMemberRole, error) {
	if err := requireActor(idc); err != nil {
		return nil, err
	}
	actorID := idc.ActorID()

	var promoted *model.SpaceMemberRole
	err := s.inTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(tx *sql.Tx) error {
		var ownerRoleID, ownerUserID int64
		err := tx.QueryRowContext(ctx, `
			SELECT id, user_id FROM space_member_roles
			WHERE space_id = $1 AND role = $2 AND deleted_at IS NULL
			FOR UPDATE
		`, spaceID, roles.RoleOwner).Scan(&ownerRoleID, &ownerUserID)
		if err == sql.ErrNoRows {
			return errs.Conflict("role", "space has no active owner role")
		}
		if err != nil {
			return fmt.Errorf("failed to lock owner role: %w", err)
		}
		// The policy verified the actor was the owner before the transaction
		// began; re-check under the lock so a lost race fails cleanly.
		if ownerUserID != actorID {
			return errs.Conflict("role", "space ownership changed concurrently")
		}
		if ownerRoleID == roleID {
			return errs.Conflict("role", "cannot transfer ownership to the current owner")
		}

		var targetUserID int64
		err = tx.QueryRowContext(ctx, `
			SELECT user_id FROM space_member_roles
			WHERE id = $1 AND member_id = $2 AND space_id = $3 AND deleted_at IS NULL
			FOR UPDATE
		`, roleID, memberID, spaceID).Scan(&targetUserID)
		if err == sql.ErrNoRows {
			return errs.NotFound("space member role")
		}
		if err != nil {
			return fmt.Errorf("failed to lock target role: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE space_member_roles SET role = $1, updated_by = $2, updated_at = NOW() WHERE id = $3
		`, roles.RoleAdmin, actorID, ownerRoleID); err != nil {
			return fmt.Errorf("failed to demote current owner: %w", err)
		}

		row := tx.QueryRowContext(ctx, `
			UPDATE space_member_roles SET role = $1, updated_by = $2, updated_at = NOW() WHERE id = $3
			RETURNING `+spaceMemberRoleColumns+`
		`, roles.RoleOwner, actorID, roleID)
		promoted, err = scanSpaceMemberRole(row)
		if err != nil {
			return fmt.Errorf("failed to promote new owner: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE spaces SET owner_id = $1, updated_by = $2, updated_at = NOW() WHERE id = $3 AND deleted_at IS NULL
		`, targetUserID, actorID, spaceID); err != nil {
			return fmt.Errorf("failed to update space owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return promoted, nil
}
