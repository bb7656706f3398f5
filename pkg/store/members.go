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

const spaceMemberColumns = `
	space_members.id, space_members.space_id, space_members.user_id,
	space_members.title, space_members.phone_number, space_members.space_visibility,
	space_members.created_by, space_members.updated_by, space_members.deleted_by,
	space_members.created_at, space_members.updated_at, space_members.deleted_at
`

// spaceMemberRoleJoin hydrates the member's role from its role row.
const spaceMemberRoleJoin = `space_member_roles.role, space_member_roles.id`

func scanSpaceMember(scanner rowScanner) (*model.SpaceMember, error) {
	member := &model.SpaceMember{}
	var role sql.NullString
	var roleID sql.NullInt64
	err := scanner.Scan(
		&member.ID, &member.SpaceID, &member.UserID,
		&member.Title, &member.PhoneNumber, &member.SpaceVisibility,
		&member.CreatedBy, &member.UpdatedBy, &member.DeletedBy,
		&member.CreatedAt, &member.UpdatedAt, &member.DeletedAt,
		&role, &roleID,
	)
	if err != nil {
		return nil, err
	}
	member.Role = roles.DefaultRole
	if role.Valid {
		member.Role = roles.Role(role.String)
	}
	if roleID.Valid {
		id := roleID.Int64
		member.RoleID = &id
	}
	return member, nil
}

const spaceMemberFrom = `
	FROM space_members
	LEFT JOIN space_member_roles
		ON space_member_roles.member_id = space_members.id
		AND space_member_roles.deleted_at IS NULL
`

// CreateSpaceMember adds a user to a space. The new member starts without a
// role row, which the role hydration reports as the base role.
func (s *Store) CreateSpaceMember(ctx context.Context, idc *identity.Context, spaceID int64, req *model.CreateSpaceMemberRequest) (*model.SpaceMember, error) {
	visibility := true
	if req.SpaceVisibility != nil {
		visibility = *req.SpaceVisibility
	}
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO space_members (space_id, user_id, title, phone_number, space_visibility, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id
	`, spaceID, req.UserID, req.Title, req.PhoneNumber, visibility, idc.ActorID()).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errs.Conflict("user_id", "user is already a member of this space")
		}
		return nil, fmt.Errorf("failed to create space member: %w", err)
	}
	return s.spaceMemberByID(ctx, id)
}

// GetSpaceMember fetches a member of a visible space.
func (s *Store) GetSpaceMember(ctx context.Context, idc *identity.Context, id int64) (*model.SpaceMember, error) {
	pred, err := scope.SpaceMember(ctx, idc, 1)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(
		"SELECT %s, %s %s WHERE %s AND space_members.id = $%d",
		spaceMemberColumns, spaceMemberRoleJoin, spaceMemberFrom, pred.SQL, pred.Next(),
	)
	args := append(pred.Args, id)
	member, err := scanSpaceMember(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("space member")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get space member: %w", err)
	}
	return member, nil
}

// ListSpaceMembers returns the members of one visible space.
func (s *Store) ListSpaceMembers(ctx context.Context, idc *identity.Context, spaceID int64) ([]*model.SpaceMember, error) {
	pred, err := scope.SpaceMember(ctx, idc, 1)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(
		"SELECT %s, %s %s WHERE %s AND space_members.space_id = $%d ORDER BY space_members.created_at ASC",
		spaceMemberColumns, spaceMemberRoleJoin, spaceMemberFrom, pred.SQL, pred.Next(),
	)
	args := append(pred.Args, spaceID)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list space members: %w", err)
	}
	defer rows.Close()

	var members []*model.SpaceMember
	for rows.Next() {
		member, err := scanSpaceMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan space member: %w", err)
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

// UpdateSpaceMember applies the member's own profile fields. Role changes go
// through the member-role methods.
func (s *Store) UpdateSpaceMember(ctx context.Context, idc *identity.Context, id int64, req *model.UpdateSpaceMemberRequest) (*model.SpaceMember, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE space_members
		SET title = COALESCE($1, title),
		    phone_number = COALESCE($2, phone_number),
		    space_visibility = COALESCE($3, space_visibility),
		    updated_by = $4, updated_at = NOW()
		WHERE id = $5 AND deleted_at IS NULL
	`, req.Title, req.PhoneNumber, req.SpaceVisibility, idc.ActorID(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update space member: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, errs.NotFound("space member")
	}
	return s.spaceMemberByID(ctx, id)
}

// DeleteSpaceMember soft-deletes a membership together with its role row.
func (s *Store) DeleteSpaceMember(ctx context.Context, idc *identity.Context, id int64) error {
	actorID := idc.ActorID()
	return s.inTx(ctx, nil, func(tx *sql.Tx) error {
		if err := s.softDelete(ctx, tx, "space_members", "space member", id, actorID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE space_member_roles
			SET deleted_at = NOW(), deleted_by = $1, updated_at = NOW(), updated_by = $2
			WHERE member_id = $3 AND deleted_at IS NULL
		`, actorOrNil(actorID), actorID, id)
		if err != nil {
			return fmt.Errorf("failed to delete member role: %w", err)
		}
		return nil
	})
}

func (s *Store) spaceMemberByID(ctx context.Context, id int64) (*model.SpaceMember, error) {
	query := fmt.Sprintf(
		"SELECT %s, %s %s WHERE space_members.id = $1 AND space_members.deleted_at IS NULL",
		spaceMemberColumns, spaceMemberRoleJoin, spaceMemberFrom,
	)
	member, err := scanSpaceMember(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("space member")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get space member: %w", err)
	}
	return member, nil
}
