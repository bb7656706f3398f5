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

const spaceMemberRoleColumns = `
	space_member_roles.id, space_member_roles.space_id, space_member_roles.user_id,
	space_member_roles.member_id, space_member_roles.role,
	space_member_roles.created_by, space_member_roles.updated_by, space_member_roles.deleted_by,
	space_member_roles.created_at, space_member_roles.updated_at, space_member_roles.deleted_at
`

func scanSpaceMemberRole(scanner rowScanner) (*model.SpaceMemberRole, error) {
	role := &model.SpaceMemberRole{}
	err := scanner.Scan(
		&role.ID, &role.SpaceID, &role.UserID,
		&role.MemberID, &role.Role,
		&role.CreatedBy, &role.UpdatedBy, &role.DeletedBy,
		&role.CreatedAt, &role.UpdatedAt, &role.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return role, nil
}

// CreateSpaceMemberRole attaches a role row to a member. The unique constraint
// on member_id backs the one-active-role invariant.
func (s *Store) CreateSpaceMemberRole(ctx context.Context, idc *identity.Context, member *model.SpaceMember, role roles.Role) (*model.SpaceMemberRole, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO space_member_roles (space_id, user_id, member_id, role, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING `+spaceMemberRoleColumns,
		member.SpaceID, member.UserID, member.ID, role, idc.ActorID(),
	)
	created, err := scanSpaceMemberRole(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errs.Conflict("role", "member already has a role")
		}
		return nil, fmt.Errorf("failed to create member role: %w", err)
	}
	return created, nil
}

// GetSpaceMemberRole fetches a role row within a visible space.
func (s *Store) GetSpaceMemberRole(ctx context.Context, idc *identity.Context, id int64) (*model.SpaceMemberRole, error) {
	pred, err := scope.SpaceMemberRole(ctx, idc, 1)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(
		"SELECT %s FROM space_member_roles WHERE %s AND space_member_roles.id = $%d",
		spaceMemberRoleColumns, pred.SQL, pred.Next(),
	)
	args := append(pred.Args, id)
	role, err := scanSpaceMemberRole(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("space member role")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member role: %w", err)
	}
	return role, nil
}

// ListSpaceMemberRoles returns the role rows of one member within a visible
// space. At most one active row exists but the list form mirrors the
// collection route.
func (s *Store) ListSpaceMemberRoles(ctx context.Context, idc *identity.Context, memberID int64) ([]*model.SpaceMemberRole, error) {
	pred, err := scope.SpaceMemberRole(ctx, idc, 1)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(
		"SELECT %s FROM space_member_roles WHERE %s AND space_member_roles.member_id = $%d ORDER BY space_member_roles.created_at ASC",
		spaceMemberRoleColumns, pred.SQL, pred.Next(),
	)
	args := append(pred.Args, memberID)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list member roles: %w", err)
	}
	defer rows.Close()

	var result []*model.SpaceMemberRole
	for rows.Next() {
		role, err := scanSpaceMemberRole(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member role: %w", err)
		}
		result = append(result, role)
	}
	return result, rows.Err()
}

// UpdateSpaceMemberRole changes the role value of an existing role row.
func (s *Store) UpdateSpaceMemberRole(ctx context.Context, idc *identity.Context, id int64, role roles.Role) (*model.SpaceMemberRole, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE space_member_roles
		SET role = $1, updated_by = $2, updated_at = NOW()
		WHERE id = $3 AND deleted_at IS NULL
		RETURNING `+spaceMemberRoleColumns,
		role, idc.ActorID(), id,
	)
	updated, err := scanSpaceMemberRole(row)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("space member role")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update member role: %w", err)
	}
	return updated, nil
}

// DeleteSpaceMemberRole soft-deletes a role row; the member falls back to the
// base role.
func (s *Store) DeleteSpaceMemberRole(ctx context.Context, idc *identity.Context, id int64) error {
	return s.softDelete(ctx, s.db, "space_member_roles", "space member role", id, idc.ActorID())
}
