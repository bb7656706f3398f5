package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/openhearth/hearth/pkg/errs"
	"github.com/openhearth/hearth/pkg/identity"
	"github.com/openhearth/hearth/pkg/model"
	"github.com/openhearth/hearth/pkg/scope"
)

const spacePrivacyColumns = `
	space_privacy_settings.id, space_privacy_settings.space_id,
	space_privacy_settings.phone_number, space_privacy_settings.location,
	space_privacy_settings.created_by, space_privacy_settings.updated_by, space_privacy_settings.deleted_by,
	space_privacy_settings.created_at, space_privacy_settings.updated_at, space_privacy_settings.deleted_at
`

func scanSpacePrivacy(scanner rowScanner) (*model.SpacePrivacySetting, error) {
	privacy := &model.SpacePrivacySetting{}
	err := scanner.Scan(
		&privacy.ID, &privacy.SpaceID,
		&privacy.PhoneNumber, &privacy.Location,
		&privacy.CreatedBy, &privacy.UpdatedBy, &privacy.DeletedBy,
		&privacy.CreatedAt, &privacy.UpdatedAt, &privacy.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return privacy, nil
}

// GetSpacePrivacy fetches the privacy setting of a visible space.
func (s *Store) GetSpacePrivacy(ctx context.Context, idc *identity.Context, spaceID int64) (*model.SpacePrivacySetting, error) {
	pred, err := scope.SpacePrivacySetting(ctx, idc, 1)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(
		"SELECT %s FROM space_privacy_settings WHERE %s AND space_privacy_settings.space_id = $%d",
		spacePrivacyColumns, pred.SQL, pred.Next(),
	)
	args := append(pred.Args, spaceID)
	privacy, err := scanSpacePrivacy(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("space privacy setting")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get space privacy setting: %w", err)
	}
	return privacy, nil
}

// CreateSpacePrivacy inserts a privacy row; omitted flags default to false.
func (s *Store) CreateSpacePrivacy(ctx context.Context, idc *identity.Context, spaceID int64, req *model.UpsertSpacePrivacyRequest) (*model.SpacePrivacySetting, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO space_privacy_settings (space_id, phone_number, location, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING `+spacePrivacyColumns,
		spaceID, boolOr(req.PhoneNumber, false), boolOr(req.Location, false), idc.ActorID(),
	)
	privacy, err := scanSpacePrivacy(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errs.Conflict("space_id", "space already has a privacy setting")
		}
		return nil, fmt.Errorf("failed to create space privacy setting: %w", err)
	}
	return privacy, nil
}

// UpdateSpacePrivacy applies the non-nil flags of req.
func (s *Store) UpdateSpacePrivacy(ctx context.Context, idc *identity.Context, id int64, req *model.UpsertSpacePrivacyRequest) (*model.SpacePrivacySetting, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE space_privacy_settings
		SET phone_number = COALESCE($1, phone_number),
		    location = COALESCE($2, location),
		    updated_by = $3, updated_at = NOW()
		WHERE id = $4 AND deleted_at IS NULL
		RETURNING `+spacePrivacyColumns,
		req.PhoneNumber, req.Location, idc.ActorID(), id,
	)
	privacy, err := scanSpacePrivacy(row)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("space privacy setting")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update space privacy setting: %w", err)
	}
	return privacy, nil
}

// DeleteSpacePrivacy soft-deletes a privacy row; the space reverts to the
// all-false default.
func (s *Store) DeleteSpacePrivacy(ctx context.Context, idc *identity.Context, id int64) error {
	return s.softDelete(ctx, s.db, "space_privacy_settings", "space privacy setting", id, idc.ActorID())
}
