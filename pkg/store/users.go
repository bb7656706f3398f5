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

const userColumns = `
	users.id, users.email, users.password_hash, users.email_verified_at,
	users.created_by, users.updated_by, users.deleted_by,
	users.created_at, users.updated_at, users.deleted_at
`

func scanUser(scanner rowScanner) (*model.User, error) {
	user := &model.User{}
	err := scanner.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.EmailVerifiedAt,
		&user.CreatedBy, &user.UpdatedBy, &user.DeletedBy,
		&user.CreatedAt, &user.UpdatedAt, &user.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser registers an account and its empty profile in one transaction.
// Registration has no acting identity, so audit columns get the system actor.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash, firstName, lastName string) (*model.User, error) {
	var user *model.User
	err := s.inTx(ctx, nil, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			INSERT INTO users (email, password_hash, created_by, updated_by)
			VALUES ($1, $2, $3, $3)
			RETURNING `+userColumns,
			email, passwordHash, model.SystemActorID,
		)
		var err error
		user, err = scanUser(row)
		if err != nil {
			if isUniqueViolation(err) {
				return errs.Conflict("email", "email is already registered")
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO user_profiles (user_id, first_name, last_name, created_by, updated_by)
			VALUES ($1, $2, $3, $4, $4)
		`, user.ID, firstName, lastName, user.ID)
		if err != nil {
			return fmt.Errorf("failed to create user profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UserByEmail is the credential lookup used during login. It is deliberately
// unscoped; callers never reveal the row to anyone but its owner.
func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE email = $1 AND deleted_at IS NULL", userColumns)
	user, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// UserByID loads the account behind an authenticated token.
func (s *Store) UserByID(ctx context.Context, id int64) (*model.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1 AND deleted_at IS NULL", userColumns)
	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

// --- profiles ---

const userProfileColumns = `
	user_profiles.id, user_profiles.user_id, user_profiles.first_name, user_profiles.last_name,
	user_profiles.phone_number, user_profiles.latitude, user_profiles.longitude,
	user_profiles.address, user_profiles.bio,
	user_profiles.created_by, user_profiles.updated_by, user_profiles.deleted_by,
	user_profiles.created_at, user_profiles.updated_at, user_profiles.deleted_at
`

func scanUserProfile(scanner rowScanner) (*model.UserProfile, error) {
	profile := &model.UserProfile{}
	err := scanner.Scan(
		&profile.ID, &profile.UserID, &profile.FirstName, &profile.LastName,
		&profile.PhoneNumber, &profile.Latitude, &profile.Longitude,
		&profile.Address, &profile.Bio,
		&profile.CreatedBy, &profile.UpdatedBy, &profile.DeletedBy,
		&profile.CreatedAt, &profile.UpdatedAt, &profile.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// GetUserProfile fetches the profile of a visible user.
func (s *Store) GetUserProfile(ctx context.Context, idc *identity.Context, userID int64) (*model.UserProfile, error) {
	pred, err := scope.UserProfile(ctx, idc, 1)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(
		"SELECT %s FROM user_profiles WHERE %s AND user_profiles.user_id = $%d",
		userProfileColumns, pred.SQL, pred.Next(),
	)
	args := append(pred.Args, userID)
	profile, err := scanUserProfile(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("user profile")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}
	return profile, nil
}

// CreateUserProfile inserts a profile row. Normally created at registration;
// this covers accounts whose profile was deleted.
func (s *Store) CreateUserProfile(ctx context.Context, idc *identity.Context, userID int64, req *model.UpdateUserProfileRequest) (*model.UserProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO user_profiles (user_id, first_name, last_name, phone_number, latitude, longitude, address, bio, created_by, updated_by)
		VALUES ($1, COALESCE($2, ''), COALESCE($3, ''), $4, $5, $6, $7, $8, $9, $9)
		RETURNING `+userProfileColumns,
		userID, req.FirstName, req.LastName, req.PhoneNumber,
		req.Latitude, req.Longitude, req.Address, req.Bio,
		idc.ActorID(),
	)
	profile, err := scanUserProfile(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errs.Conflict("user_id", "user already has a profile")
		}
		return nil, fmt.Errorf("failed to create user profile: %w", err)
	}
	return profile, nil
}

// UpdateUserProfile applies the non-nil fields of req.
func (s *Store) UpdateUserProfile(ctx context.Context, idc *identity.Context, userID int64, req *model.UpdateUserProfileRequest) (*model.UserProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE user_profiles
		SET first_name = COALESCE($1, first_name),
		    last_name = COALESCE($2, last_name),
		    phone_number = COALESCE($3, phone_number),
		    latitude = COALESCE($4, latitude),
		    longitude = COALESCE($5, longitude),
		    address = COALESCE($6, address),
		    bio = COALESCE($7, bio),
		    updated_by = $8, updated_at = NOW()
		WHERE user_id = $9 AND deleted_at IS NULL
		RETURNING `+userProfileColumns,
		req.FirstName, req.LastName, req.PhoneNumber,
		req.Latitude, req.Longitude, req.Address, req.Bio,
		idc.ActorID(), userID,
	)
	profile, err := scanUserProfile(row)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("user profile")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user profile: %w", err)
	}
	return profile, nil
}

// DeleteUserProfile soft-deletes a profile.
func (s *Store) DeleteUserProfile(ctx context.Context, idc *identity.Context, id int64) error {
	return s.softDelete(ctx, s.db, "user_profiles", "user profile", id, idc.ActorID())
}

// --- settings ---

const userSettingColumns = `
	user_settings.id, user_settings.user_id, user_settings.language,
	user_settings.preferred_language, user_settings.timezone,
	user_settings.created_by, user_settings.updated_by, user_settings.deleted_by,
	user_settings.created_at, user_settings.updated_at, user_settings.deleted_at
`

func scanUserSetting(scanner rowScanner) (*model.UserSetting, error) {
	setting := &model.UserSetting{}
	err := scanner.Scan(
		&setting.ID, &setting.UserID, &setting.Language,
		&setting.PreferredLanguage, &setting.Timezone,
		&setting.CreatedBy, &setting.UpdatedBy, &setting.DeletedBy,
		&setting.CreatedAt, &setting.UpdatedAt, &setting.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return setting, nil
}

// GetUserSetting fetches the setting row of a visible user.
func (s *Store) GetUserSetting(ctx context.Context, idc *identity.Context, userID int64) (*model.UserSetting, error) {
	pred, err := scope.UserSetting(ctx, idc, 1)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(
		"SELECT %s FROM user_settings WHERE %s AND user_settings.user_id = $%d",
		userSettingColumns, pred.SQL, pred.Next(),
	)
	args := append(pred.Args, userID)
	setting, err := scanUserSetting(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("user setting")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user setting: %w", err)
	}
	return setting, nil
}

// CreateUserSetting inserts a setting row with defaults for omitted fields.
func (s *Store) CreateUserSetting(ctx context.Context, idc *identity.Context, userID int64, req *model.UpsertUserSettingRequest) (*model.UserSetting, error) {
	language := stringOr(req.Language, "en")
	preferred := stringOr(req.PreferredLanguage, language)
	timezone := stringOr(req.Timezone, "UTC")

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO user_settings (user_id, language, preferred_language, timezone, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING `+userSettingColumns,
		userID, language, preferred, timezone, idc.ActorID(),
	)
	setting, err := scanUserSetting(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errs.Conflict("user_id", "user already has settings")
		}
		return nil, fmt.Errorf("failed to create user setting: %w", err)
	}
	return setting, nil
}

// UpdateUserSetting applies the non-nil fields of req.
func (s *Store) UpdateUserSetting(ctx context.Context, idc *identity.Context, id int64, req *model.UpsertUserSettingRequest) (*model.UserSetting, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE user_settings
		SET language = COALESCE($1, language),
		    preferred_language = COALESCE($2, preferred_language),
		    timezone = COALESCE($3, timezone),
		    updated_by = $4, updated_at = NOW()
		WHERE id = $5 AND deleted_at IS NULL
		RETURNING `+userSettingColumns,
		req.Language, req.PreferredLanguage, req.Timezone,
		idc.ActorID(), id,
	)
	setting, err := scanUserSetting(row)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("user setting")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user setting: %w", err)
	}
	return setting, nil
}

// DeleteUserSetting soft-deletes a setting row.
func (s *Store) DeleteUserSetting(ctx context.Context, idc *identity.Context, id int64) error {
	return s.softDelete(ctx, s.db, "user_settings", "user setting", id, idc.ActorID())
}

// RestoreUserSetting clears the soft-delete marker. The only entity type whose
// rules permit a restore.
func (s *Store) RestoreUserSetting(ctx context.Context, idc *identity.Context, id int64) (*model.UserSetting, error) {
	if err := s.restoreRow(ctx, "user_settings", "user setting", id, idc.ActorID()); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM user_settings WHERE user_settings.id = $1", userSettingColumns)
	setting, err := scanUserSetting(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to reload user setting: %w", err)
	}
	return setting, nil
}

// DeletedUserSetting loads a soft-deleted setting row for the restore flow.
func (s *Store) DeletedUserSetting(ctx context.Context, userID int64) (*model.UserSetting, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM user_settings
		WHERE user_settings.user_id = $1 AND user_settings.deleted_at IS NOT NULL
		ORDER BY user_settings.deleted_at DESC
		LIMIT 1
	`, userSettingColumns)
	setting, err := scanUserSetting(s.db.QueryRowContext(ctx, query, userID))
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("user setting")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deleted user setting: %w", err)
	}
	return setting, nil
}

// --- privacy settings ---

const userPrivacyColumns = `
	user_privacy_settings.id, user_privacy_settings.user_id,
	user_privacy_settings.last_name, user_privacy_settings.phone_number,
	user_privacy_settings.location, user_privacy_settings.is_public,
	user_privacy_settings.public_messages,
	user_privacy_settings.created_by, user_privacy_settings.updated_by, user_privacy_settings.deleted_by,
	user_privacy_settings.created_at, user_privacy_settings.updated_at, user_privacy_settings.deleted_at
`

func scanUserPrivacy(scanner rowScanner) (*model.UserPrivacySetting, error) {
	privacy := &model.UserPrivacySetting{}
	err := scanner.Scan(
		&privacy.ID, &privacy.UserID,
		&privacy.LastName, &privacy.PhoneNumber,
		&privacy.Location, &privacy.IsPublic,
		&privacy.PublicMessages,
		&privacy.CreatedBy, &privacy.UpdatedBy, &privacy.DeletedBy,
		&privacy.CreatedAt, &privacy.UpdatedAt, &privacy.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return privacy, nil
}

// GetUserPrivacy fetches the privacy setting of a visible user.
func (s *Store) GetUserPrivacy(ctx context.Context, idc *identity.Context, userID int64) (*model.UserPrivacySetting, error) {
	pred, err := scope.UserPrivacySetting(ctx, idc, 1)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(
		"SELECT %s FROM user_privacy_settings WHERE %s AND user_privacy_settings.user_id = $%d",
		userPrivacyColumns, pred.SQL, pred.Next(),
	)
	args := append(pred.Args, userID)
	privacy, err := scanUserPrivacy(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("user privacy setting")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user privacy setting: %w", err)
	}
	return privacy, nil
}

// CreateUserPrivacy inserts a privacy row; omitted flags default to false.
func (s *Store) CreateUserPrivacy(ctx context.Context, idc *identity.Context, userID int64, req *model.UpsertUserPrivacyRequest) (*model.UserPrivacySetting, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO user_privacy_settings (user_id, last_name, phone_number, location, is_public, public_messages, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING `+userPrivacyColumns,
		userID,
		boolOr(req.LastName, false), boolOr(req.PhoneNumber, false),
		boolOr(req.Location, false), boolOr(req.IsPublic, false),
		boolOr(req.PublicMessages, false),
		idc.ActorID(),
	)
	privacy, err := scanUserPrivacy(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errs.Conflict("user_id", "user already has a privacy setting")
		}
		return nil, fmt.Errorf("failed to create user privacy setting: %w", err)
	}
	return privacy, nil
}

// UpdateUserPrivacy applies the non-nil flags of req.
func (s *Store) UpdateUserPrivacy(ctx context.Context, idc *identity.Context, id int64, req *model.UpsertUserPrivacyRequest) (*model.UserPrivacySetting, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE user_privacy_settings
		SET last_name = COALESCE($1, last_name),
		    phone_number = COALESCE($2, phone_number),
		    location = COALESCE($3, location),
		    is_public = COALESCE($4, is_public),
		    public_messages = COALESCE($5, public_messages),
		    updated_by = $6, updated_at = NOW()
		WHERE id = $7 AND deleted_at IS NULL
		RETURNING `+userPrivacyColumns,
		req.LastName, req.PhoneNumber, req.Location, req.IsPublic, req.PublicMessages,
		idc.ActorID(), id,
	)
	privacy, err := scanUserPrivacy(row)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("user privacy setting")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user privacy setting: %w", err)
	}
	return privacy, nil
}

// DeleteUserPrivacy soft-deletes a privacy row; the user reverts to the
// all-false default.
func (s *Store) DeleteUserPrivacy(ctx context.Context, idc *identity.Context, id int64) error {
	return s.softDelete(ctx, s.db, "user_privacy_settings", "user privacy setting", id, idc.ActorID())
}

func stringOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
