package policy

import (
	"context"

	"github.com/openhearth/hearth/pkg/errs"
	"github.com/openhearth/hearth/pkg/identity"
	"github.com/openhearth/hearth/pkg/model"
)

// ViewUserRecords gates listing a user's satellite records by visibility.
func (e *Engine) ViewUserRecords(ctx context.Context, idc *identity.Context, userID int64) error {
	visible, err := idc.CanSeeUser(ctx, userID)
	if err != nil {
		return err
	}
	if !visible {
		return errs.NotFound("user")
	}
	return nil
}

// ViewUserProfile verifies the route parent chain.
func (e *Engine) ViewUserProfile(user *model.User, profile *model.UserProfile) error {
	if profile.UserID != user.ID {
		return errs.NotFound("user profile")
	}
	return nil
}

// CreateUserProfile allows users to recreate only their own profile.
// Profiles are created automatically at registration; this covers the case
// where one was deleted.
func (e *Engine) CreateUserProfile(idc *identity.Context, userID int64) error {
	return e.requireSelf(idc, userID, "profile")
}

// UpdateUserProfile allows users to edit only their own profile.
func (e *Engine) UpdateUserProfile(idc *identity.Context, userID int64, profile *model.UserProfile) error {
	if profile.UserID != userID {
		return errs.NotFound("user profile")
	}
	return e.requireSelf(idc, profile.UserID, "profile")
}

// DeleteUserProfile allows users to delete only their own profile.
func (e *Engine) DeleteUserProfile(idc *identity.Context, userID int64, profile *model.UserProfile) error {
	if profile.UserID != userID {
		return errs.NotFound("user profile")
	}
	return e.requireSelf(idc, profile.UserID, "profile")
}

// CreateUserSetting allows users to create only their own settings.
func (e *Engine) CreateUserSetting(idc *identity.Context, userID int64) error {
	return e.requireSelf(idc, userID, "settings")
}

// UpdateUserSetting allows users to edit only their own settings.
func (e *Engine) UpdateUserSetting(idc *identity.Context, userID int64, setting *model.UserSetting) error {
	if setting.UserID != userID {
		return errs.NotFound("user setting")
	}
	return e.requireSelf(idc, setting.UserID, "settings")
}

// DeleteUserSetting allows users to delete only their own settings.
func (e *Engine) DeleteUserSetting(idc *identity.Context, userID int64, setting *model.UserSetting) error {
	if setting.UserID != userID {
		return errs.NotFound("user setting")
	}
	return e.requireSelf(idc, setting.UserID, "settings")
}

// RestoreUserSetting allows users to restore their own deleted settings. The
// only restore any rule permits.
func (e *Engine) RestoreUserSetting(idc *identity.Context, userID int64, setting *model.UserSetting) error {
	if setting.UserID != userID {
		return errs.NotFound("user setting")
	}
	return e.requireSelf(idc, setting.UserID, "settings")
}

// CreateUserPrivacy allows users to create their own privacy setting once.
func (e *Engine) CreateUserPrivacy(ctx context.Context, idc *identity.Context, userID int64) error {
	if err := e.requireSelf(idc, userID, "privacy settings"); err != nil {
		return err
	}
	exists, err := e.store.UserPrivacyExists(ctx, userID)
	if err != nil {
		return err
	}
	if exists {
		return errs.Conflict("user_id", "user already has a privacy setting")
	}
	return nil
}

// UpdateUserPrivacy allows users to edit only their own privacy setting.
func (e *Engine) UpdateUserPrivacy(idc *identity.Context, userID int64, privacy *model.UserPrivacySetting) error {
	if privacy.UserID != userID {
		return errs.NotFound("user privacy setting")
	}
	return e.requireSelf(idc, privacy.UserID, "privacy settings")
}

// DeleteUserPrivacy allows users to delete only their own privacy setting.
func (e *Engine) DeleteUserPrivacy(idc *identity.Context, userID int64, privacy *model.UserPrivacySetting) error {
	if privacy.UserID != userID {
		return errs.NotFound("user privacy setting")
	}
	return e.requireSelf(idc, privacy.UserID, "privacy settings")
}

func (e *Engine) requireSelf(idc *identity.Context, userID int64, what string) error {
	if err := requireAuth(idc); err != nil {
		return err
	}
	if idc.ActorID() != userID {
		return errs.Forbidden("users may only manage their own %s", what)
	}
	return nil
}
