package model

import (
	"strings"

	"github.com/openhearth/hearth/pkg/errs"
	"github.com/openhearth/hearth/pkg/roles"
)

// CreateSpaceRequest is the body for creating a space.
type CreateSpaceRequest struct {
	Name        string   `json:"name"`
	Bio         *string  `json:"bio,omitempty"`
	Website     *string  `json:"website,omitempty"`
	PhoneNumber *string  `json:"phone_number,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Address     *string  `json:"address,omitempty"`
	Privacy     Privacy  `json:"privacy"`
}

// Validate checks required fields and enum membership.
func (r *CreateSpaceRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errs.Validation("name", "name is required")
	}
	if !r.Privacy.Valid() {
		return errs.Validation("privacy", "privacy must be one of private, protected, public")
	}
	return nil
}

// UpdateSpaceRequest is the body for updating a space. Nil fields are left
// unchanged.
type UpdateSpaceRequest struct {
	Name        *string  `json:"name,omitempty"`
	Bio         *string  `json:"bio,omitempty"`
	Website     *string  `json:"website,omitempty"`
	PhoneNumber *string  `json:"phone_number,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Address     *string  `json:"address,omitempty"`
	Privacy     *Privacy `json:"privacy,omitempty"`
}

// Validate checks enum membership of supplied fields.
func (r *UpdateSpaceRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return errs.Validation("name", "name must not be empty")
	}
	if r.Privacy != nil && !r.Privacy.Valid() {
		return errs.Validation("privacy", "privacy must be one of private, protected, public")
	}
	return nil
}

// CreateChannelRequest is the body for creating a channel inside a space.
type CreateChannelRequest struct {
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Privacy     Privacy  `json:"privacy"`
}

// Validate checks required fields and enum membership.
func (r *CreateChannelRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errs.Validation("name", "name is required")
	}
	if !r.Privacy.Valid() {
		return errs.Validation("privacy", "privacy must be one of private, protected, public")
	}
	return nil
}

// UpdateChannelRequest is the body for updating a channel.
type UpdateChannelRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Privacy     *Privacy `json:"privacy,omitempty"`
}

// Validate checks enum membership of supplied fields.
func (r *UpdateChannelRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return errs.Validation("name", "name must not be empty")
	}
	if r.Privacy != nil && !r.Privacy.Valid() {
		return errs.Validation("privacy", "privacy must be one of private, protected, public")
	}
	return nil
}

// CreateSpaceMemberRequest adds a user to a space.
type CreateSpaceMemberRequest struct {
	UserID          int64   `json:"user_id"`
	Title           *string `json:"title,omitempty"`
	PhoneNumber     *string `json:"phone_number,omitempty"`
	SpaceVisibility *bool   `json:"space_visibility,omitempty"`
}

// Validate checks required fields.
func (r *CreateSpaceMemberRequest) Validate() error {
	if r.UserID <= 0 {
		return errs.Validation("user_id", "user_id is required")
	}
	return nil
}

// UpdateSpaceMemberRequest updates a member's own profile fields. Role
// changes go through the member-role endpoints.
type UpdateSpaceMemberRequest struct {
	Title           *string `json:"title,omitempty"`
	PhoneNumber     *string `json:"phone_number,omitempty"`
	SpaceVisibility *bool   `json:"space_visibility,omitempty"`
}

// RoleRequest carries the role being assigned to a membership.
type RoleRequest struct {
	Role string `json:"role"`
}

// ParseRole validates the embedded role against the ladder.
func (r *RoleRequest) ParseRole() (roles.Role, error) {
	parsed, err := roles.Parse(r.Role)
	if err != nil {
		return "", errs.Validation("role", "role must be one of owner, admin, moderator, member")
	}
	return parsed, nil
}

// CreateChannelMemberRequest adds a user to a channel with a role.
type CreateChannelMemberRequest struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

// Validate checks required fields and the role enum.
func (r *CreateChannelMemberRequest) Validate() (roles.Role, error) {
	if r.UserID <= 0 {
		return "", errs.Validation("user_id", "user_id is required")
	}
	parsed, err := roles.Parse(r.Role)
	if err != nil {
		return "", errs.Validation("role", "role must be one of owner, admin, moderator, member")
	}
	return parsed, nil
}

// UpdateUserProfileRequest updates a user's profile.
type UpdateUserProfileRequest struct {
	FirstName   *string  `json:"first_name,omitempty"`
	LastName    *string  `json:"last_name,omitempty"`
	PhoneNumber *string  `json:"phone_number,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Address     *string  `json:"address,omitempty"`
	Bio         *string  `json:"bio,omitempty"`
}

// UpsertUserSettingRequest creates or updates a user's locale settings.
type UpsertUserSettingRequest struct {
	Language          *string `json:"language,omitempty"`
	PreferredLanguage *string `json:"preferred_language,omitempty"`
	Timezone          *string `json:"timezone,omitempty"`
}

// UpsertUserPrivacyRequest creates or updates a user privacy setting.
type UpsertUserPrivacyRequest struct {
	LastName       *bool `json:"last_name,omitempty"`
	PhoneNumber    *bool `json:"phone_number,omitempty"`
	Location       *bool `json:"location,omitempty"`
	IsPublic       *bool `json:"is_public,omitempty"`
	PublicMessages *bool `json:"public_messages,omitempty"`
}

// UpsertSpacePrivacyRequest creates or updates a space privacy setting.
type UpsertSpacePrivacyRequest struct {
	PhoneNumber *bool `json:"phone_number,omitempty"`
	Location    *bool `json:"location,omitempty"`
}
