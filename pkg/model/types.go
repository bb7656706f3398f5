// Package model defines the persisted entities of the social-workspace
// domain: users and their satellite records, spaces, channels, memberships,
// privacy settings and attachments.
package model

import (
	"time"

	"github.com/openhearth/hearth/pkg/roles"
)

// SystemActorID is stamped into audit columns when a mutation happens without
// an authenticated actor (seeding, maintenance jobs).
const SystemActorID int64 = 0

// Privacy controls who can discover a space or channel.
type Privacy string

const (
	PrivacyPrivate   Privacy = "private"
	PrivacyProtected Privacy = "protected"
	PrivacyPublic    Privacy = "public"
)

// Valid reports whether p is a known privacy level.
func (p Privacy) Valid() bool {
	switch p {
	case PrivacyPrivate, PrivacyProtected, PrivacyPublic:
		return true
	}
	return false
}

// Meta carries the audit and soft-delete columns present on every
// soft-deletable row. CreatedBy/UpdatedBy hold SystemActorID when the
// mutation had no acting identity.
type Meta struct {
	CreatedBy int64      `json:"created_by"`
	UpdatedBy int64      `json:"updated_by"`
	DeletedBy *int64     `json:"deleted_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// User is an account that can authenticate and join spaces.
type User struct {
	ID              int64      `json:"id"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	Meta
}

// UserProfile is the public-facing profile owned by a user.
type UserProfile struct {
	ID          int64    `json:"id"`
	UserID      int64    `json:"user_id"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	PhoneNumber *string  `json:"phone_number,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Address     *string  `json:"address,omitempty"`
	Bio         *string  `json:"bio,omitempty"`
	Meta
}

// UserSetting stores a user's locale preferences.
type UserSetting struct {
	ID                int64  `json:"id"`
	UserID            int64  `json:"user_id"`
	Language          string `json:"language"`
	PreferredLanguage string `json:"preferred_language"`
	Timezone          string `json:"timezone"`
	Meta
}

// UserPrivacySetting gates which profile fields are exposed to non-members.
// A user without a row behaves as all-false.
type UserPrivacySetting struct {
	ID             int64 `json:"id"`
	UserID         int64 `json:"user_id"`
	LastName       bool  `json:"last_name"`
	PhoneNumber    bool  `json:"phone_number"`
	Location       bool  `json:"location"`
	IsPublic       bool  `json:"is_public"`
	PublicMessages bool  `json:"public_messages"`
	Meta
}

// Space is the top-level tenant container.
type Space struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Bio         *string  `json:"bio,omitempty"`
	Website     *string  `json:"website,omitempty"`
	PhoneNumber *string  `json:"phone_number,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Address     *string  `json:"address,omitempty"`
	Privacy     Privacy  `json:"privacy"`
	OwnerID     int64    `json:"owner_id"`
	Meta
}

// SpacePrivacySetting gates which space fields are exposed to non-members.
type SpacePrivacySetting struct {
	ID          int64 `json:"id"`
	SpaceID     int64 `json:"space_id"`
	PhoneNumber bool  `json:"phone_number"`
	Location    bool  `json:"location"`
	Meta
}

// SpaceMember links a user to a space. The member's role lives in a separate
// space_member_roles row; Role is hydrated by the store and defaults to
// 'member' when no role row exists.
type SpaceMember struct {
	ID              int64      `json:"id"`
	SpaceID         int64      `json:"space_id"`
	UserID          int64      `json:"user_id"`
	Title           *string    `json:"title,omitempty"`
	PhoneNumber     *string    `json:"phone_number,omitempty"`
	SpaceVisibility bool       `json:"space_visibility"`
	Role            roles.Role `json:"role"`
	RoleID          *int64     `json:"role_id,omitempty"`
	Meta
}

// SpaceMemberRole is the role row attached to a space member. At most one
// active row exists per member.
type SpaceMemberRole struct {
	ID       int64      `json:"id"`
	SpaceID  int64      `json:"space_id"`
	UserID   int64      `json:"user_id"`
	MemberID int64      `json:"member_id"`
	Role     roles.Role `json:"role"`
	Meta
}

// Channel is a sub-group within a space.
type Channel struct {
	ID          int64    `json:"id"`
	SpaceID     int64    `json:"space_id"`
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Privacy     Privacy  `json:"privacy"`
	OwnerID     int64    `json:"owner_id"`
	Meta
}

// ChannelMember links a user to a channel. Unlike space members the role is
// stored inline on the membership row.
type ChannelMember struct {
	ID        int64      `json:"id"`
	ChannelID int64      `json:"channel_id"`
	UserID    int64      `json:"user_id"`
	Role      roles.Role `json:"role"`
	Meta
}

// AttachmentKind distinguishes avatars from banners.
type AttachmentKind string

const (
	AttachmentAvatar AttachmentKind = "avatar"
	AttachmentBanner AttachmentKind = "banner"
)

// ContainerType is the closed set of entities an attachment can belong to.
type ContainerType string

const (
	ContainerUserProfile ContainerType = "user_profile"
	ContainerSpace       ContainerType = "space"
)

// Attachment binds an uploaded file to a container (a user profile or a
// space) as an avatar or banner in a given display state.
type Attachment struct {
	ID            int64          `json:"id"`
	Kind          AttachmentKind `json:"kind"`
	ContainerType ContainerType  `json:"container_type"`
	ContainerID   int64          `json:"container_id"`
	DisplayState  string         `json:"display_state"`
	FileID        *int64         `json:"file_id,omitempty"`
	File          *File          `json:"file,omitempty"`
	Meta
}

// File is a stored binary blob backing an attachment.
type File struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
	Meta
}
