// Package auth implements account registration, credential verification and
// session token issuance.
//
// Issued tokens are signed JWTs that are additionally recorded server-side by
// SHA256 hash, so a token is only accepted while its record is live. Logout
// and bulk revocation work by marking records revoked.
package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/openhearth/hearth/pkg/errs"
	"github.com/openhearth/hearth/pkg/model"
)

// DefaultTokenTTL is how long issued tokens stay valid.
const DefaultTokenTTL = 24 * time.Hour

// Store is the persistence surface the auth service needs.
type Store interface {
	CreateUser(ctx context.Context, email, passwordHash, firstName, lastName string) (*model.User, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UserByID(ctx context.Context, id int64) (*model.User, error)
	InsertAuthToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error
	AuthTokenUserID(ctx context.Context, tokenHash string) (int64, error)
	RevokeAuthToken(ctx context.Context, tokenHash string) error
	RevokeUserTokens(ctx context.Context, userID int64) error
	PurgeExpiredTokens(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Service issues and validates session tokens.
type Service struct {
	store  Store
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService creates a Service. A zero ttl falls back to DefaultTokenTTL.
func NewService(store Store, secret []byte, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{store: store, secret: secret, ttl: ttl, now: time.Now}
}

// RegisterRequest is the body for account registration.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Validate checks required fields.
func (r *RegisterRequest) Validate() error {
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errs.Validation("email", "a valid email address is required")
	}
	if len(r.Password) < 8 {
		return errs.Validation("password", "password must be at least 8 characters")
	}
	if strings.TrimSpace(r.FirstName) == "" {
		return errs.Validation("first_name", "first_name is required")
	}
	if strings.TrimSpace(r.LastName) == "" {
		return errs.Validation("last_name", "last_name is required")
	}
	return nil
}

// LoginRequest is the body for credential login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.store.CreateUser(ctx, strings.ToLower(req.Email), string(hash), req.FirstName, req.LastName)
}

// Login verifies credentials and issues a session token. Bad email and bad
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (string, *model.User, error) {
	user, err := s.store.UserByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		if errs.IsNotFound(err) {
			return "", nil, errs.Forbidden("invalid credentials")
		}
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return "", nil, errs.Forbidden("invalid credentials")
	}

	token, expiresAt, err := signToken(s.secret, user.ID, s.ttl, s.now())
	if err != nil {
		return "", nil, err
	}
	if err := s.store.InsertAuthToken(ctx, user.ID, HashToken(token), expiresAt); err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Authenticate resolves a bearer token to its user. The signature check and
// the server-side record must both pass.
func (s *Service) Authenticate(ctx context.Context, token string) (*model.User, error) {
	userID, err := parseToken(s.secret, token)
	if err != nil {
		return nil, errs.Forbidden("invalid token")
	}
	recordedID, err := s.store.AuthTokenUserID(ctx, HashToken(token))
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, errs.Forbidden("token revoked or expired")
		}
		return nil, err
	}
	if recordedID != userID {
		return nil, errs.Forbidden("invalid token")
	}
	return s.store.UserByID(ctx, userID)
}

// Logout revokes the given token.
func (s *Service) Logout(ctx context.Context, token string) error {
	err := s.store.RevokeAuthToken(ctx, HashToken(token))
	if errs.IsNotFound(err) {
		return nil
	}
	return err
}

// RevokeAll revokes every live token of a user.
func (s *Service) RevokeAll(ctx context.Context, userID int64) error {
	return s.store.RevokeUserTokens(ctx, userID)
}

// PurgeExpired removes token records expired for longer than olderThan. Wired
// to the maintenance scheduler.
func (s *Service) PurgeExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.store.PurgeExpiredTokens(ctx, olderThan)
}
