package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/openhearth/hearth/pkg/errs"
)

// InsertAuthToken records an issued session token by its hash. The plaintext
// token never touches the database.
func (s *Store) InsertAuthToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auth_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`, userID, tokenHash, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to insert auth token: %w", err)
	}
	return nil
}

// AuthTokenUserID resolves a token hash to its user if the token is live.
func (s *Store) AuthTokenUserID(ctx context.Context, tokenHash string) (int64, error) {
	var userID int64
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id FROM auth_tokens
		WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > NOW()
	`, tokenHash).Scan(&userID)
	if err == sql.ErrNoRows {
		return 0, errs.NotFound("auth token")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve auth token: %w", err)
	}
	return userID, nil
}

// RevokeAuthToken invalidates a single token (logout).
func (s *Store) RevokeAuthToken(ctx context.Context, tokenHash string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE auth_tokens SET revoked_at = NOW()
		WHERE token_hash = $1 AND revoked_at IS NULL
	`, tokenHash)
	if err != nil {
		return fmt.Errorf("failed to revoke auth token: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return errs.NotFound("auth token")
	}
	return nil
}

// RevokeUserTokens invalidates every live token of a user.
func (s *Store) RevokeUserTokens(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE auth_tokens SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	return nil
}

// PurgeExpiredTokens removes long-expired token rows. Token rows carry no
// audit value once expired, so this is the one place rows are physically
// deleted.
func (s *Store) PurgeExpiredTokens(ctx context.Context, olderThan time.Duration) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM auth_tokens WHERE expires_at < NOW() - $1::interval
	`, fmt.Sprintf("%d seconds", int64(olderThan.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired tokens: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected, nil
}
