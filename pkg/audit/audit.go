// Package audit records security-relevant events (logins, denials, deletes,
// ownership transfers) to the audit_events table. Recording is best-effort:
// an audit failure is logged but never fails the request that produced it.
package audit

import (
	"context"
	"database/sql"
	"time"

	"github.com/openhearth/hearth/pkg/observability"
)

// Event statuses.
const (
	StatusAllowed = "allowed"
	StatusDenied  = "denied"
	StatusError   = "error"
)

// Event types.
const (
	EventLogin             = "auth.login"
	EventLogout            = "auth.logout"
	EventRegister          = "auth.register"
	EventPolicyDenied      = "policy.denied"
	EventEntityDeleted     = "entity.deleted"
	EventOwnershipTransfer = "ownership.transferred"
)

// Event is one recorded audit entry.
type Event struct {
	ID           int64     `json:"id"`
	EventType    string    `json:"event_type"`
	UserID       *int64    `json:"user_id,omitempty"`
	ResourceType string    `json:"resource_type,omitempty"`
	ResourceID   string    `json:"resource_id,omitempty"`
	Status       string    `json:"status"`
	Detail       string    `json:"detail,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Recorder writes audit events to the database.
type Recorder struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewRecorder creates a Recorder.
func NewRecorder(db *sql.DB, logger *observability.Logger) *Recorder {
	return &Recorder{db: db, logger: logger}
}

// Record persists one event. Failures are swallowed after logging.
func (r *Recorder) Record(ctx context.Context, event Event) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_events (event_type, user_id, resource_type, resource_id, status, detail)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, event.EventType, event.UserID, event.ResourceType, event.ResourceID, event.Status, event.Detail)
	if err != nil && r.logger != nil {
		r.logger.WithError(err).WithField("event_type", event.EventType).Warn("failed to record audit event")
	}
}

// RecentByUser returns a user's most recent events, newest first.
func (r *Recorder) RecentByUser(ctx context.Context, userID int64, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_type, user_id, resource_type, resource_id, status, detail, created_at
		FROM audit_events
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		if err := rows.Scan(
			&event.ID, &event.EventType, &event.UserID,
			&event.ResourceType, &event.ResourceID,
			&event.Status, &event.Detail, &event.CreatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
