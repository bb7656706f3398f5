package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration is a versioned schema change.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations returns the full schema, oldest first.
func Migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users and satellite tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id BIGSERIAL PRIMARY KEY,
					email VARCHAR(255) NOT NULL,
					password_hash VARCHAR(255) NOT NULL,
					email_verified_at TIMESTAMP,
					created_by BIGINT NOT NULL DEFAULT 0,
					updated_by BIGINT NOT NULL DEFAULT 0,
					deleted_by BIGINT,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
					deleted_at TIMESTAMP,
					UNIQUE NULLS NOT DISTINCT (email, deleted_at)
				);

				CREATE TABLE IF NOT EXISTS user_profiles (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT NOT NULL REFERENCES users(id),
					first_name VARCHAR(255) NOT NULL DEFAULT '',
					last_name VARCHAR(255) NOT NULL DEFAULT '',
					phone_number VARCHAR(20),
					latitude DECIMAL(10,8),
					longitude DECIMAL(11,8),
					address VARCHAR(255),
					bio TEXT,
					created_by BIGINT NOT NULL DEFAULT 0,
					updated_by BIGINT NOT NULL DEFAULT 0,
					deleted_by BIGINT,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
					deleted_at TIMESTAMP,
					UNIQUE NULLS NOT DISTINCT (user_id, deleted_at)
				);

				CREATE TABLE IF NOT EXISTS user_settings (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT NOT NULL REFERENCES users(id),
					language VARCHAR(10) NOT NULL DEFAULT 'en',
					preferred_language VARCHAR(10) NOT NULL DEFAULT 'en',
					timezone VARCHAR(64) NOT NULL DEFAULT 'America/Chicago',
					created_by BIGINT NOT NULL DEFAULT 0,
					updated_by BIGINT NOT NULL DEFAULT 0,
					deleted_by BIGINT,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
					deleted_at TIMESTAMP,
					UNIQUE NULLS NOT DISTINCT (user_id, deleted_at)
				);

				CREATE TABLE IF NOT EXISTS user_privacy_settings (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT NOT NULL REFERENCES users(id),
					last_name BOOLEAN NOT NULL DEFAULT FALSE,
					phone_number BOOLEAN NOT NULL DEFAULT FALSE,
					location BOOLEAN NOT NULL DEFAULT FALSE,
					is_public BOOLEAN NOT NULL DEFAULT FALSE,
					public_messages BOOLEAN NOT NULL DEFAULT FALSE,
					created_by BIGINT NOT NULL DEFAULT 0,
					updated_by BIGINT NOT NULL DEFAULT 0,
					deleted_by BIGINT,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
					deleted_at TIMESTAMP,
					UNIQUE NULLS NOT DISTINCT (user_id, deleted_at)
				);

				CREATE INDEX idx_user_privacy_settings_is_public ON user_privacy_settings(is_public) WHERE deleted_at IS NULL;
			`,
		},
		{
			Version:     2,
			Description: "Create spaces, members and roles",
			SQL: `
				CREATE TABLE IF NOT EXISTS spaces (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					bio TEXT,
					website VARCHAR(255),
					phone_number VARCHAR(20),
					latitude DECIMAL(10,8),
					longitude DECIMAL(11,8),
					address VARCHAR(255),
					privacy VARCHAR(16) NOT NULL CHECK (privacy IN ('private', 'protected', 'public')),
					owner_id BIGINT NOT NULL REFERENCES users(id),
					created_by BIGINT NOT NULL DEFAULT 0,
					updated_by BIGINT NOT NULL DEFAULT 0,
					deleted_by BIGINT,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
					deleted_at TIMESTAMP
				);

				CREATE INDEX idx_spaces_privacy ON spaces(privacy) WHERE deleted_at IS NULL;
				CREATE INDEX idx_spaces_owner_id ON spaces(owner_id);

				CREATE TABLE IF NOT EXISTS space_members (
					id BIGSERIAL PRIMARY KEY,
					space_id BIGINT NOT NULL REFERENCES spaces(id),
					user_id BIGINT NOT NULL REFERENCES users(id),
					title VARCHAR(255),
					phone_number VARCHAR(20),
					space_visibility BOOLEAN NOT NULL DEFAULT TRUE,
					created_by BIGINT NOT NULL DEFAULT 0,
					updated_by BIGINT NOT NULL DEFAULT 0,
					deleted_by BIGINT,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
					deleted_at TIMESTAMP,
					UNIQUE NULLS NOT DISTINCT (space_id, user_id, deleted_at)
				);

				CREATE INDEX idx_space_members_user_id ON space_members(user_id) WHERE deleted_at IS NULL;
				CREATE INDEX idx_space_members_space_id ON space_members(space_id) WHERE deleted_at IS NULL;

				CREATE TABLE IF NOT EXISTS space_member_roles (
					id BIGSERIAL PRIMARY KEY,
					space_id BIGINT NOT NULL REFERENCES spaces(id),
					user_id BIGINT NOT NULL REFERENCES users(id),
					member_id BIGINT NOT NULL REFERENCES space_members(id),
					role VARCHAR(16) NOT NULL DEFAULT 'member' CHECK (role IN ('owner', 'admin', 'moderator', 'member')),
					created_by BIGINT NOT NULL DEFAULT 0,
					updated_by BIGINT NOT NULL DEFAULT 0,
					deleted_by BIGINT,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
					deleted_at TIMESTAMP,
					UNIQUE NULLS NOT DISTINCT (member_id, deleted_at)
				);

				CREATE INDEX idx_space_member_roles_space_id ON space_member_roles(space_id) WHERE deleted_at IS NULL;

				CREATE TABLE IF NOT EXISTS space_privacy_settings (
					id BIGSERIAL PRIMARY KEY,
					space_id BIGINT NOT NULL REFERENCES spaces(id),
					phone_number BOOLEAN NOT NULL DEFAULT FALSE,
					location BOOLEAN NOT NULL DEFAULT FALSE,
					created_by BIGINT NOT NULL DEFAULT 0,
					updated_by BIGINT NOT NULL DEFAULT 0,
					deleted_by BIGINT,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
					deleted_at TIMESTAMP,
					UNIQUE NULLS NOT DISTINCT (space_id, deleted_at)
				);
			`,
		},
		{
			Version:     3,
			Description: "Create channels and channel members",
			SQL: `
				CREATE TABLE IF NOT EXISTS channels (
					id BIGSERIAL PRIMARY KEY,
					space_id BIGINT NOT NULL REFERENCES spaces(id),
					name VARCHAR(255) NOT NULL,
					description TEXT,
					latitude DECIMAL(10,8),
					longitude DECIMAL(11,8),
					privacy VARCHAR(16) NOT NULL CHECK (privacy IN ('private', 'protected', 'public')),
					owner_id BIGINT NOT NULL REFERENCES users(id),
					created_by BIGINT NOT NULL DEFAULT 0,
					updated_by BIGINT NOT NULL DEFAULT 0,
					deleted_by BIGINT,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
					deleted_at TIMESTAMP
				);

				CREATE INDEX idx_channels_space_id ON channels(space_id) WHERE deleted_at IS NULL;

				CREATE TABLE IF NOT EXISTS channel_members (
					id BIGSERIAL PRIMARY KEY,
					channel_id BIGINT NOT NULL REFERENCES channels(id),
					user_id BIGINT NOT NULL REFERENCES users(id),
					role VARCHAR(16) NOT NULL DEFAULT 'member' CHECK (role IN ('owner', 'admin', 'moderator', 'member')),
					created_by BIGINT NOT NULL DEFAULT 0,
					updated_by BIGINT NOT NULL DEFAULT 0,
					deleted_by BIGINT,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
					deleted_at TIMESTAMP,
					UNIQUE NULLS NOT DISTINCT (channel_id, user_id, deleted_at)
				);

				CREATE INDEX idx_channel_members_user_id ON channel_members(user_id) WHERE deleted_at IS NULL;
			`,
		},
		{
			Version:     4,
			Description: "Create files and attachments",
			SQL: `
				CREATE TABLE IF NOT EXISTS files (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					path VARCHAR(512) NOT NULL,
					mime_type VARCHAR(128) NOT NULL,
					size BIGINT NOT NULL DEFAULT 0,
					created_by BIGINT NOT NULL DEFAULT 0,
					updated_by BIGINT NOT NULL DEFAULT 0,
					deleted_by BIGINT,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
					deleted_at TIMESTAMP
				);

				CREATE TABLE IF NOT EXISTS attachments (
					id BIGSERIAL PRIMARY KEY,
					kind VARCHAR(16) NOT NULL CHECK (kind IN ('avatar', 'banner')),
					container_type VARCHAR(32) NOT NULL CHECK (container_type IN ('user_profile', 'space')),
					container_id BIGINT NOT NULL,
					display_state VARCHAR(32) NOT NULL DEFAULT 'normal',
					file_id BIGINT REFERENCES files(id),
					created_by BIGINT NOT NULL DEFAULT 0,
					updated_by BIGINT NOT NULL DEFAULT 0,
					deleted_by BIGINT,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
					deleted_at TIMESTAMP,
					UNIQUE NULLS NOT DISTINCT (kind, container_type, container_id, display_state, deleted_at)
				);

				CREATE INDEX idx_attachments_container ON attachments(container_type, container_id) WHERE deleted_at IS NULL;
			`,
		},
		{
			Version:     5,
			Description: "Create auth tokens",
			SQL: `
				CREATE TABLE IF NOT EXISTS auth_tokens (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT NOT NULL REFERENCES users(id),
					token_hash VARCHAR(64) NOT NULL UNIQUE,
					expires_at TIMESTAMP NOT NULL,
					revoked_at TIMESTAMP,
					created_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_auth_tokens_user_id ON auth_tokens(user_id);
				CREATE INDEX idx_auth_tokens_expires_at ON auth_tokens(expires_at);
			`,
		},
		{
			Version:     6,
			Description: "Create audit events",
			SQL: `
				CREATE TABLE IF NOT EXISTS audit_events (
					id BIGSERIAL PRIMARY KEY,
					event_type VARCHAR(64) NOT NULL,
					user_id BIGINT,
					resource_type VARCHAR(64) NOT NULL DEFAULT '',
					resource_id VARCHAR(64) NOT NULL DEFAULT '',
					status VARCHAR(16) NOT NULL,
					detail TEXT NOT NULL DEFAULT '',
					created_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_audit_events_event_type ON audit_events(event_type);
				CREATE INDEX idx_audit_events_user_id ON audit_events(user_id);
			`,
		},
	}
}

// RunMigrations applies all pending migrations, tracking them in the
// schema_migrations table.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}
	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	rows.Close()

	for _, migration := range Migrations() {
		if applied[migration.Version] {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}
		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
