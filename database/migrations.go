package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// migrations are applied in order; index i migrates the schema to version i+1.
var migrations = []func(ctx context.Context, tx *sqlx.Tx) error{
	migrateToV1,
	migrateToV2,
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS schema_version (
            version INTEGER PRIMARY KEY
        )`); err != nil {
		return fmt.Errorf("ensure schema_version table: %w", err)
	}

	var version int
	err := s.db.GetContext(ctx, &version, `SELECT version FROM schema_version`)
	if errors.Is(err, sql.ErrNoRows) {
		// No version found, assume fresh install
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return fmt.Errorf("initialise schema_version: %w", err)
		}
		version = 0
	} else if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i, migration := range migrations {
		target := i + 1
		if target <= version {
			continue
		}

		slog.Info("running migration", "version", target)
		err := s.inTx(ctx, func(tx *sqlx.Tx) error {
			if err := migration(ctx, tx); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, `UPDATE schema_version SET version = ?`, target)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration to version %d failed: %w", target, err)
		}
	}

	return nil
}

func migrateToV1(ctx context.Context, tx *sqlx.Tx) error {
	statements := []string{
		`CREATE TABLE guilds (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL DEFAULT '',
            active BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME NOT NULL
        )`,
		`CREATE TABLE guild_settings (
            guild_id TEXT NOT NULL REFERENCES guilds (id) ON DELETE CASCADE,
            name TEXT NOT NULL,
            value TEXT NOT NULL,
            UNIQUE (guild_id, name)
        )`,
		`CREATE TABLE guild_roles (
            guild_id TEXT NOT NULL REFERENCES guilds (id) ON DELETE CASCADE,
            role_type TEXT NOT NULL,
            role_id TEXT NOT NULL,
            UNIQUE (guild_id, role_type, role_id)
        )`,
		`CREATE TABLE trust_levels (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            rank INTEGER NOT NULL UNIQUE,
            name TEXT NOT NULL,
            activity_threshold INTEGER NOT NULL DEFAULT 0,
            allowed_submissions INTEGER NOT NULL,
            time_period INTEGER NOT NULL
        )`,
		`INSERT INTO trust_levels (rank, name, activity_threshold, allowed_submissions, time_period)
            VALUES (0, 'newcomer', 0, 1, 86400)`,
		`CREATE TABLE users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            discord_id TEXT NOT NULL,
            guild_id TEXT NOT NULL REFERENCES guilds (id) ON DELETE CASCADE,
            trust_level_id INTEGER NOT NULL REFERENCES trust_levels (id),
            created_at DATETIME NOT NULL,
            UNIQUE (guild_id, discord_id)
        )`,
		`CREATE TABLE creators (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            platform TEXT NOT NULL,
            platform_id TEXT NOT NULL,
            name TEXT NOT NULL DEFAULT '',
            popularity INTEGER,
            created_at DATETIME NOT NULL,
            UNIQUE (platform, platform_id)
        )`,
		`CREATE TABLE user_creators (
            user_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
            creator_id INTEGER NOT NULL REFERENCES creators (id) ON DELETE CASCADE,
            PRIMARY KEY (user_id, creator_id)
        )`,
		`CREATE TABLE videos (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            platform TEXT NOT NULL,
            platform_id TEXT NOT NULL,
            url TEXT NOT NULL,
            title TEXT NOT NULL DEFAULT '',
            length_seconds INTEGER,
            nsfw BOOLEAN NOT NULL DEFAULT 0,
            creator_id INTEGER REFERENCES creators (id),
            created_at DATETIME NOT NULL,
            UNIQUE (platform, platform_id)
        )`,
		`CREATE TABLE video_submissions (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            guild_id TEXT NOT NULL REFERENCES guilds (id) ON DELETE CASCADE,
            user_id INTEGER NOT NULL REFERENCES users (id),
            video_id INTEGER NOT NULL REFERENCES videos (id),
            channel_id TEXT NOT NULL,
            message_id TEXT NOT NULL,
            upvotes INTEGER NOT NULL DEFAULT 0,
            downvotes INTEGER NOT NULL DEFAULT 0,
            reports INTEGER NOT NULL DEFAULT 0,
            active BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME NOT NULL
        )`,
		`CREATE INDEX idx_video_submissions_active ON video_submissions (guild_id, active)`,
		`CREATE INDEX idx_video_submissions_user ON video_submissions (user_id, created_at)`,
		`CREATE TABLE showcase_posts (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            submission_id INTEGER UNIQUE REFERENCES video_submissions (id) ON DELETE SET NULL,
            video_id INTEGER NOT NULL REFERENCES videos (id),
            guild_id TEXT NOT NULL REFERENCES guilds (id) ON DELETE CASCADE,
            user_id INTEGER REFERENCES users (id),
            channel_id TEXT NOT NULL,
            message_id TEXT NOT NULL,
            external_url TEXT NOT NULL DEFAULT '',
            external_submitter TEXT NOT NULL DEFAULT '',
            created_at DATETIME NOT NULL
        )`,
		`CREATE TABLE modifiers (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            target_type TEXT NOT NULL CHECK (target_type IN ('user', 'creator')),
            target_id INTEGER NOT NULL,
            flag TEXT NOT NULL CHECK (flag IN ('allow', 'deny')),
            reason TEXT NOT NULL DEFAULT '',
            expires_at DATETIME,
            created_by INTEGER REFERENCES users (id),
            created_at DATETIME NOT NULL
        )`,
		`CREATE INDEX idx_modifiers_target ON modifiers (target_type, target_id)`,
	}

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func migrateToV2(ctx context.Context, tx *sqlx.Tx) error {
	// Duplicate and showcase lookups filter by video first.
	statements := []string{
		`CREATE INDEX idx_video_submissions_video ON video_submissions (guild_id, video_id, created_at)`,
		`CREATE INDEX idx_showcase_posts_video ON showcase_posts (guild_id, video_id, created_at)`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
