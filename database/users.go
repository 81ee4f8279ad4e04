package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"showcase-bot/models"
)

const userColumns = `id, discord_id, guild_id, trust_level_id, created_at`

// SeedTrustLevels upserts the configured tiers keyed by rank.
func (s *Store) SeedTrustLevels(ctx context.Context, levels []models.TrustLevel) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, level := range levels {
			_, err := tx.ExecContext(ctx, `
                INSERT INTO trust_levels (rank, name, activity_threshold, allowed_submissions, time_period)
                VALUES (?, ?, ?, ?, ?)
                ON CONFLICT (rank) DO UPDATE SET
                    name = excluded.name,
                    activity_threshold = excluded.activity_threshold,
                    allowed_submissions = excluded.allowed_submissions,
                    time_period = excluded.time_period`,
				level.Rank, level.Name, level.ActivityThreshold, level.AllowedSubmissions, level.TimePeriodSeconds)
			if err != nil {
				return fmt.Errorf("upsert trust level %d: %w", level.Rank, err)
			}
		}
		return nil
	})
}

// TrustLevel returns a tier by id.
func (s *Store) TrustLevel(ctx context.Context, id int64) (models.TrustLevel, error) {
	var level models.TrustLevel
	err := s.db.GetContext(ctx, &level, `
        SELECT id, rank, name, activity_threshold, allowed_submissions, time_period
        FROM trust_levels WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TrustLevel{}, ErrNotFound
	}
	if err != nil {
		return models.TrustLevel{}, fmt.Errorf("select trust level %d: %w", id, err)
	}
	return level, nil
}

// EnsureUser gets or creates the user for a guild member in a single
// conditional insert. New users start on the lowest-ranked trust level.
func (s *Store) EnsureUser(ctx context.Context, guildID, discordID string, firstSeen time.Time) (models.User, error) {
	if firstSeen.IsZero() {
		firstSeen = s.timestamp()
	}

	var user models.User
	err := s.db.GetContext(ctx, &user, `
        INSERT INTO users (discord_id, guild_id, trust_level_id, created_at)
        VALUES (?, ?, (SELECT id FROM trust_levels ORDER BY rank ASC LIMIT 1), ?)
        ON CONFLICT (guild_id, discord_id) DO UPDATE SET discord_id = excluded.discord_id
        RETURNING `+userColumns,
		discordID, guildID, firstSeen.UTC())
	if err != nil {
		return models.User{}, fmt.Errorf("upsert user %s: %w", discordID, err)
	}
	return user, nil
}

// UserByID returns a user by primary key.
func (s *Store) UserByID(ctx context.Context, id int64) (models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("select user %d: %w", id, err)
	}
	return user, nil
}

// LinkCreator records that the user self-identifies as the creator.
func (s *Store) LinkCreator(ctx context.Context, userID, creatorID int64) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO user_creators (user_id, creator_id) VALUES (?, ?)`, userID, creatorID)
	if err != nil {
		return fmt.Errorf("link user %d to creator %d: %w", userID, creatorID, err)
	}
	return nil
}

// UserIsCreator reports whether the user is associated with the creator.
func (s *Store) UserIsCreator(ctx context.Context, userID, creatorID int64) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `
        SELECT COUNT(*) FROM user_creators WHERE user_id = ? AND creator_id = ?`, userID, creatorID)
	if err != nil {
		return false, fmt.Errorf("check user creator link: %w", err)
	}
	return n > 0, nil
}
