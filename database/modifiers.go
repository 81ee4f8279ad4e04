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

const modifierColumns = `id, target_type, target_id, flag, reason, expires_at, created_by, created_at`

// ActiveModifier returns the newest modifier on target that has not expired at now.
func (s *Store) ActiveModifier(ctx context.Context, target models.TargetRef, now time.Time) (models.Modifier, error) {
	var modifier models.Modifier
	err := s.db.GetContext(ctx, &modifier, `
        SELECT `+modifierColumns+` FROM modifiers
        WHERE target_type = ? AND target_id = ? AND (expires_at IS NULL OR expires_at > ?)
        ORDER BY created_at DESC, id DESC
        LIMIT 1`, target.Kind, target.ID, now.UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return models.Modifier{}, ErrNotFound
	}
	if err != nil {
		return models.Modifier{}, fmt.Errorf("select active modifier for %s %d: %w", target.Kind, target.ID, err)
	}
	return modifier, nil
}

// ExpireModifiers sets expiry to now on every active modifier of target.
func (s *Store) ExpireModifiers(ctx context.Context, target models.TargetRef, now time.Time) (int64, error) {
	var expired int64
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		expired, err = expireModifiers(ctx, tx, target, now)
		return err
	})
	return expired, err
}

// ReplaceModifier expires all active modifiers on the target and creates m,
// both inside one transaction. On failure neither step is applied.
func (s *Store) ReplaceModifier(ctx context.Context, m models.Modifier, now time.Time) (models.Modifier, error) {
	m.CreatedAt = now.UTC()
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := expireModifiers(ctx, tx, m.Target(), now); err != nil {
			return err
		}

		var expiresAt *time.Time
		if m.ExpiresAt != nil {
			t := m.ExpiresAt.UTC()
			expiresAt = &t
		}

		res, err := tx.ExecContext(ctx, `
            INSERT INTO modifiers (target_type, target_id, flag, reason, expires_at, created_by, created_at)
            VALUES (?, ?, ?, ?, ?, ?, ?)`,
			m.TargetType, m.TargetID, m.Flag, m.Reason, expiresAt, m.CreatedByID, m.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert modifier: %w", err)
		}
		m.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return models.Modifier{}, err
	}
	return m, nil
}

func expireModifiers(ctx context.Context, tx *sqlx.Tx, target models.TargetRef, now time.Time) (int64, error) {
	res, err := tx.ExecContext(ctx, `
        UPDATE modifiers SET expires_at = ?
        WHERE target_type = ? AND target_id = ? AND (expires_at IS NULL OR expires_at > ?)`,
		now.UTC(), target.Kind, target.ID, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("expire modifiers for %s %d: %w", target.Kind, target.ID, err)
	}
	return res.RowsAffected()
}
