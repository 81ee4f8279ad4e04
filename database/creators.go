package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"showcase-bot/models"
)

const creatorColumns = `id, platform, platform_id, name, popularity, created_at`

// UpsertCreator gets or creates the creator keyed on (platform, platformID),
// refreshing the display name when a non-empty one is supplied.
func (s *Store) UpsertCreator(ctx context.Context, platform models.Platform, platformID, name string) (models.Creator, error) {
	var creator models.Creator
	err := s.db.GetContext(ctx, &creator, `
        INSERT INTO creators (platform, platform_id, name, created_at) VALUES (?, ?, ?, ?)
        ON CONFLICT (platform, platform_id) DO UPDATE SET
            name = CASE WHEN excluded.name <> '' THEN excluded.name ELSE creators.name END
        RETURNING `+creatorColumns,
		platform, platformID, name, s.timestamp())
	if err != nil {
		return models.Creator{}, fmt.Errorf("upsert creator %s/%s: %w", platform, platformID, err)
	}
	return creator, nil
}

// CreatorByID returns a creator by primary key.
func (s *Store) CreatorByID(ctx context.Context, id int64) (models.Creator, error) {
	var creator models.Creator
	err := s.db.GetContext(ctx, &creator, `SELECT `+creatorColumns+` FROM creators WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Creator{}, ErrNotFound
	}
	if err != nil {
		return models.Creator{}, fmt.Errorf("select creator %d: %w", id, err)
	}
	return creator, nil
}

// SetCreatorPopularity caches the popularity classification.
func (s *Store) SetCreatorPopularity(ctx context.Context, id int64, popularity int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE creators SET popularity = ? WHERE id = ?`, popularity, id)
	if err != nil {
		return fmt.Errorf("update creator %d popularity: %w", id, err)
	}
	return nil
}
