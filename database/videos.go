package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"showcase-bot/models"
)

const videoColumns = `id, platform, platform_id, url, title, length_seconds, nsfw, creator_id, created_at`

// UpsertVideo gets or creates the video keyed on (platform, platform_id).
// Known metadata is never overwritten with unknown values.
func (s *Store) UpsertVideo(ctx context.Context, v models.Video) (models.Video, error) {
	var video models.Video
	err := s.db.GetContext(ctx, &video, `
        INSERT INTO videos (platform, platform_id, url, title, length_seconds, nsfw, creator_id, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (platform, platform_id) DO UPDATE SET
            url = excluded.url,
            title = CASE WHEN excluded.title <> '' THEN excluded.title ELSE videos.title END,
            length_seconds = COALESCE(excluded.length_seconds, videos.length_seconds),
            nsfw = excluded.nsfw OR videos.nsfw,
            creator_id = COALESCE(excluded.creator_id, videos.creator_id)
        RETURNING `+videoColumns,
		v.Platform, v.PlatformID, v.URL, v.Title, v.LengthSeconds, v.NSFW, v.CreatorID, s.timestamp())
	if err != nil {
		return models.Video{}, fmt.Errorf("upsert video %s/%s: %w", v.Platform, v.PlatformID, err)
	}
	return video, nil
}

// VideoByPlatformID looks up a persisted video.
func (s *Store) VideoByPlatformID(ctx context.Context, platform models.Platform, platformID string) (models.Video, error) {
	var video models.Video
	err := s.db.GetContext(ctx, &video, `
        SELECT `+videoColumns+` FROM videos WHERE platform = ? AND platform_id = ?`, platform, platformID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Video{}, ErrNotFound
	}
	if err != nil {
		return models.Video{}, fmt.Errorf("select video %s/%s: %w", platform, platformID, err)
	}
	return video, nil
}

// VideoByID returns a video by primary key.
func (s *Store) VideoByID(ctx context.Context, id int64) (models.Video, error) {
	var video models.Video
	err := s.db.GetContext(ctx, &video, `SELECT `+videoColumns+` FROM videos WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Video{}, ErrNotFound
	}
	if err != nil {
		return models.Video{}, fmt.Errorf("select video %d: %w", id, err)
	}
	return video, nil
}
