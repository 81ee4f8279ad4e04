package database

import (
	"context"
	"fmt"
	"time"
)

// PurgeExpiredModifiers deletes modifiers that stopped applying before cutoff.
// Open-ended modifiers are never purged. History older than cutoff is lost.
func (s *Store) PurgeExpiredModifiers(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
        DELETE FROM modifiers WHERE expires_at IS NOT NULL AND expires_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge modifiers expired before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return res.RowsAffected()
}

// DeleteActiveSubmissionByMessage removes the still-voting submission posted
// as the given firehose message. It reports how many rows were removed.
func (s *Store) DeleteActiveSubmissionByMessage(ctx context.Context, channelID, messageID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
        DELETE FROM video_submissions WHERE channel_id = ? AND message_id = ? AND active = 1`,
		channelID, messageID)
	if err != nil {
		return 0, fmt.Errorf("delete submission for message %s: %w", messageID, err)
	}
	return res.RowsAffected()
}
