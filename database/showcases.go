package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"showcase-bot/models"
)

const showcaseColumns = `id, submission_id, video_id, guild_id, user_id, channel_id, message_id,
        external_url, external_submitter, created_at`

// ShowcaseForSubmission returns the showcase post promoted from a submission.
func (s *Store) ShowcaseForSubmission(ctx context.Context, submissionID int64) (models.ShowcasePost, error) {
	var post models.ShowcasePost
	err := s.db.GetContext(ctx, &post, `
        SELECT `+showcaseColumns+` FROM showcase_posts WHERE submission_id = ?`, submissionID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ShowcasePost{}, ErrNotFound
	}
	if err != nil {
		return models.ShowcasePost{}, fmt.Errorf("select showcase for submission %d: %w", submissionID, err)
	}
	return post, nil
}

// RecordShowcase inserts the showcase post and, when it has a source
// submission, deactivates that submission in the same transaction.
// A second showcase for the same submission yields ErrConflict.
func (s *Store) RecordShowcase(ctx context.Context, post models.ShowcasePost) (models.ShowcasePost, error) {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = s.timestamp()
	}

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
            INSERT INTO showcase_posts (submission_id, video_id, guild_id, user_id, channel_id, message_id,
                external_url, external_submitter, created_at)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			post.SubmissionID, post.VideoID, post.GuildID, post.UserID, post.ChannelID, post.MessageID,
			post.ExternalURL, post.ExternalSubmitter, post.CreatedAt.UTC())
		if err != nil {
			if isUniqueViolation(err) {
				return ErrConflict
			}
			return fmt.Errorf("insert showcase post: %w", err)
		}

		post.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("read showcase id: %w", err)
		}

		if post.SubmissionID != nil {
			if _, err := tx.ExecContext(ctx, `
                UPDATE video_submissions SET active = 0 WHERE id = ?`, *post.SubmissionID); err != nil {
				return fmt.Errorf("deactivate submission %d: %w", *post.SubmissionID, err)
			}
		}
		return nil
	})
	if err != nil {
		return models.ShowcasePost{}, err
	}
	return post, nil
}
