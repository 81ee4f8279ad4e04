package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"showcase-bot/models"
)

const submissionColumns = `s.id, s.guild_id, s.user_id, s.video_id, s.channel_id, s.message_id,
        s.upvotes, s.downvotes, s.reports, s.active, s.created_at, u.discord_id AS submitter_discord_id`

// CreateSubmission inserts an active submission with zero votes.
func (s *Store) CreateSubmission(ctx context.Context, sub models.VideoSubmission) (models.VideoSubmission, error) {
	createdAt := sub.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.timestamp()
	}

	res, err := s.db.ExecContext(ctx, `
        INSERT INTO video_submissions (guild_id, user_id, video_id, channel_id, message_id, upvotes, downvotes, reports, active, created_at)
        VALUES (?, ?, ?, ?, ?, 0, 0, 0, 1, ?)`,
		sub.GuildID, sub.UserID, sub.VideoID, sub.ChannelID, sub.MessageID, createdAt.UTC())
	if err != nil {
		return models.VideoSubmission{}, fmt.Errorf("insert submission: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.VideoSubmission{}, fmt.Errorf("read submission id: %w", err)
	}
	return s.SubmissionByID(ctx, id)
}

// SubmissionByID returns a submission with its submitter's Discord id.
func (s *Store) SubmissionByID(ctx context.Context, id int64) (models.VideoSubmission, error) {
	var sub models.VideoSubmission
	err := s.db.GetContext(ctx, &sub, `
        SELECT `+submissionColumns+`
        FROM video_submissions s JOIN users u ON u.id = s.user_id
        WHERE s.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.VideoSubmission{}, ErrNotFound
	}
	if err != nil {
		return models.VideoSubmission{}, fmt.Errorf("select submission %d: %w", id, err)
	}
	return sub, nil
}

// ActiveSubmissions lists a guild's submissions still in the voting lifecycle.
func (s *Store) ActiveSubmissions(ctx context.Context, guildID string) ([]models.VideoSubmission, error) {
	var subs []models.VideoSubmission
	err := s.db.SelectContext(ctx, &subs, `
        SELECT `+submissionColumns+`
        FROM video_submissions s JOIN users u ON u.id = s.user_id
        WHERE s.guild_id = ? AND s.active = 1
        ORDER BY s.created_at`, guildID)
	if err != nil {
		return nil, fmt.Errorf("query active submissions for guild %s: %w", guildID, err)
	}
	return subs, nil
}

// UserSubmissions returns a user's most recent submissions, newest first.
func (s *Store) UserSubmissions(ctx context.Context, userID int64, limit int) ([]models.VideoSubmission, error) {
	var subs []models.VideoSubmission
	err := s.db.SelectContext(ctx, &subs, `
        SELECT `+submissionColumns+`
        FROM video_submissions s JOIN users u ON u.id = s.user_id
        WHERE s.user_id = ?
        ORDER BY s.created_at DESC
        LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query submissions for user %d: %w", userID, err)
	}
	return subs, nil
}

// UpdateSubmissionVotes overwrites the tallied counts.
func (s *Store) UpdateSubmissionVotes(ctx context.Context, id int64, upvotes, downvotes, reports int) error {
	_, err := s.db.ExecContext(ctx, `
        UPDATE video_submissions SET upvotes = ?, downvotes = ?, reports = ? WHERE id = ?`,
		upvotes, downvotes, reports, id)
	if err != nil {
		return fmt.Errorf("update votes for submission %d: %w", id, err)
	}
	return nil
}

// SetSubmissionInactive moves a submission to a terminal state.
func (s *Store) SetSubmissionInactive(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE video_submissions SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate submission %d: %w", id, err)
	}
	return nil
}

// DeleteSubmission removes a submission whose firehose message vanished.
func (s *Store) DeleteSubmission(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM video_submissions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete submission %d: %w", id, err)
	}
	return nil
}

// SubmissionTimesSince returns the creation times of the user's submissions
// at or after since, oldest first.
func (s *Store) SubmissionTimesSince(ctx context.Context, userID int64, since time.Time) ([]time.Time, error) {
	var times []time.Time
	err := s.db.SelectContext(ctx, &times, `
        SELECT created_at FROM video_submissions
        WHERE user_id = ? AND created_at >= ?
        ORDER BY created_at`, userID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("query submission times for user %d: %w", userID, err)
	}
	return times, nil
}

// SubmissionCreatorStats counts all of a user's submissions and those of
// videos owned by creatorID.
func (s *Store) SubmissionCreatorStats(ctx context.Context, userID, creatorID int64) (total, matching int, err error) {
	var row struct {
		Total    int `db:"total"`
		Matching int `db:"matching"`
	}
	err = s.db.GetContext(ctx, &row, `
        SELECT COUNT(*) AS total,
               COALESCE(SUM(CASE WHEN v.creator_id = ? THEN 1 ELSE 0 END), 0) AS matching
        FROM video_submissions s JOIN videos v ON v.id = s.video_id
        WHERE s.user_id = ?`, creatorID, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("query submission stats for user %d: %w", userID, err)
	}
	return row.Total, row.Matching, nil
}

// LatestPriorPost returns the newest firehose submission or showcase post of
// the video in the guild created at or after since.
func (s *Store) LatestPriorPost(ctx context.Context, guildID string, videoID int64, since time.Time) (models.PriorPost, error) {
	var latest models.PriorPost
	found := false
	for _, table := range []string{"video_submissions", "showcase_posts"} {
		var post models.PriorPost
		err := s.db.GetContext(ctx, &post, `
            SELECT guild_id, channel_id, message_id, created_at FROM `+table+`
            WHERE guild_id = ? AND video_id = ? AND created_at >= ?
            ORDER BY created_at DESC
            LIMIT 1`, guildID, videoID, since.UTC())
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return models.PriorPost{}, fmt.Errorf("query %s for video %d: %w", table, videoID, err)
		}
		if !found || post.CreatedAt.After(latest.CreatedAt) {
			latest = post
			found = true
		}
	}
	if !found {
		return models.PriorPost{}, ErrNotFound
	}
	return latest, nil
}
