package models

import "time"

// VideoSubmission is one accepted firehose post.
type VideoSubmission struct {
	ID        int64     `db:"id"`
	GuildID   string    `db:"guild_id"`
	UserID    int64     `db:"user_id"`
	VideoID   int64     `db:"video_id"`
	ChannelID string    `db:"channel_id"`
	MessageID string    `db:"message_id"`
	Upvotes   int       `db:"upvotes"`
	Downvotes int       `db:"downvotes"`
	Reports   int       `db:"reports"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`

	// Populated by joined reads only.
	SubmitterDiscordID string `db:"submitter_discord_id"`
}

// ShowcasePost is a promoted video. SubmissionID and UserID are nil for
// items cross-posted from the external feed.
type ShowcasePost struct {
	ID                int64     `db:"id"`
	SubmissionID      *int64    `db:"submission_id"`
	VideoID           int64     `db:"video_id"`
	GuildID           string    `db:"guild_id"`
	UserID            *int64    `db:"user_id"`
	ChannelID         string    `db:"channel_id"`
	MessageID         string    `db:"message_id"`
	ExternalURL       string    `db:"external_url"`
	ExternalSubmitter string    `db:"external_submitter"`
	CreatedAt         time.Time `db:"created_at"`
}

// PriorPost is the most recent firehose or showcase post of a video.
type PriorPost struct {
	GuildID   string    `db:"guild_id"`
	ChannelID string    `db:"channel_id"`
	MessageID string    `db:"message_id"`
	CreatedAt time.Time `db:"created_at"`
}

// Link returns the Discord jump link for the post.
func (p PriorPost) Link() string {
	return "https://discord.com/channels/" + p.GuildID + "/" + p.ChannelID + "/" + p.MessageID
}
