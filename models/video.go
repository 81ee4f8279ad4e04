package models

import "time"

// Platform identifies a video host.
type Platform string

const (
	PlatformYouTube     Platform = "youtube"
	PlatformVimeo       Platform = "vimeo"
	PlatformTwitch      Platform = "twitch"
	PlatformStreamable  Platform = "streamable"
	PlatformTikTok      Platform = "tiktok"
	PlatformDailymotion Platform = "dailymotion"
)

// Popularity tiers. Higher values are increasingly established creators.
const (
	PopularityUnpopular   = 0
	PopularityEmerging    = 1
	PopularityEstablished = 2
)

// Creator is a channel or account on a video platform.
type Creator struct {
	ID         int64     `db:"id"`
	Platform   Platform  `db:"platform"`
	PlatformID string    `db:"platform_id"`
	Name       string    `db:"name"`
	Popularity *int      `db:"popularity"`
	CreatedAt  time.Time `db:"created_at"`
}

// IsPopular reports whether the cached classification reaches the established tier.
func (c Creator) IsPopular() bool {
	return c.Popularity != nil && *c.Popularity >= PopularityEstablished
}

// Video is a single platform video.
type Video struct {
	ID            int64     `db:"id"`
	Platform      Platform  `db:"platform"`
	PlatformID    string    `db:"platform_id"`
	URL           string    `db:"url"`
	Title         string    `db:"title"`
	LengthSeconds *int      `db:"length_seconds"`
	NSFW          bool      `db:"nsfw"`
	CreatorID     *int64    `db:"creator_id"`
	CreatedAt     time.Time `db:"created_at"`
}
