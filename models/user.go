package models

import "time"

// TrustLevel is a ranked submission-quota tier.
type TrustLevel struct {
	ID                 int64  `db:"id"`
	Rank               int    `db:"rank"`
	Name               string `db:"name"`
	ActivityThreshold  int    `db:"activity_threshold"`
	AllowedSubmissions int    `db:"allowed_submissions"`
	TimePeriodSeconds  int64  `db:"time_period"`
}

// TimePeriod returns the quota window as a duration.
func (t TrustLevel) TimePeriod() time.Duration {
	return time.Duration(t.TimePeriodSeconds) * time.Second
}

// User is a guild member the bot has interacted with. CreatedAt is the
// first-seen (or guild join) time and drives the age gate.
type User struct {
	ID           int64     `db:"id"`
	DiscordID    string    `db:"discord_id"`
	GuildID      string    `db:"guild_id"`
	TrustLevelID int64     `db:"trust_level_id"`
	CreatedAt    time.Time `db:"created_at"`
}
