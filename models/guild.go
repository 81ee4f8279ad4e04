package models

import (
	"slices"
	"strconv"
	"time"
)

// Guild settings keys persisted in guild_settings.
const (
	SettingSubmissionChannel = "submission_channel"
	SettingSafetyLogChannel  = "safety_log_channel"
	SettingMinLength         = "min_length"
	SettingMaxLength         = "max_length"
	SettingRateLimitMode     = "rate_limit_mode"
	SettingShowcaseCategory  = "showcase_category"
	SettingOCCategory        = "oc_category"
	SettingFeedSource        = "feed_source"
)

// SettingKeys lists every key accepted by the /setting command.
var SettingKeys = []string{
	SettingSubmissionChannel,
	SettingSafetyLogChannel,
	SettingMinLength,
	SettingMaxLength,
	SettingRateLimitMode,
	SettingShowcaseCategory,
	SettingOCCategory,
	SettingFeedSource,
}

// RoleType names a class of special guild roles.
type RoleType string

const (
	RoleApproved          RoleType = "approved"
	RoleJanitor           RoleType = "janitor"
	RoleContentCreator    RoleType = "content_creator"
	RoleTermsAcknowledged RoleType = "terms_acknowledged"
)

// RoleTypes lists every supported role type.
var RoleTypes = []RoleType{RoleApproved, RoleJanitor, RoleContentCreator, RoleTermsAcknowledged}

// Guild is one Discord server known to the bot.
type Guild struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
}

// GuildSetting is a single key/value row.
type GuildSetting struct {
	GuildID string `db:"guild_id"`
	Name    string `db:"name"`
	Value   string `db:"value"`
}

// GuildRole associates a Discord role with a RoleType.
type GuildRole struct {
	GuildID  string   `db:"guild_id"`
	RoleType RoleType `db:"role_type"`
	RoleID   string   `db:"role_id"`
}

// GuildConfig is a guild with its settings and special roles loaded.
type GuildConfig struct {
	Guild
	Settings map[string]string
	Roles    map[RoleType][]string
}

// Setting returns the raw value for key, if set and non-empty.
func (g GuildConfig) Setting(key string) (string, bool) {
	v, ok := g.Settings[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// IntSetting parses an integer setting. Unparseable values count as unset.
func (g GuildConfig) IntSetting(key string) (int, bool) {
	v, ok := g.Setting(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// BoolSetting parses a boolean setting, defaulting to false.
func (g GuildConfig) BoolSetting(key string) bool {
	v, ok := g.Setting(key)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// DefinesRole reports whether the guild has at least one role of type rt.
func (g GuildConfig) DefinesRole(rt RoleType) bool {
	return len(g.Roles[rt]) > 0
}

// MemberHasRole reports whether any of memberRoles is associated with rt.
func (g GuildConfig) MemberHasRole(rt RoleType, memberRoles []string) bool {
	for _, id := range g.Roles[rt] {
		if slices.Contains(memberRoles, id) {
			return true
		}
	}
	return false
}
