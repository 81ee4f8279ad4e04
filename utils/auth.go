package utils

import (
	"slices"

	"github.com/bwmarrin/discordgo"

	"showcase-bot/models"
)

// Permission levels for commands.
const (
	LevelDeveloper = "developer"
	LevelJanitor   = "janitor"
	LevelGuest     = "guest"
)

// Auth provides methods for authorization checks.
type Auth struct {
	developers []string
}

func NewAuth(developers []string) *Auth {
	return &Auth{developers: developers}
}

// IsDeveloper checks if a user is a bot developer.
func (a *Auth) IsDeveloper(userID string) bool {
	return slices.Contains(a.developers, userID)
}

// IsJanitor checks if a member holds one of the guild's janitor roles.
func (a *Auth) IsJanitor(member *discordgo.Member, guild models.GuildConfig) bool {
	if member == nil {
		return false
	}
	return guild.MemberHasRole(models.RoleJanitor, member.Roles)
}

// CheckPermission checks if a member has the required permission level.
func (a *Auth) CheckPermission(member *discordgo.Member, guild models.GuildConfig, requiredLevel string) bool {
	if member == nil || member.User == nil {
		return false
	}
	switch requiredLevel {
	case LevelDeveloper:
		return a.IsDeveloper(member.User.ID)
	case LevelJanitor:
		return a.IsDeveloper(member.User.ID) || a.IsJanitor(member, guild)
	case LevelGuest:
		return true
	default:
		return false
	}
}
