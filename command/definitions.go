package command

import (
	"github.com/bwmarrin/discordgo"

	"showcase-bot/models"
)

func flagChoices() []*discordgo.ApplicationCommandOptionChoice {
	return []*discordgo.ApplicationCommandOptionChoice{
		{Name: "Allow", Value: string(models.FlagAllow)},
		{Name: "Deny", Value: string(models.FlagDeny)},
	}
}

func roleTypeChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, len(models.RoleTypes))
	for i, rt := range models.RoleTypes {
		choices[i] = &discordgo.ApplicationCommandOptionChoice{Name: string(rt), Value: string(rt)}
	}
	return choices
}

var minDuration = 1.0

// SubmitCommand defines the /submit command.
type SubmitCommand struct{}

// Definition returns the application command definition.
func (c *SubmitCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "submit",
		Description: "Submit a video to the firehose",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "url",
				Description: "Link to the video",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    true,
			},
			{
				Name:        "duration",
				Description: "Video length in seconds, if it cannot be detected",
				Type:        discordgo.ApplicationCommandOptionInteger,
				MinValue:    &minDuration,
			},
			{
				Name:        "keep_timestamp",
				Description: "Keep the link's start time",
				Type:        discordgo.ApplicationCommandOptionBoolean,
			},
		},
	}
}

// FlagCommand defines the /flag command.
type FlagCommand struct{}

// Definition returns the application command definition.
func (c *FlagCommand) Definition() *discordgo.ApplicationCommand {
	common := func() []*discordgo.ApplicationCommandOption {
		return []*discordgo.ApplicationCommandOption{
			{
				Name:        "flag",
				Description: "Allow or deny",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    true,
				Choices:     flagChoices(),
			},
			{
				Name:        "reason",
				Description: "Why the flag is set",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    true,
			},
			{
				Name:        "days",
				Description: "Expire after this many days (permanent when omitted)",
				Type:        discordgo.ApplicationCommandOptionInteger,
				MinValue:    &minDuration,
			},
		}
	}
	return &discordgo.ApplicationCommand{
		Name:        "flag",
		Description: "Allow or deny a user or creator",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "user",
				Description: "Flag a member",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: append([]*discordgo.ApplicationCommandOption{{
					Name:        "user",
					Description: "The member",
					Type:        discordgo.ApplicationCommandOptionUser,
					Required:    true,
				}}, common()...),
			},
			{
				Name:        "creator",
				Description: "Flag the creator of a video",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: append([]*discordgo.ApplicationCommandOption{{
					Name:        "url",
					Description: "A video by the creator",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    true,
				}}, common()...),
			},
		},
	}
}

// UnflagCommand defines the /unflag command.
type UnflagCommand struct{}

// Definition returns the application command definition.
func (c *UnflagCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "unflag",
		Description: "Remove active flags from a user or creator",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "user",
				Description: "Unflag a member",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{{
					Name:        "user",
					Description: "The member",
					Type:        discordgo.ApplicationCommandOptionUser,
					Required:    true,
				}},
			},
			{
				Name:        "creator",
				Description: "Unflag the creator of a video",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{{
					Name:        "url",
					Description: "A video by the creator",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    true,
				}},
			},
		},
	}
}

// SettingCommand defines the /setting command.
type SettingCommand struct{}

// Definition returns the application command definition.
func (c *SettingCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "setting",
		Description: "Change a server setting",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:         "key",
				Description:  "The setting",
				Type:         discordgo.ApplicationCommandOptionString,
				Required:     true,
				Autocomplete: true,
			},
			{
				Name:        "value",
				Description: "New value (omit to clear)",
				Type:        discordgo.ApplicationCommandOptionString,
			},
		},
	}
}

// RoleCommand defines the /role command.
type RoleCommand struct{}

// Definition returns the application command definition.
func (c *RoleCommand) Definition() *discordgo.ApplicationCommand {
	options := func() []*discordgo.ApplicationCommandOption {
		return []*discordgo.ApplicationCommandOption{
			{
				Name:        "type",
				Description: "Role type",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    true,
				Choices:     roleTypeChoices(),
			},
			{
				Name:        "role",
				Description: "Discord role",
				Type:        discordgo.ApplicationCommandOptionRole,
				Required:    true,
			},
		}
	}
	return &discordgo.ApplicationCommand{
		Name:        "role",
		Description: "Manage special roles",
		Options: []*discordgo.ApplicationCommandOption{
			{Name: "add", Description: "Associate a role", Type: discordgo.ApplicationCommandOptionSubCommand, Options: options()},
			{Name: "remove", Description: "Remove a role association", Type: discordgo.ApplicationCommandOptionSubCommand, Options: options()},
		},
	}
}

// CreatorCommand defines the /creator command.
type CreatorCommand struct{}

// Definition returns the application command definition.
func (c *CreatorCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "creator",
		Description: "Creator accounts",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "claim",
				Description: "Link yourself to the channel that published a video",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{{
					Name:        "url",
					Description: "One of your videos",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    true,
				}},
			},
		},
	}
}

// StandingCommand defines the /standing command.
type StandingCommand struct{}

// Definition returns the application command definition.
func (c *StandingCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "standing",
		Description: "Show your recent submissions and their votes",
	}
}

// PingCommand defines the structure for the /ping command.
type PingCommand struct{}

// Definition returns the application command definition.
func (c *PingCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "ping",
		Description: "Responds with Pong!",
	}
}
