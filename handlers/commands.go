package handlers

import (
	"context"
	"runtime/debug"

	"github.com/bwmarrin/discordgo"

	"showcase-bot/logging"
	"showcase-bot/models"
	"showcase-bot/utils"
)

var commandPermissions = map[string]string{
	"submit":   utils.LevelGuest,
	"flag":     utils.LevelJanitor,
	"unflag":   utils.LevelJanitor,
	"setting":  utils.LevelJanitor,
	"role":     utils.LevelJanitor,
	"creator":  utils.LevelGuest,
	"standing": utils.LevelGuest,
	"ping":     utils.LevelGuest,
}

// commandContext carries what every command handler needs.
type commandContext struct {
	ctx   context.Context
	s     *discordgo.Session
	i     *discordgo.InteractionCreate
	guild models.GuildConfig
	user  *discordgo.User
}

// CommandDispatcher is the central handler for all application command interactions.
// It performs permission checks and then dispatches the interaction to the appropriate handler.
func (h *Handler) CommandDispatcher(s *discordgo.Session, i *discordgo.InteractionCreate) {
	commandName := i.ApplicationCommandData().Name
	user := interactionUser(i)
	if user == nil {
		return
	}

	ctx, span := eventContext("command", "command", commandName, "guild_id", i.GuildID, "user_id", user.ID)
	defer span.End()
	logger := logging.FromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("command panicked", "panic", r, "stack", string(debug.Stack()))
			respondEphemeral(s, i, "🚫 Something went wrong. Please try again later.")
		}
	}()

	if i.GuildID == "" || i.Member == nil {
		respondEphemeral(s, i, "🚫 This command only works inside a server.")
		return
	}

	cfg, err := h.store.GuildConfig(ctx, i.GuildID)
	if err != nil {
		logger.Error("failed to load guild config", "error", err)
		respondEphemeral(s, i, "🚫 Something went wrong. Please try again later.")
		return
	}

	requiredLevel, ok := commandPermissions[commandName]
	if !ok {
		respondEphemeral(s, i, "🚫 Unknown command.")
		return
	}
	if !h.auth.CheckPermission(i.Member, cfg, requiredLevel) {
		respondEphemeral(s, i, "🚫 You don't have permission to use this command.")
		return
	}

	cc := commandContext{ctx: ctx, s: s, i: i, guild: cfg, user: user}
	switch commandName {
	case "submit":
		h.HandleSubmit(cc)
	case "flag":
		h.HandleFlag(cc)
	case "unflag":
		h.HandleUnflag(cc)
	case "setting":
		h.HandleSetting(cc)
	case "role":
		h.HandleRole(cc)
	case "creator":
		h.HandleCreator(cc)
	case "standing":
		h.HandleStanding(cc)
	case "ping":
		HandlePing(s, i)
	}
}

// options flattens a command's options, descending into a subcommand.
func options(i *discordgo.InteractionCreate) (string, map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	opts := i.ApplicationCommandData().Options
	sub := ""
	if len(opts) == 1 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		sub = opts[0].Name
		opts = opts[0].Options
	}
	optionMap := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, opt := range opts {
		optionMap[opt.Name] = opt
	}
	return sub, optionMap
}
