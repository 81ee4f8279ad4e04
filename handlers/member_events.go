package handlers

import (
	"github.com/bwmarrin/discordgo"

	"showcase-bot/logging"
)

// MemberAdd records new members with their join time, which starts the
// account-age gate.
func (h *Handler) MemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.User == nil || m.User.Bot {
		return
	}
	ctx, span := eventContext("member_add", "guild_id", m.GuildID, "user_id", m.User.ID)
	defer span.End()

	if _, err := h.store.EnsureUser(ctx, m.GuildID, m.User.ID, m.JoinedAt); err != nil {
		logging.FromContext(ctx).Error("failed to record member", "error", err)
	}
}

// GuildCreate marks a guild as moderated when the bot joins or reconnects.
func (h *Handler) GuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	ctx, span := eventContext("guild_create", "guild_id", g.ID)
	defer span.End()

	if err := h.store.EnsureGuild(ctx, g.ID, g.Name); err != nil {
		logging.FromContext(ctx).Error("failed to record guild", "error", err)
		return
	}
	logging.FromContext(ctx).Info("guild available", "name", g.Name)
}

// GuildDelete stops moderating a guild the bot was removed from. Outages
// (Unavailable) leave it active.
func (h *Handler) GuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	if g.Unavailable {
		return
	}
	ctx, span := eventContext("guild_delete", "guild_id", g.ID)
	defer span.End()

	if err := h.store.SetGuildActive(ctx, g.ID, false); err != nil {
		logging.FromContext(ctx).Error("failed to deactivate guild", "error", err)
	}
}
