package handlers

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"showcase-bot/logging"
	"showcase-bot/utils"
)

// MessageDelete drops the still-voting submission behind a removed firehose
// post. The tally pass would reach the same outcome on its next run.
func (h *Handler) MessageDelete(s *discordgo.Session, m *discordgo.MessageDelete) {
	if m.GuildID == "" {
		return
	}
	ctx, span := eventContext("message_delete", "guild_id", m.GuildID, "message_id", m.ID)
	defer span.End()

	h.dropSubmission(ctx, m.GuildID, m.ChannelID, m.ID)
}

func (h *Handler) dropSubmission(ctx context.Context, guildID, channelID, messageID string) {
	n, err := h.store.DeleteActiveSubmissionByMessage(ctx, channelID, messageID)
	if err != nil {
		h.safety.Log(ctx, guildID, utils.LevelError, "Submission cleanup failed", err.Error())
		return
	}
	if n > 0 {
		logging.FromContext(ctx).Info("submission abandoned after firehose message deletion")
	}
}
