package handlers

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"showcase-bot/logging"
	"showcase-bot/videoref"
)

func durationHelp(ref videoref.Reference) string {
	return fmt.Sprintf("I couldn't find the length of %s. Submit it again with `/submit url:%s duration:<seconds>`.",
		ref.PostURL(true), ref.PostURL(true))
}

func timestampQuestion(ref videoref.Reference) string {
	return fmt.Sprintf("Your link starts at `%s`. Keep that start time when it is posted?", ref.StartTime)
}

// messageResponder answers chat submissions by direct message, with
// confirmation prompts posted as a reply in the channel.
type messageResponder struct {
	h *Handler
	s *discordgo.Session
	m *discordgo.MessageCreate
}

func (r *messageResponder) Notify(ctx context.Context, message string) {
	if err := r.h.transport.DirectMessage(r.m.Author.ID, message); err != nil {
		logging.FromContext(ctx).Warn("failed to send direct message", "user_id", r.m.Author.ID, "error", err)
	}
}

func (r *messageResponder) Accepted(ctx context.Context, link string) {
	logging.FromContext(ctx).Info("submission accepted", "link", link)
}

func (r *messageResponder) RequestDuration(ctx context.Context, ref videoref.Reference) {
	r.Notify(ctx, durationHelp(ref))
}

func (r *messageResponder) ConfirmTimestamp(ctx context.Context, ref videoref.Reference) (bool, bool) {
	id, components := r.h.confirms.Prompt(r.m.Author.ID)
	prompt, err := r.s.ChannelMessageSendComplex(r.m.ChannelID, &discordgo.MessageSend{
		Content:         fmt.Sprintf("<@%s> %s", r.m.Author.ID, timestampQuestion(ref)),
		Components:      components,
		Reference:       r.m.Reference(),
		AllowedMentions: &discordgo.MessageAllowedMentions{Users: []string{r.m.Author.ID}},
	})
	if err != nil {
		logging.FromContext(ctx).Warn("failed to post timestamp prompt", "error", err)
		return false, false
	}
	keep, ok := r.h.confirms.Wait(ctx, id)
	if err := r.h.transport.DeleteMessage(r.m.ChannelID, prompt.ID); err != nil {
		logging.FromContext(ctx).Warn("failed to delete timestamp prompt", "error", err)
	}
	return keep, ok
}

// interactionResponder answers slash-command submissions with ephemeral
// followups to a deferred response.
type interactionResponder struct {
	h *Handler
	s *discordgo.Session
	i *discordgo.InteractionCreate
}

func (r *interactionResponder) followup(ctx context.Context, params *discordgo.WebhookParams) *discordgo.Message {
	params.Flags |= discordgo.MessageFlagsEphemeral
	msg, err := r.s.FollowupMessageCreate(r.i.Interaction, true, params)
	if err != nil {
		logging.FromContext(ctx).Warn("failed to send followup", "error", err)
		return nil
	}
	return msg
}

func (r *interactionResponder) Notify(ctx context.Context, message string) {
	r.followup(ctx, &discordgo.WebhookParams{Content: message})
}

func (r *interactionResponder) Accepted(ctx context.Context, link string) {
	r.followup(ctx, &discordgo.WebhookParams{Content: "✅ Submitted! Voting is open here: " + link})
}

func (r *interactionResponder) RequestDuration(ctx context.Context, ref videoref.Reference) {
	r.followup(ctx, &discordgo.WebhookParams{Content: durationHelp(ref)})
}

func (r *interactionResponder) ConfirmTimestamp(ctx context.Context, ref videoref.Reference) (bool, bool) {
	id, components := r.h.confirms.Prompt(interactionUser(r.i).ID)
	msg := r.followup(ctx, &discordgo.WebhookParams{Content: timestampQuestion(ref), Components: components})
	if msg == nil {
		return false, false
	}
	keep, ok := r.h.confirms.Wait(ctx, id)

	content := "Got it."
	if !ok {
		content = "Timed out."
	}
	if _, err := r.s.FollowupMessageEdit(r.i.Interaction, msg.ID, &discordgo.WebhookEdit{
		Content:    &content,
		Components: &[]discordgo.MessageComponent{},
	}); err != nil {
		logging.FromContext(ctx).Warn("failed to close timestamp prompt", "error", err)
	}
	return keep, ok
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}
