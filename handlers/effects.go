package handlers

import (
	"context"
	"fmt"

	"showcase-bot/embed"
	"showcase-bot/logging"
	"showcase-bot/models"
	"showcase-bot/policy"
	"showcase-bot/videoref"
)

// Responder talks back to the submitter on the surface the submission came
// from: direct messages for chat links, ephemeral followups for commands.
type Responder interface {
	Notify(ctx context.Context, message string)
	Accepted(ctx context.Context, link string)
	RequestDuration(ctx context.Context, ref videoref.Reference)
	ConfirmTimestamp(ctx context.Context, ref videoref.Reference) (keep bool, ok bool)
}

type applyResult struct {
	keep      *bool
	submitted *models.VideoSubmission
}

// apply carries out the pipeline's effects in order. Only a failure to post
// or record an accepted submission is returned; everything else is logged.
func (h *Handler) apply(ctx context.Context, effects []policy.Effect, r Responder) (applyResult, error) {
	logger := logging.FromContext(ctx)
	var res applyResult

	for _, fx := range effects {
		switch e := fx.(type) {
		case policy.DeleteMessage:
			if err := h.transport.DeleteMessage(e.ChannelID, e.MessageID); err != nil {
				logger.Warn("failed to delete submission message", "message_id", e.MessageID, "error", err)
			}
		case policy.Notify:
			r.Notify(ctx, e.Message)
		case policy.SafetyLog:
			h.safety.Log(ctx, e.GuildID, string(e.Severity), e.Title, e.Message)
		case policy.ApplyModifier:
			if _, err := h.trust.SetModifier(ctx, e.Target, e.Flag, e.Reason, e.Duration, nil); err != nil {
				logger.Error("failed to apply modifier", "target", e.Target.Kind, "target_id", e.Target.ID, "error", err)
			}
		case policy.RequestDuration:
			r.RequestDuration(ctx, e.Reference)
		case policy.ConfirmTimestamp:
			if keep, ok := r.ConfirmTimestamp(ctx, e.Reference); ok {
				res.keep = &keep
			}
		case policy.PostSubmission:
			sub, err := h.postSubmission(ctx, e)
			if err != nil {
				return res, err
			}
			res.submitted = &sub
			r.Accepted(ctx, models.PriorPost{GuildID: sub.GuildID, ChannelID: sub.ChannelID, MessageID: sub.MessageID}.Link())
		default:
			logger.Error("unhandled effect", "type", fmt.Sprintf("%T", fx))
		}
	}
	return res, nil
}

func (h *Handler) postSubmission(ctx context.Context, e policy.PostSubmission) (models.VideoSubmission, error) {
	entry := embed.Entry{
		Title:         e.Video.Title,
		URL:           e.URL,
		LengthSeconds: e.Video.LengthSeconds,
		SubmitterID:   e.User.DiscordID,
	}
	if e.Creator != nil {
		entry.CreatorName = e.Creator.Name
	}

	messageID, err := h.transport.PostSubmission(e.ChannelID, entry, h.reactions)
	if messageID == "" {
		return models.VideoSubmission{}, fmt.Errorf("post submission: %w", err)
	}
	if err != nil {
		logging.FromContext(ctx).Warn("submission posted without all vote reactions", "message_id", messageID, "error", err)
	}

	sub, err := h.store.CreateSubmission(ctx, models.VideoSubmission{
		GuildID:   e.GuildID,
		UserID:    e.User.ID,
		VideoID:   e.Video.ID,
		ChannelID: e.ChannelID,
		MessageID: messageID,
	})
	if err != nil {
		return models.VideoSubmission{}, fmt.Errorf("record submission: %w", err)
	}

	if err := h.trust.AfterSubmission(ctx, e.User); err != nil {
		logging.FromContext(ctx).Warn("trust promotion hook failed", "user_id", e.User.ID, "error", err)
	}
	return sub, nil
}

// submit evaluates ev and applies the outcome. A timestamp question is asked
// once and the submission re-evaluated with the answer; no answer cancels it.
func (h *Handler) submit(ctx context.Context, ev policy.Event, pc policy.Context, r Responder) (policy.Decision, error) {
	for {
		decision, effects, err := h.pipeline.Evaluate(ctx, ev, pc)
		if err != nil {
			return policy.Decision{}, err
		}
		res, err := h.apply(ctx, effects, r)
		if err != nil {
			return decision, err
		}
		if decision.Outcome != policy.NeedsTimestampDecision || ev.KeepTimestamp != nil {
			return decision, nil
		}
		if res.keep == nil {
			r.Notify(ctx, "No answer received, so the submission was cancelled.")
			return decision, nil
		}
		ev.KeepTimestamp = res.keep
	}
}
