// Package showcase promotes videos into the guild's curated showcase channels.
package showcase

import (
	"context"
	"errors"
	"fmt"

	"showcase-bot/database"
	"showcase-bot/embed"
	"showcase-bot/logging"
	"showcase-bot/models"
	"showcase-bot/transport"
)

// ErrNotConfigured means the guild has no category or channel for the video.
// Callers treat it as a soft failure.
var ErrNotConfigured = errors.New("showcase destination not configured")

type Store interface {
	ShowcaseForSubmission(ctx context.Context, submissionID int64) (models.ShowcasePost, error)
	SetSubmissionInactive(ctx context.Context, id int64) error
	GuildConfig(ctx context.Context, guildID string) (models.GuildConfig, error)
	UserIsCreator(ctx context.Context, userID, creatorID int64) (bool, error)
	RecordShowcase(ctx context.Context, post models.ShowcasePost) (models.ShowcasePost, error)
}

type Transport interface {
	CategoryChannels(guildID, categoryID string) ([]transport.Channel, error)
	PostShowcase(channelID string, e embed.Entry) (string, error)
	StartThread(channelID, messageID, name string) error
	DeleteMessage(channelID, messageID string) error
}

// Request describes one promotion. Submission is nil for external feed items,
// which carry ExternalURL and ExternalSubmitter instead.
type Request struct {
	GuildID           string
	Video             models.Video
	Creator           *models.Creator
	Submission        *models.VideoSubmission
	ExternalURL       string
	ExternalSubmitter string
}

type Promoter struct {
	store     Store
	transport Transport
}

func NewPromoter(store Store, t Transport) *Promoter {
	return &Promoter{store: store, transport: t}
}

// Promote posts the video to its showcase channel and records it. A
// submission that already has a showcase is marked inactive and its existing
// post returned without posting again.
func (p *Promoter) Promote(ctx context.Context, req Request) (models.ShowcasePost, error) {
	logger := logging.FromContext(ctx).With("guild_id", req.GuildID, "video_id", req.Video.ID)

	if req.Submission != nil {
		existing, err := p.store.ShowcaseForSubmission(ctx, req.Submission.ID)
		switch {
		case err == nil:
			logger.Warn("submission already showcased", "submission_id", req.Submission.ID)
			if err := p.store.SetSubmissionInactive(ctx, req.Submission.ID); err != nil {
				return existing, err
			}
			return existing, nil
		case !errors.Is(err, database.ErrNotFound):
			return models.ShowcasePost{}, err
		}
	}

	cfg, err := p.store.GuildConfig(ctx, req.GuildID)
	if err != nil {
		return models.ShowcasePost{}, fmt.Errorf("load guild config: %w", err)
	}

	key, err := p.categoryKey(ctx, req)
	if err != nil {
		return models.ShowcasePost{}, err
	}
	categoryID, ok := cfg.Setting(key)
	if !ok {
		return models.ShowcasePost{}, fmt.Errorf("%w: %s is unset", ErrNotConfigured, key)
	}

	channels, err := p.transport.CategoryChannels(req.GuildID, categoryID)
	if err != nil {
		return models.ShowcasePost{}, err
	}
	channel, ok := SelectChannel(channels, req.Video.LengthSeconds)
	if !ok {
		return models.ShowcasePost{}, fmt.Errorf("%w: no channel in %s for length %s",
			ErrNotConfigured, key, embed.FormatLength(req.Video.LengthSeconds))
	}

	entry := embed.Entry{
		Title:             req.Video.Title,
		URL:               req.Video.URL,
		LengthSeconds:     req.Video.LengthSeconds,
		ExternalSubmitter: req.ExternalSubmitter,
		ExternalURL:       req.ExternalURL,
	}
	if req.Creator != nil {
		entry.CreatorName = req.Creator.Name
	}
	if req.Submission != nil {
		entry.SubmitterID = req.Submission.SubmitterDiscordID
		entry.Upvotes = req.Submission.Upvotes
		entry.Downvotes = req.Submission.Downvotes
	}

	messageID, err := p.transport.PostShowcase(channel.ID, entry)
	if err != nil {
		return models.ShowcasePost{}, err
	}
	threadName := req.Video.Title
	if threadName == "" {
		threadName = "Discussion"
	}
	if err := p.transport.StartThread(channel.ID, messageID, threadName); err != nil {
		logger.Warn("failed to open showcase thread", "channel_id", channel.ID, "error", err)
	}

	post := models.ShowcasePost{
		VideoID:           req.Video.ID,
		GuildID:           req.GuildID,
		ChannelID:         channel.ID,
		MessageID:         messageID,
		ExternalURL:       req.ExternalURL,
		ExternalSubmitter: req.ExternalSubmitter,
	}
	if req.Submission != nil {
		post.SubmissionID = &req.Submission.ID
		post.UserID = &req.Submission.UserID
	}

	recorded, err := p.store.RecordShowcase(ctx, post)
	if err != nil {
		// A post must not outlive a failed record.
		if derr := p.transport.DeleteMessage(channel.ID, messageID); derr != nil {
			logger.Error("failed to remove unrecorded showcase post", "channel_id", channel.ID, "message_id", messageID, "error", derr)
		}
		if errors.Is(err, database.ErrConflict) && req.Submission != nil {
			logger.Warn("concurrent showcase detected", "submission_id", req.Submission.ID)
			return p.store.ShowcaseForSubmission(ctx, req.Submission.ID)
		}
		return models.ShowcasePost{}, fmt.Errorf("record showcase: %w", err)
	}
	logger.Info("video showcased", "channel_id", channel.ID, "message_id", messageID)
	return recorded, nil
}

func (p *Promoter) categoryKey(ctx context.Context, req Request) (string, error) {
	if req.Submission == nil || req.Video.CreatorID == nil {
		return models.SettingShowcaseCategory, nil
	}
	oc, err := p.store.UserIsCreator(ctx, req.Submission.UserID, *req.Video.CreatorID)
	if err != nil {
		return "", err
	}
	if oc {
		return models.SettingOCCategory, nil
	}
	return models.SettingShowcaseCategory, nil
}
