package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"

	"showcase-bot/logging"
	"showcase-bot/models"
	"showcase-bot/showcase"
	"showcase-bot/transport"
)

type Store interface {
	ActiveGuilds(ctx context.Context) ([]models.Guild, error)
	ActiveSubmissions(ctx context.Context, guildID string) ([]models.VideoSubmission, error)
	UpdateSubmissionVotes(ctx context.Context, id int64, upvotes, downvotes, reports int) error
	SetSubmissionInactive(ctx context.Context, id int64) error
	DeleteSubmission(ctx context.Context, id int64) error
	VideoByID(ctx context.Context, id int64) (models.Video, error)
	CreatorByID(ctx context.Context, id int64) (models.Creator, error)
}

type Transport interface {
	FetchMessage(channelID, messageID string) error
	ReactionUsers(channelID, messageID, emoji string) ([]string, error)
	SelfID() string
}

type Promoter interface {
	Promote(ctx context.Context, req showcase.Request) (models.ShowcasePost, error)
}

// Reactions are the emoji counted as votes.
type Reactions struct {
	Up     string
	Down   string
	Report string
}

type Tallier struct {
	store     Store
	transport Transport
	promoter  Promoter
	reactions Reactions
	window    time.Duration
	workers   int
	now       func() time.Time
}

func NewTallier(store Store, t Transport, promoter Promoter, reactions Reactions, window time.Duration, workers int) *Tallier {
	if workers < 1 {
		workers = 1
	}
	return &Tallier{
		store:     store,
		transport: t,
		promoter:  promoter,
		reactions: reactions,
		window:    window,
		workers:   workers,
		now:       time.Now,
	}
}

// WithNowFunc overrides the clock.
func (t *Tallier) WithNowFunc(now func() time.Time) {
	t.now = now
}

// Run performs one tally pass over every active guild. Guilds run on a
// bounded pool; a failing guild or submission never stops the others.
func (t *Tallier) Run(ctx context.Context) error {
	ctx, span := logging.StartSpan(ctx, "tally")
	defer span.End()

	guilds, err := t.store.ActiveGuilds(ctx)
	if err != nil {
		return fmt.Errorf("list active guilds: %w", err)
	}

	p := pool.New().WithContext(ctx).WithMaxGoroutines(t.workers)
	for _, g := range guilds {
		p.Go(func(ctx context.Context) error {
			return t.ProcessGuild(ctx, g.ID)
		})
	}
	return p.Wait()
}

// ProcessGuild tallies a guild's active submissions one after another.
func (t *Tallier) ProcessGuild(ctx context.Context, guildID string) error {
	ctx = logging.With(ctx, "guild_id", guildID)
	logger := logging.FromContext(ctx)

	subs, err := t.store.ActiveSubmissions(ctx, guildID)
	if err != nil {
		return fmt.Errorf("list submissions for guild %s: %w", guildID, err)
	}

	counts := map[State]int{}
	for _, sub := range subs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		state, err := t.ProcessSubmission(ctx, sub)
		if err != nil {
			logger.Error("failed to tally submission", "submission_id", sub.ID, "error", err)
			continue
		}
		counts[state]++
	}
	if len(subs) > 0 {
		logger.Info("tally pass complete",
			"submissions", len(subs),
			"showcased", counts[Showcased],
			"expired", counts[Expired],
			"abandoned", counts[Abandoned])
	}
	return nil
}

// ProcessSubmission recounts one submission's votes, persists them and
// resolves it if its voting window has closed.
func (t *Tallier) ProcessSubmission(ctx context.Context, sub models.VideoSubmission) (State, error) {
	logger := logging.FromContext(ctx).With("submission_id", sub.ID)

	if err := t.transport.FetchMessage(sub.ChannelID, sub.MessageID); err != nil {
		if !errors.Is(err, transport.ErrMessageNotFound) {
			return Active, fmt.Errorf("fetch firehose message: %w", err)
		}
		if err := t.store.DeleteSubmission(ctx, sub.ID); err != nil {
			return Active, err
		}
		logger.Info("firehose message removed, submission deleted")
		return Abandoned, nil
	}

	tally, err := t.count(sub)
	if err != nil {
		return Active, err
	}
	if err := t.store.UpdateSubmissionVotes(ctx, sub.ID, tally.Upvotes, tally.Downvotes, tally.Reports); err != nil {
		return Active, err
	}
	sub.Upvotes, sub.Downvotes, sub.Reports = tally.Upvotes, tally.Downvotes, tally.Reports

	switch Resolve(sub.CreatedAt, tally, t.now(), t.window) {
	case Showcased:
		return t.promote(ctx, sub)
	case Expired:
		if err := t.store.SetSubmissionInactive(ctx, sub.ID); err != nil {
			return Active, err
		}
		logger.Info("submission expired", "upvotes", tally.Upvotes, "downvotes", tally.Downvotes)
		return Expired, nil
	default:
		return Active, nil
	}
}

func (t *Tallier) promote(ctx context.Context, sub models.VideoSubmission) (State, error) {
	video, err := t.store.VideoByID(ctx, sub.VideoID)
	if err != nil {
		return Active, fmt.Errorf("load video %d: %w", sub.VideoID, err)
	}
	var creator *models.Creator
	if video.CreatorID != nil {
		c, err := t.store.CreatorByID(ctx, *video.CreatorID)
		if err != nil {
			return Active, fmt.Errorf("load creator %d: %w", *video.CreatorID, err)
		}
		creator = &c
	}

	_, err = t.promoter.Promote(ctx, showcase.Request{
		GuildID:    sub.GuildID,
		Video:      video,
		Creator:    creator,
		Submission: &sub,
	})
	if errors.Is(err, showcase.ErrNotConfigured) {
		logging.FromContext(ctx).Warn("showcase not configured, retrying next pass",
			"submission_id", sub.ID, "error", err)
		return Active, nil
	}
	if err != nil {
		return Active, fmt.Errorf("promote submission %d: %w", sub.ID, err)
	}
	return Showcased, nil
}

// count tallies distinct reactors per emoji, ignoring the bot and the submitter.
func (t *Tallier) count(sub models.VideoSubmission) (Tally, error) {
	ignored := map[string]bool{t.transport.SelfID(): true, sub.SubmitterDiscordID: true}

	voters := func(emoji string) (int, error) {
		if emoji == "" {
			return 0, nil
		}
		ids, err := t.transport.ReactionUsers(sub.ChannelID, sub.MessageID, emoji)
		if err != nil {
			return 0, fmt.Errorf("list %s reactions: %w", emoji, err)
		}
		seen := map[string]bool{}
		for _, id := range ids {
			if id == "" || ignored[id] {
				continue
			}
			seen[id] = true
		}
		return len(seen), nil
	}

	var tally Tally
	var err error
	if tally.Upvotes, err = voters(t.reactions.Up); err != nil {
		return Tally{}, err
	}
	if tally.Downvotes, err = voters(t.reactions.Down); err != nil {
		return Tally{}, err
	}
	if tally.Reports, err = voters(t.reactions.Report); err != nil {
		return Tally{}, err
	}
	return tally, nil
}
