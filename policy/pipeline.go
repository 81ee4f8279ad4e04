// Package policy decides whether a candidate video link is accepted into the
// firehose. Evaluation is free of transport side effects: every action it
// wants taken is returned as an Effect for the adapter to apply.
package policy

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"showcase-bot/catalog"
	"showcase-bot/database"
	"showcase-bot/logging"
	"showcase-bot/models"
	"showcase-bot/trust"
	"showcase-bot/videoref"
)

// CreatorDenyDuration is how long an unknown creator linked by a rejected
// user stays blacklisted.
const CreatorDenyDuration = 7 * 24 * time.Hour

// Source says where a candidate came from.
type Source int

const (
	SourceMessage Source = iota
	SourceCommand
)

// Event is one candidate link submitted by a guild member.
type Event struct {
	Source      Source
	ChannelID   string
	MessageID   string
	AuthorID    string
	MemberRoles []string
	Reference   videoref.Reference
	// LengthSeconds is a duration supplied by the submitter when the
	// platform could not report one.
	LengthSeconds *int
	// KeepTimestamp is the submitter's choice about the link's start time.
	KeepTimestamp *bool
}

// Context is the guild and user state the event is evaluated against.
type Context struct {
	Guild models.GuildConfig
	User  models.User
}

// Trust is the subset of trust.Engine the pipeline consults.
type Trust interface {
	Now() time.Time
	IsBlacklisted(ctx context.Context, userID int64) (bool, error)
	IsAllowlisted(ctx context.Context, userID int64) (bool, error)
	AgeGate(user models.User, approved bool) time.Duration
	RateLimit(ctx context.Context, user models.User) (time.Duration, error)
	SelfPromotion(ctx context.Context, userID, creatorID int64) (trust.SelfPromotion, error)
}

type Catalog interface {
	Details(ctx context.Context, ref videoref.Reference, cacheOnly bool) (catalog.Metadata, error)
	Record(ctx context.Context, md catalog.Metadata, lengthOverride *int) (models.Video, *models.Creator, error)
}

type Creators interface {
	ActiveModifier(ctx context.Context, creatorID int64) (*models.Modifier, error)
	RefreshPopularity(ctx context.Context, creator *models.Creator) (*int, error)
}

type Store interface {
	LatestPriorPost(ctx context.Context, guildID string, videoID int64, since time.Time) (models.PriorPost, error)
}

// Pipeline runs the ordered gate chain.
type Pipeline struct {
	trust     Trust
	catalog   Catalog
	creators  Creators
	store     Store
	platforms []models.Platform
}

func NewPipeline(engine Trust, videos Catalog, creators Creators, store Store, platforms []models.Platform) *Pipeline {
	return &Pipeline{trust: engine, catalog: videos, creators: creators, store: store, platforms: platforms}
}

// Evaluate runs ev through the gates, stopping at the first that does not
// pass. Policy rejections are reported in the Decision; the error return is
// reserved for failures of the pipeline's dependencies.
func (p *Pipeline) Evaluate(ctx context.Context, ev Event, pc Context) (Decision, []Effect, error) {
	logger := logging.FromContext(ctx).With("guild_id", pc.Guild.ID, "user_id", ev.AuthorID, "video", ev.Reference.Key())
	ctx = logging.WithLogger(ctx, logger)

	decision, effects, err := p.evaluate(ctx, ev, pc)
	if err != nil {
		return Decision{}, nil, err
	}
	logger.Debug("submission evaluated", "outcome", decision.Outcome.String(), "gate", decision.Gate)
	return decision, effects, nil
}

func (p *Pipeline) evaluate(ctx context.Context, ev Event, pc Context) (Decision, []Effect, error) {
	approved := pc.Guild.MemberHasRole(models.RoleApproved, ev.MemberRoles)

	decision, effects, err := p.screen(ctx, ev, pc, approved)
	if err != nil {
		return Decision{}, nil, err
	}
	if decision != nil {
		if !approved {
			// A rejected low-trust user linking an unknown creator is a
			// spam signal against the creator.
			signals, err := p.correlateCreator(ctx, ev, pc)
			if err != nil {
				logging.FromContext(ctx).Warn("creator correlation failed", "error", err)
			}
			effects = append(effects, signals...)
		}
		return *decision, effects, nil
	}

	if pc.Guild.BoolSetting(models.SettingRateLimitMode) {
		remaining, err := p.trust.RateLimit(ctx, pc.User)
		if err != nil {
			return Decision{}, nil, err
		}
		if remaining > 0 {
			d, fx := reject(ev, GateRateLimit, fmt.Sprintf("You have reached your submission limit. Try again in %s.", humanDuration(remaining)))
			d.Remaining = remaining
			return d, fx, nil
		}
	}

	if !slices.Contains(p.platforms, ev.Reference.Platform) {
		names := make([]string, len(p.platforms))
		for i, pl := range p.platforms {
			names[i] = string(pl)
		}
		d, fx := reject(ev, GatePlatform, fmt.Sprintf("%s links are not accepted here. Supported platforms: %s.",
			ev.Reference.Platform, strings.Join(names, ", ")))
		return d, fx, nil
	}

	md, err := p.catalog.Details(ctx, ev.Reference, true)
	if err != nil {
		return Decision{}, nil, err
	}
	video, creator, err := p.catalog.Record(ctx, md, ev.LengthSeconds)
	if err != nil {
		return Decision{}, nil, err
	}

	since := p.trust.Now().AddDate(0, -1, 0)
	prior, err := p.store.LatestPriorPost(ctx, pc.Guild.ID, video.ID, since)
	switch {
	case err == nil:
		d, fx := reject(ev, GateDuplicate, "This video was already posted recently: "+prior.Link())
		d.PriorPost = &prior
		return d, fx, nil
	case !errors.Is(err, database.ErrNotFound):
		return Decision{}, nil, err
	}

	if !approved && creator != nil {
		d, fx, err := p.selfPromotion(ctx, ev, pc, creator)
		if err != nil {
			return Decision{}, nil, err
		}
		if d != nil {
			return *d, fx, nil
		}
	}

	if video.LengthSeconds == nil {
		d := Decision{Outcome: NeedsDuration, Gate: GateLength, Reason: "video length unknown"}
		var fx []Effect
		if ev.Source == SourceMessage && ev.MessageID != "" {
			fx = append(fx, DeleteMessage{ChannelID: ev.ChannelID, MessageID: ev.MessageID})
		}
		fx = append(fx, RequestDuration{UserID: ev.AuthorID, Reference: ev.Reference})
		return d, fx, nil
	}
	if d, fx, rejected := checkLength(ev, pc.Guild, *video.LengthSeconds); rejected {
		return d, fx, nil
	}

	if ev.Reference.HasTimestamp() && ev.KeepTimestamp == nil {
		return Decision{Outcome: NeedsTimestampDecision, Gate: GateTimestamp},
			[]Effect{ConfirmTimestamp{UserID: ev.AuthorID, Reference: ev.Reference}}, nil
	}

	firehose, ok := pc.Guild.Setting(models.SettingSubmissionChannel)
	if !ok {
		d, fx := reject(ev, GateFirehose, "Submissions are not open in this server yet.")
		fx = append(fx, SafetyLog{
			GuildID:  pc.Guild.ID,
			Severity: SeverityWarn,
			Title:    "Submission channel not configured",
			Message:  fmt.Sprintf("<@%s> tried to submit %s but no submission channel is set. Use /setting %s.", ev.AuthorID, ev.Reference.URL, models.SettingSubmissionChannel),
		})
		return d, fx, nil
	}

	keep := ev.KeepTimestamp != nil && *ev.KeepTimestamp
	var fx []Effect
	if ev.Source == SourceMessage && ev.MessageID != "" {
		fx = append(fx, DeleteMessage{ChannelID: ev.ChannelID, MessageID: ev.MessageID})
	}
	fx = append(fx, PostSubmission{
		GuildID:   pc.Guild.ID,
		ChannelID: firehose,
		User:      pc.User,
		Video:     video,
		Creator:   creator,
		URL:       ev.Reference.PostURL(keep),
	})
	return Decision{Outcome: Accepted, Gate: GateAccept}, fx, nil
}

// screen runs the blacklist, rules and age gates. A nil decision means all passed.
func (p *Pipeline) screen(ctx context.Context, ev Event, pc Context, approved bool) (*Decision, []Effect, error) {
	blacklisted, err := p.trust.IsBlacklisted(ctx, pc.User.ID)
	if err != nil {
		return nil, nil, err
	}
	if blacklisted {
		d, fx := reject(ev, GateBlacklist, "You are not allowed to submit videos in this server.")
		fx = append(fx, SafetyLog{
			GuildID:  pc.Guild.ID,
			Severity: SeverityWarn,
			Title:    "Blacklisted user submission",
			Message:  fmt.Sprintf("<@%s> attempted to submit %s", ev.AuthorID, ev.Reference.URL),
		})
		return &d, fx, nil
	}

	if pc.Guild.DefinesRole(models.RoleTermsAcknowledged) && !pc.Guild.MemberHasRole(models.RoleTermsAcknowledged, ev.MemberRoles) {
		d, fx := reject(ev, GateRules, "Please read and acknowledge the server rules before submitting videos.")
		return &d, fx, nil
	}

	if remaining := p.trust.AgeGate(pc.User, approved); remaining > 0 {
		d, fx := reject(ev, GateAge, fmt.Sprintf("New members must wait before submitting. Try again in %s.", humanDuration(remaining)))
		d.Remaining = remaining
		return &d, fx, nil
	}
	return nil, nil, nil
}

func (p *Pipeline) correlateCreator(ctx context.Context, ev Event, pc Context) ([]Effect, error) {
	md, err := p.catalog.Details(ctx, ev.Reference, true)
	if err != nil {
		return nil, err
	}
	if md.Details.CreatorID == "" {
		return nil, nil
	}
	_, creator, err := p.catalog.Record(ctx, md, nil)
	if err != nil || creator == nil {
		return nil, err
	}

	existing, err := p.creators.ActiveModifier(ctx, creator.ID)
	if err != nil || existing != nil {
		return nil, err
	}

	tier, err := p.creators.RefreshPopularity(ctx, creator)
	if err != nil || tier == nil {
		return nil, err
	}

	switch *tier {
	case models.PopularityUnpopular:
		return []Effect{
			ApplyModifier{
				Target:   models.CreatorTarget(creator.ID),
				Flag:     models.FlagDeny,
				Reason:   fmt.Sprintf("Automatic: unestablished creator linked by rejected user %s", ev.AuthorID),
				Duration: CreatorDenyDuration,
			},
			SafetyLog{
				GuildID:  pc.Guild.ID,
				Severity: SeverityError,
				Title:    "Creator blacklisted automatically",
				Message: fmt.Sprintf("<@%s> was rejected while linking %s by unestablished creator %q; the creator is denied for 7 days.",
					ev.AuthorID, ev.Reference.URL, creator.Name),
			},
		}, nil
	case models.PopularityEmerging:
		return []Effect{SafetyLog{
			GuildID:  pc.Guild.ID,
			Severity: SeverityWarn,
			Title:    "Rejected user linked a small creator",
			Message:  fmt.Sprintf("<@%s> was rejected while linking %s by creator %q.", ev.AuthorID, ev.Reference.URL, creator.Name),
		}}, nil
	}
	return nil, nil
}

func (p *Pipeline) selfPromotion(ctx context.Context, ev Event, pc Context, creator *models.Creator) (*Decision, []Effect, error) {
	modifier, err := p.creators.ActiveModifier(ctx, creator.ID)
	if err != nil {
		return nil, nil, err
	}
	if modifier != nil {
		if modifier.Flag == models.FlagDeny {
			d, fx := reject(ev, GateSelfPromotion, fmt.Sprintf("Videos from %s are not accepted here.", creatorLabel(creator)))
			return &d, fx, nil
		}
		return nil, nil, nil
	}

	allowlisted, err := p.trust.IsAllowlisted(ctx, pc.User.ID)
	if err != nil || allowlisted {
		return nil, nil, err
	}

	tier, err := p.creators.RefreshPopularity(ctx, creator)
	if err != nil {
		return nil, nil, err
	}
	if tier != nil && *tier >= models.PopularityEstablished {
		return nil, nil, nil
	}

	result, err := p.trust.SelfPromotion(ctx, pc.User.ID, creator.ID)
	if err != nil {
		return nil, nil, err
	}
	if result.Violation {
		d, fx := reject(ev, GateSelfPromotion, fmt.Sprintf(
			"%.0f%% of your submissions are from %s; the limit is %.0f%%. Share videos from other creators first.",
			result.Percent, creatorLabel(creator), result.Limit*100))
		return &d, fx, nil
	}
	return nil, nil, nil
}

func checkLength(ev Event, guild models.GuildConfig, length int) (Decision, []Effect, bool) {
	if minLen, ok := guild.IntSetting(models.SettingMinLength); ok && length < minLen {
		d, fx := reject(ev, GateLength, fmt.Sprintf("Videos must be at least %s long (minimum %ds).",
			humanDuration(time.Duration(minLen)*time.Second), minLen))
		return d, fx, true
	}
	if maxLen, ok := guild.IntSetting(models.SettingMaxLength); ok && maxLen > 0 && length > maxLen {
		d, fx := reject(ev, GateLength, fmt.Sprintf("Videos must be at most %s long (maximum %ds).",
			humanDuration(time.Duration(maxLen)*time.Second), maxLen))
		return d, fx, true
	}
	return Decision{}, nil, false
}

func reject(ev Event, gate Gate, reason string) (Decision, []Effect) {
	var fx []Effect
	if ev.Source == SourceMessage && ev.MessageID != "" {
		fx = append(fx, DeleteMessage{ChannelID: ev.ChannelID, MessageID: ev.MessageID})
	}
	fx = append(fx, Notify{UserID: ev.AuthorID, Message: reason})
	return Decision{Outcome: Rejected, Gate: gate, Reason: reason}, fx
}

func creatorLabel(c *models.Creator) string {
	if c.Name != "" {
		return c.Name
	}
	return "this creator"
}

func humanDuration(d time.Duration) string {
	if d < time.Minute {
		return "less than a minute"
	}
	return strings.TrimSuffix(d.Round(time.Minute).String(), "0s")
}
