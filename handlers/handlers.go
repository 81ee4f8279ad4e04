package handlers

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"showcase-bot/catalog"
	"showcase-bot/embed"
	"showcase-bot/logging"
	"showcase-bot/models"
	"showcase-bot/policy"
	"showcase-bot/utils"
	"showcase-bot/videoref"
)

// Store is the persistence used by event and command handlers.
type Store interface {
	EnsureGuild(ctx context.Context, guildID, name string) error
	SetGuildActive(ctx context.Context, guildID string, active bool) error
	GuildConfig(ctx context.Context, guildID string) (models.GuildConfig, error)
	SetGuildSetting(ctx context.Context, guildID, name, value string) error
	AddGuildRole(ctx context.Context, guildID string, roleType models.RoleType, roleID string) error
	RemoveGuildRole(ctx context.Context, guildID string, roleType models.RoleType, roleID string) error
	EnsureUser(ctx context.Context, guildID, discordID string, firstSeen time.Time) (models.User, error)
	CreateSubmission(ctx context.Context, sub models.VideoSubmission) (models.VideoSubmission, error)
	UserSubmissions(ctx context.Context, userID int64, limit int) ([]models.VideoSubmission, error)
	VideoByID(ctx context.Context, id int64) (models.Video, error)
	LinkCreator(ctx context.Context, userID, creatorID int64) error
	DeleteActiveSubmissionByMessage(ctx context.Context, channelID, messageID string) (int64, error)
}

type Evaluator interface {
	Evaluate(ctx context.Context, ev policy.Event, pc policy.Context) (policy.Decision, []policy.Effect, error)
}

type Resolver interface {
	Resolve(texts ...string) []videoref.Reference
	Parse(raw string) (videoref.Reference, bool)
}

type Catalog interface {
	Details(ctx context.Context, ref videoref.Reference, cacheOnly bool) (catalog.Metadata, error)
	Record(ctx context.Context, md catalog.Metadata, lengthOverride *int) (models.Video, *models.Creator, error)
}

type Trust interface {
	SetModifier(ctx context.Context, target models.TargetRef, flag models.Flag, reason string, duration time.Duration, createdBy *int64) (models.Modifier, error)
	ClearModifiers(ctx context.Context, target models.TargetRef) (int64, error)
	AfterSubmission(ctx context.Context, user models.User) error
}

type Transport interface {
	PostSubmission(channelID string, e embed.Entry, reactions []string) (string, error)
	DeleteMessage(channelID, messageID string) error
	DirectMessage(userID, content string) error
}

type SafetyLog interface {
	Log(ctx context.Context, guildID, level, title, details string)
}

// Deps are the collaborators a Handler needs.
type Deps struct {
	Store          Store
	Pipeline       Evaluator
	Resolver       Resolver
	Catalog        Catalog
	Trust          Trust
	Transport      Transport
	Auth           *utils.Auth
	Safety         SafetyLog
	Reactions      []string
	ConfirmTimeout time.Duration
}

// Handler holds the gateway event and interaction handlers.
type Handler struct {
	store     Store
	pipeline  Evaluator
	resolver  Resolver
	catalog   Catalog
	trust     Trust
	transport Transport
	auth      *utils.Auth
	safety    SafetyLog
	reactions []string
	confirms  *Confirmations
}

func New(d Deps) *Handler {
	return &Handler{
		store:     d.Store,
		pipeline:  d.Pipeline,
		resolver:  d.Resolver,
		catalog:   d.Catalog,
		trust:     d.Trust,
		transport: d.Transport,
		auth:      d.Auth,
		safety:    d.Safety,
		reactions: d.Reactions,
		confirms:  NewConfirmations(d.ConfirmTimeout),
	}
}

// Register adds all handlers to the session.
func (h *Handler) Register(s *discordgo.Session) {
	s.AddHandler(h.InteractionCreate)
	s.AddHandler(h.MessageCreate)
	s.AddHandler(h.MessageDelete)
	s.AddHandler(h.GuildCreate)
	s.AddHandler(h.GuildDelete)
	s.AddHandler(h.MemberAdd)

	s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		logging.FromContext(context.Background()).Info("logged in",
			"user", r.User.Username, "guilds", len(r.Guilds))
	})
}

// eventContext starts a span for one gateway event.
func eventContext(name string, args ...any) (context.Context, *logging.Span) {
	ctx, span := logging.StartSpan(context.Background(), name)
	if len(args) > 0 {
		ctx = logging.With(ctx, args...)
	}
	return ctx, span
}
