package handlers

import (
	"time"

	"github.com/bwmarrin/discordgo"

	"showcase-bot/logging"
	"showcase-bot/models"
	"showcase-bot/policy"
)

// MessageCreate screens every video link posted in a guild's submission channel.
func (h *Handler) MessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	ctx, span := eventContext("message_create", "guild_id", m.GuildID, "user_id", m.Author.ID)
	defer span.End()
	logger := logging.FromContext(ctx)

	cfg, err := h.store.GuildConfig(ctx, m.GuildID)
	if err != nil {
		logger.Error("failed to load guild config", "error", err)
		return
	}
	if channel, ok := cfg.Setting(models.SettingSubmissionChannel); !cfg.Active || !ok || channel != m.ChannelID {
		return
	}

	refs := h.resolver.Resolve(append([]string{m.Content}, embedTexts(m.Embeds)...)...)
	if len(refs) == 0 {
		return
	}

	var roles []string
	var joined time.Time
	if m.Member != nil {
		roles = m.Member.Roles
		joined = m.Member.JoinedAt
	}
	user, err := h.store.EnsureUser(ctx, m.GuildID, m.Author.ID, joined)
	if err != nil {
		logger.Error("failed to load user", "error", err)
		return
	}

	r := &messageResponder{h: h, s: s, m: m}
	for _, ref := range refs {
		ev := policy.Event{
			Source:      policy.SourceMessage,
			ChannelID:   m.ChannelID,
			MessageID:   m.ID,
			AuthorID:    m.Author.ID,
			MemberRoles: roles,
			Reference:   ref,
		}
		if _, err := h.submit(ctx, ev, policy.Context{Guild: cfg, User: user}, r); err != nil {
			logger.Error("failed to process submission", "video", ref.Key(), "error", err)
			r.Notify(ctx, "Something went wrong while processing your submission. Please try again later.")
		}
	}
}

// embedTexts collects every embed field a link can appear in.
func embedTexts(embeds []*discordgo.MessageEmbed) []string {
	var texts []string
	add := func(v string) {
		if v != "" {
			texts = append(texts, v)
		}
	}
	for _, e := range embeds {
		if e == nil {
			continue
		}
		add(e.URL)
		add(e.Title)
		add(e.Description)
		if e.Author != nil {
			add(e.Author.URL)
		}
		if e.Video != nil {
			add(e.Video.URL)
		}
		for _, f := range e.Fields {
			if f != nil {
				add(f.Value)
			}
		}
	}
	return texts
}
