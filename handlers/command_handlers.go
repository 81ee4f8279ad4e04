package handlers

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"showcase-bot/embed"
	"showcase-bot/logging"
	"showcase-bot/models"
	"showcase-bot/policy"
	"showcase-bot/utils"
)

// replyError is a failure whose message can be shown to the invoking user.
type replyError struct{ msg string }

func (e replyError) Error() string { return e.msg }

const genericFailure = "🚫 Something went wrong. Please try again later."

// fail reports err to the user, hiding unexpected errors behind a generic message.
func fail(cc commandContext, err error) {
	var re replyError
	if errors.As(err, &re) {
		followupEphemeral(cc.s, cc.i, re.msg)
		return
	}
	logging.FromContext(cc.ctx).Error("command failed", "error", err)
	followupEphemeral(cc.s, cc.i, genericFailure)
}

// HandleSubmit runs a /submit through the submission pipeline.
func (h *Handler) HandleSubmit(cc commandContext) {
	_, opts := options(cc.i)
	if err := deferEphemeral(cc.s, cc.i); err != nil {
		logging.FromContext(cc.ctx).Warn("failed to defer interaction", "error", err)
		return
	}

	ref, ok := h.resolver.Parse(opts["url"].StringValue())
	if !ok {
		followupEphemeral(cc.s, cc.i, "That doesn't look like a link to a supported video.")
		return
	}

	ev := policy.Event{
		Source:      policy.SourceCommand,
		ChannelID:   cc.i.ChannelID,
		AuthorID:    cc.user.ID,
		MemberRoles: cc.i.Member.Roles,
		Reference:   ref,
	}
	if opt, ok := opts["duration"]; ok {
		seconds := int(opt.IntValue())
		ev.LengthSeconds = &seconds
	}
	if opt, ok := opts["keep_timestamp"]; ok {
		keep := opt.BoolValue()
		ev.KeepTimestamp = &keep
	}

	user, err := h.store.EnsureUser(cc.ctx, cc.i.GuildID, cc.user.ID, cc.i.Member.JoinedAt)
	if err != nil {
		fail(cc, err)
		return
	}
	r := &interactionResponder{h: h, s: cc.s, i: cc.i}
	if _, err := h.submit(cc.ctx, ev, policy.Context{Guild: cc.guild, User: user}, r); err != nil {
		fail(cc, err)
	}
}

// resolveTarget turns a /flag or /unflag subcommand into a modifier target.
func (h *Handler) resolveTarget(cc commandContext, sub string, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) (models.TargetRef, string, error) {
	switch sub {
	case "user":
		member := opts["user"].UserValue(nil)
		user, err := h.store.EnsureUser(cc.ctx, cc.i.GuildID, member.ID, time.Time{})
		if err != nil {
			return models.TargetRef{}, "", err
		}
		return models.UserTarget(user.ID), fmt.Sprintf("<@%s>", member.ID), nil
	case "creator":
		creator, err := h.resolveCreator(cc, opts["url"].StringValue())
		if err != nil {
			return models.TargetRef{}, "", err
		}
		return models.CreatorTarget(creator.ID), creatorName(creator), nil
	}
	return models.TargetRef{}, "", replyError{msg: "Unknown target."}
}

func (h *Handler) resolveCreator(cc commandContext, raw string) (models.Creator, error) {
	ref, ok := h.resolver.Parse(raw)
	if !ok {
		return models.Creator{}, replyError{msg: "That doesn't look like a link to a supported video."}
	}
	md, err := h.catalog.Details(cc.ctx, ref, false)
	if err != nil {
		return models.Creator{}, err
	}
	if md.Details.CreatorID == "" {
		return models.Creator{}, replyError{msg: "I couldn't work out who published that video."}
	}
	_, creator, err := h.catalog.Record(cc.ctx, md, nil)
	if err != nil {
		return models.Creator{}, err
	}
	if creator == nil {
		return models.Creator{}, replyError{msg: "I couldn't work out who published that video."}
	}
	return *creator, nil
}

func creatorName(c models.Creator) string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("%s creator %s", c.Platform, c.PlatformID)
}

// HandleFlag sets an allow or deny modifier, replacing any active one.
func (h *Handler) HandleFlag(cc commandContext) {
	sub, opts := options(cc.i)
	if err := deferEphemeral(cc.s, cc.i); err != nil {
		return
	}

	target, label, err := h.resolveTarget(cc, sub, opts)
	if err != nil {
		fail(cc, err)
		return
	}

	flag := models.Flag(opts["flag"].StringValue())
	reason := opts["reason"].StringValue()
	var duration time.Duration
	if opt, ok := opts["days"]; ok {
		duration = time.Duration(opt.IntValue()) * 24 * time.Hour
	}

	invoker, err := h.store.EnsureUser(cc.ctx, cc.i.GuildID, cc.user.ID, cc.i.Member.JoinedAt)
	if err != nil {
		fail(cc, err)
		return
	}
	m, err := h.trust.SetModifier(cc.ctx, target, flag, reason, duration, &invoker.ID)
	if err != nil {
		logging.FromContext(cc.ctx).Error("failed to set modifier", "error", err)
		followupEphemeral(cc.s, cc.i, "🚫 Setting the flag failed; nothing was changed.")
		return
	}

	expiry := "permanently"
	if m.ExpiresAt != nil {
		expiry = fmt.Sprintf("until <t:%d:f>", m.ExpiresAt.Unix())
	}
	followupEphemeral(cc.s, cc.i, fmt.Sprintf("✅ %s is now **%s** %s.", label, flag, expiry))
	h.safety.Log(cc.ctx, cc.i.GuildID, utils.LevelInfo, "Flag set",
		fmt.Sprintf("<@%s> set %s on %s %s: %s", cc.user.ID, flag, label, expiry, reason))
}

// HandleUnflag expires every active modifier on a user or creator.
func (h *Handler) HandleUnflag(cc commandContext) {
	sub, opts := options(cc.i)
	if err := deferEphemeral(cc.s, cc.i); err != nil {
		return
	}

	target, label, err := h.resolveTarget(cc, sub, opts)
	if err != nil {
		fail(cc, err)
		return
	}
	n, err := h.trust.ClearModifiers(cc.ctx, target)
	if err != nil {
		logging.FromContext(cc.ctx).Error("failed to clear modifiers", "error", err)
		followupEphemeral(cc.s, cc.i, "🚫 Removing the flag failed; nothing was changed.")
		return
	}
	if n == 0 {
		followupEphemeral(cc.s, cc.i, fmt.Sprintf("%s has no active flag.", label))
		return
	}
	followupEphemeral(cc.s, cc.i, fmt.Sprintf("✅ Removed the flag from %s.", label))
	h.safety.Log(cc.ctx, cc.i.GuildID, utils.LevelInfo, "Flag removed",
		fmt.Sprintf("<@%s> removed the flag from %s", cc.user.ID, label))
}

// normalizeSetting validates a setting value, unwrapping channel mentions.
func normalizeSetting(key, value string) (string, error) {
	if !slices.Contains(models.SettingKeys, key) {
		return "", replyError{msg: fmt.Sprintf("Unknown setting %q.", key)}
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}

	switch key {
	case models.SettingMinLength, models.SettingMaxLength:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return "", replyError{msg: fmt.Sprintf("%s must be a whole number of seconds.", key)}
		}
		return strconv.Itoa(n), nil
	case models.SettingRateLimitMode:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return "", replyError{msg: fmt.Sprintf("%s must be true or false.", key)}
		}
		return strconv.FormatBool(b), nil
	case models.SettingFeedSource:
		return strings.TrimPrefix(strings.TrimPrefix(value, "/"), "r/"), nil
	default:
		id := strings.TrimSuffix(strings.TrimPrefix(value, "<#"), ">")
		if _, err := strconv.ParseUint(id, 10, 64); err != nil {
			return "", replyError{msg: fmt.Sprintf("%s must be a channel or category id.", key)}
		}
		return id, nil
	}
}

// HandleSetting changes one guild setting.
func (h *Handler) HandleSetting(cc commandContext) {
	_, opts := options(cc.i)
	if err := deferEphemeral(cc.s, cc.i); err != nil {
		return
	}

	key := opts["key"].StringValue()
	raw := ""
	if opt, ok := opts["value"]; ok {
		raw = opt.StringValue()
	}
	value, err := normalizeSetting(key, raw)
	if err != nil {
		fail(cc, err)
		return
	}
	if err := h.store.SetGuildSetting(cc.ctx, cc.i.GuildID, key, value); err != nil {
		fail(cc, err)
		return
	}

	if value == "" {
		followupEphemeral(cc.s, cc.i, fmt.Sprintf("✅ Cleared `%s`.", key))
	} else {
		followupEphemeral(cc.s, cc.i, fmt.Sprintf("✅ Set `%s` to `%s`.", key, value))
	}
	h.safety.Log(cc.ctx, cc.i.GuildID, utils.LevelInfo, "Setting changed",
		fmt.Sprintf("<@%s> set %s to %q", cc.user.ID, key, value))
}

// HandleRole adds or removes a special role association.
func (h *Handler) HandleRole(cc commandContext) {
	sub, opts := options(cc.i)
	if err := deferEphemeral(cc.s, cc.i); err != nil {
		return
	}

	roleType := models.RoleType(opts["type"].StringValue())
	if !slices.Contains(models.RoleTypes, roleType) {
		fail(cc, replyError{msg: fmt.Sprintf("Unknown role type %q.", roleType)})
		return
	}
	role := opts["role"].RoleValue(nil, cc.i.GuildID)

	var err error
	var verb string
	switch sub {
	case "add":
		err = h.store.AddGuildRole(cc.ctx, cc.i.GuildID, roleType, role.ID)
		verb = "added to"
	case "remove":
		err = h.store.RemoveGuildRole(cc.ctx, cc.i.GuildID, roleType, role.ID)
		verb = "removed from"
	default:
		err = replyError{msg: "Unknown subcommand."}
	}
	if err != nil {
		fail(cc, err)
		return
	}
	followupEphemeral(cc.s, cc.i, fmt.Sprintf("✅ <@&%s> %s `%s`.", role.ID, verb, roleType))
	h.safety.Log(cc.ctx, cc.i.GuildID, utils.LevelInfo, "Role changed",
		fmt.Sprintf("<@%s>: <@&%s> %s %s", cc.user.ID, role.ID, verb, roleType))
}

// HandleCreator links the invoking member to a creator.
func (h *Handler) HandleCreator(cc commandContext) {
	sub, opts := options(cc.i)
	if err := deferEphemeral(cc.s, cc.i); err != nil {
		return
	}
	if sub != "claim" {
		fail(cc, replyError{msg: "Unknown subcommand."})
		return
	}
	if cc.guild.DefinesRole(models.RoleContentCreator) && !cc.guild.MemberHasRole(models.RoleContentCreator, cc.i.Member.Roles) {
		fail(cc, replyError{msg: "You need the content creator role to claim a channel."})
		return
	}

	creator, err := h.resolveCreator(cc, opts["url"].StringValue())
	if err != nil {
		fail(cc, err)
		return
	}
	user, err := h.store.EnsureUser(cc.ctx, cc.i.GuildID, cc.user.ID, cc.i.Member.JoinedAt)
	if err != nil {
		fail(cc, err)
		return
	}
	if err := h.store.LinkCreator(cc.ctx, user.ID, creator.ID); err != nil {
		fail(cc, err)
		return
	}
	followupEphemeral(cc.s, cc.i, fmt.Sprintf("✅ Linked you to **%s**. Your own videos will be showcased as original content.", creatorName(creator)))
	h.safety.Log(cc.ctx, cc.i.GuildID, utils.LevelInfo, "Creator claimed",
		fmt.Sprintf("<@%s> claimed %s", cc.user.ID, creatorName(creator)))
}

// HandleStanding shows the invoker's recent submissions.
func (h *Handler) HandleStanding(cc commandContext) {
	if err := deferEphemeral(cc.s, cc.i); err != nil {
		return
	}
	user, err := h.store.EnsureUser(cc.ctx, cc.i.GuildID, cc.user.ID, cc.i.Member.JoinedAt)
	if err != nil {
		fail(cc, err)
		return
	}
	subs, err := h.store.UserSubmissions(cc.ctx, user.ID, 10)
	if err != nil {
		fail(cc, err)
		return
	}

	rows := make([]embed.StandingRow, 0, len(subs))
	for _, sub := range subs {
		title := fmt.Sprintf("Video #%d", sub.VideoID)
		if v, err := h.store.VideoByID(cc.ctx, sub.VideoID); err == nil && v.Title != "" {
			title = v.Title
		}
		rows = append(rows, embed.StandingRow{
			Title:     title,
			Link:      models.PriorPost{GuildID: sub.GuildID, ChannelID: sub.ChannelID, MessageID: sub.MessageID}.Link(),
			Upvotes:   sub.Upvotes,
			Downvotes: sub.Downvotes,
			Active:    sub.Active,
			CreatedAt: sub.CreatedAt,
		})
	}
	cc.s.FollowupMessageCreate(cc.i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed.Standing(cc.user.Username, rows)},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
}

// HandlePing handles the logic for the /ping command.
func HandlePing(s *discordgo.Session, i *discordgo.InteractionCreate) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Pong!",
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}
