package handlers

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"showcase-bot/logging"
	"showcase-bot/models"
)

// HandleAutocomplete handles all autocomplete interactions.
func (h *Handler) HandleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	switch data.Name {
	case "setting":
		for _, opt := range data.Options {
			if opt.Name == "key" && opt.Focused {
				h.handleSettingAutocomplete(s, i, opt.StringValue())
			}
		}
	}
}

func (h *Handler) handleSettingAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate, typed string) {
	ctx, span := eventContext("autocomplete", "guild_id", i.GuildID)
	defer span.End()

	cfg, err := h.store.GuildConfig(ctx, i.GuildID)
	if err != nil {
		logging.FromContext(ctx).Warn("failed to load guild config for autocomplete", "error", err)
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: settingChoices(cfg, typed),
		},
	})
	if err != nil {
		logging.FromContext(ctx).Warn("failed to respond to autocomplete", "error", err)
	}
}

// settingChoices lists setting keys matching typed, labelled with their
// current values.
func settingChoices(cfg models.GuildConfig, typed string) []*discordgo.ApplicationCommandOptionChoice {
	typed = strings.ToLower(typed)
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(models.SettingKeys))
	for _, key := range models.SettingKeys {
		if !strings.Contains(key, typed) {
			continue
		}
		name := key
		if v, ok := cfg.Setting(key); ok {
			name = fmt.Sprintf("%s (current: %s)", key, v)
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: name, Value: key})
	}
	return choices
}
