package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"

	"showcase-bot/models"
)

func guild() models.GuildConfig {
	return models.GuildConfig{
		Guild:    models.Guild{ID: "g1"},
		Settings: map[string]string{models.SettingSafetyLogChannel: "safety"},
		Roles:    map[models.RoleType][]string{models.RoleJanitor: {"janitor-role"}},
	}
}

func TestCheckPermission(t *testing.T) {
	auth := NewAuth([]string{"dev"})
	member := func(id string, roles ...string) *discordgo.Member {
		return &discordgo.Member{User: &discordgo.User{ID: id}, Roles: roles}
	}

	tests := []struct {
		name   string
		member *discordgo.Member
		level  string
		want   bool
	}{
		{name: "developer", member: member("dev"), level: LevelDeveloper, want: true},
		{name: "janitor is not developer", member: member("u1", "janitor-role"), level: LevelDeveloper, want: false},
		{name: "janitor role", member: member("u1", "janitor-role"), level: LevelJanitor, want: true},
		{name: "developer counts as janitor", member: member("dev"), level: LevelJanitor, want: true},
		{name: "plain member", member: member("u2", "other"), level: LevelJanitor, want: false},
		{name: "guest", member: member("u2"), level: LevelGuest, want: true},
		{name: "unknown level", member: member("dev"), level: "owner", want: false},
		{name: "no member", member: nil, level: LevelGuest, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := auth.CheckPermission(tt.member, guild(), tt.level); got != tt.want {
				t.Fatalf("CheckPermission = %v, want %v", got, tt.want)
			}
		})
	}
}

type stubGuilds struct {
	cfg models.GuildConfig
	err error
}

func (s stubGuilds) GuildConfig(context.Context, string) (models.GuildConfig, error) { return s.cfg, s.err }

type stubSender struct {
	channels []string
	embeds   []*discordgo.MessageEmbed
}

func (s *stubSender) SendEmbed(channelID string, em *discordgo.MessageEmbed) error {
	s.channels = append(s.channels, channelID)
	s.embeds = append(s.embeds, em)
	return nil
}

func TestSafetyLoggerSendsToConfiguredChannel(t *testing.T) {
	sender := &stubSender{}
	NewSafetyLogger(stubGuilds{cfg: guild()}, sender).Error(context.Background(), "g1", "Creator denied", "details")

	if len(sender.channels) != 1 || sender.channels[0] != "safety" {
		t.Fatalf("expected one send to the safety channel, got %v", sender.channels)
	}
	if sender.embeds[0].Color != 0xff0000 {
		t.Fatalf("expected error color, got %#x", sender.embeds[0].Color)
	}
}

func TestSafetyLoggerFallsBack(t *testing.T) {
	sender := &stubSender{}
	cfg := guild()
	delete(cfg.Settings, models.SettingSafetyLogChannel)
	NewSafetyLogger(stubGuilds{cfg: cfg}, sender).Warn(context.Background(), "g1", "t", "d")
	NewSafetyLogger(stubGuilds{err: errors.New("locked")}, sender).Warn(context.Background(), "g1", "t", "d")

	if len(sender.channels) != 0 {
		t.Fatalf("expected no sends, got %v", sender.channels)
	}
}
