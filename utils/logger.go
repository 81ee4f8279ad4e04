package utils

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"showcase-bot/embed"
	"showcase-bot/logging"
	"showcase-bot/models"
)

const (
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// GuildConfigs loads a guild's settings.
type GuildConfigs interface {
	GuildConfig(ctx context.Context, guildID string) (models.GuildConfig, error)
}

// EmbedSender posts an embed to a channel.
type EmbedSender interface {
	SendEmbed(channelID string, em *discordgo.MessageEmbed) error
}

// SafetyLogger writes moderation events to each guild's safety-log channel.
// Guilds without one, or sends that fail, fall back to the process log.
type SafetyLogger struct {
	guilds GuildConfigs
	sender EmbedSender
}

func NewSafetyLogger(guilds GuildConfigs, sender EmbedSender) *SafetyLogger {
	return &SafetyLogger{guilds: guilds, sender: sender}
}

// Log sends a safety-log entry for guildID.
func (l *SafetyLogger) Log(ctx context.Context, guildID, level, title, details string) {
	logger := logging.FromContext(ctx).With("guild_id", guildID, "safety_title", title)
	logger.Log(ctx, slogLevel(level), details)

	cfg, err := l.guilds.GuildConfig(ctx, guildID)
	if err != nil {
		logger.Warn("failed to load guild config for safety log", "error", err)
		return
	}
	channelID, ok := cfg.Setting(models.SettingSafetyLogChannel)
	if !ok {
		return
	}
	if err := l.sender.SendEmbed(channelID, embed.Log(level, title, details)); err != nil {
		logger.Warn("failed to send safety log", "channel_id", channelID, "error", err)
	}
}

// Info logs an informational entry.
func (l *SafetyLogger) Info(ctx context.Context, guildID, title, details string) {
	l.Log(ctx, guildID, LevelInfo, title, details)
}

// Warn logs a warning.
func (l *SafetyLogger) Warn(ctx context.Context, guildID, title, details string) {
	l.Log(ctx, guildID, LevelWarn, title, details)
}

// Error logs an error.
func (l *SafetyLogger) Error(ctx context.Context, guildID, title, details string) {
	l.Log(ctx, guildID, LevelError, title, details)
}

func slogLevel(level string) slog.Level {
	switch level {
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
