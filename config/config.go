package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"showcase-bot/models"
)

// Config is the resolved process configuration.
type Config struct {
	BotToken    string             `mapstructure:"bot_token"`
	LogLevel    string             `mapstructure:"log_level"`
	Bot         BotConfig          `mapstructure:"bot"`
	Feed        FeedConfig         `mapstructure:"feed"`
	Platforms   PlatformsConfig    `mapstructure:"platforms"`
	Popularity  PopularityConfig   `mapstructure:"popularity"`
	TrustLevels []TrustLevelConfig `mapstructure:"trust_levels"`
	Health      HealthConfig       `mapstructure:"health"`
}

type BotConfig struct {
	Developers         []string        `mapstructure:"developers"`
	DatabasePath       string          `mapstructure:"database_path"`
	SupportedPlatforms []string        `mapstructure:"supported_platforms"`
	Reactions          ReactionsConfig `mapstructure:"reactions"`
	TallySchedule      string          `mapstructure:"tally_schedule"`
	FeedSchedule       string          `mapstructure:"feed_schedule"`
	CleanupSchedule    string          `mapstructure:"cleanup_schedule"`
	ModifierRetention  time.Duration   `mapstructure:"modifier_retention"`
	WorkerCount        int             `mapstructure:"worker_count"`
	VotingWindow       time.Duration   `mapstructure:"voting_window"`
	ConfirmTimeout     time.Duration   `mapstructure:"confirm_timeout"`
}

// ReactionsConfig holds the emoji used as vote affordances on firehose posts.
type ReactionsConfig struct {
	Up     string `mapstructure:"up"`
	Down   string `mapstructure:"down"`
	Report string `mapstructure:"report"`
}

type FeedConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Limit     int           `mapstructure:"limit"`
	Delay     time.Duration `mapstructure:"delay"`
	UserAgent string        `mapstructure:"user_agent"`
}

type PlatformsConfig struct {
	YouTubeAPIKey  string        `mapstructure:"youtube_api_key"`
	YouTubeBaseURL string        `mapstructure:"youtube_base_url"`
	YTDLPPath      string        `mapstructure:"ytdlp_path"`
	YTDLPTimeout   time.Duration `mapstructure:"ytdlp_timeout"`
}

// PopularityConfig lists follower counts at which each successive tier starts.
type PopularityConfig struct {
	Thresholds []int64 `mapstructure:"thresholds"`
}

type TrustLevelConfig struct {
	Rank               int           `mapstructure:"rank"`
	Name               string        `mapstructure:"name"`
	ActivityThreshold  int           `mapstructure:"activity_threshold"`
	AllowedSubmissions int           `mapstructure:"allowed_submissions"`
	TimePeriod         time.Duration `mapstructure:"time_period"`
}

type HealthConfig struct {
	Address string `mapstructure:"address"`
}

// TrustLevelModels converts the configured tiers for seeding.
func (c Config) TrustLevelModels() []models.TrustLevel {
	levels := make([]models.TrustLevel, 0, len(c.TrustLevels))
	for _, tl := range c.TrustLevels {
		levels = append(levels, models.TrustLevel{
			Rank:               tl.Rank,
			Name:               tl.Name,
			ActivityThreshold:  tl.ActivityThreshold,
			AllowedSubmissions: tl.AllowedSubmissions,
			TimePeriodSeconds:  int64(tl.TimePeriod / time.Second),
		})
	}
	return levels
}

// Platforms returns the supported platforms as typed values.
func (b BotConfig) Platforms() []models.Platform {
	platforms := make([]models.Platform, 0, len(b.SupportedPlatforms))
	for _, p := range b.SupportedPlatforms {
		platforms = append(platforms, models.Platform(strings.ToLower(strings.TrimSpace(p))))
	}
	return platforms
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("bot.database_path", "data/showcase.db")
	v.SetDefault("bot.supported_platforms", []string{
		string(models.PlatformYouTube), string(models.PlatformVimeo), string(models.PlatformTwitch),
		string(models.PlatformStreamable), string(models.PlatformTikTok), string(models.PlatformDailymotion),
	})
	v.SetDefault("bot.reactions.up", "👍")
	v.SetDefault("bot.reactions.down", "👎")
	v.SetDefault("bot.reactions.report", "🚩")
	v.SetDefault("bot.tally_schedule", "@every 5m")
	v.SetDefault("bot.feed_schedule", "@every 30m")
	v.SetDefault("bot.cleanup_schedule", "@daily")
	v.SetDefault("bot.modifier_retention", 90*24*time.Hour)
	v.SetDefault("bot.worker_count", 3)
	v.SetDefault("bot.voting_window", 24*time.Hour)
	v.SetDefault("bot.confirm_timeout", 30*time.Second)
	v.SetDefault("feed.base_url", "https://www.reddit.com")
	v.SetDefault("feed.limit", 25)
	v.SetDefault("feed.delay", 10*time.Second)
	v.SetDefault("feed.user_agent", "showcase-bot/1.0")
	v.SetDefault("platforms.youtube_base_url", "https://www.googleapis.com/youtube/v3")
	v.SetDefault("platforms.ytdlp_path", "yt-dlp")
	v.SetDefault("platforms.ytdlp_timeout", 30*time.Second)
	v.SetDefault("popularity.thresholds", []int64{1000, 100000})
	v.SetDefault("trust_levels", []map[string]any{
		{"rank": 0, "name": "newcomer", "allowed_submissions": 1, "time_period": "24h"},
		{"rank": 1, "name": "regular", "activity_threshold": 10, "allowed_submissions": 3, "time_period": "24h"},
		{"rank": 2, "name": "trusted", "activity_threshold": 50, "allowed_submissions": 5, "time_period": "24h"},
	})
	v.SetDefault("health.address", "")
}

// Load reads configuration from, in order of precedence: environment
// variables (a .env file is loaded first if present), the YAML file at path
// (or ./config.yaml when path is empty), and built-in defaults.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := v.BindEnv("bot_token", "BOT_TOKEN"); err != nil {
		return Config{}, fmt.Errorf("bind BOT_TOKEN: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			slog.Info("config file not found, using environment and defaults")
		} else {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the fields every component depends on.
func (c Config) Validate() error {
	var errs []error
	if c.BotToken == "" {
		errs = append(errs, errors.New("BOT_TOKEN is required"))
	}
	if c.Bot.WorkerCount < 1 {
		errs = append(errs, errors.New("bot.worker_count must be at least 1"))
	}
	if c.Bot.VotingWindow <= 0 {
		errs = append(errs, errors.New("bot.voting_window must be positive"))
	}
	if len(c.Bot.SupportedPlatforms) == 0 {
		errs = append(errs, errors.New("bot.supported_platforms must not be empty"))
	}
	if len(c.TrustLevels) == 0 {
		errs = append(errs, errors.New("at least one trust level is required"))
	}
	for _, tl := range c.TrustLevels {
		if tl.AllowedSubmissions < 1 || tl.TimePeriod <= 0 {
			errs = append(errs, fmt.Errorf("trust level %q needs a positive quota and period", tl.Name))
		}
	}
	for i := 1; i < len(c.Popularity.Thresholds); i++ {
		if c.Popularity.Thresholds[i] <= c.Popularity.Thresholds[i-1] {
			errs = append(errs, errors.New("popularity.thresholds must be strictly increasing"))
			break
		}
	}
	return errors.Join(errs...)
}
