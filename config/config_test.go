package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesFileAndDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	path := writeConfig(t, `
bot:
  developers: ["1", "2"]
  worker_count: 5
  voting_window: 12h
feed:
  delay: 2s
trust_levels:
  - rank: 0
    name: newcomer
    allowed_submissions: 2
    time_period: 6h
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.BotToken != "token" {
		t.Fatalf("expected token from env, got %q", cfg.BotToken)
	}
	if len(cfg.Bot.Developers) != 2 || cfg.Bot.WorkerCount != 5 {
		t.Fatalf("unexpected bot config: %+v", cfg.Bot)
	}
	if cfg.Bot.VotingWindow != 12*time.Hour || cfg.Feed.Delay != 2*time.Second {
		t.Fatalf("durations not decoded: %v %v", cfg.Bot.VotingWindow, cfg.Feed.Delay)
	}
	if cfg.Bot.ConfirmTimeout != 30*time.Second {
		t.Fatalf("expected default confirm timeout, got %v", cfg.Bot.ConfirmTimeout)
	}
	if cfg.Bot.Reactions.Up == "" || cfg.Bot.TallySchedule != "@every 5m" {
		t.Fatalf("defaults missing: %+v", cfg.Bot)
	}

	levels := cfg.TrustLevelModels()
	if len(levels) != 1 || levels[0].TimePeriodSeconds != 6*3600 || levels[0].AllowedSubmissions != 2 {
		t.Fatalf("unexpected trust levels: %+v", levels)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("BOT_WORKER_COUNT", "7")
	path := writeConfig(t, "bot:\n  worker_count: 2\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Bot.WorkerCount != 7 {
		t.Fatalf("expected env override, got %d", cfg.Bot.WorkerCount)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.TrustLevels) != 3 {
		t.Fatalf("expected default trust levels, got %d", len(cfg.TrustLevels))
	}
	if len(cfg.Bot.Platforms()) != 6 {
		t.Fatalf("expected all platforms supported by default, got %v", cfg.Bot.Platforms())
	}
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected missing token error")
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	path := writeConfig(t, "bot: [unterminated\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidateThresholdOrder(t *testing.T) {
	cfg := Config{
		BotToken: "t",
		Bot:      BotConfig{WorkerCount: 1, VotingWindow: time.Hour, SupportedPlatforms: []string{"youtube"}},
		TrustLevels: []TrustLevelConfig{
			{Name: "n", AllowedSubmissions: 1, TimePeriod: time.Hour},
		},
		Popularity: PopularityConfig{Thresholds: []int64{10, 5}},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected threshold ordering error")
	}
}
