package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/bwmarrin/discordgo"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"showcase-bot/bot"
	"showcase-bot/catalog"
	"showcase-bot/command"
	"showcase-bot/config"
	"showcase-bot/creators"
	"showcase-bot/database"
	"showcase-bot/feed"
	healthgrpc "showcase-bot/grpc"
	"showcase-bot/handlers"
	"showcase-bot/lifecycle"
	"showcase-bot/logging"
	"showcase-bot/policy"
	"showcase-bot/showcase"
	"showcase-bot/transport"
	"showcase-bot/trust"
	"showcase-bot/utils"
	"showcase-bot/videoref"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "error loading config:", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel)

	// `showcase-bot healthcheck` probes a running instance and exits.
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		os.Exit(healthcheck(cfg))
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("bot exited with error", "error", err)
		os.Exit(1)
	}
}

func healthcheck(cfg config.Config) int {
	if cfg.Health.Address == "" {
		fmt.Fprintln(os.Stderr, "health.address is not configured")
		return 1
	}
	status, err := healthgrpc.Check(context.Background(), cfg.Health.Address, 5*time.Second)
	if err != nil {
		fmt.Fprintln(os.Stderr, "health check failed:", err)
		return 1
	}
	fmt.Println(status.String())
	if status != healthpb.HealthCheckResponse_SERVING {
		return 1
	}
	return 0
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx := logging.WithLogger(context.Background(), logger)

	store, err := database.InitDB(ctx, cfg.Bot.DatabasePath)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer store.Close()

	if err := store.SeedTrustLevels(ctx, cfg.TrustLevelModels()); err != nil {
		return fmt.Errorf("seed trust levels: %w", err)
	}

	services := videoref.NewServices(cfg.Platforms.YouTubeAPIKey, cfg.Platforms.YouTubeBaseURL, cfg.Platforms.YTDLPPath, cfg.Platforms.YTDLPTimeout)
	resolver := videoref.NewResolver(videoref.DefaultProviders()...)
	registry := creators.NewRegistry(store, services, creators.ThresholdClassifier(cfg.Popularity.Thresholds))
	videos := catalog.New(store, registry, services)
	engine := trust.NewEngine(store, trust.NoopPromoter{})
	pipeline := policy.NewPipeline(engine, videos, registry, store, cfg.Bot.Platforms())

	b, err := bot.NewBot(cfg.BotToken)
	if err != nil {
		return err
	}
	b.RegisterCommands(command.AllCommands)

	discord := transport.New(b.Session, cfg.Bot.VotingWindow)
	promoter := showcase.NewPromoter(store, discord)

	h := handlers.New(handlers.Deps{
		Store:          store,
		Pipeline:       pipeline,
		Resolver:       resolver,
		Catalog:        videos,
		Trust:          engine,
		Transport:      discord,
		Auth:           utils.NewAuth(cfg.Bot.Developers),
		Safety:         utils.NewSafetyLogger(store, discord),
		Reactions:      []string{cfg.Bot.Reactions.Up, cfg.Bot.Reactions.Down, cfg.Bot.Reactions.Report},
		ConfirmTimeout: cfg.Bot.ConfirmTimeout,
	})

	tallier := lifecycle.NewTallier(store, discord, promoter, lifecycle.Reactions{
		Up:     cfg.Bot.Reactions.Up,
		Down:   cfg.Bot.Reactions.Down,
		Report: cfg.Bot.Reactions.Report,
	}, cfg.Bot.VotingWindow, cfg.Bot.WorkerCount)

	crossPoster := feed.NewCrossPoster(store, feed.NewRedditClient(cfg.Feed.BaseURL, cfg.Feed.UserAgent), resolver, videos, promoter, feed.Options{
		Limit:   cfg.Feed.Limit,
		Delay:   cfg.Feed.Delay,
		Workers: cfg.Bot.WorkerCount,
	})

	scheduler, err := bot.NewScheduler(
		bot.Job{Name: "tally", Spec: cfg.Bot.TallySchedule, Run: tallier.Run},
		bot.Job{Name: "feed", Spec: cfg.Bot.FeedSchedule, Run: crossPoster.Run},
		bot.Job{Name: "cleanup", Spec: cfg.Bot.CleanupSchedule, Run: func(ctx context.Context) error {
			n, err := store.PurgeExpiredModifiers(ctx, time.Now().Add(-cfg.Bot.ModifierRetention))
			if err != nil {
				return err
			}
			logging.FromContext(ctx).Info("purged expired modifiers", "count", n)
			return nil
		}},
	)
	if err != nil {
		return err
	}
	b.Schedule(scheduler)

	if cfg.Health.Address != "" {
		health := healthgrpc.NewHealthServer(cfg.Health.Address)
		if err := health.Start(); err != nil {
			return err
		}
		logger.Info("health server listening", "address", health.Addr())
		b.OnReady(func() { health.SetServing(true) })
		b.OnStop(health.Stop)
	}

	return b.Run(func(s *discordgo.Session) {
		h.Register(s)
	})
}
