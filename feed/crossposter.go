package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"

	"showcase-bot/catalog"
	"showcase-bot/database"
	"showcase-bot/logging"
	"showcase-bot/models"
	"showcase-bot/showcase"
	"showcase-bot/videoref"
)

// MinimumAge is how old an item must be before it is considered.
const MinimumAge = 24 * time.Hour

type Store interface {
	ActiveGuilds(ctx context.Context) ([]models.Guild, error)
	GuildConfig(ctx context.Context, guildID string) (models.GuildConfig, error)
	LatestPriorPost(ctx context.Context, guildID string, videoID int64, since time.Time) (models.PriorPost, error)
}

type Resolver interface {
	Parse(raw string) (videoref.Reference, bool)
}

type Catalog interface {
	Details(ctx context.Context, ref videoref.Reference, cacheOnly bool) (catalog.Metadata, error)
	Record(ctx context.Context, md catalog.Metadata, lengthOverride *int) (models.Video, *models.Creator, error)
}

type Promoter interface {
	Promote(ctx context.Context, req showcase.Request) (models.ShowcasePost, error)
}

// Options tune a CrossPoster.
type Options struct {
	Limit   int
	Delay   time.Duration
	Workers int
}

type CrossPoster struct {
	store    Store
	source   Source
	resolver Resolver
	catalog  Catalog
	promoter Promoter
	limit    int
	workers  int
	limiter  *rate.Limiter
	now      func() time.Time
}

func NewCrossPoster(store Store, source Source, resolver Resolver, videos Catalog, promoter Promoter, opts Options) *CrossPoster {
	if opts.Limit <= 0 {
		opts.Limit = 25
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &CrossPoster{
		store:    store,
		source:   source,
		resolver: resolver,
		catalog:  videos,
		promoter: promoter,
		limit:    opts.Limit,
		workers:  opts.Workers,
		limiter:  rate.NewLimiter(rate.Every(opts.Delay), 1),
		now:      time.Now,
	}
}

// WithNowFunc overrides the clock.
func (c *CrossPoster) WithNowFunc(now func() time.Time) {
	c.now = now
}

// Run polls the feed of every active guild that configured one.
func (c *CrossPoster) Run(ctx context.Context) error {
	ctx, span := logging.StartSpan(ctx, "feed")
	defer span.End()

	guilds, err := c.store.ActiveGuilds(ctx)
	if err != nil {
		return fmt.Errorf("list active guilds: %w", err)
	}

	p := pool.New().WithContext(ctx).WithMaxGoroutines(c.workers)
	for _, g := range guilds {
		p.Go(func(ctx context.Context) error {
			_, err := c.ProcessGuild(ctx, g.ID)
			return err
		})
	}
	return p.Wait()
}

// ProcessGuild cross-posts eligible items for one guild and returns how many
// were promoted.
func (c *CrossPoster) ProcessGuild(ctx context.Context, guildID string) (int, error) {
	ctx = logging.With(ctx, "guild_id", guildID)
	logger := logging.FromContext(ctx)

	cfg, err := c.store.GuildConfig(ctx, guildID)
	if err != nil {
		return 0, fmt.Errorf("load guild config: %w", err)
	}
	community, ok := cfg.Setting(models.SettingFeedSource)
	if !ok {
		return 0, nil
	}

	items, err := c.source.Top(ctx, community, c.limit)
	if err != nil {
		return 0, err
	}

	promoted := 0
	for _, item := range items {
		if ctx.Err() != nil {
			return promoted, ctx.Err()
		}
		ok, err := c.processItem(ctx, guildID, item)
		if err != nil {
			logger.Error("failed to cross-post feed item", "permalink", item.Permalink, "error", err)
			continue
		}
		if ok {
			promoted++
		}
	}
	if promoted > 0 {
		logger.Info("feed pass complete", "community", community, "promoted", promoted)
	}
	return promoted, nil
}

func (c *CrossPoster) processItem(ctx context.Context, guildID string, item Item) (bool, error) {
	if !item.External() {
		return false, nil
	}
	now := c.now()
	if now.Sub(item.CreatedAt) < MinimumAge {
		return false, nil
	}
	ref, ok := c.resolver.Parse(item.URL)
	if !ok {
		return false, nil
	}

	md, err := c.catalog.Details(ctx, ref, true)
	if err != nil {
		return false, err
	}
	video, creator, err := c.catalog.Record(ctx, md, nil)
	if err != nil {
		return false, err
	}

	_, err = c.store.LatestPriorPost(ctx, guildID, video.ID, now.AddDate(0, -1, 0))
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, database.ErrNotFound):
		return false, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return false, err
	}
	_, err = c.promoter.Promote(ctx, showcase.Request{
		GuildID:           guildID,
		Video:             video,
		Creator:           creator,
		ExternalURL:       item.Permalink,
		ExternalSubmitter: item.Author,
	})
	if errors.Is(err, showcase.ErrNotConfigured) {
		logging.FromContext(ctx).Warn("feed item not promoted", "video", ref.Key(), "error", err)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
