package creators

import (
	"context"
	"errors"
	"fmt"
	"time"

	"showcase-bot/database"
	"showcase-bot/logging"
	"showcase-bot/models"
	"showcase-bot/videoref"
)

// Store is the persistence the registry needs.
type Store interface {
	UpsertCreator(ctx context.Context, platform models.Platform, platformID, name string) (models.Creator, error)
	SetCreatorPopularity(ctx context.Context, id int64, popularity int) error
	ActiveModifier(ctx context.Context, target models.TargetRef, now time.Time) (models.Modifier, error)
}

// Classifier maps channel metadata to a popularity tier.
type Classifier func(videoref.ChannelDetails) int

// ThresholdClassifier returns the number of thresholds the follower count
// reaches, so thresholds {1000, 100000} yield tiers 0, 1 and 2.
func ThresholdClassifier(thresholds []int64) Classifier {
	return func(d videoref.ChannelDetails) int {
		tier := 0
		for _, t := range thresholds {
			if d.Followers >= t {
				tier++
			}
		}
		return tier
	}
}

// Registry keeps Creator rows and their popularity classification.
type Registry struct {
	store    Store
	services videoref.Services
	classify Classifier
	now      func() time.Time
}

// NewRegistry builds a registry. A nil classifier uses the default thresholds.
func NewRegistry(store Store, services videoref.Services, classify Classifier) *Registry {
	if classify == nil {
		classify = ThresholdClassifier([]int64{1000, 100000})
	}
	return &Registry{store: store, services: services, classify: classify, now: time.Now}
}

// WithNowFunc overrides the registry clock.
func (r *Registry) WithNowFunc(now func() time.Time) {
	r.now = now
}

// UpsertFromDetails gets or creates the creator for (platform, platformID),
// updating its display name when it has changed.
func (r *Registry) UpsertFromDetails(ctx context.Context, platform models.Platform, platformID, name string) (models.Creator, error) {
	if platformID == "" {
		return models.Creator{}, errors.New("creator platform id is required")
	}
	return r.store.UpsertCreator(ctx, platform, platformID, name)
}

// ActiveModifier returns the creator's active modifier, or nil.
func (r *Registry) ActiveModifier(ctx context.Context, creatorID int64) (*models.Modifier, error) {
	m, err := r.store.ActiveModifier(ctx, models.CreatorTarget(creatorID), r.now())
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// RefreshPopularity returns the cached classification, computing and storing
// it when unknown. A nil result means the tier cannot be determined, either
// because the platform has no channel lookup or because the lookup failed.
func (r *Registry) RefreshPopularity(ctx context.Context, creator *models.Creator) (*int, error) {
	if creator.Popularity != nil {
		return creator.Popularity, nil
	}

	svc, ok := r.services.For(creator.Platform)
	if !ok {
		return nil, nil
	}

	details, err := svc.ChannelDetails(ctx, creator.PlatformID)
	if errors.Is(err, videoref.ErrUnsupported) {
		return nil, nil
	}
	if err != nil {
		logging.FromContext(ctx).Warn("channel lookup failed",
			"platform", creator.Platform, "creator", creator.PlatformID, "error", err)
		return nil, nil
	}

	tier := r.classify(details)
	if err := r.store.SetCreatorPopularity(ctx, creator.ID, tier); err != nil {
		return nil, fmt.Errorf("store popularity for creator %d: %w", creator.ID, err)
	}
	creator.Popularity = &tier
	return &tier, nil
}
