// Package catalog turns resolved video references into persisted Video rows.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"showcase-bot/database"
	"showcase-bot/logging"
	"showcase-bot/models"
	"showcase-bot/videoref"
)

// Store is the persistence the catalog reads and writes.
type Store interface {
	VideoByPlatformID(ctx context.Context, platform models.Platform, platformID string) (models.Video, error)
	CreatorByID(ctx context.Context, id int64) (models.Creator, error)
	UpsertVideo(ctx context.Context, v models.Video) (models.Video, error)
}

// CreatorUpserter records creators referenced by videos.
type CreatorUpserter interface {
	UpsertFromDetails(ctx context.Context, platform models.Platform, platformID, name string) (models.Creator, error)
}

// Metadata is everything known about a reference before it is recorded.
type Metadata struct {
	Reference videoref.Reference
	Details   videoref.Details
	// Existing is the persisted video, when the reference was seen before.
	Existing *models.Video
	// Creator is the persisted owner of Existing, when known.
	Creator *models.Creator
}

// Catalog combines persisted videos with live platform lookups.
type Catalog struct {
	store    Store
	creators CreatorUpserter
	services videoref.Services
}

func New(store Store, creators CreatorUpserter, services videoref.Services) *Catalog {
	return &Catalog{store: store, creators: creators, services: services}
}

// Details looks up the persisted video first. The platform service is called
// unless cacheOnly is set and the persisted row already has a title and
// length. Lookup failures are logged and the partial metadata returned.
func (c *Catalog) Details(ctx context.Context, ref videoref.Reference, cacheOnly bool) (Metadata, error) {
	md := Metadata{Reference: ref}

	existing, err := c.store.VideoByPlatformID(ctx, ref.Platform, ref.ID)
	switch {
	case err == nil:
		md.Existing = &existing
		md.Details = videoref.Details{
			Title:         existing.Title,
			LengthSeconds: existing.LengthSeconds,
			NSFW:          existing.NSFW,
		}
		if existing.CreatorID != nil {
			creator, err := c.store.CreatorByID(ctx, *existing.CreatorID)
			if err != nil && !errors.Is(err, database.ErrNotFound) {
				return Metadata{}, err
			}
			if err == nil {
				md.Creator = &creator
				md.Details.CreatorID = creator.PlatformID
				md.Details.CreatorName = creator.Name
			}
		}
	case errors.Is(err, database.ErrNotFound):
	default:
		return Metadata{}, fmt.Errorf("look up video %s: %w", ref.Key(), err)
	}

	if cacheOnly && md.Details.Complete() {
		return md, nil
	}

	svc, ok := c.services.For(ref.Platform)
	if !ok {
		return md, nil
	}
	live, err := svc.VideoDetails(ctx, ref)
	if err != nil {
		logging.FromContext(ctx).Warn("video metadata lookup failed",
			"platform", ref.Platform, "video", ref.ID, "error", err)
		return md, nil
	}
	md.Details = merge(md.Details, live)
	return md, nil
}

// Record persists the video, upserting its creator first when one is known.
// lengthOverride fills in a missing duration supplied by the submitter.
func (c *Catalog) Record(ctx context.Context, md Metadata, lengthOverride *int) (models.Video, *models.Creator, error) {
	var creator *models.Creator
	if md.Details.CreatorID != "" {
		cr, err := c.creators.UpsertFromDetails(ctx, md.Reference.Platform, md.Details.CreatorID, md.Details.CreatorName)
		if err != nil {
			return models.Video{}, nil, fmt.Errorf("record creator: %w", err)
		}
		creator = &cr
	}

	video := models.Video{
		Platform:      md.Reference.Platform,
		PlatformID:    md.Reference.ID,
		URL:           md.Reference.URL,
		Title:         md.Details.Title,
		LengthSeconds: md.Details.LengthSeconds,
		NSFW:          md.Details.NSFW,
	}
	if video.LengthSeconds == nil {
		video.LengthSeconds = lengthOverride
	}
	if creator != nil {
		video.CreatorID = &creator.ID
	}

	saved, err := c.store.UpsertVideo(ctx, video)
	if err != nil {
		return models.Video{}, nil, fmt.Errorf("record video: %w", err)
	}
	return saved, creator, nil
}

func merge(known, live videoref.Details) videoref.Details {
	if live.Title != "" {
		known.Title = live.Title
	}
	if live.LengthSeconds != nil {
		known.LengthSeconds = live.LengthSeconds
	}
	if live.CreatorID != "" {
		known.CreatorID = live.CreatorID
		known.CreatorName = live.CreatorName
	}
	known.NSFW = known.NSFW || live.NSFW
	return known
}
