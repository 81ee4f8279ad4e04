package creators

import (
	"context"
	"errors"
	"testing"
	"time"

	"showcase-bot/database"
	"showcase-bot/models"
	"showcase-bot/videoref"
)

type stubStore struct {
	popularity map[int64]int
	modifiers  map[models.TargetRef]models.Modifier
}

func (s *stubStore) UpsertCreator(_ context.Context, platform models.Platform, platformID, name string) (models.Creator, error) {
	return models.Creator{ID: 1, Platform: platform, PlatformID: platformID, Name: name}, nil
}

func (s *stubStore) SetCreatorPopularity(_ context.Context, id int64, popularity int) error {
	if s.popularity == nil {
		s.popularity = make(map[int64]int)
	}
	s.popularity[id] = popularity
	return nil
}

func (s *stubStore) ActiveModifier(_ context.Context, target models.TargetRef, _ time.Time) (models.Modifier, error) {
	m, ok := s.modifiers[target]
	if !ok {
		return models.Modifier{}, database.ErrNotFound
	}
	return m, nil
}

type stubService struct {
	channel videoref.ChannelDetails
	err     error
	calls   int
}

func (s *stubService) VideoDetails(context.Context, videoref.Reference) (videoref.Details, error) {
	return videoref.Details{}, nil
}

func (s *stubService) ChannelDetails(context.Context, string) (videoref.ChannelDetails, error) {
	s.calls++
	return s.channel, s.err
}

func TestThresholdClassifier(t *testing.T) {
	classify := ThresholdClassifier([]int64{1000, 100000})
	cases := map[int64]int{0: 0, 999: 0, 1000: 1, 99999: 1, 100000: 2, 5000000: 2}
	for followers, want := range cases {
		if got := classify(videoref.ChannelDetails{Followers: followers}); got != want {
			t.Errorf("classify(%d) = %d, want %d", followers, got, want)
		}
	}
}

func TestRefreshPopularityCachesResult(t *testing.T) {
	store := &stubStore{}
	svc := &stubService{channel: videoref.ChannelDetails{Followers: 50}}
	registry := NewRegistry(store, videoref.Services{models.PlatformYouTube: svc}, nil)

	creator := &models.Creator{ID: 7, Platform: models.PlatformYouTube, PlatformID: "UC1"}
	tier, err := registry.RefreshPopularity(context.Background(), creator)
	if err != nil {
		t.Fatalf("RefreshPopularity: %v", err)
	}
	if tier == nil || *tier != models.PopularityUnpopular {
		t.Fatalf("expected tier 0, got %v", tier)
	}
	if store.popularity[7] != 0 {
		t.Fatalf("expected stored popularity")
	}

	if _, err := registry.RefreshPopularity(context.Background(), creator); err != nil {
		t.Fatalf("RefreshPopularity: %v", err)
	}
	if svc.calls != 1 {
		t.Fatalf("expected cached classification, got %d lookups", svc.calls)
	}
}

func TestRefreshPopularityUnknownPlatform(t *testing.T) {
	svc := &stubService{err: videoref.ErrUnsupported}
	registry := NewRegistry(&stubStore{}, videoref.Services{models.PlatformVimeo: svc}, nil)

	for _, creator := range []*models.Creator{
		{ID: 1, Platform: models.PlatformVimeo, PlatformID: "v"},
		{ID: 2, Platform: models.PlatformTikTok, PlatformID: "t"},
	} {
		tier, err := registry.RefreshPopularity(context.Background(), creator)
		if err != nil || tier != nil {
			t.Fatalf("expected unknown tier, got %v, %v", tier, err)
		}
	}
}

func TestRefreshPopularityDegradesOnLookupFailure(t *testing.T) {
	svc := &stubService{err: errors.New("quota exceeded")}
	registry := NewRegistry(&stubStore{}, videoref.Services{models.PlatformYouTube: svc}, nil)

	tier, err := registry.RefreshPopularity(context.Background(), &models.Creator{ID: 1, Platform: models.PlatformYouTube})
	if err != nil || tier != nil {
		t.Fatalf("expected unknown tier without error, got %v, %v", tier, err)
	}
}

func TestActiveModifier(t *testing.T) {
	store := &stubStore{modifiers: map[models.TargetRef]models.Modifier{
		models.CreatorTarget(3): {ID: 9, Flag: models.FlagDeny},
	}}
	registry := NewRegistry(store, nil, nil)

	m, err := registry.ActiveModifier(context.Background(), 3)
	if err != nil || m == nil || m.ID != 9 {
		t.Fatalf("expected modifier 9, got %v, %v", m, err)
	}
	m, err = registry.ActiveModifier(context.Background(), 4)
	if err != nil || m != nil {
		t.Fatalf("expected no modifier, got %v, %v", m, err)
	}
}
