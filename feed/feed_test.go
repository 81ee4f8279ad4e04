package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"showcase-bot/catalog"
	"showcase-bot/database"
	"showcase-bot/models"
	"showcase-bot/showcase"
	"showcase-bot/videoref"
)

var testNow = time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)

func TestRedditClientTop(t *testing.T) {
	var gotPath, gotQuery, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery, gotAgent = r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"children":[
			{"data":{"url":"https://youtu.be/abc123def45","author":"alice","created_utc":1780000000,"is_self":false,"is_video":false,"permalink":"/r/videos/comments/1/x/"}},
			{"data":{"url":"https://www.reddit.com/r/videos/comments/2/","author":"bob","created_utc":1780000000,"is_self":true,"is_video":false,"permalink":"/r/videos/comments/2/y/"}}
		]}}`))
	}))
	defer server.Close()

	client := NewRedditClient(server.URL, "showcase-bot/test")
	items, err := client.Top(context.Background(), "r/videos", 10)
	if err != nil {
		t.Fatalf("Top returned error: %v", err)
	}
	if gotPath != "/r/videos/top.json" || gotQuery != "limit=10&t=week" {
		t.Fatalf("unexpected request %s?%s", gotPath, gotQuery)
	}
	if gotAgent != "showcase-bot/test" {
		t.Fatalf("unexpected user agent %q", gotAgent)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Permalink != "https://www.reddit.com/r/videos/comments/1/x/" || items[0].Author != "alice" {
		t.Fatalf("unexpected item: %+v", items[0])
	}
	if !items[0].External() || items[1].External() {
		t.Fatal("only the first item links off-site")
	}
}

func TestRedditClientStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	if _, err := NewRedditClient(server.URL, "ua").Top(context.Background(), "videos", 5); err == nil {
		t.Fatal("expected an error for a 429 response")
	}
}

type stubSource struct{ items []Item }

func (s *stubSource) Top(context.Context, string, int) ([]Item, error) { return s.items, nil }

type stubStore struct {
	cfg   models.GuildConfig
	prior map[int64]bool
}

func (s *stubStore) ActiveGuilds(context.Context) ([]models.Guild, error) {
	return []models.Guild{s.cfg.Guild}, nil
}

func (s *stubStore) GuildConfig(context.Context, string) (models.GuildConfig, error) { return s.cfg, nil }

func (s *stubStore) LatestPriorPost(_ context.Context, _ string, videoID int64, _ time.Time) (models.PriorPost, error) {
	if s.prior[videoID] {
		return models.PriorPost{}, nil
	}
	return models.PriorPost{}, database.ErrNotFound
}

type stubCatalog struct{ ids map[string]int64 }

func (s *stubCatalog) Details(_ context.Context, ref videoref.Reference, _ bool) (catalog.Metadata, error) {
	return catalog.Metadata{Reference: ref, Details: videoref.Details{Title: "title " + ref.ID}}, nil
}

func (s *stubCatalog) Record(_ context.Context, md catalog.Metadata, _ *int) (models.Video, *models.Creator, error) {
	id, ok := s.ids[md.Reference.ID]
	if !ok {
		id = int64(len(s.ids) + 1)
		s.ids[md.Reference.ID] = id
	}
	return models.Video{ID: id, PlatformID: md.Reference.ID, URL: md.Reference.URL, Title: md.Details.Title}, nil, nil
}

type stubPromoter struct{ requests []showcase.Request }

func (s *stubPromoter) Promote(_ context.Context, req showcase.Request) (models.ShowcasePost, error) {
	s.requests = append(s.requests, req)
	return models.ShowcasePost{VideoID: req.Video.ID}, nil
}

func TestProcessGuildFiltersItems(t *testing.T) {
	old := testNow.Add(-48 * time.Hour)
	source := &stubSource{items: []Item{
		{URL: "https://www.youtube.com/watch?v=aaaaaaaaaaa", Author: "alice", Permalink: "https://www.reddit.com/r/v/1", CreatedAt: old},
		{URL: "https://www.youtube.com/watch?v=bbbbbbbbbbb", Author: "bob", Permalink: "https://www.reddit.com/r/v/2", CreatedAt: testNow.Add(-time.Hour)},
		{URL: "https://www.reddit.com/r/v/3", Author: "carol", CreatedAt: old, IsSelf: true},
		{URL: "https://v.redd.it/xyz", Author: "dan", CreatedAt: old, IsVideo: true},
		{URL: "https://example.com/article", Author: "erin", CreatedAt: old},
		{URL: "https://www.youtube.com/watch?v=ccccccccccc", Author: "frank", CreatedAt: old},
	}}
	videos := &stubCatalog{ids: map[string]int64{"ccccccccccc": 99}}
	store := &stubStore{
		cfg: models.GuildConfig{
			Guild:    models.Guild{ID: "g1", Active: true},
			Settings: map[string]string{models.SettingFeedSource: "videos"},
		},
		prior: map[int64]bool{99: true},
	}
	promoter := &stubPromoter{}

	cp := NewCrossPoster(store, source, videoref.NewResolver(videoref.DefaultProviders()...), videos, promoter, Options{Limit: 10})
	cp.WithNowFunc(func() time.Time { return testNow })

	promoted, err := cp.ProcessGuild(context.Background(), "g1")
	if err != nil {
		t.Fatalf("ProcessGuild returned error: %v", err)
	}
	if promoted != 1 || len(promoter.requests) != 1 {
		t.Fatalf("expected exactly one promotion, got %d", promoted)
	}
	req := promoter.requests[0]
	if req.Submission != nil || req.ExternalSubmitter != "alice" || req.ExternalURL != "https://www.reddit.com/r/v/1" {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestProcessGuildWithoutFeedSource(t *testing.T) {
	store := &stubStore{cfg: models.GuildConfig{Guild: models.Guild{ID: "g1"}}}
	source := &stubSource{items: []Item{{URL: "https://www.youtube.com/watch?v=aaaaaaaaaaa", CreatedAt: testNow.Add(-48 * time.Hour)}}}
	promoter := &stubPromoter{}
	cp := NewCrossPoster(store, source, videoref.NewResolver(videoref.DefaultProviders()...), &stubCatalog{ids: map[string]int64{}}, promoter, Options{})

	promoted, err := cp.ProcessGuild(context.Background(), "g1")
	if err != nil || promoted != 0 || len(promoter.requests) != 0 {
		t.Fatalf("expected a no-op, got %d promoted, err %v", promoted, err)
	}
}
