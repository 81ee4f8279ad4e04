package videoref

import (
	"testing"

	"showcase-bot/models"
)

func TestResolveRecognisesProviders(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		platform models.Platform
		id       string
		url      string
	}{
		{"watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", models.PlatformYouTube, "dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"short link", "look youtu.be/dQw4w9WgXcQ!", models.PlatformYouTube, "dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"shorts", "http://M.YouTube.com/shorts/dQw4w9WgXcQ/", models.PlatformYouTube, "dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"vimeo", "https://vimeo.com/76979871", models.PlatformVimeo, "76979871", "https://vimeo.com/76979871"},
		{"vimeo player", "https://player.vimeo.com/video/76979871", models.PlatformVimeo, "76979871", "https://vimeo.com/76979871"},
		{"twitch clip", "https://clips.twitch.tv/FunnyClipSlug", models.PlatformTwitch, "FunnyClipSlug", "https://clips.twitch.tv/FunnyClipSlug"},
		{"twitch channel clip", "https://www.twitch.tv/someone/clip/FunnyClipSlug", models.PlatformTwitch, "FunnyClipSlug", "https://clips.twitch.tv/FunnyClipSlug"},
		{"twitch vod", "https://www.twitch.tv/videos/123456", models.PlatformTwitch, "v123456", "https://www.twitch.tv/videos/123456"},
		{"streamable", "<https://streamable.com/abc12>", models.PlatformStreamable, "abc12", "https://streamable.com/abc12"},
		{"tiktok", "https://www.tiktok.com/@user/video/7012345678901234567?lang=en", models.PlatformTikTok, "7012345678901234567", "https://www.tiktok.com/@user/video/7012345678901234567"},
		{"dailymotion", "https://dai.ly/x8abc12", models.PlatformDailymotion, "x8abc12", "https://www.dailymotion.com/video/x8abc12"},
	}

	resolver := NewResolver()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			refs := resolver.Resolve(tc.text)
			if len(refs) != 1 {
				t.Fatalf("expected one reference, got %d", len(refs))
			}
			ref := refs[0]
			if ref.Platform != tc.platform || ref.ID != tc.id || ref.URL != tc.url {
				t.Fatalf("unexpected reference: %+v", ref)
			}
		})
	}
}

func TestResolveIgnoresUnsupportedLinks(t *testing.T) {
	refs := NewResolver().Resolve("see https://example.com/watch?v=dQw4w9WgXcQ and https://www.youtube.com/channel/UC123")
	if len(refs) != 0 {
		t.Fatalf("expected no references, got %+v", refs)
	}
}

func TestResolveDeduplicatesAcrossTexts(t *testing.T) {
	content := "check this https://youtu.be/dQw4w9WgXcQ"
	embedURL := "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	embedDescription := "also https://vimeo.com/76979871"

	refs := NewResolver().Resolve(content, embedURL, embedDescription)
	if len(refs) != 2 {
		t.Fatalf("expected two references, got %d: %+v", len(refs), refs)
	}
	if refs[0].Platform != models.PlatformYouTube || refs[1].Platform != models.PlatformVimeo {
		t.Fatalf("unexpected order: %+v", refs)
	}
}

func TestReferenceTimestamp(t *testing.T) {
	ref, ok := NewResolver().Parse("https://youtu.be/dQw4w9WgXcQ?t=42")
	if !ok {
		t.Fatal("expected reference")
	}
	if !ref.HasTimestamp() || ref.StartTime != "42" {
		t.Fatalf("expected start time 42, got %q", ref.StartTime)
	}
	if got := ref.PostURL(false); got != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Fatalf("stripped url = %q", got)
	}
	if got := ref.PostURL(true); got != "https://www.youtube.com/watch?t=42&v=dQw4w9WgXcQ" {
		t.Fatalf("kept url = %q", got)
	}
}

func TestStripTimestamp(t *testing.T) {
	got := StripTimestamp("https://www.youtube.com/watch?v=abc&t=10&time_continue=5")
	if got != "https://www.youtube.com/watch?v=abc" {
		t.Fatalf("StripTimestamp = %q", got)
	}
}
