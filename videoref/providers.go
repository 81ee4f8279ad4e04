package videoref

import (
	"net/url"
	"regexp"
	"strings"

	"showcase-bot/models"
)

// Provider recognises links for one platform.
type Provider struct {
	Platform models.Platform
	// Domains are registrable domains (eTLD+1) the provider handles.
	Domains []string
	// Parse returns the platform id and canonical URL for u.
	Parse func(u *url.URL) (id, canonical string, ok bool)
}

var (
	youtubeID     = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	digits        = regexp.MustCompile(`^[0-9]+$`)
	slug          = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	dailymotionID = regexp.MustCompile(`^x[0-9a-z]+$`)
)

// DefaultProviders is the built-in provider table.
func DefaultProviders() []Provider {
	return []Provider{
		{Platform: models.PlatformYouTube, Domains: []string{"youtube.com", "youtu.be", "youtube-nocookie.com"}, Parse: parseYouTube},
		{Platform: models.PlatformVimeo, Domains: []string{"vimeo.com"}, Parse: parseVimeo},
		{Platform: models.PlatformTwitch, Domains: []string{"twitch.tv"}, Parse: parseTwitch},
		{Platform: models.PlatformStreamable, Domains: []string{"streamable.com"}, Parse: parseStreamable},
		{Platform: models.PlatformTikTok, Domains: []string{"tiktok.com"}, Parse: parseTikTok},
		{Platform: models.PlatformDailymotion, Domains: []string{"dailymotion.com", "dai.ly"}, Parse: parseDailymotion},
	}
}

func segments(u *url.URL) []string {
	return strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
}

func parseYouTube(u *url.URL) (string, string, bool) {
	var id string
	parts := segments(u)
	switch {
	case strings.HasSuffix(u.Hostname(), "youtu.be"):
		if len(parts) > 0 {
			id = parts[0]
		}
	case len(parts) == 1 && parts[0] == "watch":
		id = u.Query().Get("v")
	case len(parts) >= 2 && (parts[0] == "shorts" || parts[0] == "embed" || parts[0] == "live" || parts[0] == "v"):
		id = parts[1]
	}
	if !youtubeID.MatchString(id) {
		return "", "", false
	}
	return id, "https://www.youtube.com/watch?v=" + id, true
}

func parseVimeo(u *url.URL) (string, string, bool) {
	parts := segments(u)
	if strings.HasPrefix(u.Hostname(), "player.") && len(parts) >= 2 && parts[0] == "video" {
		parts = parts[1:]
	}
	if len(parts) == 0 || !digits.MatchString(parts[0]) {
		return "", "", false
	}
	return parts[0], "https://vimeo.com/" + parts[0], true
}

func parseTwitch(u *url.URL) (string, string, bool) {
	parts := segments(u)
	switch {
	case strings.HasPrefix(u.Hostname(), "clips.") && len(parts) == 1 && slug.MatchString(parts[0]):
		return parts[0], "https://clips.twitch.tv/" + parts[0], true
	case len(parts) == 3 && parts[1] == "clip" && slug.MatchString(parts[2]):
		return parts[2], "https://clips.twitch.tv/" + parts[2], true
	case len(parts) == 2 && parts[0] == "videos" && digits.MatchString(parts[1]):
		return "v" + parts[1], "https://www.twitch.tv/videos/" + parts[1], true
	}
	return "", "", false
}

func parseStreamable(u *url.URL) (string, string, bool) {
	parts := segments(u)
	if len(parts) == 2 && (parts[0] == "e" || parts[0] == "o") {
		parts = parts[1:]
	}
	if len(parts) != 1 || !slug.MatchString(parts[0]) {
		return "", "", false
	}
	return parts[0], "https://streamable.com/" + parts[0], true
}

func parseTikTok(u *url.URL) (string, string, bool) {
	parts := segments(u)
	if len(parts) != 3 || !strings.HasPrefix(parts[0], "@") || parts[1] != "video" || !digits.MatchString(parts[2]) {
		return "", "", false
	}
	return parts[2], "https://www.tiktok.com/" + parts[0] + "/video/" + parts[2], true
}

func parseDailymotion(u *url.URL) (string, string, bool) {
	parts := segments(u)
	var id string
	switch {
	case u.Hostname() == "dai.ly" && len(parts) == 1:
		id = parts[0]
	case len(parts) == 2 && parts[0] == "video":
		id = parts[1]
	}
	if !dailymotionID.MatchString(id) {
		return "", "", false
	}
	return id, "https://www.dailymotion.com/video/" + id, true
}
