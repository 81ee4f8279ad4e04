package videoref

import (
	"context"
	"errors"
	"time"

	"showcase-bot/models"
)

var (
	// ErrUnsupported means the platform offers no lookup for the request.
	ErrUnsupported = errors.New("lookup not supported for platform")
	// ErrVideoNotFound means the platform reports no such video or channel.
	ErrVideoNotFound = errors.New("video not found on platform")
)

// Details is the metadata a platform reports for one video.
type Details struct {
	Title         string
	LengthSeconds *int
	CreatorID     string
	CreatorName   string
	NSFW          bool
}

// Complete reports whether the fields policy decisions depend on are known.
func (d Details) Complete() bool {
	return d.Title != "" && d.LengthSeconds != nil
}

// ChannelDetails is the metadata a platform reports for one creator.
type ChannelDetails struct {
	Followers int64
	CreatedAt time.Time
}

// Service fetches live metadata from a video platform.
type Service interface {
	VideoDetails(ctx context.Context, ref Reference) (Details, error)
	// ChannelDetails returns ErrUnsupported when the platform has no channel API.
	ChannelDetails(ctx context.Context, channelID string) (ChannelDetails, error)
}

// Services maps each platform to its metadata service.
type Services map[models.Platform]Service

// For returns the service for platform, if any.
func (s Services) For(platform models.Platform) (Service, bool) {
	svc, ok := s[platform]
	return svc, ok && svc != nil
}

// NewServices wires the YouTube Data API when a key is set and falls back to
// yt-dlp for every other platform.
func NewServices(youtubeAPIKey, youtubeBaseURL, ytdlpPath string, ytdlpTimeout time.Duration) Services {
	ytdlp := NewYTDLPService(ytdlpPath, ytdlpTimeout)
	services := Services{
		models.PlatformYouTube:     ytdlp,
		models.PlatformVimeo:       ytdlp,
		models.PlatformTwitch:      ytdlp,
		models.PlatformStreamable:  ytdlp,
		models.PlatformTikTok:      ytdlp,
		models.PlatformDailymotion: ytdlp,
	}
	if youtubeAPIKey != "" {
		services[models.PlatformYouTube] = NewYouTubeService(youtubeAPIKey, youtubeBaseURL)
	}
	return services
}
