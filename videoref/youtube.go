package videoref

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// YouTubeService queries the YouTube Data API v3.
type YouTubeService struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// NewYouTubeService returns a service using the given API key.
func NewYouTubeService(apiKey, baseURL string) *YouTubeService {
	if baseURL == "" {
		baseURL = "https://www.googleapis.com/youtube/v3"
	}
	return &YouTubeService{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type youtubeVideoResponse struct {
	Items []struct {
		Snippet struct {
			Title        string `json:"title"`
			ChannelID    string `json:"channelId"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration      string `json:"duration"`
			ContentRating struct {
				YTRating string `json:"ytRating"`
			} `json:"contentRating"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type youtubeChannelResponse struct {
	Items []struct {
		Snippet struct {
			PublishedAt time.Time `json:"publishedAt"`
		} `json:"snippet"`
		Statistics struct {
			SubscriberCount string `json:"subscriberCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// VideoDetails fetches title, duration, channel and age restriction.
func (y *YouTubeService) VideoDetails(ctx context.Context, ref Reference) (Details, error) {
	var resp youtubeVideoResponse
	if err := y.get(ctx, "videos", "snippet,contentDetails", ref.ID, &resp); err != nil {
		return Details{}, err
	}
	if len(resp.Items) == 0 {
		return Details{}, ErrVideoNotFound
	}

	item := resp.Items[0]
	details := Details{
		Title:       item.Snippet.Title,
		CreatorID:   item.Snippet.ChannelID,
		CreatorName: item.Snippet.ChannelTitle,
		NSFW:        item.ContentDetails.ContentRating.YTRating == "ytAgeRestricted",
	}
	if seconds, ok := ParseISODuration(item.ContentDetails.Duration); ok {
		details.LengthSeconds = &seconds
	}
	return details, nil
}

// ChannelDetails fetches subscriber count and channel creation time.
func (y *YouTubeService) ChannelDetails(ctx context.Context, channelID string) (ChannelDetails, error) {
	var resp youtubeChannelResponse
	if err := y.get(ctx, "channels", "snippet,statistics", channelID, &resp); err != nil {
		return ChannelDetails{}, err
	}
	if len(resp.Items) == 0 {
		return ChannelDetails{}, ErrVideoNotFound
	}

	item := resp.Items[0]
	followers, err := strconv.ParseInt(item.Statistics.SubscriberCount, 10, 64)
	if err != nil {
		// Hidden subscriber counts come back empty.
		followers = 0
	}
	return ChannelDetails{Followers: followers, CreatedAt: item.Snippet.PublishedAt}, nil
}

func (y *YouTubeService) get(ctx context.Context, resource, part, id string, out any) error {
	q := url.Values{}
	q.Set("part", part)
	q.Set("id", id)
	q.Set("key", y.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.BaseURL+"/"+resource+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build youtube request: %w", err)
	}

	resp, err := y.Client.Do(req)
	if err != nil {
		return fmt.Errorf("youtube %s request: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("youtube %s request: unexpected status %s", resource, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode youtube %s response: %w", resource, err)
	}
	return nil
}

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseISODuration converts an ISO-8601 duration such as PT1H2M3S to seconds.
func ParseISODuration(s string) (int, bool) {
	m := isoDuration.FindStringSubmatch(s)
	if m == nil || s == "P" || s == "PT" {
		return 0, false
	}
	units := []int{86400, 3600, 60, 1}
	total := 0
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, false
		}
		total += n * unit
	}
	return total, true
}
