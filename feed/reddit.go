// Package feed cross-posts top external feed items into guild showcases.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const redditSite = "https://www.reddit.com"

// Item is one post from the external feed.
type Item struct {
	URL       string
	Author    string
	Permalink string
	CreatedAt time.Time
	IsSelf    bool
	IsVideo   bool
}

// External reports whether the item links off-site.
func (i Item) External() bool {
	return !i.IsSelf && !i.IsVideo && i.URL != ""
}

// Source lists the top items of a community.
type Source interface {
	Top(ctx context.Context, community string, limit int) ([]Item, error)
}

type RedditClient struct {
	HTTPClient *http.Client
	BaseURL    string
	UserAgent  string
}

func NewRedditClient(baseURL, userAgent string) *RedditClient {
	if baseURL == "" {
		baseURL = redditSite
	}
	return &RedditClient{
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		BaseURL:    strings.TrimRight(baseURL, "/"),
		UserAgent:  userAgent,
	}
}

type listing struct {
	Data struct {
		Children []struct {
			Data struct {
				URL        string  `json:"url"`
				Author     string  `json:"author"`
				CreatedUTC float64 `json:"created_utc"`
				IsSelf     bool    `json:"is_self"`
				IsVideo    bool    `json:"is_video"`
				Permalink  string  `json:"permalink"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Top fetches the week's top posts of a subreddit.
func (c *RedditClient) Top(ctx context.Context, community string, limit int) ([]Item, error) {
	community = strings.TrimPrefix(strings.TrimPrefix(community, "/"), "r/")
	q := url.Values{}
	q.Set("t", "week")
	q.Set("limit", fmt.Sprint(limit))
	endpoint := fmt.Sprintf("%s/r/%s/top.json?%s", c.BaseURL, url.PathEscape(community), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch r/%s: %w", community, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch r/%s: unexpected status %d", community, resp.StatusCode)
	}

	var l listing
	if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
		return nil, fmt.Errorf("decode r/%s listing: %w", community, err)
	}

	items := make([]Item, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		d := child.Data
		item := Item{
			URL:       d.URL,
			Author:    d.Author,
			CreatedAt: time.Unix(int64(d.CreatedUTC), 0).UTC(),
			IsSelf:    d.IsSelf,
			IsVideo:   d.IsVideo,
		}
		if d.Permalink != "" {
			item.Permalink = redditSite + d.Permalink
		}
		items = append(items, item)
	}
	return items, nil
}
