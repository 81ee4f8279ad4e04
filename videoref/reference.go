package videoref

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"

	"showcase-bot/models"
)

// Reference is a canonical pointer to one platform video.
type Reference struct {
	Platform models.Platform
	ID       string
	// URL is the canonical link with any start-time parameter removed.
	URL string
	// StartTime is the raw start-time parameter from the original link.
	StartTime string
}

// Key identifies the video independent of how it was linked.
func (r Reference) Key() string {
	return string(r.Platform) + ":" + r.ID
}

// HasTimestamp reports whether the original link carried a start time.
func (r Reference) HasTimestamp() bool {
	return r.StartTime != ""
}

// PostURL is the link to publish, with the start time restored when keep is set.
func (r Reference) PostURL(keep bool) string {
	if !keep || r.StartTime == "" {
		return r.URL
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return r.URL
	}
	q := u.Query()
	q.Set("t", r.StartTime)
	u.RawQuery = q.Encode()
	return u.String()
}

var urlPattern = regexp.MustCompile(`(?i)(?:https?://)?(?:[a-z0-9-]+\.)+[a-z]{2,}(?::\d+)?(?:/[^\s<>]*)?`)

// Resolver turns free text into video references using a provider table.
type Resolver struct {
	providers map[string]Provider
}

// NewResolver indexes providers by registrable domain. With no providers
// the default table is used.
func NewResolver(providers ...Provider) *Resolver {
	if len(providers) == 0 {
		providers = DefaultProviders()
	}
	r := &Resolver{providers: make(map[string]Provider)}
	for _, p := range providers {
		for _, domain := range p.Domains {
			r.providers[domain] = p
		}
	}
	return r
}

// Resolve extracts every supported video link from texts, de-duplicated by
// platform and id. Links with no matching provider are ignored.
func (r *Resolver) Resolve(texts ...string) []Reference {
	var refs []Reference
	seen := make(map[string]struct{})
	for _, text := range texts {
		for _, raw := range urlPattern.FindAllString(text, -1) {
			ref, ok := r.Parse(raw)
			if !ok {
				continue
			}
			if _, dup := seen[ref.Key()]; dup {
				continue
			}
			seen[ref.Key()] = struct{}{}
			refs = append(refs, ref)
		}
	}
	return refs
}

// Parse resolves a single link.
func (r *Resolver) Parse(raw string) (Reference, bool) {
	u, ok := normalize(raw)
	if !ok {
		return Reference{}, false
	}

	domain, err := publicsuffix.EffectiveTLDPlusOne(u.Hostname())
	if err != nil {
		return Reference{}, false
	}
	provider, ok := r.providers[domain]
	if !ok {
		return Reference{}, false
	}

	id, canonical, ok := provider.Parse(u)
	if !ok {
		return Reference{}, false
	}
	return Reference{
		Platform:  provider.Platform,
		ID:        id,
		URL:       canonical,
		StartTime: StartTime(u),
	}, true
}

func normalize(raw string) (*url.URL, bool) {
	raw = strings.TrimRight(strings.TrimSpace(raw), ".,;:!?)]}'\"")
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, false
	}
	u.Scheme = "https"
	u.Host = strings.ToLower(u.Host)
	if len(u.Path) > 1 {
		u.Path = strings.TrimRight(u.Path, "/")
	}
	return u, true
}
