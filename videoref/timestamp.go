package videoref

import "net/url"

// timestampParams are query parameters platforms use for a start offset.
var timestampParams = []string{"t", "start", "time_continue"}

// StartTime returns the first start-time parameter present on u.
func StartTime(u *url.URL) string {
	q := u.Query()
	for _, p := range timestampParams {
		if v := q.Get(p); v != "" {
			return v
		}
	}
	return ""
}

// StripTimestamp removes start-time parameters from raw. Unparseable input
// is returned unchanged.
func StripTimestamp(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	for _, p := range timestampParams {
		q.Del(p)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
