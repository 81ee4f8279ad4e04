package showcase

import (
	"regexp"
	"sort"
	"strconv"
	"time"

	"showcase-bot/transport"
)

var (
	rangePattern = regexp.MustCompile(`(\d+)-(\d+)`)
	openPattern  = regexp.MustCompile(`(\d+)\+`)
)

// Bucket is a video length range encoded in a channel name, in minutes:
// "showcase-5-15" covers [5m, 15m) and "showcase-60+" covers 60m and up.
type Bucket struct {
	Min  time.Duration
	Max  time.Duration
	Open bool
}

// Contains reports whether length falls inside the bucket.
func (b Bucket) Contains(length time.Duration) bool {
	if length < b.Min {
		return false
	}
	return b.Open || length < b.Max
}

// ParseBucket extracts the length range from a channel name.
func ParseBucket(name string) (Bucket, bool) {
	if m := rangePattern.FindStringSubmatch(name); m != nil {
		lo, err1 := strconv.Atoi(m[1])
		hi, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil || hi <= lo {
			return Bucket{}, false
		}
		return Bucket{Min: time.Duration(lo) * time.Minute, Max: time.Duration(hi) * time.Minute}, true
	}
	if m := openPattern.FindStringSubmatch(name); m != nil {
		lo, err := strconv.Atoi(m[1])
		if err != nil {
			return Bucket{}, false
		}
		return Bucket{Min: time.Duration(lo) * time.Minute, Open: true}, true
	}
	return Bucket{}, false
}

// SelectChannel picks the first channel, by position, whose bucket contains
// lengthSeconds. Channels without a bucket in their name are never chosen, and
// a video of unknown length matches nothing.
func SelectChannel(channels []transport.Channel, lengthSeconds *int) (transport.Channel, bool) {
	if lengthSeconds == nil {
		return transport.Channel{}, false
	}
	sorted := append([]transport.Channel(nil), channels...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	length := time.Duration(*lengthSeconds) * time.Second
	for _, ch := range sorted {
		if b, ok := ParseBucket(ch.Name); ok && b.Contains(length) {
			return ch, true
		}
	}
	return transport.Channel{}, false
}
