// Package lifecycle tallies firehose votes and resolves submissions once
// their voting window closes.
package lifecycle

import "time"

// State is where a submission sits in its voting lifecycle.
type State int

const (
	Active State = iota
	Showcased
	Expired
	// Abandoned submissions had their firehose message removed; the record is deleted.
	Abandoned
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Showcased:
		return "showcased"
	case Expired:
		return "expired"
	case Abandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Tally is a recount of a submission's reactions.
type Tally struct {
	Upvotes   int
	Downvotes int
	Reports   int
}

// UpvotePercent is upvotes over all votes, 0 when nobody voted.
func (t Tally) UpvotePercent() float64 {
	total := t.Upvotes + t.Downvotes
	if total == 0 {
		return 0
	}
	return float64(t.Upvotes) / float64(total) * 100
}

// Resolve decides the state of a submission created at createdAt. It stays
// Active until the voting window has elapsed, then becomes Showcased with a
// strict upvote majority and Expired otherwise, including when nobody voted.
func Resolve(createdAt time.Time, t Tally, now time.Time, window time.Duration) State {
	if now.Before(createdAt.Add(window)) {
		return Active
	}
	if t.Upvotes+t.Downvotes == 0 {
		return Expired
	}
	if t.UpvotePercent() > 50 {
		return Showcased
	}
	return Expired
}
