package policy

import (
	"time"

	"showcase-bot/models"
)

// Outcome is the terminal state of one evaluation.
type Outcome int

const (
	Rejected Outcome = iota
	Accepted
	// NeedsDuration means the length gate could not run; the candidate is
	// re-evaluated once the submitter supplies a duration.
	NeedsDuration
	// NeedsTimestampDecision means the link carries a start time and the
	// submitter has not chosen whether to keep it.
	NeedsTimestampDecision
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case NeedsDuration:
		return "needs_duration"
	case NeedsTimestampDecision:
		return "needs_timestamp_decision"
	default:
		return "rejected"
	}
}

// Gate names the check that produced a decision.
type Gate string

const (
	GateBlacklist     Gate = "blacklist"
	GateRules         Gate = "rules"
	GateAge           Gate = "age"
	GateRateLimit     Gate = "rate_limit"
	GatePlatform      Gate = "platform"
	GateDuplicate     Gate = "duplicate"
	GateSelfPromotion Gate = "self_promotion"
	GateLength        Gate = "length"
	GateTimestamp     Gate = "timestamp"
	GateFirehose      Gate = "firehose"
	GateAccept        Gate = "accept"
)

// Decision is the pipeline's verdict for one candidate.
type Decision struct {
	Outcome   Outcome
	Gate      Gate
	Reason    string
	Remaining time.Duration
	PriorPost *models.PriorPost
}
