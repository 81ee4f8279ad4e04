// Package trust holds per-user allow/deny modifiers, quotas and tenure gating.
package trust

import (
	"context"
	"errors"
	"fmt"
	"time"

	"showcase-bot/database"
	"showcase-bot/models"
)

const (
	// DefaultAgeRequirement is how long a member must be known before submitting.
	DefaultAgeRequirement = 24 * time.Hour
	// DefaultSelfPromotionGrace is the submission count below which
	// self-promotion is not measured.
	DefaultSelfPromotionGrace = 3
	// DefaultSelfPromotionLimit is the largest allowed share of a user's
	// submissions belonging to one creator.
	DefaultSelfPromotionLimit = 0.20
)

// Store is the persistence the engine needs.
type Store interface {
	ActiveModifier(ctx context.Context, target models.TargetRef, now time.Time) (models.Modifier, error)
	ReplaceModifier(ctx context.Context, m models.Modifier, now time.Time) (models.Modifier, error)
	ExpireModifiers(ctx context.Context, target models.TargetRef, now time.Time) (int64, error)
	TrustLevel(ctx context.Context, id int64) (models.TrustLevel, error)
	SubmissionTimesSince(ctx context.Context, userID int64, since time.Time) ([]time.Time, error)
	SubmissionCreatorStats(ctx context.Context, userID, creatorID int64) (total, matching int, err error)
}

// Promoter advances users between trust levels.
type Promoter interface {
	Promote(ctx context.Context, user models.User) error
}

// NoopPromoter leaves every user on their current level.
// TODO: replace with a promoter that moves users up once their submission
// count crosses the next level's activity threshold, after the trigger
// (per submission or periodic sweep) is agreed.
type NoopPromoter struct{}

func (NoopPromoter) Promote(context.Context, models.User) error { return nil }

// SelfPromotion is the outcome of a self-promotion measurement.
type SelfPromotion struct {
	Total     int
	Matching  int
	Percent   float64
	Limit     float64
	Violation bool
}

// Engine evaluates trust-related gates.
type Engine struct {
	store    Store
	promoter Promoter
	now      func() time.Time

	AgeRequirement     time.Duration
	SelfPromotionGrace int
	SelfPromotionLimit float64
}

// NewEngine returns an engine with the default thresholds. A nil promoter
// is replaced by NoopPromoter.
func NewEngine(store Store, promoter Promoter) *Engine {
	if promoter == nil {
		promoter = NoopPromoter{}
	}
	return &Engine{
		store:              store,
		promoter:           promoter,
		now:                time.Now,
		AgeRequirement:     DefaultAgeRequirement,
		SelfPromotionGrace: DefaultSelfPromotionGrace,
		SelfPromotionLimit: DefaultSelfPromotionLimit,
	}
}

// WithNowFunc overrides the engine clock.
func (e *Engine) WithNowFunc(now func() time.Time) {
	e.now = now
}

// Now returns the engine's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// Modifier returns the active modifier on target, or nil.
func (e *Engine) Modifier(ctx context.Context, target models.TargetRef) (*models.Modifier, error) {
	m, err := e.store.ActiveModifier(ctx, target, e.now())
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// IsBlacklisted reports whether the user has an active deny modifier.
func (e *Engine) IsBlacklisted(ctx context.Context, userID int64) (bool, error) {
	return e.hasFlag(ctx, models.UserTarget(userID), models.FlagDeny)
}

// IsAllowlisted reports whether the user has an active allow modifier.
func (e *Engine) IsAllowlisted(ctx context.Context, userID int64) (bool, error) {
	return e.hasFlag(ctx, models.UserTarget(userID), models.FlagAllow)
}

func (e *Engine) hasFlag(ctx context.Context, target models.TargetRef, flag models.Flag) (bool, error) {
	m, err := e.Modifier(ctx, target)
	if err != nil {
		return false, err
	}
	return m != nil && m.Flag == flag, nil
}

// AgeGate returns how long the user must still wait, or zero when the gate
// is satisfied. Holders of the approved role always pass.
func (e *Engine) AgeGate(user models.User, approved bool) time.Duration {
	if approved {
		return 0
	}
	remaining := user.CreatedAt.Add(e.AgeRequirement).Sub(e.now())
	if remaining <= 0 {
		return 0
	}
	return remaining
}

// RateLimit returns how long until the user may submit again under their
// trust level's quota, or zero. Submissions are counted over the trailing
// period; once the quota is used the wait ends when the oldest submission in
// the window leaves it.
func (e *Engine) RateLimit(ctx context.Context, user models.User) (time.Duration, error) {
	level, err := e.store.TrustLevel(ctx, user.TrustLevelID)
	if err != nil {
		return 0, fmt.Errorf("load trust level for user %d: %w", user.ID, err)
	}

	now := e.now()
	period := level.TimePeriod()
	times, err := e.store.SubmissionTimesSince(ctx, user.ID, now.Add(-period))
	if err != nil {
		return 0, err
	}
	if len(times) < level.AllowedSubmissions {
		return 0, nil
	}

	// The window holds at least the quota; the earliest entry that must
	// expire is the one that would leave AllowedSubmissions-1 behind.
	oldest := times[len(times)-level.AllowedSubmissions]
	remaining := oldest.Add(period).Sub(now)
	if remaining <= 0 {
		return 0, nil
	}
	return remaining, nil
}

// SelfPromotion measures the share of the user's past submissions that
// belong to creatorID. Users with fewer than SelfPromotionGrace submissions
// are not measured.
func (e *Engine) SelfPromotion(ctx context.Context, userID, creatorID int64) (SelfPromotion, error) {
	total, matching, err := e.store.SubmissionCreatorStats(ctx, userID, creatorID)
	if err != nil {
		return SelfPromotion{}, err
	}

	result := SelfPromotion{Total: total, Matching: matching, Limit: e.SelfPromotionLimit}
	if total < e.SelfPromotionGrace || total == 0 {
		return result, nil
	}
	share := float64(matching) / float64(total)
	result.Percent = share * 100
	result.Violation = share > e.SelfPromotionLimit
	return result, nil
}

// SetModifier expires every active modifier on target and creates a new one
// in a single transaction.
func (e *Engine) SetModifier(ctx context.Context, target models.TargetRef, flag models.Flag, reason string, duration time.Duration, createdBy *int64) (models.Modifier, error) {
	now := e.now()
	m := models.Modifier{
		TargetType:  target.Kind,
		TargetID:    target.ID,
		Flag:        flag,
		Reason:      reason,
		CreatedByID: createdBy,
	}
	if duration > 0 {
		expires := now.Add(duration)
		m.ExpiresAt = &expires
	}
	return e.store.ReplaceModifier(ctx, m, now)
}

// ClearModifiers expires every active modifier on target.
func (e *Engine) ClearModifiers(ctx context.Context, target models.TargetRef) (int64, error) {
	return e.store.ExpireModifiers(ctx, target, e.now())
}

// AfterSubmission runs the trust-level promotion hook for a newly accepted
// submission.
func (e *Engine) AfterSubmission(ctx context.Context, user models.User) error {
	return e.promoter.Promote(ctx, user)
}
