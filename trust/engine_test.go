package trust

import (
	"context"
	"testing"
	"time"

	"showcase-bot/database"
	"showcase-bot/models"
)

type stubStore struct {
	modifiers map[models.TargetRef]models.Modifier
	level     models.TrustLevel
	times     []time.Time
	total     int
	matching  int
	replaced  []models.Modifier
}

func (s *stubStore) ActiveModifier(_ context.Context, target models.TargetRef, _ time.Time) (models.Modifier, error) {
	m, ok := s.modifiers[target]
	if !ok {
		return models.Modifier{}, database.ErrNotFound
	}
	return m, nil
}

func (s *stubStore) ReplaceModifier(_ context.Context, m models.Modifier, _ time.Time) (models.Modifier, error) {
	s.replaced = append(s.replaced, m)
	return m, nil
}

func (s *stubStore) ExpireModifiers(context.Context, models.TargetRef, time.Time) (int64, error) {
	return 1, nil
}

func (s *stubStore) TrustLevel(context.Context, int64) (models.TrustLevel, error) {
	return s.level, nil
}

func (s *stubStore) SubmissionTimesSince(_ context.Context, _ int64, since time.Time) ([]time.Time, error) {
	var out []time.Time
	for _, ts := range s.times {
		if !ts.Before(since) {
			out = append(out, ts)
		}
	}
	return out, nil
}

func (s *stubStore) SubmissionCreatorStats(context.Context, int64, int64) (int, int, error) {
	return s.total, s.matching, nil
}

var now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newEngine(store *stubStore) *Engine {
	e := NewEngine(store, nil)
	e.WithNowFunc(func() time.Time { return now })
	return e
}

func TestBlacklistAndAllowlist(t *testing.T) {
	store := &stubStore{modifiers: map[models.TargetRef]models.Modifier{
		models.UserTarget(1): {Flag: models.FlagDeny},
		models.UserTarget(2): {Flag: models.FlagAllow},
	}}
	e := newEngine(store)
	ctx := context.Background()

	if ok, _ := e.IsBlacklisted(ctx, 1); !ok {
		t.Error("user 1 should be blacklisted")
	}
	if ok, _ := e.IsAllowlisted(ctx, 1); ok {
		t.Error("user 1 should not be allowlisted")
	}
	if ok, _ := e.IsAllowlisted(ctx, 2); !ok {
		t.Error("user 2 should be allowlisted")
	}
	if ok, _ := e.IsBlacklisted(ctx, 3); ok {
		t.Error("user 3 has no modifier")
	}
}

func TestAgeGate(t *testing.T) {
	e := newEngine(&stubStore{})
	young := models.User{CreatedAt: now.Add(-23 * time.Hour)}

	if got := e.AgeGate(young, false); got != time.Hour {
		t.Fatalf("expected 1h remaining, got %v", got)
	}
	if got := e.AgeGate(young, true); got != 0 {
		t.Fatalf("approved role should bypass, got %v", got)
	}
	if got := e.AgeGate(models.User{CreatedAt: now.Add(-25 * time.Hour)}, false); got != 0 {
		t.Fatalf("old user should pass, got %v", got)
	}
}

func TestRateLimitCountsWindow(t *testing.T) {
	store := &stubStore{
		level: models.TrustLevel{AllowedSubmissions: 2, TimePeriodSeconds: 3600},
		times: []time.Time{now.Add(-50 * time.Minute)},
	}
	e := newEngine(store)
	user := models.User{ID: 1}

	if got, err := e.RateLimit(context.Background(), user); err != nil || got != 0 {
		t.Fatalf("one of two used should pass, got %v, %v", got, err)
	}

	store.times = append(store.times, now.Add(-10*time.Minute))
	got, err := e.RateLimit(context.Background(), user)
	if err != nil {
		t.Fatalf("RateLimit: %v", err)
	}
	if got != 10*time.Minute {
		t.Fatalf("expected 10m until the oldest leaves the window, got %v", got)
	}

	store.times = []time.Time{now.Add(-2 * time.Hour), now.Add(-90 * time.Minute)}
	if got, _ := e.RateLimit(context.Background(), user); got != 0 {
		t.Fatalf("submissions outside the window should not count, got %v", got)
	}
}

func TestSelfPromotion(t *testing.T) {
	cases := []struct {
		name      string
		total     int
		matching  int
		violation bool
	}{
		{"grace period", 2, 2, false},
		{"at limit", 5, 1, false},
		{"over limit", 4, 1, true},
		{"no matches", 10, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEngine(&stubStore{total: tc.total, matching: tc.matching})
			result, err := e.SelfPromotion(context.Background(), 1, 2)
			if err != nil {
				t.Fatalf("SelfPromotion: %v", err)
			}
			if result.Violation != tc.violation {
				t.Fatalf("violation = %v, want %v (%+v)", result.Violation, tc.violation, result)
			}
		})
	}
}

func TestSetModifierComputesExpiry(t *testing.T) {
	store := &stubStore{}
	e := newEngine(store)

	m, err := e.SetModifier(context.Background(), models.CreatorTarget(4), models.FlagDeny, "spam", 7*24*time.Hour, nil)
	if err != nil {
		t.Fatalf("SetModifier: %v", err)
	}
	if m.TargetType != models.TargetCreator || m.TargetID != 4 {
		t.Fatalf("unexpected target: %+v", m)
	}
	if m.ExpiresAt == nil || !m.ExpiresAt.Equal(now.Add(7*24*time.Hour)) {
		t.Fatalf("unexpected expiry: %v", m.ExpiresAt)
	}

	m, err = e.SetModifier(context.Background(), models.UserTarget(1), models.FlagAllow, "", 0, nil)
	if err != nil {
		t.Fatalf("SetModifier: %v", err)
	}
	if m.ExpiresAt != nil {
		t.Fatalf("expected permanent modifier, got %v", m.ExpiresAt)
	}
}
