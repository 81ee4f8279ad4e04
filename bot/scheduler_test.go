package bot

import (
	"context"
	"errors"
	"testing"
)

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	_, err := NewScheduler(Job{Name: "tally", Spec: "every five minutes", Run: func(context.Context) error { return nil }})
	if err == nil {
		t.Fatal("expected an error for an invalid spec")
	}
}

func TestScheduledJobReceivesContext(t *testing.T) {
	var got context.Context
	job := Job{Name: "tally", Spec: "@every 5m", Run: func(ctx context.Context) error {
		got = ctx
		return errors.New("boom")
	}}
	s, err := NewScheduler(job)
	if err != nil {
		t.Fatalf("NewScheduler returned error: %v", err)
	}

	s.wrap(job)()
	if got == nil || got.Err() != nil {
		t.Fatal("expected a live context")
	}

	s.Stop()
	s.wrap(job)()
	if got.Err() == nil {
		t.Fatal("expected the context to be cancelled after Stop")
	}
}
