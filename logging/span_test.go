package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestStartSpanKeepsTraceAcrossChildren(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := WithLogger(context.Background(), base)

	ctx, parent := StartSpan(ctx, "tally")
	defer parent.End()
	traceID := traceIDFromContext(ctx)
	parentID := spanIDFromContext(ctx)
	if traceID == "" || parentID == "" {
		t.Fatal("expected trace and span ids on context")
	}

	child, span := StartSpan(ctx, "guild")
	defer span.End()
	if got := traceIDFromContext(child); got != traceID {
		t.Fatalf("child trace id %q, want %q", got, traceID)
	}

	FromContext(child).Info("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["trace_id"] != traceID {
		t.Fatalf("log trace_id = %v, want %s", entry["trace_id"], traceID)
	}
	if entry["parent_span_id"] != parentID {
		t.Fatalf("log parent_span_id = %v, want %s", entry["parent_span_id"], parentID)
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Fatal("expected default logger")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"unknown": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
