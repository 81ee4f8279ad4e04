package grpc

import (
	"context"
	"testing"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestHealthServerLifecycle(t *testing.T) {
	h := NewHealthServer("127.0.0.1:0")
	if err := h.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	status, err := Check(context.Background(), h.Addr(), 2*time.Second)
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if status != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("status before session open = %s", status)
	}

	h.SetServing(true)
	status, err = Check(context.Background(), h.Addr(), 2*time.Second)
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if status != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status after session open = %s", status)
	}

	h.Stop()
	if _, err := Check(context.Background(), h.Addr(), 200*time.Millisecond); err == nil {
		t.Fatal("expected check against a stopped server to fail")
	}
}
