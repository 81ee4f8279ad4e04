// Package grpc exposes the bot's health over the standard gRPC health
// protocol for container and orchestrator probes.
package grpc

import (
	"fmt"
	"net"

	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// HealthServer reports NOT_SERVING until the gateway session is open.
type HealthServer struct {
	address string
	server  *grpc.Server
	health  *health.Server
	lis     net.Listener
}

func NewHealthServer(address string) *HealthServer {
	server := grpc.NewServer()
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(server, hs)
	reflection.Register(server)

	return &HealthServer{address: address, server: server, health: hs}
}

// Start listens and serves in the background.
func (h *HealthServer) Start() error {
	lis, err := net.Listen("tcp", h.address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", h.address, err)
	}
	h.lis = lis
	go h.server.Serve(lis)
	return nil
}

// Addr is the bound address, useful when listening on port 0.
func (h *HealthServer) Addr() string {
	if h.lis == nil {
		return h.address
	}
	return h.lis.Addr().String()
}

// SetServing flips the overall service status.
func (h *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
}

// Stop marks every service NOT_SERVING and drains in-flight checks.
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.server.GracefulStop()
}
