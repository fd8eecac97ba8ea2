// Package server exposes the daemon's gRPC health endpoint.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Component names reported next to the overall ("") status.
const (
	ServiceWatcher  = "invoice.Watcher"
	ServiceJobStore = "invoice.JobStore"
)

type HealthServer struct {
	grpc   *grpc.Server
	health *health.Server
	logger *slog.Logger
}

func NewHealthServer(logger *slog.Logger) *HealthServer {
	if logger == nil {
		logger = slog.Default()
	}
	gs := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	// Reflection for grpcurl
	reflection.Register(gs)
	return &HealthServer{grpc: gs, health: hs, logger: logger}
}

// SetServing flips the status of service ("" is the whole daemon).
func (s *HealthServer) SetServing(service string, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(service, status)
	s.logger.Debug("health status", "service", service, "status", status.String())
}

// Probe runs check every interval and reports the result under service until ctx is done.
func (s *HealthServer) Probe(ctx context.Context, service string, interval time.Duration, check func(context.Context) error) {
	run := func() {
		err := check(ctx)
		if err != nil && ctx.Err() == nil {
			s.logger.Warn("health probe failed", "service", service, "error", err)
		}
		s.SetServing(service, err == nil)
	}
	run()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}

// Serve blocks until ctx is done, then stops gracefully. All statuses go
// NOT_SERVING before the listener closes.
func (s *HealthServer) Serve(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("gRPC health serving", "addr", lis.Addr().String())
		errCh <- s.grpc.Serve(lis)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpc.GracefulStop()
		<-errCh
		s.logger.Info("gRPC health stopped")
		return nil
	}
}
