package server

import (
	"context"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
)

// HealthService is the gRPC health service name reported for the webhook
// pipeline, alongside the overall "" status.
const HealthService = "translatron.Webhook"

// GRPCHealthServer exposes the standard gRPC health protocol so that
// orchestrators can probe the service with grpc_health_probe.
type GRPCHealthServer struct {
	srv    *grpc.Server
	health *health.Server
	logger *logrus.Logger
}

func NewGRPCHealthServer(logger *logrus.Logger) *GRPCHealthServer {
	if logger == nil {
		logger = logrus.New()
	}

	opts := []grpc.ServerOption{
		grpc.Creds(insecure.NewCredentials()),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             15 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle:     5 * time.Minute,
			MaxConnectionAge:      30 * time.Minute,
			MaxConnectionAgeGrace: 5 * time.Second,
			Time:                  30 * time.Second,
			Timeout:               10 * time.Second,
		}),
	}

	srv := grpc.NewServer(opts...)
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	g := &GRPCHealthServer{srv: srv, health: hs, logger: logger}
	g.SetServing(false)
	return g
}

// SetServing flips both the overall and the webhook service status.
func (g *GRPCHealthServer) SetServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	g.health.SetServingStatus("", status)
	g.health.SetServingStatus(HealthService, status)

	g.logger.WithField("status", status.String()).Debug("gRPC health status updated")
}

// Serve blocks accepting connections on lis until Stop is called.
func (g *GRPCHealthServer) Serve(lis net.Listener) error {
	g.logger.WithField("addr", lis.Addr().String()).Info("gRPC health server listening")
	return g.srv.Serve(lis)
}

// Stop marks the service NOT_SERVING and stops gracefully, forcing the stop
// once ctx is done.
func (g *GRPCHealthServer) Stop(ctx context.Context) {
	g.SetServing(false)

	stopped := make(chan struct{})
	go func() {
		g.srv.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		g.logger.Info("gRPC health server stopped gracefully")
	case <-ctx.Done():
		g.logger.Warn("Graceful shutdown timeout, forcing stop...")
		g.srv.Stop()
	}
}
