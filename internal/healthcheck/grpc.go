package healthcheck

import (
	"context"
	"errors"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/example/ai-media-check/internal/logging"
)

// ServiceName is the gRPC health service name reported for the analyze API.
const ServiceName = "aicheck.Analyzer"

// Server exposes grpc.health.v1.Health for orchestrators that probe over gRPC.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	logger *zap.Logger
}

// NewServer registers the health service and marks it SERVING.
func NewServer(logger *zap.Logger) *Server {
	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)

	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthSrv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return &Server{grpc: grpcServer, health: healthSrv, logger: logger.Named("grpc_health")}
}

// Serve blocks serving on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("grpc health server listening", zap.String("addr", lis.Addr().String()))
	err := s.grpc.Serve(lis)
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	if err != nil {
		return logging.NewOperationError("healthcheck.serve", "", err)
	}
	return nil
}

// Stop flips every service to NOT_SERVING, then stops gracefully or, once ctx
// is done, forcefully.
func (s *Server) Stop(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("grpc health server did not drain in time", zap.Error(ctx.Err()))
		s.grpc.Stop()
		<-done
	}
}
