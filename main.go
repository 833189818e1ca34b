package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/ai-media-check/internal/config"
	"github.com/example/ai-media-check/internal/detector"
	"github.com/example/ai-media-check/internal/handlers"
	"github.com/example/ai-media-check/internal/healthcheck"
	"github.com/example/ai-media-check/internal/logging"
	"github.com/example/ai-media-check/internal/metrics"
	"github.com/example/ai-media-check/internal/usecase"
)

func main() {
	cfg, err := config.Load(getEnv("CONFIG_PATH", config.DefaultPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	m := metrics.New()
	client := detector.NewHTTPClient(cfg.DetectorURL, cfg.DetectorAPIKey, cfg.DetectorTimeout, nil, logger)
	uc := usecase.NewAnalysisUseCase(client, cfg.Threshold, m, logger)

	gin.SetMode(gin.ReleaseMode)
	router := newRouter(cfg, uc, m, logger)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var onShutdown func(context.Context)
	if cfg.GRPCHealthPort > 0 {
		healthSrv, err := startGRPCHealth(cfg.GRPCHealthPort, logger)
		if err != nil {
			logger.Fatal("failed to start grpc health server", zap.Error(err))
		}
		onShutdown = healthSrv.Stop
	}

	logger.Info("AI media check API listening",
		zap.String("addr", server.Addr),
		zap.Float64("threshold", cfg.Threshold),
		zap.Duration("detector_timeout", cfg.DetectorTimeout),
	)
	if err := serveHTTPServerWithOptions(server, cfg.ShutdownTimeout, logger, nil, nil, onShutdown); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func newRouter(cfg config.Config, uc *usecase.AnalysisUseCase, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(
		logging.RequestID(),
		logging.AccessLog(logger),
		logging.Recovery(logger),
		m.Middleware(),
		cors.New(corsConfig(cfg.CORSAllowedOrigins)),
	)
	handlers.RegisterRoutes(r, uc, m.Handler())
	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", logging.RequestIDHeader},
		ExposeHeaders: []string{logging.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}

func startGRPCHealth(port int, logger *zap.Logger) (*healthcheck.Server, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, logging.NewOperationError("main.listen_grpc_health", "", err)
	}
	srv := healthcheck.NewServer(logger)
	go func() {
		if err := srv.Serve(lis); err != nil {
			logger.Error("grpc health server stopped", zap.Error(err))
		}
	}()
	return srv, nil
}

// serveHTTPServerWithOptions serves until the server fails or a signal
// arrives, then drains in-flight requests. onShutdown, if set, runs after the
// HTTP server has drained, sharing its deadline.
func serveHTTPServerWithOptions(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal, onShutdown func(context.Context)) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	var (
		sigCh       <-chan os.Signal
		stopSignals func()
	)

	if signalCh != nil {
		sigCh = signalCh
		stopSignals = func() {}
	} else {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		sigCh = ch
		stopSignals = func() {
			signal.Stop(ch)
		}
	}
	defer stopSignals()

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		if onShutdown != nil {
			onShutdown(ctx)
		}
		return <-errCh
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
