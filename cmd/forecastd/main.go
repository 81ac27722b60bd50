package main

import (
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/tidecast/tidecast/cmd/forecastd/config"
	"github.com/tidecast/tidecast/cmd/forecastd/logger"
	"github.com/tidecast/tidecast/cmd/forecastd/metrics"
	"github.com/tidecast/tidecast/cmd/forecastd/router"
	"github.com/tidecast/tidecast/cmd/forecastd/store"
	"github.com/tidecast/tidecast/pkg/backend"
	"github.com/tidecast/tidecast/pkg/httpx"
)

func main() {
	cfg := config.ParseFlags()

	log := logger.New(cfg)
	slog.SetDefault(log)
	m := metrics.New()

	log.Info("starting tidecast forecastd",
		"listen", cfg.Listen,
		"grpc_listen", cfg.GRPCListen,
		"storage", cfg.Storage,
		"concurrency", cfg.Concurrency,
	)

	resultStore := store.New(cfg, log)
	defer func() {
		if closer, ok := resultStore.(interface{ Close() error }); ok {
			closer.Close()
		}
	}()

	local := backend.NewLocalBackend(cfg.Concurrency)
	runner := NewRunner(local, resultStore, m, log)

	mux := router.SetupRoutes(runner, resultStore, cfg.StaleAfter, log)
	handler := httpx.RecoveryMiddleware(log)(httpx.LoggingMiddleware(log)(mux))
	httpServer := httpx.NewServer(cfg.Listen, handler, log)

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCListen)
	if err != nil {
		log.Error("failed to listen", "addr", cfg.GRPCListen, "error", err)
		os.Exit(1)
	}

	go func() {
		log.Info("grpc server listening", "addr", cfg.GRPCListen)
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("grpc server failed", "error", err)
			os.Exit(1)
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig)
	case err := <-serverErr:
		if err != nil {
			log.Error("http server failed", "error", err)
		}
	}

	log.Info("shutting down grpc server")
	grpcServer.GracefulStop()

	log.Info("shutting down http server")
	if err := httpServer.Stop(10 * time.Second); err != nil {
		log.Error("http server shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("shutdown complete")
}
