package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"budgetviz/internal/cli"
	apphttp "budgetviz/internal/http"
	"budgetviz/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, os.Stdout, log.ComponentApp)

	svc, backend, err := cli.OpenService(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	opts := []apphttp.ServerOption{
		apphttp.WithLogger(logger.WithComponent(log.ComponentHTTP)),
		apphttp.WithRateLimit(cfg.RateLimitPerMinute),
		apphttp.WithReadiness(backend.Ping),
	}
	for _, cidr := range cfg.TrustedProxies {
		opts = append(opts, apphttp.WithTrustedProxy(cidr))
	}
	srv := apphttp.NewServer(":"+cfg.Port, svc, opts...)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 35 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting budgetviz server",
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend,
		"month_policy", cfg.MonthPolicy,
		"timezone", cfg.Location().String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
