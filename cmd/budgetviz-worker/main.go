package main

import (
	"context"
	"errors"
	"os"

	"budgetviz/internal/amqp"
	"budgetviz/internal/backend"
	"budgetviz/internal/cli"
	"budgetviz/internal/log"
	"budgetviz/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, os.Stdout, log.ComponentWorker)

	logger.Info("Starting budgetviz-worker")

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	if !bcfg.HasMirror() {
		logger.Error("GOOGLE_SPREADSHEET_ID is required to run the mirror worker")
		os.Exit(1)
	}
	if bcfg.Type == backend.MemoryBackend || bcfg.Type == backend.SheetsBackend {
		logger.Error("The mirror worker needs a shared primary store (file or sqlite)", log.FieldBackend, bcfg.Type)
		os.Exit(1)
	}

	// The worker reads the primary store and never publishes.
	sourceCfg := bcfg
	sourceCfg.AMQPURL = ""

	ctx := context.Background()
	factory := backend.NewFactory(logger.Logger)
	source, err := factory.CreateBackend(ctx, sourceCfg)
	if err != nil {
		logger.Error("Failed to open primary store", log.FieldError, err)
		os.Exit(1)
	}
	defer source.Close()

	target, err := factory.CreateMirror(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets mirror", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	mirror := worker.NewMirrorWorker(source.Store, target, cfg.MirrorInterval)

	runCtx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := mirror.Stop(ctx); err != nil {
			logger.Error("Mirror worker shutdown error", log.FieldError, err)
		}
	})

	// Catch up on anything published while the worker was down.
	if err := mirror.MirrorAll(runCtx); err != nil {
		logger.Error("Startup mirror failed", log.FieldError, err)
	}
	if err := mirror.Start(runCtx); err != nil {
		logger.Error("Failed to start mirror loop", log.FieldError, err)
		os.Exit(1)
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, relying on periodic mirroring", log.FieldError, err)
		} else {
			defer client.Close()
			go func() {
				err := client.ConsumeCollectionChanged(runCtx, mirror.HandleMessage)
				if err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("Message consumption stopped", log.FieldError, err)
				}
			}()
		}
	} else {
		logger.Info("AMQP_URL not set, relying on periodic mirroring", "interval", cfg.MirrorInterval)
	}

	cli.WaitForShutdown(runCtx, done)
	logger.Info("Worker stopped")
}
