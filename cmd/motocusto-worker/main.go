package main

import (
	"context"
	"errors"
	"os"
	"time"

	"motocusto/internal/amqp"
	"motocusto/internal/backend"
	"motocusto/internal/cli"
	"motocusto/internal/config"
	applog "motocusto/internal/log"
	"motocusto/internal/ports"
	gsheet "motocusto/internal/sheets/google"
	"motocusto/internal/sheets/memory"
	"motocusto/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentWorker)
	logger.Info("Starting motocusto-worker", "backend", cfg.DataBackend)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	if cfg.DataBackend == config.BackendMemory {
		logger.Error("The worker needs a shared backend (sqlite or postgres)")
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	// The worker consumes with its own client, so publishing stays off here.
	backendCfg.AMQPURL = ""
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", applog.FieldError, err)
		os.Exit(1)
	}

	sheet := newSheet(cfg, logger)
	syncWorker := worker.NewSyncWorker(res.Store, sheet, cfg.SyncBatchSize, logger)

	var consumer *amqp.Client
	if cfg.HasAMQP() {
		consumer, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
	} else {
		logger.Info("AMQP disabled - relying on the pending sweep only")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if consumer != nil {
			if err := consumer.Close(); err != nil {
				logger.Failure(ctx, "AMQP client close failed", err)
			}
		}
		if err := res.Cleanup(); err != nil {
			logger.Failure(ctx, "Backend cleanup failed", err)
		}
	})

	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Failure(ctx, "Startup sync check failed", err)
	}

	if consumer != nil {
		go func() {
			if err := consumer.Consume(ctx, syncWorker.HandleMessage); err != nil && !errors.Is(err, context.Canceled) {
				logger.Failure(ctx, "Message consumption failed", err)
			}
		}()
	}
	go syncWorker.RunSweeper(ctx, cfg.SyncInterval)

	cli.WaitForShutdown(ctx, done)
}

// newSheet returns the Google Sheets mirror when configured, otherwise an
// in-memory sheet so the sync bookkeeping still runs.
func newSheet(cfg *config.Config, logger *applog.Logger) ports.SheetWriter {
	if !cfg.HasSheets() {
		logger.Info("Google Sheets disabled - mirroring to memory")
		return memory.New()
	}
	client, err := gsheet.New(context.Background(), gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}
	return client
}
