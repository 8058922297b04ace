package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"wallet/internal/amqp"
	"wallet/internal/cli"
	"wallet/internal/log"
	"wallet/internal/sheets"
	"wallet/internal/sheets/google"
	"wallet/internal/sheets/memory"
	"wallet/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(nil))
	logger := cli.SetupLogger(cfg).WithComponent(log.ComponentWorker)

	logger.Info("Starting wallet-worker")

	if cfg.AMQPURL == "" {
		logger.Error("Configuration validation failed", log.FieldError, errors.New("AMQP_URL is required"))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	be := cli.InitBackend(ctx, logger, cfg)

	var exporter sheets.WeekExporter
	if err := cfg.ValidateExport(); err != nil {
		logger.Warn("Google Sheets disabled, exported rows are kept in memory", log.FieldError, err)
		exporter = memory.New()
	} else {
		gs, err := google.New(ctx, google.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets exporter", log.FieldError, err)
			os.Exit(1)
		}
		exporter = gs
		logger.Info("Google Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	exportWorker := worker.NewExportWorker(be.Store, exporter, logger)

	// Events published while the worker was down are covered by exporting
	// the whole archive once.
	logger.Info("Performing startup export check...")
	if err := exportWorker.ExportHistory(ctx); err != nil {
		logger.Error("Startup export failed", log.FieldError, err)
	}

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close error", log.FieldError, err)
		}
		if be.Cleanup != nil {
			if err := be.Cleanup(); err != nil {
				logger.Error("Backend close error", log.FieldError, err)
			}
		}
	})

	g, gctx := errgroup.WithContext(shutdownCtx)
	g.Go(func() error {
		err := amqpClient.ConsumeWeekClosed(gctx, exportWorker.HandleWeekClosed)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := exportWorker.ExportHistory(gctx); err != nil {
					logger.Error("Periodic export failed", log.FieldError, err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	cancel()

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Worker stopped gracefully")
}
