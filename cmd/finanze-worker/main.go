package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"finanze/internal/amqp"
	"finanze/internal/config"
	"finanze/internal/log"
	"finanze/internal/report"
	"finanze/internal/storage"
	"finanze/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: log.ComponentWorker})
	log.SetDefault(logger)

	logger.Info("Starting finanze-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	pdfOpts, err := loadPDFOptions(cfg)
	if err != nil {
		logger.Error("Failed to load PDF fonts", log.FieldError, err)
		os.Exit(1)
	}

	exportWorker := worker.NewExportWorker(repo, cfg.ExportDir, pdfOpts, cfg.ExportTimeout)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumeExportJobs(ctx, func(msg *amqp.ExportJobMessage) error {
			path, err := exportWorker.HandleExportJob(ctx, msg)
			if err != nil {
				logger.Error("Export job failed",
					log.FieldJobID, msg.JobID,
					log.FieldFormat, msg.Format,
					log.FieldError, err)
				return err
			}
			logger.Info("Export job completed",
				log.FieldJobID, msg.JobID,
				log.FieldFormat, msg.Format,
				log.FieldFileName, path)
			return nil
		})
	})

	logger.Info("Consuming export jobs",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"export_dir", cfg.ExportDir)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

// loadPDFOptions reads the configured font files into memory. Without fonts
// the worker still serves CSV jobs; PDF jobs fail with a clear error.
func loadPDFOptions(cfg *config.Config) (report.PDFOptions, error) {
	var opts report.PDFOptions
	if cfg.PDFFontRegular == "" {
		return opts, nil
	}
	regular, err := os.ReadFile(cfg.PDFFontRegular)
	if err != nil {
		return opts, err
	}
	bold, err := os.ReadFile(cfg.PDFFontBold)
	if err != nil {
		return opts, err
	}
	opts.FontRegular = regular
	opts.FontBold = bold
	return opts, nil
}
