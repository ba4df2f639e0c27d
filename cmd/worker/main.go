package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"server/internal/adapter/repo"
	"server/internal/infra"
	"server/internal/providers/imagegen"
	"server/internal/providers/vision"
	"server/internal/queue"
	"server/internal/storage"
	"server/internal/telemetry"
	"server/internal/worker"
)

// queueRetentionDays controls how long terminal queue rows are kept before
// the hourly purge removes them. Page records keep the durable history.
const queueRetentionDays = 7

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)

	store, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}
	urls := storage.NewURLBuilder(cfg.StorageBaseURL, cfg.StorageSigningSecret)

	httpClient := &http.Client{Timeout: 120 * time.Second}

	analyzer, err := vision.NewOpenAIAnalyzer(vision.OpenAIOptions{
		APIKey:     cfg.OpenAIAPIKey,
		Model:      cfg.VisionModel,
		BaseURL:    cfg.OpenAIBaseURL,
		HTTPClient: httpClient,
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure vision client")
	}

	generator, err := imagegen.NewOpenAIGenerator(imagegen.OpenAIOptions{
		APIKey:     cfg.OpenAIAPIKey,
		Model:      cfg.ImageModel,
		BaseURL:    cfg.OpenAIBaseURL,
		HTTPClient: httpClient,
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure image client")
	}

	q := queue.New(runner)
	analytics := repo.NewAnalyticsRepository(runner)
	sink := telemetry.NewSink(analytics, logger)

	w := worker.New(
		q,
		repo.NewPageRepository(runner),
		analyzer,
		generator,
		store,
		urls,
		sink,
		httpClient,
		logger,
		worker.Config{
			PollInterval: cfg.WorkerPollInterval,
			BatchLimit:   cfg.WorkerBatchLimit,
			VisionModel:  cfg.VisionModel,
			ImageModel:   cfg.ImageModel,
			ImageQuality: cfg.ImageQuality,
		},
	)

	maintenance := cron.New()
	_, err = maintenance.AddFunc("@hourly", func() {
		purged, err := q.PurgeTerminal(ctx, queueRetentionDays)
		if err != nil {
			logger.Error().Err(err).Msg("worker: queue purge failed")
			return
		}
		if purged > 0 {
			logger.Info().Int64("purged", purged).Msg("worker: purged terminal queue rows")
		}
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to schedule maintenance")
	}
	maintenance.Start()
	defer maintenance.Stop()

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}
