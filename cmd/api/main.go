package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"server/internal/adapter/repo"
	"server/internal/http/handlers"
	httpapi "server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/infra/geoip"
	"server/internal/middleware"
	"server/internal/queue"
	"server/internal/storage"
	"server/internal/telemetry"
	"server/internal/uploads"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)

	store, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure storage")
	}
	urls := storage.NewURLBuilder(cfg.StorageBaseURL, cfg.StorageSigningSecret)

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("api: geoip unavailable")
	}
	var lookup middleware.CountryLookup
	if resolver != nil {
		defer func() {
			_ = resolver.Close()
		}()
		lookup = resolver.CountryCode
	}

	analytics := repo.NewAnalyticsRepository(runner)
	app := &handlers.App{
		Queue:       queue.New(runner),
		Status:      queue.NewStatusChain(runner),
		Pages:       repo.NewPageRepository(runner),
		Uploads:     uploads.NewService(runner, store),
		Analytics:   analytics,
		Sink:        telemetry.NewSink(analytics, logger),
		URLs:        urls,
		Logger:      logger,
		MaxAttempts: cfg.JobMaxAttempts,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		JWTSecret:       cfg.JWTSecret,
		RateLimitPerMin: cfg.RateLimitPerMin,
		CountryLookup:   lookup,
		StaticDir:       store.BasePath(),
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
