package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"assetforge/internal/adapter/repo"
	"assetforge/internal/http/handlers"
	"assetforge/internal/http/httpapi"
	"assetforge/internal/infra"
	"assetforge/internal/infra/credentials"
	"assetforge/internal/pipeline"
	"assetforge/internal/providers/image"
	"assetforge/internal/upload"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	creds := credentials.NewStore(dbpool)

	providers, err := image.NewFromConfig(cfg, creds)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid provider chain")
	}

	volatile, err := pipeline.NewVolatileCache(cfg.CacheMaxEntries, cfg.CacheTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build volatile cache")
	}
	cache := pipeline.NewTieredCache(volatile, repo.NewCacheRepository(dbpool), logger)

	uploader := upload.NewClient(upload.Options{
		UploadURL:      cfg.UploadURL,
		RequestTimeout: cfg.UploadTimeout,
	}, creds)

	events := pipeline.NewLogSink(logger)
	chain := pipeline.NewChain(providers, cfg.ProviderTimeout, events, logger)
	service := pipeline.NewService(chain, cache, uploader, pipeline.NewCoordinator(), events, logger)

	app := handlers.NewApp(service, logger)
	router := httpapi.NewRouter(app)
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
