// genctl runs a single generation from the command line: useful for smoke
// testing credentials and the provider chain without the HTTP server. With
// no DATABASE_URL set it runs with the volatile cache tier only.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"assetforge/internal/adapter/repo"
	"assetforge/internal/domain"
	"assetforge/internal/infra"
	"assetforge/internal/infra/credentials"
	"assetforge/internal/pipeline"
	"assetforge/internal/providers/image"
	"assetforge/internal/upload"
)

func main() {
	prompt := flag.String("prompt", "", "creative specification (required)")
	style := flag.String("style", "", "optional style hint")
	size := flag.String("size", pipeline.DefaultSize, "output size, WxH")
	format := flag.String("format", pipeline.DefaultFormat, "output format")
	folder := flag.String("folder", "", "destination folder in the asset store")
	assetID := flag.String("asset-id", "", "explicit target identifier")
	noCache := flag.Bool("no-cache", false, "skip cache reads")
	flag.Parse()

	if *prompt == "" {
		fmt.Fprintln(os.Stderr, "genctl: -prompt is required")
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fatal(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	var creds credentials.Source = credentials.Env{}
	var durable domain.CacheRepository
	if cfg.DatabaseURL != "" {
		dbpool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			fatal(err)
		}
		defer dbpool.Close()
		creds = credentials.NewStore(dbpool)
		durable = repo.NewCacheRepository(dbpool)
	}

	providers, err := image.NewFromConfig(cfg, creds)
	if err != nil {
		fatal(err)
	}
	volatile, err := pipeline.NewVolatileCache(cfg.CacheMaxEntries, cfg.CacheTTL)
	if err != nil {
		fatal(err)
	}

	events := pipeline.NewLogSink(logger)
	service := pipeline.NewService(
		pipeline.NewChain(providers, cfg.ProviderTimeout, events, logger),
		pipeline.NewTieredCache(volatile, durable, logger),
		upload.NewClient(upload.Options{UploadURL: cfg.UploadURL, RequestTimeout: cfg.UploadTimeout}, creds),
		pipeline.NewCoordinator(),
		events,
		logger,
	)

	result, err := service.Generate(ctx, domain.GenerationRequest{
		Prompt:          *prompt,
		Style:           *style,
		Size:            *size,
		Format:          *format,
		Folder:          *folder,
		ExplicitAssetID: *assetID,
		SkipCache:       *noCache,
	})
	if err != nil {
		fatal(err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(result)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "genctl:", err)
	os.Exit(1)
}
