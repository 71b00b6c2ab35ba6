package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"storefront-api/internal/core"
	"storefront-api/internal/importer"
	logx "storefront-api/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	var cfg importer.Config
	if err := envconfig.Process("", &cfg); err != nil {
		logx.Fatal().Err(err).Msg("failed to process import config")
	}
	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	imp, err := importer.New(cfg)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to create importer")
	}

	doc, err := imp.Import(ctx, cfg.SourceURL)
	if err != nil {
		logx.Fatal().Err(err).Str("source", cfg.SourceURL).Msg("import failed")
	}
	if len(doc.Products) == 0 {
		logx.Fatal().Str("source", cfg.SourceURL).Msg("no products found on the listing")
	}

	if err := importer.WriteDocument(cfg.Output, doc); err != nil {
		logx.Fatal().Err(err).Msg("failed to write catalog")
	}
}
