package main

import (
	"context"
	"errors"
	"os"

	"github.com/ferrovax/playdex/internal/catalog"
	"github.com/ferrovax/playdex/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	svc := catalog.NewHTTPService(catalog.HTTPServiceOpts{
		BaseURL:  config.Catalog.BaseURL,
		Token:    config.Catalog.Token,
		RetryMax: config.Catalog.RetryMax,
		Rate: catalog.RateLimitConfig{
			RequestsPerSecond: config.Catalog.RequestsPerSecond,
			Burst:             config.Catalog.Burst,
		},
	})

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Catalog: svc,
		Logger:  logger,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:     "playdex",
		Usage:    "Discover and index which playlists your videos belong to",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
