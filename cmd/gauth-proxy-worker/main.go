//go:build js && wasm

package main

import (
	"context"

	"github.com/dvcrn/gauth-proxy/internal/app"
	"github.com/dvcrn/gauth-proxy/internal/config"
	"github.com/dvcrn/gauth-proxy/internal/credentials"
	"github.com/dvcrn/gauth-proxy/internal/logger"
	"github.com/syumai/workers"
)

const configKey = "config"

func main() {
	log := logger.New()

	log.Info().Msg("📦 Using Cloudflare KV credentials source with OAuth refresh")
	kvSource, err := credentials.NewCloudflareKVSource()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Cloudflare KV source")
	}

	raw, err := kvSource.GetString(configKey)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️  No config in KV, using defaults")
	}
	cfg, err := config.Parse([]byte(raw))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse config")
	}

	// Workers have no long-lived goroutines between requests, so tokens are
	// refreshed on demand only.
	fetcher, err := app.NewFetcher(context.Background(), cfg, kvSource, &log, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load credentials")
	}

	workers.Serve(app.NewServer(fetcher, log, cfg))
}
