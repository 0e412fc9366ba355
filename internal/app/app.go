package app

import (
	"context"
	"time"

	"github.com/dvcrn/gauth-proxy/internal/auth"
	"github.com/dvcrn/gauth-proxy/internal/config"
	"github.com/dvcrn/gauth-proxy/internal/credentials"
	"github.com/dvcrn/gauth-proxy/internal/server"
	"github.com/dvcrn/gauth-proxy/internal/transport"
	"github.com/rs/zerolog"
)

// NewServer creates a new server instance with the given token fetcher
func NewServer(fetcher server.TokenFetcher, logger zerolog.Logger, cfg *config.Config) *server.Server {
	return server.New(logger, fetcher, cfg.AdminAPIKey)
}

// NewFetcher loads the authorized-user credentials from src and wraps them
// with a requester honouring cfg's timeout. Background refresh runs every
// interval when it is positive.
func NewFetcher(ctx context.Context, cfg *config.Config, src credentials.Source, logger *zerolog.Logger, interval time.Duration) (*auth.Fetcher, error) {
	creds, err := credentials.Load(ctx, src, cfg.Scopes, auth.WithTokenURI(cfg.TokenURI))
	if err != nil {
		return nil, err
	}
	requester := transport.NewRequester(transport.NewHTTPClientWithTimeout(cfg.HTTPTimeout))
	return auth.NewFetcher(creds, requester, logger, interval), nil
}
