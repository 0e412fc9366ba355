package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dvcrn/gauth-proxy/internal/app"
	"github.com/dvcrn/gauth-proxy/internal/auth"
	"github.com/dvcrn/gauth-proxy/internal/config"
	"github.com/dvcrn/gauth-proxy/internal/credentials"
	"github.com/dvcrn/gauth-proxy/internal/logger"
	"github.com/rs/zerolog"
)

// Options is the root command. The struct tags are interpreted by
// github.com/jessevdk/go-flags.
type Options struct {
	Config          string   `short:"f" long:"config" description:"YAML config path"`
	CredsPath       string   `long:"creds-path" description:"authorized-user JSON path or URL (defaults to gcloud application-default credentials)"`
	UseKeychain     bool     `long:"use-keychain" description:"read the authorized-user JSON from the macOS keychain"`
	KeychainService string   `long:"keychain-service" description:"keychain generic-password service name" default:"gauth-proxy-credentials"`
	UseEnv          bool     `long:"use-env" description:"read client id, secret and refresh token from GOOGLE_* environment variables"`
	Scopes          []string `long:"scope" description:"scope granted to the credentials (repeatable)"`

	Serve  ServeCmd  `command:"serve" description:"Start the token broker HTTP server"`
	Token  TokenCmd  `command:"token" description:"Print a valid access token"`
	Status StatusCmd `command:"status" description:"Print the credential status as JSON"`
}

var options = &Options{}

func (o *Options) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.Config)
	if err != nil {
		return nil, err
	}
	if o.CredsPath != "" {
		cfg.CredentialsPath = o.CredsPath
	}
	if len(o.Scopes) > 0 {
		cfg.Scopes = o.Scopes
	}
	return cfg, nil
}

func (o *Options) source(cfg *config.Config, log *zerolog.Logger) credentials.Source {
	switch {
	case o.UseKeychain:
		log.Info().Str("service", o.KeychainService).Msg("🔑 Using keychain credentials source")
		return credentials.NewKeychainSource(o.KeychainService, log)
	case o.UseEnv:
		log.Info().Msg("📝 Using environment credentials source")
		return credentials.NewEnvSource()
	default:
		path := credentials.ResolveCredsPath(cfg.CredentialsPath)
		log.Info().Str("path", path).Msg("📄 Using filesystem credentials source")
		return credentials.NewFSSource(path)
	}
}

// setup loads config, builds the logger and the credential fetcher.
func (o *Options) setup(ctx context.Context, interval func(*config.Config) time.Duration) (*config.Config, zerolog.Logger, *auth.Fetcher, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	log := logger.NewWithOptions(logger.Options{Env: cfg.Env, Level: cfg.LogLevel})

	fetcher, err := app.NewFetcher(ctx, cfg, o.source(cfg, &log), &log, interval(cfg))
	if err != nil {
		return nil, log, nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	return cfg, log, fetcher, nil
}

func noBackgroundRefresh(*config.Config) time.Duration { return 0 }
