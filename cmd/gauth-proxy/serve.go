package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvcrn/gauth-proxy/internal/app"
	"github.com/dvcrn/gauth-proxy/internal/auth"
	"github.com/dvcrn/gauth-proxy/internal/config"
	"github.com/rs/zerolog"
)

// ServeCmd starts the token broker.
// Usage: gauth-proxy serve --port 9879
type ServeCmd struct {
	Port string `short:"p" long:"port" description:"listen port (overrides config and PORT)"`
}

func (s *ServeCmd) Execute(_ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, fetcher, err := options.setup(ctx, func(c *config.Config) time.Duration { return c.RefreshInterval })
	if err != nil {
		log.Error().Err(err).Msg("Failed to start")
		return err
	}
	defer fetcher.Close()

	if s.Port != "" {
		cfg.Port = s.Port
	}
	if cfg.AdminAPIKey == "" {
		log.Warn().Msg("⚠️  ADMIN_API_KEY is not set, token endpoints will refuse all requests")
	}

	validateCredentialsAtStartup(ctx, fetcher, log)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: app.NewServer(fetcher, log, cfg),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Server failed")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func validateCredentialsAtStartup(ctx context.Context, fetcher *auth.Fetcher, log zerolog.Logger) {
	tok, err := fetcher.Token(ctx)
	if err != nil {
		log.Error().Err(err).Msg("⚠️  Failed to obtain an access token at startup")
		return
	}

	st := fetcher.Status()
	log.Info().
		Str("client_id", st.ClientID).
		Int("token_length", len(tok.AccessToken)).
		Strs("scopes", st.Scopes).
		Msg("✅ Credentials loaded successfully")

	minutesUntilExpiry := st.ExpiresIn / 60
	switch {
	case st.Expiry.IsZero():
		log.Warn().Msg("⚠️  Token endpoint did not report an expiry, every request will refresh")
	case minutesUntilExpiry <= 5:
		log.Warn().
			Int64("minutes_until_expiry", minutesUntilExpiry).
			Msg("⚠️  Token expires soon, will refresh shortly")
	default:
		log.Info().
			Int64("minutes_until_expiry", minutesUntilExpiry).
			Msg("✅ Token is valid and not expiring soon")
	}
}
