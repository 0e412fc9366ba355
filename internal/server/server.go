package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dvcrn/gauth-proxy/internal/auth"
	"github.com/dvcrn/gauth-proxy/internal/transport"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// TokenFetcher is what the server needs from the credential layer.
type TokenFetcher interface {
	Token(ctx context.Context) (*oauth2.Token, error)
	ForceRefresh(ctx context.Context) error
	Status() auth.Status
	Subscribe() (<-chan auth.Status, func())
}

type Server struct {
	fetcher  TokenFetcher
	adminKey string
	mux      *http.ServeMux
	logger   zerolog.Logger
}

func New(logger zerolog.Logger, fetcher TokenFetcher, adminKey string) *Server {
	s := &Server{
		fetcher:  fetcher,
		adminKey: adminKey,
		mux:      http.NewServeMux(),
		logger:   logger,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/v1/token", s.adminMiddleware(s.tokenHandler))
	s.mux.HandleFunc("/health", s.healthHandler)
	s.mux.HandleFunc("/admin/credentials/status", s.adminMiddleware(s.credentialsStatusHandler))
	s.mux.HandleFunc("/admin/credentials/refresh", s.adminMiddleware(s.credentialsRefreshHandler))
	s.mux.HandleFunc("/admin/credentials/watch", s.adminMiddleware(s.credentialsWatchHandler))
	s.mux.HandleFunc("/", s.notFoundHandler)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.loggingMiddleware(s.mux).ServeHTTP(w, r)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.logger.Info().
			Str("method", r.Method).
			Str("uri", r.RequestURI).
			Str("remote_addr", r.RemoteAddr).
			Str("user_agent", r.UserAgent()).
			Msg("Incoming request")
		next.ServeHTTP(w, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("uri", r.RequestURI).
			Dur("duration", time.Since(start)).
			Msg("Finished request")
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}

func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	s.logger.Warn().
		Str("method", r.Method).
		Str("uri", r.RequestURI).
		Str("remote_addr", r.RemoteAddr).
		Str("user_agent", r.UserAgent()).
		Msg("Unhandled route")
	http.NotFound(w, r)
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in,omitempty"`
	Expiry      time.Time `json:"expiry,omitzero"`
	IDToken     string    `json:"id_token,omitempty"`
}

// tokenHandler handles GET /v1/token, returning a valid access token
func (s *Server) tokenHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	tok, err := s.fetcher.Token(r.Context())
	if err != nil {
		s.writeRefreshError(w, err)
		return
	}

	resp := tokenResponse{
		AccessToken: tok.AccessToken,
		TokenType:   tok.Type(),
		Expiry:      tok.Expiry,
	}
	// Remaining lifetime is measured with the credential's own clock.
	if st := s.fetcher.Status(); !tok.Expiry.IsZero() && st.Expiry.Equal(tok.Expiry) {
		resp.ExpiresIn = st.ExpiresIn
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		resp.IDToken = idToken
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode token response")
	}
}

// credentialsRefreshHandler handles POST /admin/credentials/refresh
func (s *Server) credentialsRefreshHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if err := s.fetcher.ForceRefresh(r.Context()); err != nil {
		s.writeRefreshError(w, err)
		return
	}

	s.logger.Info().Msg("OAuth credentials refreshed on admin request")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":      "success",
		"credentials": s.fetcher.Status(),
	})
}

// credentialsStatusHandler handles GET /admin/credentials/status
func (s *Server) credentialsStatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.fetcher.Status())
}

// writeRefreshError maps credential errors onto HTTP statuses: broken
// configuration is ours (500), anything from the token endpoint is upstream (502).
func (s *Server) writeRefreshError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	kind := "refresh_error"

	var terr *transport.Error
	switch {
	case errors.Is(err, auth.ErrInvalidConfiguration):
		status = http.StatusInternalServerError
		kind = "invalid_configuration"
	case errors.As(err, &terr):
		status = http.StatusGatewayTimeout
		kind = "transport_error"
	}

	s.logger.Error().Err(err).Str("kind", kind).Msg("Failed to obtain OAuth token")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   kind,
		"message": err.Error(),
	})
}
