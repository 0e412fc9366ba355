package server

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

var (
	errNoAdminKey      = errors.New("missing Authorization or X-API-Key header")
	errMalformedBearer = errors.New("invalid Authorization header format")
)

// adminKeyFromRequest accepts 'Authorization: Bearer <key>' (scheme is
// case-insensitive) or 'X-API-Key: <key>'. Authorization wins when both are set.
func adminKeyFromRequest(r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		scheme, key, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || key == "" || strings.Contains(key, " ") {
			return "", errMalformedBearer
		}
		return key, nil
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key, nil
	}
	return "", errNoAdminKey
}

// adminMiddleware guards the credential endpoints with the configured admin key.
func (s *Server) adminMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.adminKey == "" {
			s.logger.Error().Msg("Admin API key not configured")
			http.Error(w, "Admin API not configured", http.StatusInternalServerError)
			return
		}

		reqLog := s.logger.With().
			Str("method", r.Method).
			Str("uri", r.RequestURI).
			Str("remote_addr", r.RemoteAddr).
			Logger()

		key, err := adminKeyFromRequest(r)
		if err != nil {
			reqLog.Warn().Err(err).Msg("Rejected admin request")
			if errors.Is(err, errMalformedBearer) {
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		if subtle.ConstantTimeCompare([]byte(key), []byte(s.adminKey)) != 1 {
			reqLog.Warn().Msg("Invalid admin API key provided")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		reqLog.Debug().Msg("Admin request authorized")
		next(w, r)
	}
}
