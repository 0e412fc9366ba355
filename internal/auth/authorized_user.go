package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dvcrn/gauth-proxy/internal/clock"
	"github.com/viant/afs"
	afsurl "github.com/viant/afs/url"
)

// GoogleTokenURI is the token endpoint bound to authorized-user credentials.
const GoogleTokenURI = "https://accounts.google.com/o/oauth2/token"

var authorizedUserKeys = []string{"client_id", "client_secret", "refresh_token"}

// InfoReader reads and parses an authorized-user JSON document. It is a
// variable so tests can substitute it.
var InfoReader = ReadAuthorizedUserInfo

// Option customizes credentials built by the authorized-user constructors.
type Option func(*Config)

// WithClock sets the clock used for expiry checks and grant timestamps.
func WithClock(c clock.Clock) Option {
	return func(cfg *Config) { cfg.Clock = c }
}

// WithGrant replaces the refresh grant implementation.
func WithGrant(g GrantFunc) Option {
	return func(cfg *Config) { cfg.Grant = g }
}

// WithTokenURI points the credential at a different token endpoint.
func WithTokenURI(uri string) Option {
	return func(cfg *Config) {
		if uri != "" {
			cfg.TokenURI = uri
		}
	}
}

// FromAuthorizedUserInfo builds credentials from a decoded authorized-user
// document. client_id, client_secret and refresh_token are required; other
// keys are ignored.
func FromAuthorizedUserInfo(info map[string]interface{}, scopes []string, opts ...Option) (*Credentials, error) {
	values := make(map[string]string, len(authorizedUserKeys))
	var missing []string
	for _, key := range authorizedUserKeys {
		v, ok := info[key].(string)
		if !ok {
			missing = append(missing, key)
			continue
		}
		values[key] = v
	}
	if len(missing) > 0 {
		return nil, &DeserializationError{
			Source: "authorized user info",
			Err:    fmt.Errorf("missing required fields: %s", strings.Join(missing, ", ")),
		}
	}

	cfg := Config{
		ClientID:     values["client_id"],
		ClientSecret: values["client_secret"],
		RefreshToken: values["refresh_token"],
		TokenURI:     GoogleTokenURI,
		Scopes:       scopes,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return New(cfg), nil
}

// FromAuthorizedUserFile reads path with InfoReader and delegates to
// FromAuthorizedUserInfo.
func FromAuthorizedUserFile(ctx context.Context, path string, scopes []string, opts ...Option) (*Credentials, error) {
	info, err := InfoReader(ctx, path)
	if err != nil {
		return nil, err
	}
	creds, err := FromAuthorizedUserInfo(info, scopes, opts...)
	if err != nil {
		var derr *DeserializationError
		if errors.As(err, &derr) {
			derr.Source = path
		}
		return nil, err
	}
	return creds, nil
}

// ReadAuthorizedUserInfo loads a JSON object from a local path or any URL
// the afs file system understands.
func ReadAuthorizedUserInfo(ctx context.Context, location string) (map[string]interface{}, error) {
	URL := location
	if afsurl.Scheme(URL, "") == "" {
		abs, err := filepath.Abs(location)
		if err != nil {
			return nil, &DeserializationError{Source: location, Err: err}
		}
		URL = "file://" + abs
	}

	data, err := afs.New().DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, &DeserializationError{Source: location, Err: fmt.Errorf("failed to read credentials file: %w", err)}
	}
	return ParseAuthorizedUserInfo(location, data)
}

// ParseAuthorizedUserInfo decodes data as a JSON object.
func ParseAuthorizedUserInfo(source string, data []byte) (map[string]interface{}, error) {
	var info map[string]interface{}
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, &DeserializationError{Source: source, Err: fmt.Errorf("failed to parse credentials file: %w", err)}
	}
	if info == nil {
		return nil, &DeserializationError{Source: source, Err: errors.New("credentials file is not a JSON object")}
	}
	return info, nil
}
