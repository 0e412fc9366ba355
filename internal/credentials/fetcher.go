package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvcrn/gauth-proxy/internal/auth"
)

// Source yields an authorized-user document: a JSON object with at least
// client_id, client_secret and refresh_token.
type Source interface {
	Name() string
	Load(ctx context.Context) (map[string]interface{}, error)
}

// Load reads src and builds credentials from it.
func Load(ctx context.Context, src Source, scopes []string, opts ...auth.Option) (*auth.Credentials, error) {
	info, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials from %s: %w", src.Name(), err)
	}
	creds, err := auth.FromAuthorizedUserInfo(info, scopes, opts...)
	if err != nil {
		var derr *auth.DeserializationError
		if errors.As(err, &derr) {
			derr.Source = src.Name()
		}
		return nil, err
	}
	return creds, nil
}
