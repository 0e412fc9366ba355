package credentials

import (
	"context"
	"os"
)

const (
	EnvClientID     = "GOOGLE_CLIENT_ID"
	EnvClientSecret = "GOOGLE_CLIENT_SECRET"
	EnvRefreshToken = "GOOGLE_REFRESH_TOKEN"
)

// EnvSource builds an authorized-user document from environment variables.
// Unset variables are left out so the missing fields get reported.
type EnvSource struct{}

// NewEnvSource creates a new environment-based credentials source
func NewEnvSource() *EnvSource {
	return &EnvSource{}
}

func (e *EnvSource) Name() string {
	return "environment"
}

func (e *EnvSource) Load(_ context.Context) (map[string]interface{}, error) {
	info := map[string]interface{}{}
	for key, env := range map[string]string{
		"client_id":     EnvClientID,
		"client_secret": EnvClientSecret,
		"refresh_token": EnvRefreshToken,
	} {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			info[key] = v
		}
	}
	return info, nil
}
