//go:build js && wasm

package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvcrn/gauth-proxy/internal/auth"
	"github.com/syumai/workers/cloudflare/kv"
)

const (
	kvNamespace = "gauth_proxy_kv"
	kvKey       = "authorized_user"
)

// CloudflareKVSource reads the authorized-user document from Cloudflare KV
type CloudflareKVSource struct {
	kvStore *kv.Namespace
}

// NewCloudflareKVSource binds the KV namespace configured in wrangler.toml.
func NewCloudflareKVSource() (*CloudflareKVSource, error) {
	kvStore, err := kv.NewNamespace(kvNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize KV namespace: %w", err)
	}
	return &CloudflareKVSource{kvStore: kvStore}, nil
}

func (c *CloudflareKVSource) Name() string {
	return "kv:" + kvNamespace + "/" + kvKey
}

func (c *CloudflareKVSource) Load(_ context.Context) (map[string]interface{}, error) {
	credsJSON, err := c.kvStore.GetString(kvKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials from KV: %w", err)
	}
	if credsJSON == "" {
		return nil, errors.New("no credentials found in KV")
	}
	return auth.ParseAuthorizedUserInfo(c.Name(), []byte(credsJSON))
}

// GetString returns another value from the same namespace, such as the
// worker's YAML config.
func (c *CloudflareKVSource) GetString(key string) (string, error) {
	v, err := c.kvStore.GetString(key, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get %s from KV: %w", key, err)
	}
	return v, nil
}
