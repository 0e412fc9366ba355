package credentials

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/dvcrn/gauth-proxy/internal/auth"
	"github.com/dvcrn/gauth-proxy/internal/clock"
	"github.com/rs/zerolog"
)

// DefaultKeychainService is the generic-password service name looked up in
// the macOS keychain.
const DefaultKeychainService = "gauth-proxy-credentials"

type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// KeychainSource reads an authorized-user document stored as a generic
// password in the macOS keychain, caching it for a short while.
type KeychainSource struct {
	service  string
	run      commandRunner
	logger   *zerolog.Logger
	cacheTTL time.Duration
	clock    clock.Clock

	mu       sync.Mutex
	cached   map[string]interface{}
	cachedAt time.Time
}

// NewKeychainSource creates a keychain-backed source for service.
func NewKeychainSource(service string, logger *zerolog.Logger) *KeychainSource {
	if service == "" {
		service = DefaultKeychainService
	}
	return &KeychainSource{
		service:  service,
		run:      runCommand,
		logger:   logger,
		cacheTTL: 5 * time.Minute, // Cache credentials for 5 minutes
		clock:    clock.System(),
	}
}

func (k *KeychainSource) Name() string {
	return "keychain:" + k.service
}

func (k *KeychainSource) Load(ctx context.Context) (map[string]interface{}, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.cached != nil && k.clock.Now().Sub(k.cachedAt) < k.cacheTTL {
		return copyInfo(k.cached), nil
	}

	output, err := k.run(ctx, "security", "find-generic-password", "-s", k.service, "-w")
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve password from Keychain: %w", err)
	}

	info, err := auth.ParseAuthorizedUserInfo(k.Name(), output)
	if err != nil {
		return nil, err
	}

	k.cached = info
	k.cachedAt = k.clock.Now()
	if k.logger != nil {
		k.logger.Debug().Str("service", k.service).Msg("🔑 Loaded credentials from keychain")
	}
	return copyInfo(info), nil
}

// Invalidate drops the cached document so the next Load hits the keychain.
func (k *KeychainSource) Invalidate() {
	k.mu.Lock()
	k.cached = nil
	k.mu.Unlock()
}

func copyInfo(info map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(info))
	for k, v := range info {
		out[k] = v
	}
	return out
}
