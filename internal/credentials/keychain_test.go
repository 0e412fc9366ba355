package credentials

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvcrn/gauth-proxy/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeychainSource(t *testing.T) {
	source := NewKeychainSource("", nil)

	assert.Equal(t, 5*time.Minute, source.cacheTTL)
	assert.Equal(t, "keychain:"+DefaultKeychainService, source.Name())
}

func TestKeychainSourceLoadCaches(t *testing.T) {
	calls := 0
	source := NewKeychainSource("svc", nil)
	source.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		calls++
		assert.Equal(t, "security", name)
		assert.Equal(t, []string{"find-generic-password", "-s", "svc", "-w"}, args)
		return []byte(`{"client_id":"k","client_secret":"s","refresh_token":"r"}`), nil
	}

	info, err := source.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "k", info["client_id"])

	info["client_id"] = "mutated"
	info, err = source.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "k", info["client_id"])
	assert.Equal(t, 1, calls)

	source.Invalidate()
	_, err = source.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestKeychainSourceErrors(t *testing.T) {
	source := NewKeychainSource("svc", nil)
	source.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("item not found")
	}
	_, err := source.Load(context.Background())
	assert.ErrorContains(t, err, "item not found")

	source.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("not json"), nil
	}
	_, err = source.Load(context.Background())
	assert.Error(t, err)
}

func TestKeychainSourceCacheExpires(t *testing.T) {
	calls := 0
	clk := clock.Fixed(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	source := NewKeychainSource("svc", nil)
	source.clock = clk
	source.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		calls++
		return []byte(`{"client_id":"k","client_secret":"s","refresh_token":"r"}`), nil
	}

	_, err := source.Load(context.Background())
	require.NoError(t, err)

	clk.Advance(source.cacheTTL - time.Second)
	_, err = source.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	clk.Advance(time.Second)
	_, err = source.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
