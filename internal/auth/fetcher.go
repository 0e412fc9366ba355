package auth

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dvcrn/gauth-proxy/internal/transport"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const backgroundRefreshTimeout = 30 * time.Second

// Fetcher wraps Credentials with logging, on-demand and background refresh,
// and change notifications.
type Fetcher struct {
	creds     *Credentials
	requester transport.Requester
	logger    *zerolog.Logger
	interval  time.Duration

	refreshCount atomic.Int64

	subMu       sync.Mutex
	subscribers map[int]chan Status
	nextSubID   int
	closed      bool

	stopCh    chan struct{}
	closeOnce sync.Once
}

// NewFetcher creates a Fetcher. When interval is positive a goroutine checks
// the credential on that period and refreshes it when it is no longer valid.
func NewFetcher(creds *Credentials, requester transport.Requester, logger *zerolog.Logger, interval time.Duration) *Fetcher {
	f := &Fetcher{
		creds:       creds,
		requester:   requester,
		logger:      logger,
		interval:    interval,
		subscribers: make(map[int]chan Status),
		stopCh:      make(chan struct{}),
	}
	if interval > 0 {
		go f.backgroundRefresh()
	}
	return f
}

// Credentials returns the wrapped credential.
func (f *Fetcher) Credentials() *Credentials {
	return f.creds
}

// Token returns a valid token, refreshing first if necessary.
func (f *Fetcher) Token(ctx context.Context) (*oauth2.Token, error) {
	if f.creds.Valid() {
		if f.logger != nil {
			f.logger.Debug().
				Int64("minutes_until_expiry", f.minutesUntilExpiry()).
				Msg("✅ OAuth token is still valid")
		}
		return f.creds.OAuth2Token(), nil
	}

	if f.logger != nil {
		f.logger.Info().
			Bool("has_token", f.creds.Token() != "").
			Msg("🔄 OAuth token missing, expired or expiring soon, refreshing...")
	}

	refreshed, err := f.creds.EnsureValid(ctx, f.requester)
	if err != nil {
		if f.logger != nil {
			f.logger.Error().Err(err).Msg("❌ Failed to refresh OAuth token")
		}
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	if refreshed {
		f.afterRefresh("✅ OAuth token refreshed successfully")
	}
	return f.creds.OAuth2Token(), nil
}

// GetToken returns just the access token string.
func (f *Fetcher) GetToken(ctx context.Context) (string, error) {
	tok, err := f.Token(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// ForceRefresh refreshes regardless of the current token's validity.
func (f *Fetcher) ForceRefresh(ctx context.Context) error {
	if err := f.creds.Refresh(ctx, f.requester); err != nil {
		if f.logger != nil {
			f.logger.Error().Err(err).Msg("❌ Forced refresh failed")
		}
		return fmt.Errorf("failed to refresh token: %w", err)
	}
	f.afterRefresh("✅ OAuth token refreshed on request")
	return nil
}

// Status reports the credential state along with the number of refreshes
// this fetcher performed.
func (f *Fetcher) Status() Status {
	st := f.creds.Status()
	st.RefreshCount = f.refreshCount.Load()
	return st
}

// Subscribe returns a channel that receives the status after every refresh.
// Slow subscribers miss updates rather than block refreshes. Call the
// returned function to unsubscribe. After Close the channel is already closed.
func (f *Fetcher) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 1)

	f.subMu.Lock()
	if f.closed {
		f.subMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := f.nextSubID
	f.nextSubID++
	f.subscribers[id] = ch
	f.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.subMu.Lock()
			if _, ok := f.subscribers[id]; ok {
				delete(f.subscribers, id)
				close(ch)
			}
			f.subMu.Unlock()
		})
	}
}

func (f *Fetcher) afterRefresh(msg string) {
	f.refreshCount.Add(1)
	st := f.Status()
	if f.logger != nil {
		f.logger.Info().
			Int64("new_expiry_minutes", f.minutesUntilExpiry()).
			Bool("has_id_token", st.HasIDToken).
			Msg(msg)
	}

	f.subMu.Lock()
	defer f.subMu.Unlock()
	for _, ch := range f.subscribers {
		select {
		case ch <- st:
		default:
		}
	}
}

func (f *Fetcher) minutesUntilExpiry() int64 {
	expiry := f.creds.Expiry()
	if expiry.IsZero() {
		return 0
	}
	return int64(expiry.Sub(f.creds.clock.Now()) / time.Minute)
}

// backgroundRefresh periodically checks and refreshes tokens if they're expiring soon
func (f *Fetcher) backgroundRefresh() {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			f.checkAndRefreshToken()
		case <-f.stopCh:
			if f.logger != nil {
				f.logger.Debug().Msg("Background token refresh stopped")
			}
			return
		}
	}
}

func (f *Fetcher) checkAndRefreshToken() {
	if f.creds.Valid() {
		if f.logger != nil {
			f.logger.Debug().
				Int64("minutes_until_expiry", f.minutesUntilExpiry()).
				Msg("Background refresh: token still valid")
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), backgroundRefreshTimeout)
	defer cancel()

	refreshed, err := f.creds.EnsureValid(ctx, f.requester)
	if err != nil {
		if f.logger != nil {
			f.logger.Error().Err(err).Msg("❌ Background refresh: failed to refresh token")
		}
		return
	}
	if refreshed {
		f.afterRefresh("✅ Background refresh: token refreshed successfully")
	}
}

// Close stops the background refresh goroutine and closes all subscriptions.
func (f *Fetcher) Close() {
	f.closeOnce.Do(func() {
		close(f.stopCh)
		f.subMu.Lock()
		f.closed = true
		for id, ch := range f.subscribers {
			delete(f.subscribers, id)
			close(ch)
		}
		f.subMu.Unlock()
	})
}
