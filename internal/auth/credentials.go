package auth

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dvcrn/gauth-proxy/internal/clock"
	"github.com/dvcrn/gauth-proxy/internal/transport"
)

// Config holds everything needed to build Credentials. Zero values mean
// "absent".
type Config struct {
	Token        string
	Expiry       time.Time
	IDToken      string
	RefreshToken string
	TokenURI     string
	ClientID     string
	ClientSecret string
	Scopes       []string

	Clock clock.Clock
	Grant GrantFunc
}

// state is the mutable part of a credential; it is replaced as a whole.
type state struct {
	token        string
	expiry       time.Time
	idToken      string
	refreshToken string
}

// Credentials is an OAuth2 user credential that can renew its access token
// with a refresh token. It is safe for concurrent use; at most one refresh
// runs at a time.
type Credentials struct {
	refreshMu sync.Mutex

	mu    sync.RWMutex
	state state

	tokenURI     string
	clientID     string
	clientSecret string
	scopes       []string

	clock clock.Clock
	grant GrantFunc
}

// New creates credentials from cfg.
func New(cfg Config) *Credentials {
	c := &Credentials{
		state: state{
			token:        cfg.Token,
			expiry:       cfg.Expiry,
			idToken:      cfg.IDToken,
			refreshToken: cfg.RefreshToken,
		},
		tokenURI:     cfg.TokenURI,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		scopes:       copyScopes(cfg.Scopes),
		clock:        cfg.Clock,
		grant:        cfg.Grant,
	}
	if c.clock == nil {
		c.clock = clock.System()
	}
	if c.grant == nil {
		c.grant = RefreshGrant
	}
	return c
}

func (c *Credentials) snapshot() state {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Credentials) Token() string        { return c.snapshot().token }
func (c *Credentials) IDToken() string      { return c.snapshot().idToken }
func (c *Credentials) RefreshToken() string { return c.snapshot().refreshToken }
func (c *Credentials) TokenURI() string     { return c.tokenURI }
func (c *Credentials) ClientID() string     { return c.clientID }
func (c *Credentials) ClientSecret() string { return c.clientSecret }

// Expiry returns the access token expiry; the zero time means unknown.
func (c *Credentials) Expiry() time.Time {
	return c.snapshot().expiry
}

// Scopes returns the granted scopes, or nil if none were attached.
func (c *Credentials) Scopes() []string {
	return copyScopes(c.scopes)
}

// RequiresScopes is always false: user credentials carry whatever scopes
// were granted at consent time.
func (c *Credentials) RequiresScopes() bool {
	return false
}

// Expired reports whether the current token must not be used any more. A
// token without a known expiry counts as expired; no token at all does not.
func (c *Credentials) Expired() bool {
	return c.expired(c.snapshot(), c.clock.Now())
}

// Valid reports whether a token is present and not expired.
func (c *Credentials) Valid() bool {
	s := c.snapshot()
	return s.token != "" && !c.expired(s, c.clock.Now())
}

func (c *Credentials) expired(s state, now time.Time) bool {
	if s.token == "" {
		return false
	}
	if s.expiry.IsZero() {
		return true
	}
	return !now.Before(s.expiry.Add(-ClockSkew))
}

// Refresh obtains a new access token through requester. On any error the
// credential is left exactly as it was.
func (c *Credentials) Refresh(ctx context.Context, requester transport.Requester) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	return c.refreshLocked(ctx, requester)
}

// EnsureValid refreshes only if the credential is not valid. Callers that
// waited on an in-flight refresh see its result without a second grant.
func (c *Credentials) EnsureValid(ctx context.Context, requester transport.Requester) (bool, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	if c.Valid() {
		return false, nil
	}
	if err := c.refreshLocked(ctx, requester); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Credentials) refreshLocked(ctx context.Context, requester transport.Requester) error {
	current := c.snapshot()
	if missing := c.missingRefreshFields(current.refreshToken); len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}

	result, err := c.grant(ctx, requester, c.clock, c.tokenURI, current.refreshToken, c.clientID, c.clientSecret)
	if err != nil {
		return err
	}

	next := state{
		token:        result.AccessToken,
		expiry:       result.Expiry,
		refreshToken: current.refreshToken,
	}
	if result.RefreshToken != "" {
		next.refreshToken = result.RefreshToken
	}
	// id_token always follows the latest response, so a grant without one clears it.
	next.idToken, _ = result.Extra["id_token"].(string)

	c.mu.Lock()
	c.state = next
	c.mu.Unlock()
	return nil
}

func (c *Credentials) missingRefreshFields(refreshToken string) []string {
	var missing []string
	if refreshToken == "" {
		missing = append(missing, "refresh_token")
	}
	if c.tokenURI == "" {
		missing = append(missing, "token_uri")
	}
	if c.clientID == "" {
		missing = append(missing, "client_id")
	}
	if c.clientSecret == "" {
		missing = append(missing, "client_secret")
	}
	return missing
}

// Apply sets the Authorization header from the current token.
func (c *Credentials) Apply(header http.Header) {
	header.Set("Authorization", "Bearer "+c.Token())
}

// BeforeRequest refreshes the credential if needed and then applies it.
func (c *Credentials) BeforeRequest(ctx context.Context, requester transport.Requester, header http.Header) error {
	if _, err := c.EnsureValid(ctx, requester); err != nil {
		return err
	}
	c.Apply(header)
	return nil
}

// Status is a point-in-time view of a credential, safe to serialize.
type Status struct {
	HasToken     bool      `json:"hasToken"`
	Valid        bool      `json:"valid"`
	Expired      bool      `json:"expired"`
	Expiry       time.Time `json:"expiry,omitzero"`
	ExpiresIn    int64     `json:"expiresInSeconds"`
	HasIDToken   bool      `json:"hasIdToken"`
	CanRefresh   bool      `json:"canRefresh"`
	Scopes       []string  `json:"scopes,omitempty"`
	TokenURI     string    `json:"tokenUri"`
	ClientID     string    `json:"clientId"`
	CheckedAt    time.Time `json:"checkedAt"`
	RefreshCount int64     `json:"refreshCount,omitempty"`
}

// Status reports the credential's current state.
func (c *Credentials) Status() Status {
	s := c.snapshot()
	now := c.clock.Now()
	expired := c.expired(s, now)
	st := Status{
		HasToken:   s.token != "",
		Valid:      s.token != "" && !expired,
		Expired:    expired,
		Expiry:     s.expiry,
		HasIDToken: s.idToken != "",
		CanRefresh: len(c.missingRefreshFields(s.refreshToken)) == 0,
		Scopes:     c.Scopes(),
		TokenURI:   c.tokenURI,
		ClientID:   c.clientID,
		CheckedAt:  now,
	}
	if !s.expiry.IsZero() {
		st.ExpiresIn = int64(s.expiry.Sub(now) / time.Second)
	}
	return st
}

func copyScopes(scopes []string) []string {
	if scopes == nil {
		return nil
	}
	out := make([]string, len(scopes))
	copy(out, scopes)
	return out
}
