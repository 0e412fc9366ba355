package auth

import (
	"context"
	"net/http"

	"github.com/dvcrn/gauth-proxy/internal/transport"
	"golang.org/x/oauth2"
)

type tokenSource struct {
	ctx       context.Context
	creds     *Credentials
	requester transport.Requester
}

// TokenSource returns an oauth2.TokenSource that refreshes c through
// requester whenever it is no longer valid.
func (c *Credentials) TokenSource(ctx context.Context, requester transport.Requester) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, creds: c, requester: requester}
}

func (t *tokenSource) Token() (*oauth2.Token, error) {
	if _, err := t.creds.EnsureValid(t.ctx, t.requester); err != nil {
		return nil, err
	}
	return t.creds.OAuth2Token(), nil
}

// OAuth2Token converts the current state into an *oauth2.Token. The ID token,
// when present, is exposed via tok.Extra("id_token").
func (c *Credentials) OAuth2Token() *oauth2.Token {
	s := c.snapshot()
	tok := &oauth2.Token{
		AccessToken:  s.token,
		TokenType:    "Bearer",
		RefreshToken: s.refreshToken,
		Expiry:       s.expiry,
	}
	if s.idToken != "" {
		tok = tok.WithExtra(map[string]interface{}{"id_token": s.idToken})
	}
	return tok
}

// NewClient returns an HTTP client that attaches c's bearer token to every
// request, refreshing it as needed. The source is not wrapped in
// oauth2.ReuseTokenSource: oauth2 treats a zero Expiry as never expiring,
// while c treats it as already expired.
func NewClient(ctx context.Context, c *Credentials, requester transport.Requester) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{Source: c.TokenSource(ctx, requester)},
	}
}
