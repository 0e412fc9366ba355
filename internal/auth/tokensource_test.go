package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dvcrn/gauth-proxy/internal/clock"
	"github.com/dvcrn/gauth-proxy/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenSource(t *testing.T) {
	g := &fakeGrant{result: &GrantResult{
		AccessToken:  "token",
		RefreshToken: "rotated",
		Expiry:       testNow.Add(time.Hour),
		Extra:        map[string]interface{}{"id_token": testIDToken},
	}}
	creds := makeCredentials(clock.Fixed(testNow), g.grant)

	tok, err := creds.TokenSource(context.Background(), nil).Token()
	require.NoError(t, err)
	assert.Equal(t, "token", tok.AccessToken)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.Equal(t, "rotated", tok.RefreshToken)
	assert.Equal(t, testNow.Add(time.Hour), tok.Expiry)
	assert.Equal(t, testIDToken, tok.Extra("id_token"))
}

func TestTokenSourceSurfacesRefreshErrors(t *testing.T) {
	creds := New(Config{})
	_, err := creds.TokenSource(context.Background(), nil).Token()
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestNewClientAttachesBearerToken(t *testing.T) {
	var seen []string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer api.Close()

	g := &fakeGrant{result: &GrantResult{AccessToken: "token", Expiry: time.Now().UTC().Add(time.Hour)}}
	creds := makeCredentials(clock.System(), g.grant)

	client := NewClient(context.Background(), creds, nil)
	for i := 0; i < 2; i++ {
		resp, err := client.Get(api.URL)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	}

	assert.Equal(t, []string{"Bearer token", "Bearer token"}, seen)
	assert.Equal(t, int64(1), g.count.Load())
}

func TestNewClientRefreshesTokensWithUnknownExpiry(t *testing.T) {
	var seen []string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer api.Close()

	var grants int
	requester := transport.RequesterFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
		grants++
		return &transport.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       []byte(fmt.Sprintf(`{"access_token":"tok-%d"}`, grants)),
		}, nil
	})
	creds := makeCredentials(clock.System(), nil)

	client := NewClient(context.Background(), creds, requester)
	for i := 0; i < 3; i++ {
		resp, err := client.Get(api.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, 3, grants)
	assert.Equal(t, []string{"Bearer tok-1", "Bearer tok-2", "Bearer tok-3"}, seen)
	assert.True(t, creds.Expired())
}
