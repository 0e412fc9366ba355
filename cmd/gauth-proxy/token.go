package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// TokenCmd prints a valid access token, refreshing it first.
type TokenCmd struct {
	JSON bool `long:"json" description:"print token, expiry and id_token as JSON"`

	out io.Writer
}

func (t *TokenCmd) Execute(_ []string) error {
	ctx := context.Background()
	_, log, fetcher, err := options.setup(ctx, noBackgroundRefresh)
	if err != nil {
		return err
	}
	defer fetcher.Close()

	tok, err := fetcher.Token(ctx)
	if err != nil {
		log.Error().Err(err).Msg("❌ Failed to obtain access token")
		return err
	}

	out := t.out
	if out == nil {
		out = os.Stdout
	}
	if !t.JSON {
		_, err = fmt.Fprintln(out, tok.AccessToken)
		return err
	}

	payload := map[string]interface{}{
		"access_token": tok.AccessToken,
		"token_type":   tok.Type(),
	}
	if !tok.Expiry.IsZero() {
		payload["expiry"] = tok.Expiry.Format(time.RFC3339)
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		payload["id_token"] = idToken
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
