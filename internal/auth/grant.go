package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dvcrn/gauth-proxy/internal/clock"
	"github.com/dvcrn/gauth-proxy/internal/transport"
)

const (
	// ClockSkew is subtracted from a token's expiry when judging validity,
	// so tokens are refreshed slightly before the server rejects them.
	ClockSkew = 10 * time.Second

	refreshGrantType = "refresh_token"
	formContentType  = "application/x-www-form-urlencoded"
)

// GrantResult is the normalized outcome of a refresh_token grant.
type GrantResult struct {
	AccessToken string
	// RefreshToken is empty unless the server rotated it.
	RefreshToken string
	// Expiry is zero when the server did not send expires_in.
	Expiry time.Time
	// Extra holds the complete decoded response object.
	Extra map[string]interface{}
}

// GrantFunc performs a refresh_token grant. RefreshGrant is the default.
type GrantFunc func(ctx context.Context, requester transport.Requester, clk clock.Clock, tokenURI, refreshToken, clientID, clientSecret string) (*GrantResult, error)

// RefreshGrant exchanges a refresh token for a new access token at tokenURI.
func RefreshGrant(ctx context.Context, requester transport.Requester, clk clock.Clock, tokenURI, refreshToken, clientID, clientSecret string) (*GrantResult, error) {
	if requester == nil {
		return nil, &transport.Error{Method: http.MethodPost, URL: tokenURI, Err: errors.New("no requester configured")}
	}

	form := url.Values{}
	form.Set("grant_type", refreshGrantType)
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("refresh_token", refreshToken)

	resp, err := requester.Do(ctx, &transport.Request{
		Method: http.MethodPost,
		URL:    tokenURI,
		Header: http.Header{"Content-Type": []string{formContentType}},
		Body:   []byte(form.Encode()),
	})
	if err != nil {
		var terr *transport.Error
		if errors.As(err, &terr) {
			return nil, err
		}
		return nil, &transport.Error{Method: http.MethodPost, URL: tokenURI, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newRefreshError(resp.StatusCode, resp.Body)
	}

	var payload map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(resp.Body))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil || payload == nil {
		return nil, &RefreshError{
			StatusCode:  resp.StatusCode,
			Description: "token response is not a JSON object",
			Body:        resp.Body,
		}
	}

	accessToken, _ := payload["access_token"].(string)
	if accessToken == "" {
		return nil, &RefreshError{
			StatusCode:  resp.StatusCode,
			Description: "no access token in response",
			Body:        resp.Body,
		}
	}

	expiresIn, ok, err := parseExpiresIn(payload["expires_in"])
	if err != nil {
		return nil, &RefreshError{
			StatusCode:  resp.StatusCode,
			Description: err.Error(),
			Body:        resp.Body,
		}
	}

	result := &GrantResult{
		AccessToken: accessToken,
		Extra:       payload,
	}
	if ok {
		result.Expiry = clk.Now().Add(time.Duration(expiresIn) * time.Second)
	}
	if rt, _ := payload["refresh_token"].(string); rt != "" {
		result.RefreshToken = rt
	}
	return result, nil
}

// maxExpiresIn is the largest expires_in whose duration fits in time.Duration.
const maxExpiresIn = math.MaxInt64 / int64(time.Second)

// parseExpiresIn accepts expires_in as a JSON number or a numeric string in
// [0, maxExpiresIn].
func parseExpiresIn(v interface{}) (int64, bool, error) {
	var secs int64
	switch n := v.(type) {
	case nil:
		return 0, false, nil
	case json.Number:
		if i, err := n.Int64(); err == nil {
			secs = i
			break
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false, fmt.Errorf("invalid expires_in %q", n.String())
		}
		if f < 0 || f > float64(maxExpiresIn) {
			return 0, false, fmt.Errorf("expires_in %s out of range", n.String())
		}
		secs = int64(f)
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false, fmt.Errorf("invalid expires_in %q", n)
		}
		secs = i
	default:
		return 0, false, fmt.Errorf("invalid expires_in type %T", v)
	}
	if secs < 0 || secs > maxExpiresIn {
		return 0, false, fmt.Errorf("expires_in %d out of range", secs)
	}
	return secs, true, nil
}
