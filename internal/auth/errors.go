package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfiguration is matched by errors returned from Refresh when the
// credentials lack one of the fields needed to talk to the token endpoint.
var ErrInvalidConfiguration = errors.New("the credentials do not contain the necessary fields needed to refresh the access token")

// ConfigurationError lists the refresh parameters that were missing.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s. You must specify refresh_token, token_uri, client_id, and client_secret (missing: %s)",
		ErrInvalidConfiguration.Error(), strings.Join(e.Missing, ", "))
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// RefreshError is returned when the token endpoint answered but the answer
// was an error or could not be used.
type RefreshError struct {
	StatusCode  int
	Code        string
	Description string
	Body        []byte
}

func (e *RefreshError) Error() string {
	detail := e.Code
	if e.Description != "" {
		if detail != "" {
			detail += ": "
		}
		detail += e.Description
	}
	if detail == "" {
		detail = strings.TrimSpace(string(e.Body))
	}
	if e.StatusCode == 0 {
		return fmt.Sprintf("token refresh failed: %s", detail)
	}
	return fmt.Sprintf("token refresh failed with status %d: %s", e.StatusCode, detail)
}

// newRefreshError builds a RefreshError from a non-success response, picking
// up the standard OAuth2 error fields when the body is JSON.
func newRefreshError(statusCode int, body []byte) *RefreshError {
	e := &RefreshError{StatusCode: statusCode, Body: body}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return e
	}
	if code, ok := payload["error"].(string); ok {
		e.Code = code
	}
	if desc, ok := payload["error_description"].(string); ok {
		e.Description = desc
	}
	return e
}

// DeserializationError is returned by the authorized-user constructors when
// the source could not be read or did not have the expected shape.
type DeserializationError struct {
	Source string
	Err    error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("failed to load authorized user info from %s: %v", e.Source, e.Err)
}

func (e *DeserializationError) Unwrap() error {
	return e.Err
}
