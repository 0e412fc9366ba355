//go:build !js || !wasm

package transport

import (
	"net/http"
	"time"
)

// NewHTTPClient creates a new HTTP client for regular environments
func NewHTTPClient() *http.Client {
	return NewHTTPClientWithTimeout(60 * time.Second)
}

// NewHTTPClientWithTimeout creates an HTTP client with the given overall timeout.
func NewHTTPClientWithTimeout(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}
