//go:build js && wasm

package transport

import (
	"net/http"
	"time"
)

// NewHTTPClient returns a client backed by the Workers fetch bridge.
// Timeouts are enforced by the runtime, not the client.
func NewHTTPClient() *http.Client {
	return &http.Client{}
}

func NewHTTPClientWithTimeout(_ time.Duration) *http.Client {
	return NewHTTPClient()
}
