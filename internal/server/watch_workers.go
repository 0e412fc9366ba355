//go:build js && wasm

package server

import "net/http"

func (s *Server) credentialsWatchHandler(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "credentials watch is not supported in js/wasm builds", http.StatusNotImplemented)
}
