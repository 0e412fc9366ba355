//go:build !js || !wasm

package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const watchWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// credentialsWatchHandler upgrades to a WebSocket and pushes the credential
// status once on connect and again after every refresh.
func (s *Server) credentialsWatchHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to upgrade credentials watch connection")
		return
	}
	defer conn.Close()

	updates, unsubscribe := s.fetcher.Subscribe()
	defer unsubscribe()

	// The client never sends anything meaningful; reading only detects close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	conn.SetWriteDeadline(time.Now().Add(watchWriteTimeout))
	if err := conn.WriteJSON(s.fetcher.Status()); err != nil {
		return
	}

	for {
		select {
		case st, ok := <-updates:
			conn.SetWriteDeadline(time.Now().Add(watchWriteTimeout))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "credentials closed"))
				return
			}
			if err := conn.WriteJSON(st); err != nil {
				s.logger.Debug().Err(err).Msg("Credentials watch client went away")
				return
			}
		case <-done:
			return
		}
	}
}
