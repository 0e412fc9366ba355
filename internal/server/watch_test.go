package server

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dvcrn/gauth-proxy/internal/auth"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialsWatch(t *testing.T) {
	g := &stubGrant{}
	ts, fetcher := newTestServer(t, refreshableConfig(g))

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/admin/credentials/watch"
	header := http.Header{"X-Api-Key": []string{testAdminKey}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var initial auth.Status
	require.NoError(t, conn.ReadJSON(&initial))
	assert.False(t, initial.HasToken)

	require.NoError(t, fetcher.ForceRefresh(context.Background()))

	var updated auth.Status
	require.NoError(t, conn.ReadJSON(&updated))
	assert.True(t, updated.Valid)
	assert.Equal(t, int64(1), updated.RefreshCount)
}

func TestCredentialsWatchRequiresAdmin(t *testing.T) {
	ts, _ := newTestServer(t, auth.Config{})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/admin/credentials/watch"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
