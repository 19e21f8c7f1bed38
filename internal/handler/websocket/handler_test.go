package websocket_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	wshandler "github.com/lllypuk/userlist/internal/handler/websocket"
	ws "github.com/lllypuk/userlist/internal/infrastructure/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, hub *ws.Hub, opts ...wshandler.HandlerOption) string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	require.Eventually(t, hub.IsRunning, time.Second, 5*time.Millisecond)

	e := echo.New()
	wshandler.NewHandler(hub, opts...).RegisterRoutes(e)
	server := httptest.NewServer(e)

	t.Cleanup(func() {
		server.Close()
		cancel()
	})

	return "ws" + server.URL[len("http"):] + "/ws"
}

func TestHandleWebSocket_SendsSnapshot(t *testing.T) {
	hub := ws.NewHub(ws.WithSnapshot(func() []byte {
		return []byte(`{"type":"state","data":{"users":[],"error":"","loading":true}}`)
	}))
	url := newServer(t, hub)

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	defer resp.Body.Close()

	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"state","data":{"users":[],"error":"","loading":true}}`, string(data))

	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestHandleWebSocket_RejectsPlainHTTP(t *testing.T) {
	hub := ws.NewHub()

	e := echo.New()
	wshandler.NewHandler(hub).RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHandleWebSocket_CheckOrigin(t *testing.T) {
	hub := ws.NewHub()
	config := wshandler.DefaultHandlerConfig()
	config.CheckOrigin = func(r *http.Request) bool {
		return r.Header.Get("Origin") == "http://allowed.test"
	}
	url := newServer(t, hub, wshandler.WithHandlerConfig(config))

	header := http.Header{}
	header.Set("Origin", "http://evil.test")
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "http://allowed.test")
	conn, resp2, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()
	defer resp2.Body.Close()
}
