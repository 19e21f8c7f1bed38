package websocket_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	ws "github.com/lllypuk/userlist/internal/infrastructure/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultClientConfig(t *testing.T) {
	config := ws.DefaultClientConfig()

	assert.Equal(t, 30*time.Second, config.PingInterval)
	assert.Equal(t, 60*time.Second, config.PongWait)
	assert.Equal(t, 10*time.Second, config.WriteWait)
	assert.Positive(t, config.MaxMessageSize)
}

func TestClient_Messages(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "ping", in: `{"type":"ping"}`, want: `{"type":"pong"}`},
		{name: "refresh", in: `{"type":"refresh"}`, want: `{"type":"state","data":{"users":[]}}`},
		{name: "unknown type", in: `{"type":"nope"}`, want: `{"type":"error","message":"unknown message type: nope"}`},
		{name: "invalid json", in: `not json`, want: `{"type":"error","message":"invalid message format"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := ws.NewHub(ws.WithSnapshot(func() []byte {
				return []byte(`{"type":"state","data":{"users":[]}}`)
			}))
			startHub(t, hub)
			conn := dial(t, serveHub(t, hub))

			// initial snapshot
			readText(t, conn)

			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.in)))
			assert.JSONEq(t, tt.want, readText(t, conn))
		})
	}
}

func TestClient_Close(t *testing.T) {
	hub := ws.NewHub()
	serverConn := createServerConn(t)

	client := ws.NewClient(hub, serverConn)
	assert.NotEqual(t, uuid.Nil, client.ID())
	assert.False(t, client.IsClosed())

	client.Close()
	client.Close()

	assert.True(t, client.IsClosed())
	assert.NotPanics(t, func() { client.Send([]byte("late")) })
}

// createServerConn returns the server side of a fresh WebSocket connection.
func createServerConn(t *testing.T) *websocket.Conn {
	t.Helper()

	conns := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
	}))
	t.Cleanup(server.Close)

	dial(t, "ws"+server.URL[len("http"):])

	select {
	case conn := <-conns:
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	case <-time.After(time.Second):
		t.Fatal("server connection not established")
		return nil
	}
}
