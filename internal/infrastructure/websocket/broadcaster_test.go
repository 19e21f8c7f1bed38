package websocket_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/lllypuk/userlist/internal/domain/user"
	ws "github.com/lllypuk/userlist/internal/infrastructure/websocket"
	"github.com/lllypuk/userlist/internal/userlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	mu        sync.Mutex
	state     userlist.State
	listeners map[int]userlist.Listener
	next      int
}

func newStubSource(state userlist.State) *stubSource {
	return &stubSource{state: state, listeners: make(map[int]userlist.Listener)}
}

func (s *stubSource) State() userlist.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *stubSource) Subscribe(fn userlist.Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *stubSource) publish(state userlist.State) {
	s.mu.Lock()
	s.state = state
	listeners := make([]userlist.Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

func (s *stubSource) subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

func TestStateMessage(t *testing.T) {
	data, err := ws.StateMessage(userlist.State{
		Users: []user.Record{{ID: 1, Name: "Ann"}},
		Error: "network error",
	})
	require.NoError(t, err)

	var msg struct {
		Type string         `json:"type"`
		Data userlist.State `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "state", msg.Type)
	assert.Equal(t, []user.Record{{ID: 1, Name: "Ann"}}, msg.Data.Users)
	assert.Equal(t, "network error", msg.Data.Error)
}

func TestBroadcaster_StartStop(t *testing.T) {
	source := newStubSource(userlist.State{})
	b := ws.NewBroadcaster(ws.NewHub(), source, ws.WithBroadcasterLogger(nil))

	assert.False(t, b.IsRunning())

	b.Start(context.Background())
	b.Start(context.Background())
	assert.True(t, b.IsRunning())
	assert.Equal(t, 1, source.subscribers())

	b.Stop()
	b.Stop()
	assert.False(t, b.IsRunning())
	assert.Equal(t, 0, source.subscribers())
}

func TestBroadcaster_PushesStateChanges(t *testing.T) {
	source := newStubSource(userlist.State{Loading: true})
	hub := ws.NewHub(ws.WithSnapshot(ws.SnapshotOf(source)))
	b := ws.NewBroadcaster(hub, source)

	startHub(t, hub)
	b.Start(context.Background())
	t.Cleanup(b.Stop)

	conn := dial(t, serveHub(t, hub))

	var initial struct {
		Data userlist.State `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(readText(t, conn)), &initial))
	assert.True(t, initial.Data.Loading)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	source.publish(userlist.State{Users: []user.Record{{ID: 1, Name: "Ann"}, {ID: 2, Name: "Bo"}}})

	var update struct {
		Type string         `json:"type"`
		Data userlist.State `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(readText(t, conn)), &update))
	assert.Equal(t, "state", update.Type)
	assert.False(t, update.Data.Loading)
	assert.Len(t, update.Data.Users, 2)
}
