package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/lllypuk/userlist/internal/userlist"
)

// StateSource is the part of the user list controller the broadcaster needs.
// Declared on the consumer side.
type StateSource interface {
	State() userlist.State
	Subscribe(fn userlist.Listener) func()
}

// OutboundMessage represents a message sent over WebSocket.
type OutboundMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// StateMessage encodes state as a "state" message.
func StateMessage(state userlist.State) ([]byte, error) {
	return json.Marshal(OutboundMessage{Type: MessageTypeState, Data: state})
}

// SnapshotOf returns a function encoding the source's current state, for use
// with WithSnapshot so new clients start from the current list.
func SnapshotOf(source StateSource) func() []byte {
	return func() []byte {
		data, err := StateMessage(source.State())
		if err != nil {
			return nil
		}
		return data
	}
}

// Broadcaster pushes every user list state change to the hub.
type Broadcaster struct {
	hub    *Hub
	source StateSource
	logger *slog.Logger

	unsubscribe func()
	mu          sync.Mutex
}

// BroadcasterOption configures a Broadcaster.
type BroadcasterOption func(*Broadcaster)

// WithBroadcasterLogger sets the logger for the broadcaster.
func WithBroadcasterLogger(logger *slog.Logger) BroadcasterOption {
	return func(b *Broadcaster) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBroadcaster creates a new Broadcaster.
func NewBroadcaster(hub *Hub, source StateSource, opts ...BroadcasterOption) *Broadcaster {
	b := &Broadcaster{
		hub:    hub,
		source: source,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Start subscribes to state changes. It does not block.
func (b *Broadcaster) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.unsubscribe != nil {
		return
	}
	b.unsubscribe = b.source.Subscribe(b.handleState)

	b.logger.InfoContext(ctx, "websocket broadcaster started")
}

// Stop unsubscribes from state changes.
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.unsubscribe == nil {
		return
	}
	b.unsubscribe()
	b.unsubscribe = nil
}

// IsRunning returns whether the broadcaster is subscribed.
func (b *Broadcaster) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.unsubscribe != nil
}

func (b *Broadcaster) handleState(state userlist.State) {
	data, err := StateMessage(state)
	if err != nil {
		b.logger.Error("failed to encode state", slog.String("error", err.Error()))
		return
	}

	b.logger.Debug("broadcasting state",
		slog.Int("users", len(state.Users)),
		slog.Bool("loading", state.Loading),
	)
	b.hub.Broadcast(data)
}
