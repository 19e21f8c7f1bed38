// Package userlist keeps an in-memory user list in sync with a remote collection.
//
// Intents (Add, Update, Delete) change the list immediately and then call the
// collection; when the call settles the change is confirmed or rolled back.
// The initial load and every outstanding call are canceled by Deactivate, and
// no continuation touches the state after that.
package userlist

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lllypuk/userlist/internal/domain/errs"
	"github.com/lllypuk/userlist/internal/domain/user"
	"github.com/lllypuk/userlist/internal/infrastructure/collection"
)

// CollectionClient is the remote collection the controller synchronises with.
// Declared on the consumer side per project guidelines.
type CollectionClient interface {
	// ListAll returns the whole collection.
	ListAll(ctx context.Context) ([]user.Record, error)

	// Create stores a new record and returns it with its server-assigned id.
	Create(ctx context.Context, rec user.Record) (user.Record, error)

	// Replace stores rec under rec.ID and returns the server's version.
	Replace(ctx context.Context, rec user.Record) (user.Record, error)

	// Remove deletes the record with id.
	Remove(ctx context.Context, id int) error
}

// State is a snapshot of the list as the presentation layer sees it.
type State struct {
	Users   []user.Record `json:"users"`
	Error   string        `json:"error"`
	Loading bool          `json:"loading"`
}

func (s State) clone() State {
	s.Users = user.Clone(s.Users)
	return s
}

// Listener receives a copy of the state after every change.
type Listener func(State)

// Controller owns the list state.
type Controller struct {
	client CollectionClient
	logger *slog.Logger

	mu          sync.Mutex
	state       State
	activated   bool
	deactivated bool
	ctx         context.Context
	cancel      context.CancelFunc
	cancelLoad  context.CancelFunc

	// notifyMu keeps listeners seeing changes in the order they were made.
	// It is taken while mu is held, never the other way round.
	notifyMu    sync.Mutex
	listenersMu sync.RWMutex
	listeners   map[int]Listener
	nextID      int

	inflight sync.WaitGroup
}

// Option configures the Controller.
type Option func(*Controller)

// WithLogger sets the logger for the controller.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController creates a controller with an empty list.
func NewController(client CollectionClient, opts ...Option) *Controller {
	c := &Controller{
		client:    client,
		logger:    slog.Default(),
		state:     State{Users: []user.Record{}},
		listeners: make(map[int]Listener),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe registers fn to be called after every state change.
// Listeners run one at a time and must not dispatch intents synchronously.
// The returned func removes the subscription.
func (c *Controller) Subscribe(fn Listener) func() {
	c.listenersMu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.listenersMu.Unlock()

	return func() {
		c.listenersMu.Lock()
		delete(c.listeners, id)
		c.listenersMu.Unlock()
	}
}

// Wait blocks until every call issued so far has settled.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// Active reports whether the controller is between Activate and Deactivate.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activated && !c.deactivated
}

// Activate starts the initial load. Calls after the first, or after
// Deactivate, are ignored. ctx bounds the lifetime of every call the
// controller issues.
func (c *Controller) Activate(ctx context.Context) {
	c.mu.Lock()
	if c.activated || c.deactivated {
		c.mu.Unlock()
		return
	}
	c.activated = true
	c.ctx, c.cancel = context.WithCancel(ctx)

	loadCtx, cancelLoad := context.WithCancel(c.ctx)
	c.cancelLoad = cancelLoad
	c.state.Loading = true
	c.unlockAndNotify(true)

	c.logger.DebugContext(ctx, "loading users")

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		defer cancelLoad()

		users, err := c.client.ListAll(loadCtx)
		c.settle(func(s *State) bool {
			s.Loading = false
			if err != nil {
				if collection.IsCanceled(err) {
					return true
				}
				c.logger.Warn("failed to load users", slog.String("error", err.Error()))
				s.Error = collection.Message(err)
				return true
			}
			s.Users = user.Clone(users)
			c.logger.Debug("users loaded", slog.Int("count", len(users)))
			return true
		})
	}()
}

// Deactivate cancels the initial load and every outstanding call.
// After it returns no continuation changes the state.
func (c *Controller) Deactivate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.deactivated {
		return
	}
	c.deactivated = true
	if c.cancelLoad != nil {
		c.cancelLoad()
	}
	if c.cancel != nil {
		c.cancel()
	}
}

// Add prepends a placeholder named name and creates it remotely.
// On success the placeholder is swapped for the server record; on failure
// it is removed and the error is surfaced.
func (c *Controller) Add(name string) (user.Record, error) {
	placeholder := user.NewPlaceholder(name)

	ctx, err := c.apply(func(s *State) {
		s.Users = user.Prepend(s.Users, placeholder)
	})
	if err != nil {
		return user.Record{}, err
	}

	c.run(func() {
		created, createErr := c.client.Create(ctx, placeholder)
		c.settle(func(s *State) bool {
			if createErr != nil {
				return c.fail(s, "add", createErr, func() {
					s.Users = user.RemoveMatch(s.Users, placeholder)
				})
			}
			s.Users = user.ReplaceMatch(s.Users, placeholder, created)
			return true
		})
	})

	return placeholder, nil
}

// Update renames the record with target.ID and replaces it remotely.
// An empty name appends user.UpdateMarker. Unsaved placeholders cannot be
// updated until the server has assigned them an id. On failure only that
// record is put back; changes settled in the meantime are kept.
func (c *Controller) Update(target user.Record, name string) (user.Record, error) {
	if !target.IsSaved() {
		return user.Record{}, errs.ErrInvalidState
	}
	updated := target.Renamed(name)

	var original user.Record
	ctx, err := c.apply(func(s *State) {
		original, _ = user.Find(s.Users, target.ID)
		s.Users = user.Replace(s.Users, target.ID, updated)
	}, target.ID)
	if err != nil {
		return user.Record{}, err
	}

	c.run(func() {
		saved, replaceErr := c.client.Replace(ctx, updated)
		c.settle(func(s *State) bool {
			if replaceErr != nil {
				return c.fail(s, "update", replaceErr, func() {
					s.Users = user.Replace(s.Users, target.ID, original)
				})
			}
			if saved != updated {
				s.Users = user.Replace(s.Users, updated.ID, saved)
				return true
			}
			return false
		})
	})

	return updated, nil
}

// Delete removes the record with target.ID and deletes it remotely.
// On failure the record is re-inserted at its old position, or at the end
// when the list has since become shorter.
func (c *Controller) Delete(target user.Record) error {
	if !target.IsSaved() {
		return errs.ErrInvalidState
	}
	var (
		removed  user.Record
		position int
	)
	ctx, err := c.apply(func(s *State) {
		position = user.Index(s.Users, target.ID)
		removed = s.Users[position]
		s.Users = user.Remove(s.Users, target.ID)
	}, target.ID)
	if err != nil {
		return err
	}

	c.run(func() {
		removeErr := c.client.Remove(ctx, target.ID)
		c.settle(func(s *State) bool {
			if removeErr != nil {
				return c.fail(s, "delete", removeErr, func() {
					if user.Index(s.Users, target.ID) < 0 {
						s.Users = user.Insert(s.Users, position, removed)
					}
				})
			}
			return false
		})
	})

	return nil
}

// apply performs an optimistic change before any call is issued. When ids are
// given, each must be present in the list. The returned context is the one
// the follow-up call must use.
func (c *Controller) apply(change func(s *State), ids ...int) (context.Context, error) {
	c.mu.Lock()
	if !c.activated || c.deactivated {
		c.mu.Unlock()
		return nil, errs.ErrInvalidState
	}
	for _, id := range ids {
		if user.Index(c.state.Users, id) < 0 {
			c.mu.Unlock()
			return nil, errs.ErrNotFound
		}
	}

	c.state.Error = ""
	change(&c.state)
	ctx := c.ctx
	c.unlockAndNotify(true)

	return ctx, nil
}

// run issues a call in the background and tracks it for Wait.
func (c *Controller) run(call func()) {
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		call()
	}()
}

// settle applies a reconciliation unless the controller has been deactivated.
// reconcile reports whether it changed the state.
func (c *Controller) settle(reconcile func(s *State) bool) {
	c.mu.Lock()
	if c.deactivated {
		c.mu.Unlock()
		return
	}
	c.unlockAndNotify(reconcile(&c.state))
}

// unlockAndNotify releases mu and, when changed, publishes the state.
// Must be called with mu held.
func (c *Controller) unlockAndNotify(changed bool) {
	if !changed {
		c.mu.Unlock()
		return
	}
	snapshot := c.state.clone()
	c.notifyMu.Lock()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()

	c.notify(snapshot)
}

// fail rolls back an optimistic change. Canceled calls leave the state alone.
func (c *Controller) fail(s *State, op string, err error, rollback func()) bool {
	if collection.IsCanceled(err) {
		return false
	}
	c.logger.Warn("optimistic change rolled back",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
	rollback()
	s.Error = collection.Message(err)
	return true
}

func (c *Controller) notify(s State) {
	c.listenersMu.RLock()
	listeners := make([]Listener, 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(s.clone())
	}
}
