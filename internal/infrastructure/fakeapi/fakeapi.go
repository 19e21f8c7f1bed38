// Package fakeapi serves an in-memory /users collection for mock mode and tests.
package fakeapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lllypuk/userlist/internal/domain/user"
)

// FailHeader makes the collection answer 500 when set on a request.
const FailHeader = "X-Fail"

// SeedNames are the names the collection starts with, ids 1..len.
//
//nolint:gochecknoglobals // fixed seed data
var SeedNames = []string{
	"Leanne Graham",
	"Ervin Howell",
	"Clementine Bauch",
	"Patricia Lebsack",
	"Chelsey Dietrich",
	"Mrs. Dennis Schulist",
	"Kurtis Weissnat",
	"Nicholas Runolfsdottir V",
	"Glenna Reichert",
	"Clementina DuBuque",
}

// Collection is a thread-safe in-memory user collection.
type Collection struct {
	mu      sync.RWMutex
	records []user.Record
	nextID  int
	latency time.Duration
	logger  *slog.Logger

	// failEvery > 0 fails every failEvery-th mutating request.
	failEvery int
	mutations int
}

// Option configures the Collection.
type Option func(*Collection)

// WithLatency delays every response, which makes optimistic updates visible.
func WithLatency(d time.Duration) Option {
	return func(c *Collection) {
		c.latency = d
	}
}

// WithFailEvery makes every n-th POST, PUT, PATCH or DELETE answer 500.
// Zero disables it.
func WithFailEvery(n int) Option {
	return func(c *Collection) {
		c.failEvery = n
	}
}

// WithLogger sets the logger for the collection.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collection) {
		c.logger = logger
	}
}

// WithRecords replaces the seed data.
func WithRecords(records []user.Record) Option {
	return func(c *Collection) {
		c.records = user.Clone(records)
		c.nextID = 1
		for _, r := range records {
			if r.ID >= c.nextID {
				c.nextID = r.ID + 1
			}
		}
	}
}

// New creates a collection seeded with SeedNames.
func New(opts ...Option) *Collection {
	c := &Collection{
		logger: slog.Default(),
	}
	for i, name := range SeedNames {
		c.records = append(c.records, user.Record{ID: i + 1, Name: name})
	}
	c.nextID = len(SeedNames) + 1

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Records returns a copy of the stored records.
func (c *Collection) Records() []user.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return user.Clone(c.records)
}

// Register mounts the routes on e under prefix + "/users". The collection's
// base URL is then the server address followed by prefix.
func (c *Collection) Register(e *echo.Echo, prefix string) {
	g := e.Group(prefix+"/users", c.simulate)
	g.GET("", c.list)
	g.POST("", c.create)
	g.PUT("/:id", c.replace)
	g.PATCH("/:id", c.replace)
	g.DELETE("/:id", c.remove)
}

// Handler returns a standalone http.Handler serving the collection.
func (c *Collection) Handler() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	c.Register(e, "")
	return e
}

// simulate applies artificial latency and forced failures.
func (c *Collection) simulate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if c.latency > 0 {
			select {
			case <-time.After(c.latency):
			case <-ctx.Request().Context().Done():
				return ctx.Request().Context().Err()
			}
		}
		if ctx.Request().Header.Get(FailHeader) != "" || c.scheduledFailure(ctx.Request().Method) {
			c.logger.Debug("forced collection failure",
				slog.String("method", ctx.Request().Method),
				slog.String("path", ctx.Request().URL.Path),
			)
			return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "forced failure"})
		}
		return next(ctx)
	}
}

func (c *Collection) scheduledFailure(method string) bool {
	if method == http.MethodGet {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failEvery <= 0 {
		return false
	}
	c.mutations++
	return c.mutations%c.failEvery == 0
}

func (c *Collection) list(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, c.Records())
}

func (c *Collection) create(ctx echo.Context) error {
	var rec user.Record
	if err := ctx.Bind(&rec); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}
	if err := rec.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "name is required"})
	}

	c.mu.Lock()
	rec.ID = c.nextID
	c.nextID++
	c.records = user.Prepend(c.records, rec)
	c.mu.Unlock()

	return ctx.JSON(http.StatusCreated, rec)
}

func (c *Collection) replace(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	var rec user.Record
	if bindErr := ctx.Bind(&rec); bindErr != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}
	rec.ID = id
	if err := rec.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid record"})
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if user.Index(c.records, id) < 0 {
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	}
	c.records = user.Replace(c.records, id, rec)

	return ctx.JSON(http.StatusOK, rec)
}

func (c *Collection) remove(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if user.Index(c.records, id) < 0 {
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	}
	c.records = user.Remove(c.records, id)

	return ctx.NoContent(http.StatusOK)
}
