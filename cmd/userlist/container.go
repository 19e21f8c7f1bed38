package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/lllypuk/userlist/internal/config"
	httphandler "github.com/lllypuk/userlist/internal/handler/http"
	wshandler "github.com/lllypuk/userlist/internal/handler/websocket"
	"github.com/lllypuk/userlist/internal/infrastructure/collection"
	"github.com/lllypuk/userlist/internal/infrastructure/fakeapi"
	"github.com/lllypuk/userlist/internal/infrastructure/httpserver"
	"github.com/lllypuk/userlist/internal/infrastructure/metrics"
	"github.com/lllypuk/userlist/internal/infrastructure/websocket"
	"github.com/lllypuk/userlist/internal/userlist"
	"github.com/lllypuk/userlist/web"
)

// mockPrefix is where the in-process collection is mounted in mock mode.
const mockPrefix = "/mock"

// Container holds all application dependencies and manages their lifecycle.
// It implements httpserver.HealthChecker for the health endpoints.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Infrastructure
	Server      *httpserver.Server
	Collection  *fakeapi.Collection // mock mode only
	Client      *collection.Client
	Hub         *websocket.Hub
	Broadcaster *websocket.Broadcaster
	Registry    *prometheus.Registry
	Metrics     *metrics.Metrics

	Controller *userlist.Controller

	// HTTP Handlers
	TemplateRenderer *httphandler.TemplateRenderer
	UserListHandler  *httphandler.UserListHandler
	WSHandler        *wshandler.Handler
}

// Ensure Container implements httpserver.HealthChecker.
var _ httpserver.HealthChecker = (*Container)(nil)

// ContainerOption configures the Container.
type ContainerOption func(*Container)

// WithLogger sets a custom logger for the container.
func WithLogger(logger *slog.Logger) ContainerOption {
	return func(c *Container) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// NewContainer wires the application. The collection is remote in real mode
// and served by the same process in mock mode.
func NewContainer(cfg *config.Config, opts ...ContainerOption) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	c := &Container{
		Config: cfg,
		Logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.logWiringMode()

	c.Server = httpserver.NewServer(httpserver.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, c.Logger)

	c.setupMetrics()
	c.setupCollection()
	c.Controller = userlist.NewController(c.Metrics.Instrument(c.Client), userlist.WithLogger(c.Logger))
	c.Controller.Subscribe(c.Metrics.ObserveState)
	c.setupHub()

	if err := c.setupHTTPHandlers(); err != nil {
		return nil, fmt.Errorf("failed to setup http handlers: %w", err)
	}

	registerRoutes(c)

	return c, nil
}

func (c *Container) logWiringMode() {
	if c.Config.App.IsMockMode() {
		c.Logger.Warn("container starting in MOCK mode",
			slog.Duration("latency", c.Config.Mock.Latency),
			slog.Int("fail_every", c.Config.Mock.FailEvery),
		)
		return
	}
	c.Logger.Info("container starting in REAL mode",
		slog.String("collection", c.Config.Collection.BaseURL),
	)
}

func (c *Container) setupMetrics() {
	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.Metrics = metrics.New(c.Registry)
}

func (c *Container) setupCollection() {
	baseURL := c.Config.Collection.BaseURL

	if c.Config.App.IsMockMode() {
		c.Collection = fakeapi.New(
			fakeapi.WithLatency(c.Config.Mock.Latency),
			fakeapi.WithFailEvery(c.Config.Mock.FailEvery),
			fakeapi.WithLogger(c.Logger),
		)
		baseURL = loopbackURL(c.Config.Server) + mockPrefix
	}

	c.Client = collection.NewClient(collection.ClientConfig{
		BaseURL:       baseURL,
		ReplaceMethod: c.Config.Collection.ReplaceMethod,
		Timeout:       c.Config.Collection.Timeout,
	})
}

func (c *Container) setupHub() {
	c.Hub = websocket.NewHub(
		websocket.WithHubLogger(c.Logger),
		websocket.WithSnapshot(websocket.SnapshotOf(c.Controller)),
	)
	c.Broadcaster = websocket.NewBroadcaster(c.Hub, c.Controller,
		websocket.WithBroadcasterLogger(c.Logger),
	)
}

func (c *Container) setupHTTPHandlers() error {
	renderer, err := httphandler.NewTemplateRenderer(httphandler.TemplateRendererConfig{
		FS:      web.TemplatesFS,
		Logger:  c.Logger,
		DevMode: c.Config.IsDevelopment(),
	})
	if err != nil {
		return err
	}
	c.TemplateRenderer = renderer
	c.Server.Echo().Renderer = renderer

	c.UserListHandler = httphandler.NewUserListHandler(c.Controller, c.Config.App.Name, c.Logger)

	wsCfg := c.Config.WebSocket
	clientConfig := websocket.DefaultClientConfig()
	clientConfig.ReadBufferSize = wsCfg.ReadBufferSize
	clientConfig.WriteBufferSize = wsCfg.WriteBufferSize
	clientConfig.PingInterval = wsCfg.PingInterval
	clientConfig.PongWait = wsCfg.PongTimeout

	c.WSHandler = wshandler.NewHandler(c.Hub, wshandler.WithHandlerConfig(wshandler.HandlerConfig{
		ReadBufferSize:  wsCfg.ReadBufferSize,
		WriteBufferSize: wsCfg.WriteBufferSize,
		Logger:          c.Logger,
		ClientConfig:    clientConfig,
	}))

	return nil
}

// Start runs the hub, subscribes the broadcaster and begins the initial load.
func (c *Container) Start(ctx context.Context) {
	go c.Hub.Run(ctx)
	c.Broadcaster.Start(ctx)
	c.Controller.Activate(ctx)
}

// Close cancels outstanding calls and stops background components.
func (c *Container) Close() error {
	c.Logger.Info("closing container resources...")

	if c.Controller != nil {
		c.Controller.Deactivate()
		c.Controller.Wait()
		c.Logger.Debug("user list deactivated")
	}

	if c.Broadcaster != nil {
		c.Broadcaster.Stop()
	}

	if c.Hub != nil {
		c.Hub.Stop()
		c.Logger.Debug("websocket hub stopped")
	}

	return nil
}

// IsReady implements httpserver.HealthChecker. The application is ready once
// the initial load has settled and the hub is running.
func (c *Container) IsReady(ctx context.Context) bool {
	if c.Controller == nil || !c.Controller.Active() {
		return false
	}
	if c.Controller.State().Loading {
		return false
	}
	if c.Hub == nil || !c.Hub.IsRunning() {
		c.Logger.WarnContext(ctx, "websocket hub is not running")
		return false
	}
	return true
}

// GetHealthStatus implements httpserver.HealthChecker.
func (c *Container) GetHealthStatus(_ context.Context) []httpserver.ComponentStatus {
	var statuses []httpserver.ComponentStatus

	listStatus := httpserver.ComponentStatus{Name: "user_list", Status: httpserver.StatusHealthy}
	switch {
	case c.Controller == nil || !c.Controller.Active():
		listStatus.Status = httpserver.StatusUnhealthy
		listStatus.Message = "controller not active"
	default:
		state := c.Controller.State()
		if state.Loading {
			listStatus.Status = httpserver.StatusDegraded
			listStatus.Message = "initial load in progress"
		} else if state.Error != "" {
			listStatus.Status = httpserver.StatusDegraded
			listStatus.Message = state.Error
		}
	}
	statuses = append(statuses, listStatus)

	hubStatus := httpserver.ComponentStatus{Name: "websocket_hub", Status: httpserver.StatusHealthy}
	if c.Hub == nil {
		hubStatus.Status = httpserver.StatusUnhealthy
		hubStatus.Message = "hub not initialized"
	} else if !c.Hub.IsRunning() {
		hubStatus.Status = httpserver.StatusUnhealthy
		hubStatus.Message = "hub not running"
	} else {
		hubStatus.Message = strconv.Itoa(c.Hub.ClientCount()) + " clients"
	}
	statuses = append(statuses, hubStatus)

	return statuses
}

// loopbackURL is the address the process uses to reach its own server.
func loopbackURL(server config.ServerConfig) string {
	host := server.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(server.Port))
}
