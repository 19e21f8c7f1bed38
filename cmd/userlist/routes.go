package main

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lllypuk/userlist/internal/infrastructure/httpserver"
)

// registerRoutes mounts every handler on the container's server.
func registerRoutes(c *Container) {
	e := c.Server.Echo()

	httpserver.NewHealthEndpoints(c).Register(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{})))

	c.UserListHandler.RegisterRoutes(e)
	c.WSHandler.RegisterRoutes(e)

	if c.Collection != nil {
		c.Collection.Register(e, mockPrefix)
	}
}
