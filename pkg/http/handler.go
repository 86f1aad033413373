package http

import "github.com/labstack/echo/v4"

// Handler owns a group of routes.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

// Handlers registers each member in order. It is itself a Handler, so the
// server takes one value however many route groups the app has.
type Handlers []Handler

func (hs Handlers) RegisterRoutes(e *echo.Echo) {
	for _, h := range hs {
		h.RegisterRoutes(e)
	}
}
