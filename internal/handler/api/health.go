package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"TradeDesk/internal/domain/repository"
	xhttp "TradeDesk/pkg/http"
)

// HealthHandler reports liveness together with backend reachability.
type HealthHandler struct {
	backend repository.Gateway
	timeout time.Duration
}

func NewHealthHandler(backend repository.Gateway) *HealthHandler {
	return &HealthHandler{backend: backend, timeout: 3 * time.Second}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
}

func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()
	if err := h.backend.Health(ctx); err != nil {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, map[string]string{
			"status":  "degraded",
			"backend": err.Error(),
		})
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok", "backend": "healthy"})
}
