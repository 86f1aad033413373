package api

import (
	"github.com/labstack/echo/v4"

	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/service/ratelimit"
	"TradeDesk/internal/usecase"
	xhttp "TradeDesk/pkg/http"
	xlogger "TradeDesk/pkg/logger"
)

// StrategiesHandler serves the backend strategy catalogue.
type StrategiesHandler struct {
	logger     *xlogger.Logger
	strategies *usecase.StrategyCatalog
	limiter    *ratelimit.Limiter
}

func NewStrategiesHandler(logger *xlogger.Logger, strategies *usecase.StrategyCatalog, limiter *ratelimit.Limiter) *StrategiesHandler {
	return &StrategiesHandler{logger: logger, strategies: strategies, limiter: limiter}
}

func (h *StrategiesHandler) RegisterRoutes(e *echo.Echo) {
	var mw []echo.MiddlewareFunc
	if h.limiter != nil {
		mw = append(mw, h.limiter.Middleware())
	}
	g := e.Group("/api/strategies")
	g.GET("", h.List)
	g.POST("", h.Create, mw...)
}

func (h *StrategiesHandler) List(c echo.Context) error {
	list, err := h.strategies.List(c.Request().Context())
	if err != nil {
		return respondError(c, h.logger, "list strategies", err)
	}
	return xhttp.ListResponse(c, list, int64(len(list)))
}

func (h *StrategiesHandler) Create(c echo.Context) error {
	var spec models.StrategySpec
	if err := c.Bind(&spec); err != nil {
		return xhttp.BadRequestResponse(c, xhttp.RequestErrors(err))
	}
	st, err := h.strategies.Create(c.Request().Context(), spec)
	if err != nil {
		return respondError(c, h.logger, "create strategy", err)
	}
	return xhttp.CreatedResponse(c, st)
}
