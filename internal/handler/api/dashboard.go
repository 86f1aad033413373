package api

import (
	"github.com/labstack/echo/v4"

	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/service/ratelimit"
	"TradeDesk/internal/usecase"
	xhttp "TradeDesk/pkg/http"
	xlogger "TradeDesk/pkg/logger"
)

// DashboardHandler serves the summary view, backtests and broker status.
type DashboardHandler struct {
	logger    *xlogger.Logger
	dash      *usecase.DashboardService
	backtests *usecase.BacktestRunner
	limiter   *ratelimit.Limiter
}

func NewDashboardHandler(logger *xlogger.Logger, dash *usecase.DashboardService, backtests *usecase.BacktestRunner, limiter *ratelimit.Limiter) *DashboardHandler {
	return &DashboardHandler{logger: logger, dash: dash, backtests: backtests, limiter: limiter}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	var mw []echo.MiddlewareFunc
	if h.limiter != nil {
		mw = append(mw, h.limiter.Middleware())
	}
	g := e.Group("/api")
	g.GET("/dashboard", h.Dashboard)
	g.POST("/backtests", h.RunBacktest, mw...)
	g.GET("/kite/status", h.KiteStatus)
	g.POST("/kite/refresh", h.RefreshKite, mw...)
}

func (h *DashboardHandler) Dashboard(c echo.Context) error {
	v, err := h.dash.View(c.Request().Context())
	if err != nil {
		return respondError(c, h.logger, "dashboard", err)
	}
	return xhttp.SuccessResponse(c, newDashboardView(v))
}

func (h *DashboardHandler) RunBacktest(c echo.Context) error {
	var spec models.BacktestSpec
	if err := c.Bind(&spec); err != nil {
		return xhttp.BadRequestResponse(c, xhttp.RequestErrors(err))
	}
	res, err := h.backtests.Run(c.Request().Context(), spec)
	if err != nil {
		return respondError(c, h.logger, "backtest", err)
	}
	res.ReturnPct = round(res.ReturnPct, 2)
	res.MaxDrawdown = round(res.MaxDrawdown, 2)
	return xhttp.CreatedResponse(c, res)
}

func (h *DashboardHandler) KiteStatus(c echo.Context) error {
	st, err := h.dash.KiteStatus(c.Request().Context())
	if err != nil {
		return respondError(c, h.logger, "kite status", err)
	}
	return xhttp.SuccessResponse(c, st)
}

func (h *DashboardHandler) RefreshKite(c echo.Context) error {
	st, err := h.dash.RefreshKite(c.Request().Context())
	if err != nil {
		return respondError(c, h.logger, "kite refresh", err)
	}
	return xhttp.SuccessResponse(c, st)
}
