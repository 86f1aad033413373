package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/service/export"
	"TradeDesk/internal/service/metrics"
	"TradeDesk/internal/usecase"
	xhttp "TradeDesk/pkg/http"
	xlogger "TradeDesk/pkg/logger"
)

const (
	defaultTimeframe = models.TF5Minute
	defaultDays      = "30"
)

// DataHandler serves the symbol catalogue and bounded historical queries.
type DataHandler struct {
	logger *xlogger.Logger
	q      *usecase.QueryEngine
}

func NewDataHandler(logger *xlogger.Logger, q *usecase.QueryEngine) *DataHandler {
	metrics.Register()
	return &DataHandler{logger: logger, q: q}
}

func (h *DataHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/data")
	g.GET("/symbols", h.Symbols)
	g.GET("/historical/:symbol", h.Historical)
	g.GET("/export/:symbol", h.Export)
}

func (h *DataHandler) Symbols(c echo.Context) error {
	symbols, err := h.q.OpenSession(c.Request().Context())
	if err != nil {
		return respondError(c, h.logger, "load symbols", err)
	}
	return xhttp.ListResponse(c, symbols, int64(len(symbols)))
}

// params reads the query window. The catalogue is loaded on first use so
// symbol validation has something to check against.
func (h *DataHandler) params(c echo.Context) (models.QueryParameters, error) {
	raw := c.QueryParam("days")
	if raw == "" {
		raw = defaultDays
	}
	days, err := usecase.ParseDays(raw)
	if err != nil {
		return models.QueryParameters{}, err
	}
	tf := models.Timeframe(c.QueryParam("timeframe"))
	if tf == "" {
		tf = defaultTimeframe
	}
	if len(h.q.Symbols()) == 0 {
		if _, err := h.q.OpenSession(c.Request().Context()); err != nil {
			return models.QueryParameters{}, err
		}
	}
	return models.QueryParameters{Symbol: c.Param("symbol"), Timeframe: tf, Days: days}, nil
}

func (h *DataHandler) Historical(c echo.Context) error {
	p, err := h.params(c)
	if err != nil {
		return respondError(c, h.logger, "historical", err)
	}
	res, err := h.q.Query(c.Request().Context(), p)
	if err != nil {
		return respondError(c, h.logger, "historical", err)
	}

	v := historicalView{
		Symbol:    res.Symbol,
		Timeframe: res.Timeframe,
		Days:      res.Days,
		Total:     res.Total,
		Anomalies: res.Anomalies,
		Degraded:  res.Degraded,
		FetchedAt: time.Now().UTC(),
	}
	if xhttp.ParseBoolDefault(c.QueryParam("full"), false) {
		v.Bars = res.Bars
	} else {
		v.Bars = res.Display()
		v.Truncated = res.Truncated()
	}
	if v.Bars == nil {
		v.Bars = []models.HistoricalBar{}
	}
	v.Shown = len(v.Bars)
	metrics.ObserveQuery(v.Total, v.Truncated, v.Degraded)
	if res.Degraded && res.Cause != nil {
		v.Reason = res.Cause.Error()
	}
	return xhttp.SuccessResponse(c, v)
}

func (h *DataHandler) Export(c echo.Context) error {
	format, err := export.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{Code: "ERR_ONEOF", Field: "format", Message: err.Error()}})
	}
	p, err := h.params(c)
	if err != nil {
		return respondError(c, h.logger, "export", err)
	}

	var buf bytes.Buffer
	start := time.Now()
	err = h.q.Export(c.Request().Context(), p, format, &buf)
	metrics.ObserveExport(string(format), buf.Len(), time.Since(start), err)
	if err != nil {
		return respondError(c, h.logger, "export", err)
	}
	bw := export.NewBarWriter(format)
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", export.FileName(p.Symbol, p.Timeframe, p.Days, bw)))
	return c.Blob(http.StatusOK, bw.ContentType(), buf.Bytes())
}
