package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/service/ratelimit"
	"TradeDesk/internal/usecase"
	xhttp "TradeDesk/pkg/http"
	xlogger "TradeDesk/pkg/logger"
)

// ModelsHandler exposes the model lifecycle over HTTP.
type ModelsHandler struct {
	logger  *xlogger.Logger
	lc      *usecase.LifecycleController
	limiter *ratelimit.Limiter
}

func NewModelsHandler(logger *xlogger.Logger, lc *usecase.LifecycleController, limiter *ratelimit.Limiter) *ModelsHandler {
	return &ModelsHandler{logger: logger, lc: lc, limiter: limiter}
}

func (h *ModelsHandler) RegisterRoutes(e *echo.Echo) {
	var mw []echo.MiddlewareFunc
	if h.limiter != nil {
		mw = append(mw, h.limiter.Middleware())
	}

	g := e.Group("/api/models")
	g.GET("", h.List)
	g.POST("", h.Create, mw...)
	g.POST("/refresh", h.Refresh, mw...)
	g.GET("/:id", h.Get)
	g.POST("/:id/train", h.Train, mw...)
	g.POST("/:id/predict", h.Predict, mw...)
	g.GET("/:id/features", h.Features)
	g.DELETE("/:id", h.Delete, mw...)
}

func (h *ModelsHandler) List(c echo.Context) error {
	if xhttp.ParseBoolDefault(c.QueryParam("refresh"), false) {
		return h.Refresh(c)
	}
	list := h.lc.Models()
	return xhttp.ListResponse(c, newModelViews(list), int64(len(list)))
}

func (h *ModelsHandler) Refresh(c echo.Context) error {
	list, err := h.lc.RefreshAll(c.Request().Context())
	if err != nil {
		return respondError(c, h.logger, "refresh models", err)
	}
	return xhttp.ListResponse(c, newModelViews(list), int64(len(list)))
}

func (h *ModelsHandler) Get(c echo.Context) error {
	m, err := h.lc.Model(c.Param("id"))
	if err != nil {
		return respondError(c, h.logger, "get model", err)
	}
	return xhttp.SuccessResponse(c, newModelView(m))
}

func (h *ModelsHandler) Create(c echo.Context) error {
	var spec models.ModelSpec
	if err := c.Bind(&spec); err != nil {
		return xhttp.BadRequestResponse(c, xhttp.RequestErrors(err))
	}
	m, err := h.lc.CreateModel(c.Request().Context(), spec)
	if err != nil {
		return respondError(c, h.logger, "create model", err)
	}
	return xhttp.CreatedResponse(c, newModelView(m))
}

func (h *ModelsHandler) Train(c echo.Context) error {
	hp, err := readHyperparameters(c.Request().Body)
	if err != nil {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{Code: "ERR_BAD_BODY", Field: "hyperparameters", Message: "hyperparameters must be a JSON object"}})
	}
	m, err := h.lc.TrainModel(c.Request().Context(), c.Param("id"), hp)
	if err != nil {
		return respondError(c, h.logger, "train model", err)
	}
	return xhttp.DataResponse(c, http.StatusAccepted, newModelView(m))
}

// readHyperparameters accepts an empty body, a bare object, or
// {"hyperparameters": {...}}.
func readHyperparameters(r io.Reader) (models.Hyperparameters, error) {
	var hp models.Hyperparameters
	if err := json.NewDecoder(r).Decode(&hp); err != nil {
		if errors.Is(err, io.EOF) {
			return models.Hyperparameters{}, nil
		}
		return nil, err
	}
	if inner, ok := hp["hyperparameters"]; ok && len(hp) == 1 {
		var nested models.Hyperparameters
		if err := json.Unmarshal(inner, &nested); err != nil {
			return nil, err
		}
		hp = nested
	}
	if hp == nil {
		hp = models.Hyperparameters{}
	}
	return hp, nil
}

func (h *ModelsHandler) Predict(c echo.Context) error {
	res, err := h.lc.Predict(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, h.logger, "predict", err)
	}
	return xhttp.SuccessResponse(c, predictionView{PredictionResult: res, ConfidencePct: percent(res.Confidence, 1)})
}

func (h *ModelsHandler) Features(c echo.Context) error {
	fw, err := h.lc.FeatureImportance(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, h.logger, "feature importance", err)
	}
	return xhttp.ListResponse(c, fw, int64(len(fw)))
}

func (h *ModelsHandler) Delete(c echo.Context) error {
	confirmed := xhttp.ParseBoolDefault(c.QueryParam("confirm"), false)
	if err := h.lc.DeleteModel(c.Request().Context(), c.Param("id"), confirmed); err != nil {
		return respondError(c, h.logger, "delete model", err)
	}
	return xhttp.NoContentResponse(c)
}
