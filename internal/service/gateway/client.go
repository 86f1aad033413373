package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/domain/repository"
	xhttp "TradeDesk/pkg/http"
	applogger "TradeDesk/pkg/logger"
)

// Operation names used for metrics and error context.
const (
	OpSymbols           = "symbols"
	OpHistorical        = "historical"
	OpDashboard         = "dashboard"
	OpListModels        = "list_models"
	OpCreateModel       = "create_model"
	OpTrainModel        = "train_model"
	OpPredict           = "predict"
	OpDeleteModel       = "delete_model"
	OpFeatureImportance = "feature_importance"
	OpListStrategies    = "list_strategies"
	OpCreateStrategy    = "create_strategy"
	OpRunBacktest       = "run_backtest"
	OpKiteStatus        = "kite_status"
	OpRefreshKite       = "refresh_kite"
	OpHealth            = "health"
)

// Client is the HTTP/JSON implementation of repository.Gateway.
// It never retries; every failure is returned as *models.RemoteError.
type Client struct {
	baseURL string
	http    *xhttp.Client
	metrics repository.Metrics
	logger  *applogger.Logger
}

var _ repository.Gateway = (*Client)(nil)

// Option configures Client.
type Option func(*Client)

// WithHTTPClient sets the underlying transport client.
func WithHTTPClient(c *xhttp.Client) Option {
	return func(g *Client) { g.http = c }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m repository.Metrics) Option {
	return func(g *Client) { g.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *applogger.Logger) Option {
	return func(g *Client) { g.logger = l }
}

// New creates a gateway for the backend rooted at baseURL (for example http://host:5000/api).
func New(baseURL string, opts ...Option) *Client {
	g := &Client{baseURL: strings.TrimRight(baseURL, "/")}
	for _, opt := range opts {
		opt(g)
	}
	if g.http == nil {
		g.http = xhttp.NewClient()
	}
	return g
}

func (g *Client) Symbols(ctx context.Context) ([]string, error) {
	var resp symbolsResponse
	if err := g.call(ctx, OpSymbols, http.MethodGet, "/data/symbols", nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Symbols == nil {
		return nil, g.malformed(OpSymbols, "missing symbols")
	}
	return *resp.Symbols, nil
}

func (g *Client) Historical(ctx context.Context, symbol string, tf models.Timeframe, days int) ([]models.HistoricalBar, error) {
	query := url.Values{
		"timeframe": {string(tf)},
		"days":      {strconv.Itoa(days)},
	}
	var resp historicalResponse
	path := "/data/historical/" + url.PathEscape(symbol)
	if err := g.call(ctx, OpHistorical, http.MethodGet, path, query, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, g.malformed(OpHistorical, "missing data")
	}
	bars := make([]models.HistoricalBar, 0, len(*resp.Data))
	for i, wb := range *resp.Data {
		bar, ok := wb.toBar()
		if !ok {
			return nil, g.malformed(OpHistorical, fmt.Sprintf("bar %d has no timestamp", i))
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func (g *Client) Dashboard(ctx context.Context) (models.DashboardSnapshot, error) {
	var resp dashboardResponse
	if err := g.call(ctx, OpDashboard, http.MethodGet, "/dashboard", nil, nil, &resp); err != nil {
		return models.DashboardSnapshot{}, err
	}
	if resp.Summary == nil {
		return models.DashboardSnapshot{}, g.malformed(OpDashboard, "missing summary")
	}
	snap := models.DashboardSnapshot{
		TotalStrategies: resp.Summary.TotalStrategies,
		TotalBacktests:  resp.Summary.TotalBacktests,
		KiteConnected:   resp.Summary.KiteConnected,
		KiteStatus:      resp.Summary.KiteStatus,
		LastUpdated:     resp.Summary.LastUpdated.Time(),
		RecentBacktests: make([]models.RecentBacktest, 0, len(resp.RecentBacktests)),
	}
	for _, bt := range resp.RecentBacktests {
		snap.RecentBacktests = append(snap.RecentBacktests, models.RecentBacktest{
			ID:        string(bt.ID),
			Name:      bt.Name,
			Symbol:    bt.Symbol,
			ReturnPct: bt.ReturnPct,
			CreatedAt: bt.CreatedAt.Time(),
		})
	}
	return snap, nil
}

func (g *Client) ListModels(ctx context.Context) ([]models.Model, error) {
	var resp listModelsResponse
	if err := g.call(ctx, OpListModels, http.MethodGet, "/ml/models", nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Models == nil {
		return nil, g.malformed(OpListModels, "missing models")
	}
	out := make([]models.Model, 0, len(*resp.Models))
	for _, wm := range *resp.Models {
		if wm.ID == "" {
			return nil, g.malformed(OpListModels, "model without id")
		}
		out = append(out, wm.toModel())
	}
	return out, nil
}

func (g *Client) CreateModel(ctx context.Context, spec models.ModelSpec) (models.Model, error) {
	var resp createResponse
	if err := g.call(ctx, OpCreateModel, http.MethodPost, "/ml/models", nil, spec, &resp); err != nil {
		return models.Model{}, err
	}

	var m models.Model
	switch {
	case resp.Model != nil && resp.Model.ID != "":
		m = resp.Model.toModel()
	case resp.ID != "":
		m = resp.wireModel.toModel()
	case resp.ModelID != "":
		m = models.Model{ID: string(resp.ModelID), Status: models.StatusPending}
	default:
		return models.Model{}, g.malformed(OpCreateModel, "missing model id")
	}

	// An acknowledgement carries only the id; the rest is what we asked for.
	if m.Name == "" {
		m.Name = spec.Name
	}
	if m.ModelType == "" {
		m.ModelType = spec.ModelType
	}
	if m.Symbol == "" {
		m.Symbol = spec.Symbol
	}
	if m.Timeframe == "" {
		m.Timeframe = spec.Timeframe
	}
	if m.Target == "" {
		m.Target = spec.Target
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return m, nil
}

func (g *Client) TrainModel(ctx context.Context, id string, hp models.Hyperparameters) error {
	if hp == nil {
		hp = models.Hyperparameters{}
	}
	return g.call(ctx, OpTrainModel, http.MethodPost, "/ml/models/"+url.PathEscape(id)+"/train", nil, hp, nil)
}

func (g *Client) Predict(ctx context.Context, id string) (models.PredictionResult, error) {
	var resp predictionResponse
	path := "/ml/models/" + url.PathEscape(id) + "/predict"
	if err := g.call(ctx, OpPredict, http.MethodPost, path, nil, map[string]interface{}{}, &resp); err != nil {
		return models.PredictionResult{}, err
	}
	values, err := predictionValues(resp.Prediction)
	if err != nil {
		return models.PredictionResult{}, g.malformed(OpPredict, err.Error())
	}
	res := models.PredictionResult{
		ModelID:     string(resp.ModelID),
		Prediction:  values,
		Confidence:  resp.Confidence,
		GeneratedAt: resp.Timestamp.Time(),
	}
	if res.ModelID == "" {
		res.ModelID = id
	}
	if res.GeneratedAt.IsZero() {
		res.GeneratedAt = time.Now().UTC()
	}
	return res, nil
}

func (g *Client) DeleteModel(ctx context.Context, id string) error {
	return g.call(ctx, OpDeleteModel, http.MethodDelete, "/ml/models/"+url.PathEscape(id), nil, nil, nil)
}

// FeatureImportance returns an empty table when the backend reports that the model type has none.
func (g *Client) FeatureImportance(ctx context.Context, id string) ([]models.FeatureWeight, error) {
	var resp featureImportanceResponse
	path := "/ml/feature-importance/" + url.PathEscape(id)
	if err := g.call(ctx, OpFeatureImportance, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.FeatureImportance == nil {
		return []models.FeatureWeight{}, nil
	}
	return *resp.FeatureImportance, nil
}

func (g *Client) ListStrategies(ctx context.Context) ([]models.Strategy, error) {
	var resp strategiesResponse
	if err := g.call(ctx, OpListStrategies, http.MethodGet, "/strategies", nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Strategies == nil {
		return nil, g.malformed(OpListStrategies, "missing strategies")
	}
	out := make([]models.Strategy, 0, len(*resp.Strategies))
	for _, ws := range *resp.Strategies {
		out = append(out, ws.toStrategy())
	}
	return out, nil
}

// CreateStrategy sends config as the JSON text the backend stores verbatim.
func (g *Client) CreateStrategy(ctx context.Context, spec models.StrategySpec) (models.Strategy, error) {
	body := createStrategyRequest{
		Name:         spec.Name,
		Description:  spec.Description,
		StrategyType: string(spec.StrategyType),
		Config:       string(spec.Config),
	}
	var resp createStrategyResponse
	if err := g.call(ctx, OpCreateStrategy, http.MethodPost, "/strategies", nil, body, &resp); err != nil {
		return models.Strategy{}, err
	}
	if resp.StrategyID == "" {
		return models.Strategy{}, g.malformed(OpCreateStrategy, "missing strategy_id")
	}
	return models.Strategy{
		ID:           string(resp.StrategyID),
		Name:         spec.Name,
		Description:  spec.Description,
		StrategyType: spec.StrategyType,
		CreatedAt:    time.Now().UTC(),
		IsActive:     true,
	}, nil
}

func (g *Client) RunBacktest(ctx context.Context, spec models.BacktestSpec) (models.BacktestResult, error) {
	var resp backtestResponse
	if err := g.call(ctx, OpRunBacktest, http.MethodPost, "/backtest/run", nil, spec, &resp); err != nil {
		return models.BacktestResult{}, err
	}
	if resp.Results == nil {
		return models.BacktestResult{}, g.malformed(OpRunBacktest, "missing results")
	}
	return models.BacktestResult{
		BacktestID:    string(resp.BacktestID),
		ReturnPct:     resp.Results.ReturnPct,
		TotalTrades:   resp.Results.TotalTrades,
		WinningTrades: resp.Results.WinningTrades,
		MaxDrawdown:   resp.Results.MaxDrawdown,
	}, nil
}

func (g *Client) KiteStatus(ctx context.Context) (models.KiteStatus, error) {
	var resp kiteStatusResponse
	if err := g.call(ctx, OpKiteStatus, http.MethodGet, "/kite/status", nil, nil, &resp); err != nil {
		return models.KiteStatus{}, err
	}
	return models.KiteStatus{
		Connected:   resp.Connected,
		Status:      resp.Status,
		Available:   resp.Available,
		LastChecked: resp.LastChecked.Time(),
	}, nil
}

func (g *Client) RefreshKite(ctx context.Context) (models.KiteStatus, error) {
	var resp kiteRefreshResponse
	if err := g.call(ctx, OpRefreshKite, http.MethodPost, "/kite/refresh", nil, map[string]interface{}{}, &resp); err != nil {
		return models.KiteStatus{}, err
	}
	return models.KiteStatus{
		Connected:   resp.Connected,
		Status:      resp.Message,
		Available:   true,
		LastChecked: resp.Timestamp.Time(),
	}, nil
}

func (g *Client) Health(ctx context.Context) error {
	var resp healthResponse
	if err := g.call(ctx, OpHealth, http.MethodGet, "/health", nil, nil, &resp); err != nil {
		return err
	}
	if resp.Status != "" && resp.Status != "healthy" {
		return &models.RemoteError{Kind: models.RemoteServerError, Op: OpHealth, Err: fmt.Errorf("backend reports %q", resp.Status)}
	}
	return nil
}

// call performs one request and normalizes its failure.
func (g *Client) call(ctx context.Context, op, method, path string, query url.Values, body, dest interface{}) error {
	opts := &xhttp.RequestOptions{
		Method:      method,
		URL:         g.baseURL + path,
		QueryParams: query,
		Headers:     map[string]string{"Accept": "application/json"},
		Body:        body,
	}
	if body != nil {
		opts.Headers["Content-Type"] = "application/json"
	}

	start := time.Now()
	err := classify(op, g.http.SendAndParse(ctx, opts, dest))
	g.observe(op, start, err)
	return err
}

func (g *Client) malformed(op, detail string) error {
	err := &models.RemoteError{
		Kind: models.RemoteServerError,
		Op:   op,
		Err:  fmt.Errorf("%w: %s", models.ErrMalformedResponse, detail),
	}
	if g.metrics != nil {
		g.metrics.RecordError("malformed")
	}
	if g.logger != nil {
		g.logger.Warn("gateway: malformed response", applogger.String("op", op), applogger.String("detail", detail))
	}
	return err
}

func (g *Client) observe(op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		kind, _ := models.RemoteKindOf(err)
		result = kind.String()
		if errors.Is(err, models.ErrMalformedResponse) {
			result = "malformed"
		}
	}
	if g.metrics != nil {
		g.metrics.RecordRequest(op, result)
		g.metrics.RecordLatency(op, time.Since(start).Seconds())
		if err != nil {
			g.metrics.RecordError(result)
		}
	}
	if err != nil && g.logger != nil {
		g.logger.Debug("gateway call failed",
			applogger.String("op", op),
			applogger.String("result", result),
			applogger.Duration("latency_ms", time.Since(start)),
			applogger.Error(err),
		)
	}
}

// classify maps a transport-level error to the remote error taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var se *xhttp.StatusError
	if errors.As(err, &se) {
		kind := models.RemoteServerError
		switch se.Code {
		case http.StatusUnauthorized:
			kind = models.RemoteUnauthorized
		case http.StatusNotFound:
			kind = models.RemoteNotFound
		}
		return &models.RemoteError{Kind: kind, Op: op, Status: se.Code, Err: errors.New(backendMessage(se))}
	}

	switch {
	case errors.Is(err, xhttp.ErrDecode):
		return &models.RemoteError{Kind: models.RemoteServerError, Op: op, Err: fmt.Errorf("%w: %v", models.ErrMalformedResponse, err)}
	case errors.Is(err, xhttp.ErrToken):
		return &models.RemoteError{Kind: models.RemoteUnauthorized, Op: op, Err: err}
	default:
		return &models.RemoteError{Kind: models.RemoteUnreachable, Op: op, Err: err}
	}
}

// backendMessage extracts {"error": "..."} from a failure body when present.
func backendMessage(se *xhttp.StatusError) string {
	var eb errorBody
	if err := json.Unmarshal([]byte(se.Body), &eb); err == nil {
		if eb.Error != "" {
			return eb.Error
		}
		if eb.Message != "" {
			return eb.Message
		}
	}
	if se.Body == "" {
		return http.StatusText(se.Code)
	}
	return se.Body
}
