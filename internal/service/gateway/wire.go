package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"TradeDesk/internal/domain/models"
	"TradeDesk/pkg/util"
)

// flexID accepts both numeric and string identifiers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

// flexTime accepts ISO-8601 timestamps with or without a zone, and null.
type flexTime time.Time

func (t *flexTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*t = flexTime{}
		return nil
	}
	if b[0] != '"' {
		// unix seconds
		ts, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return fmt.Errorf("timestamp %s: %w", b, err)
		}
		*t = flexTime(time.Unix(int64(ts), 0).UTC())
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*t = flexTime{}
		return nil
	}
	parsed, ok := util.ParseTime(s)
	if !ok {
		return fmt.Errorf("timestamp %q: unrecognised layout", s)
	}
	*t = flexTime(parsed)
	return nil
}

func (t flexTime) Time() time.Time { return time.Time(t) }

type wireModel struct {
	ID        flexID   `json:"id"`
	Name      string   `json:"name"`
	ModelType string   `json:"model_type"`
	Symbol    string   `json:"symbol"`
	Timeframe string   `json:"timeframe"`
	Target    string   `json:"target"`
	Status    string   `json:"status"`
	Accuracy  *float64 `json:"accuracy"`
	CreatedAt flexTime `json:"created_at"`
	TrainedAt flexTime `json:"trained_at"`
}

func (w wireModel) toModel() models.Model {
	m := models.Model{
		ID:        string(w.ID),
		Name:      w.Name,
		ModelType: models.ModelType(w.ModelType),
		Symbol:    w.Symbol,
		Timeframe: models.Timeframe(w.Timeframe),
		Target:    models.Target(w.Target),
		Status:    models.Status(w.Status),
		CreatedAt: w.CreatedAt.Time(),
		TrainedAt: w.TrainedAt.Time(),
	}
	if w.Accuracy != nil {
		acc := *w.Accuracy
		m.Accuracy = &acc
	}
	if m.Status == "" {
		m.Status = models.StatusPending
	}
	return m
}

type symbolsResponse struct {
	Symbols *[]string `json:"symbols"`
}

type wireBar struct {
	Date      flexTime `json:"date"`
	Timestamp flexTime `json:"timestamp"`
	Open      float64  `json:"open"`
	High      float64  `json:"high"`
	Low       float64  `json:"low"`
	Close     float64  `json:"close"`
	Volume    float64  `json:"volume"`
}

func (w wireBar) toBar() (models.HistoricalBar, bool) {
	ts := w.Date.Time()
	if ts.IsZero() {
		ts = w.Timestamp.Time()
	}
	if ts.IsZero() {
		return models.HistoricalBar{}, false
	}
	return models.HistoricalBar{
		Timestamp: ts,
		Open:      w.Open,
		High:      w.High,
		Low:       w.Low,
		Close:     w.Close,
		Volume:    int64(w.Volume),
	}, true
}

type historicalResponse struct {
	Symbol    string     `json:"symbol"`
	Timeframe string     `json:"timeframe"`
	Source    string     `json:"source"`
	Data      *[]wireBar `json:"data"`
}

type wireRecentBacktest struct {
	ID        flexID   `json:"id"`
	Name      string   `json:"name"`
	Symbol    string   `json:"symbol"`
	ReturnPct float64  `json:"return_pct"`
	CreatedAt flexTime `json:"created_at"`
}

type dashboardResponse struct {
	Summary *struct {
		TotalStrategies int      `json:"total_strategies"`
		TotalBacktests  int      `json:"total_backtests"`
		KiteConnected   bool     `json:"kite_connected"`
		KiteStatus      string   `json:"kite_status"`
		LastUpdated     flexTime `json:"last_updated"`
	} `json:"summary"`
	RecentBacktests []wireRecentBacktest `json:"recent_backtests"`
}

type listModelsResponse struct {
	Models *[]wireModel `json:"models"`
}

// createResponse covers a full model object, a wrapped {"model": {...}} and a bare {"model_id"} ack.
type createResponse struct {
	wireModel
	ModelID flexID     `json:"model_id"`
	Model   *wireModel `json:"model"`
}

type predictionResponse struct {
	ModelID    flexID          `json:"model_id"`
	Prediction json.RawMessage `json:"prediction"`
	Confidence float64         `json:"confidence"`
	Timestamp  flexTime        `json:"timestamp"`
}

// predictionValues flattens a scalar, a vector or a single-row matrix.
func predictionValues(raw json.RawMessage) ([]float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("prediction missing")
	}
	var scalar float64
	if err := json.Unmarshal(raw, &scalar); err == nil {
		return []float64{scalar}, nil
	}
	var vec []float64
	if err := json.Unmarshal(raw, &vec); err == nil {
		return vec, nil
	}
	var mat [][]float64
	if err := json.Unmarshal(raw, &mat); err != nil {
		return nil, fmt.Errorf("prediction: %w", err)
	}
	out := make([]float64, 0, len(mat))
	for _, row := range mat {
		out = append(out, row...)
	}
	return out, nil
}

type featureImportanceResponse struct {
	FeatureImportance *[]models.FeatureWeight `json:"feature_importance"`
	Message           string                  `json:"message"`
}

type wireStrategy struct {
	ID           flexID   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	StrategyType string   `json:"strategy_type"`
	CreatedAt    flexTime `json:"created_at"`
	IsActive     *bool    `json:"is_active"`
}

// toStrategy treats a missing is_active as active, the backend's column default.
func (w wireStrategy) toStrategy() models.Strategy {
	active := w.IsActive == nil || *w.IsActive
	return models.Strategy{
		ID:           string(w.ID),
		Name:         w.Name,
		Description:  w.Description,
		StrategyType: models.StrategyType(w.StrategyType),
		CreatedAt:    w.CreatedAt.Time(),
		IsActive:     active,
	}
}

type strategiesResponse struct {
	Strategies *[]wireStrategy `json:"strategies"`
}

type createStrategyRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	StrategyType string `json:"strategy_type"`
	Config       string `json:"config"`
}

type createStrategyResponse struct {
	Message    string `json:"message"`
	StrategyID flexID `json:"strategy_id"`
}

type backtestResponse struct {
	Message    string `json:"message"`
	BacktestID flexID `json:"backtest_id"`
	Results    *struct {
		ReturnPct     float64 `json:"return_percentage"`
		TotalTrades   int     `json:"total_trades"`
		WinningTrades int     `json:"winning_trades"`
		MaxDrawdown   float64 `json:"max_drawdown"`
	} `json:"results"`
}

type kiteStatusResponse struct {
	Connected   bool     `json:"connected"`
	Status      string   `json:"status"`
	Available   bool     `json:"available"`
	LastChecked flexTime `json:"last_checked"`
}

type kiteRefreshResponse struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Connected bool     `json:"connected"`
	Timestamp flexTime `json:"timestamp"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// errorBody is the backend's failure envelope.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
