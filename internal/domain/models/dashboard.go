package models

import "time"

// DashboardSnapshot is the backend's summary payload.
type DashboardSnapshot struct {
	TotalStrategies int              `json:"total_strategies"`
	TotalBacktests  int              `json:"total_backtests"`
	KiteConnected   bool             `json:"kite_connected"`
	KiteStatus      string           `json:"kite_status,omitempty"`
	LastUpdated     time.Time        `json:"last_updated"`
	RecentBacktests []RecentBacktest `json:"recent_backtests"`
}

type RecentBacktest struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Symbol    string    `json:"symbol"`
	ReturnPct float64   `json:"return_pct"`
	CreatedAt time.Time `json:"created_at"`
}

// DashboardView is derived on demand from a registry snapshot and a
// backend snapshot. AverageAccuracy is nil when no model reports one.
type DashboardView struct {
	TotalStrategies int              `json:"total_strategies"`
	TotalBacktests  int              `json:"total_backtests"`
	KiteConnected   bool             `json:"kite_connected"`
	KiteStatus      string           `json:"kite_status,omitempty"`
	TotalModels     int              `json:"total_models"`
	TrainedModels   int              `json:"trained_models"`
	TrainingModels  int              `json:"training_models"`
	AverageAccuracy *float64         `json:"average_accuracy"`
	RecentBacktests []RecentBacktest `json:"recent_backtests"`
}

// BacktestSpec is the request body for a backtest run.
type BacktestSpec struct {
	Name       string    `json:"name" default:"Test Backtest" validate:"required"`
	Symbol     string    `json:"symbol" validate:"required"`
	Timeframe  Timeframe `json:"timeframe" default:"5minute" validate:"oneof=1minute 5minute 15minute day"`
	StrategyID string    `json:"strategy_id,omitempty"`
}

// BacktestResult carries the backend's backtest outcome.
type BacktestResult struct {
	BacktestID    string  `json:"backtest_id"`
	ReturnPct     float64 `json:"return_percentage"`
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	MaxDrawdown   float64 `json:"max_drawdown"`
}

// KiteStatus reports the broker connection as seen by the backend.
type KiteStatus struct {
	Connected   bool      `json:"connected"`
	Status      string    `json:"status"`
	Available   bool      `json:"available"`
	LastChecked time.Time `json:"last_checked"`
}
