package models

import "time"

// Timeframe is the bar resolution understood by the backend.
type Timeframe string

const (
	TF1Minute  Timeframe = "1minute"
	TF5Minute  Timeframe = "5minute"
	TF15Minute Timeframe = "15minute"
	TFDay      Timeframe = "day"
)

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TF1Minute, TF5Minute, TF15Minute, TFDay:
		return true
	default:
		return false
	}
}

// HistoricalBar is one OHLCV sample as delivered by the backend.
type HistoricalBar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// Consistent reports whether high >= max(open, close) >= min(open, close) >= low.
// Violations are display anomalies, not errors.
func (b HistoricalBar) Consistent() bool {
	hi, lo := b.Open, b.Close
	if lo > hi {
		hi, lo = lo, hi
	}
	return b.High >= hi && lo >= b.Low && b.Volume >= 0
}

// QueryParameters selects a historical window.
type QueryParameters struct {
	Symbol    string    `json:"symbol" validate:"required"`
	Timeframe Timeframe `json:"timeframe" validate:"required,oneof=1minute 5minute 15minute day"`
	Days      int       `json:"days" validate:"gte=1,lte=365"`
}
