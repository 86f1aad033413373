package api

import (
	"time"

	"github.com/shopspring/decimal"

	"TradeDesk/internal/domain/models"
)

var hundred = decimal.NewFromInt(100)

// percent renders a ratio as a percentage with the given precision.
func percent(ratio float64, places int32) float64 {
	return decimal.NewFromFloat(ratio).Mul(hundred).Round(places).InexactFloat64()
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

type modelView struct {
	models.Model
	AccuracyPct *float64 `json:"accuracy_pct,omitempty"`
}

func newModelView(m models.Model) modelView {
	v := modelView{Model: m}
	if m.Accuracy != nil {
		p := percent(*m.Accuracy, 1)
		v.AccuracyPct = &p
	}
	return v
}

func newModelViews(list []models.Model) []modelView {
	out := make([]modelView, len(list))
	for i, m := range list {
		out[i] = newModelView(m)
	}
	return out
}

type predictionView struct {
	models.PredictionResult
	ConfidencePct float64 `json:"confidence_pct"`
}

type dashboardView struct {
	models.DashboardView
	AverageAccuracyPct *float64 `json:"average_accuracy_pct"`
}

func newDashboardView(v models.DashboardView) dashboardView {
	out := dashboardView{DashboardView: v}
	if v.AverageAccuracy != nil {
		p := percent(*v.AverageAccuracy, 1)
		out.AverageAccuracyPct = &p
	}
	for i := range out.RecentBacktests {
		out.RecentBacktests[i].ReturnPct = round(out.RecentBacktests[i].ReturnPct, 2)
	}
	return out
}

type historicalView struct {
	Symbol    string                 `json:"symbol"`
	Timeframe models.Timeframe       `json:"timeframe"`
	Days      int                    `json:"days"`
	Bars      []models.HistoricalBar `json:"bars"`
	Total     int                    `json:"total"`
	Shown     int                    `json:"shown"`
	Truncated bool                   `json:"truncated"`
	Anomalies int                    `json:"anomalies"`
	Degraded  bool                   `json:"degraded"`
	Reason    string                 `json:"reason,omitempty"`
	FetchedAt time.Time              `json:"fetched_at"`
}
