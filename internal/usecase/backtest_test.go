package usecase

import (
	"context"
	"testing"

	"TradeDesk/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBacktestDefaultsAndEvent(t *testing.T) {
	gw := newFakeGateway()
	gw.backtest = models.BacktestResult{BacktestID: "7", ReturnPct: 3.2, TotalTrades: 12}
	pub := &fakePublisher{}
	b := NewBacktestRunner(gw, pub, nil)

	res, err := b.Run(context.Background(), models.BacktestSpec{Symbol: "TCS"})
	require.NoError(t, err)
	assert.Equal(t, "7", res.BacktestID)
	assert.Equal(t, []models.EventType{models.EventBacktestCompleted}, pub.types())
	assert.Equal(t, "7", pub.events[0].Attributes["backtest_id"])
	assert.Equal(t, "5minute", pub.events[0].Attributes["timeframe"])
}

func TestBacktestValidation(t *testing.T) {
	gw := newFakeGateway()
	b := NewBacktestRunner(gw, nil, nil)

	_, err := b.Run(context.Background(), models.BacktestSpec{Symbol: "", Timeframe: models.TFDay})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = b.Run(context.Background(), models.BacktestSpec{Symbol: "TCS", Timeframe: "weekly"})
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Zero(t, gw.total())
}
