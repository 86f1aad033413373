package usecase

import (
	"context"
	"testing"
	"time"

	"TradeDesk/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAverageAccuracy(t *testing.T) {
	avg, ok := AverageAccuracy([]models.Model{
		model("1", models.StatusTrained, 0.9),
		model("2", models.StatusTrained, 0.7),
		model("3", models.StatusPending),
	})
	require.True(t, ok)
	assert.InDelta(t, 0.8, avg, 1e-9)
}

func TestAverageAccuracyUnavailable(t *testing.T) {
	_, ok := AverageAccuracy(nil)
	assert.False(t, ok)

	_, ok = AverageAccuracy([]models.Model{model("1", models.StatusPending)})
	assert.False(t, ok)
}

func TestAverageAccuracyZeroIsData(t *testing.T) {
	avg, ok := AverageAccuracy([]models.Model{model("1", models.StatusTrained, 0)})
	require.True(t, ok)
	assert.Zero(t, avg)
}

func TestAggregate(t *testing.T) {
	snap := models.DashboardSnapshot{
		TotalStrategies: 3,
		TotalBacktests:  11,
		KiteConnected:   true,
		RecentBacktests: []models.RecentBacktest{{ID: "1", Name: "bt", Symbol: "TCS", ReturnPct: 4.256, CreatedAt: time.Now()}},
	}
	list := []models.Model{
		model("1", models.StatusTrained, 0.9),
		model("2", models.StatusTraining),
		model("3", models.StatusTrained, 0.7),
		model("4", models.StatusFailed),
	}

	view := Aggregate(list, snap)
	assert.Equal(t, 4, view.TotalModels)
	assert.Equal(t, 2, view.TrainedModels)
	assert.Equal(t, 1, view.TrainingModels)
	require.NotNil(t, view.AverageAccuracy)
	assert.InDelta(t, 0.8, *view.AverageAccuracy, 1e-9)
	assert.True(t, view.KiteConnected)
	assert.Equal(t, snap.RecentBacktests, view.RecentBacktests)

	empty := Aggregate(nil, models.DashboardSnapshot{})
	assert.Nil(t, empty.AverageAccuracy)
	assert.NotNil(t, empty.RecentBacktests)
}

func TestAggregateDoesNotMutateInputs(t *testing.T) {
	list := []models.Model{model("1", models.StatusTrained, 0.5)}
	before := model("1", models.StatusTrained, 0.5)
	_ = Aggregate(list, models.DashboardSnapshot{})
	assert.Equal(t, before, list[0])
}

func TestDashboardServiceView(t *testing.T) {
	gw := newFakeGateway()
	gw.dashboard = models.DashboardSnapshot{TotalBacktests: 2}
	reg := NewRegistry()
	require.NoError(t, reg.Put(model("1", models.StatusTrained, 0.6)))

	view, err := NewDashboardService(gw, reg).View(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, view.TotalBacktests)
	assert.Equal(t, 1, view.TrainedModels)

	// recomputed per call
	require.NoError(t, reg.Put(model("2", models.StatusTraining)))
	view, err = NewDashboardService(gw, reg).View(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, view.TrainingModels)
	assert.Equal(t, 2, gw.count("dashboard"))
}
