package repository

import (
	"context"
	"time"

	"TradeDesk/internal/domain/models"
)

// Gateway is the sole network boundary to the compute backend.
// Implementations shape requests and normalize failures into *models.RemoteError;
// they carry no lifecycle logic.
type Gateway interface {
	Symbols(ctx context.Context) ([]string, error)
	Historical(ctx context.Context, symbol string, tf models.Timeframe, days int) ([]models.HistoricalBar, error)
	Dashboard(ctx context.Context) (models.DashboardSnapshot, error)

	ListModels(ctx context.Context) ([]models.Model, error)
	CreateModel(ctx context.Context, spec models.ModelSpec) (models.Model, error)
	TrainModel(ctx context.Context, id string, hp models.Hyperparameters) error
	Predict(ctx context.Context, id string) (models.PredictionResult, error)
	DeleteModel(ctx context.Context, id string) error
	FeatureImportance(ctx context.Context, id string) ([]models.FeatureWeight, error)

	ListStrategies(ctx context.Context) ([]models.Strategy, error)
	CreateStrategy(ctx context.Context, spec models.StrategySpec) (models.Strategy, error)
	RunBacktest(ctx context.Context, spec models.BacktestSpec) (models.BacktestResult, error)
	KiteStatus(ctx context.Context) (models.KiteStatus, error)
	RefreshKite(ctx context.Context) (models.KiteStatus, error)
	Health(ctx context.Context) error
}

// EventPublisher emits lifecycle events for downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, ev models.Event) error
	Close() error
}

// BarArchive keeps full historical query results for offline use.
type BarArchive interface {
	StoreBars(ctx context.Context, symbol string, tf models.Timeframe, bars []models.HistoricalBar) error
	Health(ctx context.Context) error
	Close() error
}

// SymbolCache holds the symbol catalogue between query sessions.
type SymbolCache interface {
	GetSymbols(ctx context.Context) ([]string, bool, error)
	SetSymbols(ctx context.Context, symbols []string, ttl time.Duration) error
}

// Locker serializes work across replicas.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

type Metrics interface {
	RecordRequest(op, result string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordTransition(op string, from, to models.Status)
	RecordRegistrySize(n int)
}
