package usecase

import (
	"context"
	"sync"
	"time"

	"TradeDesk/internal/domain/models"
)

// fakeGateway records calls and returns canned values. Hooks, when set, run
// instead of the canned value and may block to stage races.
type fakeGateway struct {
	mu    sync.Mutex
	calls map[string]int

	symbols    []string
	symbolsErr error
	bars       []models.HistoricalBar
	barsErr    error
	dashboard  models.DashboardSnapshot
	list       []models.Model
	listErr    error
	created    models.Model
	createErr  error
	trainErr   error
	prediction models.PredictionResult
	deleteErr  error
	backtest   models.BacktestResult
	strategies []models.Strategy
	stratErr   error
	stratSpec  models.StrategySpec

	onTrain   func(ctx context.Context, id string) error
	onDelete  func(ctx context.Context, id string) error
	onList    func(ctx context.Context) ([]models.Model, error)
	onPredict func(ctx context.Context, id string) (models.PredictionResult, error)
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{calls: make(map[string]int)}
}

func (f *fakeGateway) record(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeGateway) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeGateway) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeGateway) Symbols(ctx context.Context) ([]string, error) {
	f.record("symbols")
	return f.symbols, f.symbolsErr
}

func (f *fakeGateway) Historical(ctx context.Context, symbol string, tf models.Timeframe, days int) ([]models.HistoricalBar, error) {
	f.record("historical")
	return f.bars, f.barsErr
}

func (f *fakeGateway) Dashboard(ctx context.Context) (models.DashboardSnapshot, error) {
	f.record("dashboard")
	return f.dashboard, nil
}

func (f *fakeGateway) ListModels(ctx context.Context) ([]models.Model, error) {
	f.record("list")
	if f.onList != nil {
		return f.onList(ctx)
	}
	return f.list, f.listErr
}

func (f *fakeGateway) CreateModel(ctx context.Context, spec models.ModelSpec) (models.Model, error) {
	f.record("create")
	if f.createErr != nil {
		return models.Model{}, f.createErr
	}
	m := f.created
	m.Name = spec.Name
	m.Symbol = spec.Symbol
	m.ModelType = spec.ModelType
	m.Timeframe = spec.Timeframe
	m.Target = spec.Target
	return m, nil
}

func (f *fakeGateway) TrainModel(ctx context.Context, id string, hp models.Hyperparameters) error {
	f.record("train")
	if f.onTrain != nil {
		return f.onTrain(ctx, id)
	}
	return f.trainErr
}

func (f *fakeGateway) Predict(ctx context.Context, id string) (models.PredictionResult, error) {
	f.record("predict")
	if f.onPredict != nil {
		return f.onPredict(ctx, id)
	}
	return f.prediction, nil
}

func (f *fakeGateway) DeleteModel(ctx context.Context, id string) error {
	f.record("delete")
	if f.onDelete != nil {
		return f.onDelete(ctx, id)
	}
	return f.deleteErr
}

func (f *fakeGateway) FeatureImportance(ctx context.Context, id string) ([]models.FeatureWeight, error) {
	f.record("features")
	return []models.FeatureWeight{{Feature: "rsi", Importance: 0.4}}, nil
}

func (f *fakeGateway) ListStrategies(ctx context.Context) ([]models.Strategy, error) {
	f.record("strategies")
	return f.strategies, f.stratErr
}

func (f *fakeGateway) CreateStrategy(ctx context.Context, spec models.StrategySpec) (models.Strategy, error) {
	f.record("create_strategy")
	if f.stratErr != nil {
		return models.Strategy{}, f.stratErr
	}
	f.mu.Lock()
	f.stratSpec = spec
	f.mu.Unlock()
	return models.Strategy{ID: "s1", Name: spec.Name, StrategyType: spec.StrategyType, IsActive: true}, nil
}

func (f *fakeGateway) RunBacktest(ctx context.Context, spec models.BacktestSpec) (models.BacktestResult, error) {
	f.record("backtest")
	return f.backtest, nil
}

func (f *fakeGateway) KiteStatus(ctx context.Context) (models.KiteStatus, error) {
	f.record("kite_status")
	return models.KiteStatus{Connected: true, Status: "Connected", LastChecked: time.Now()}, nil
}

func (f *fakeGateway) RefreshKite(ctx context.Context) (models.KiteStatus, error) {
	f.record("kite_refresh")
	return models.KiteStatus{Connected: true}, nil
}

func (f *fakeGateway) Health(ctx context.Context) error {
	f.record("health")
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []models.Event
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, ev models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) types() []models.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type staticCatalog []string

func (c staticCatalog) Symbols() []string { return c }

func model(id string, status models.Status, acc ...float64) models.Model {
	m := models.Model{ID: id, Name: "m" + id, ModelType: models.ModelRandomForest, Symbol: "TCS", Timeframe: models.TFDay, Status: status}
	if len(acc) > 0 {
		a := acc[0]
		m.Accuracy = &a
	}
	return m
}

func remote(kind models.RemoteKind) error {
	return &models.RemoteError{Kind: kind, Op: "test", Err: context.DeadlineExceeded}
}
