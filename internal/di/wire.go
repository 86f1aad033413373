//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"TradeDesk/internal/domain/repository"
	"TradeDesk/internal/handler/api"
	"TradeDesk/internal/service/gateway"
	"TradeDesk/internal/usecase"
	"TradeDesk/pkg/config"
	"TradeDesk/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideClickHouseClient,
		ProvideBarArchive,
		ProvideCache,
		ProvideSymbolCache,
		ProvideLocker,
		ProvideEventPublisher,

		// Backend gateway
		ProvideGateway,
		wire.Bind(new(repository.Gateway), new(*gateway.Client)),

		// Use cases
		usecase.NewRegistry,
		ProvideQueryEngine,
		wire.Bind(new(usecase.SymbolCatalog), new(*usecase.QueryEngine)),
		usecase.NewLifecycleController,
		usecase.NewDashboardService,
		usecase.NewBacktestRunner,
		usecase.NewStrategyCatalog,
		ProvideRefresher,

		// Notifications
		ProvideStatusHandler,
		ProvideKafkaConsumer,
		ProvideWatcher,

		// HTTP
		ProvideRateLimiter,
		api.NewModelsHandler,
		api.NewDataHandler,
		api.NewDashboardHandler,
		api.NewStrategiesHandler,
		api.NewHealthHandler,
		api.NewRouter,

		ProvideApp,
	)
	return &server.App{}, nil
}
