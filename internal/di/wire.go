//go:build wireinject
// +build wireinject

package di

import (
	"PriceBoard/pkg/config"
	"PriceBoard/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisCache,
		ProvideCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvidePredictionSource,

		// Repositories
		ProvideArchive,
		ProvidePublisher,

		// Use cases
		ProvideSnapshotStore,
		ProvideArchiveProcessor,
		ProvideChartUseCase,
		ProvideNewsUseCase,
		ProvideRefreshJob,
		ProvideRefreshQueue,

		// Transport
		ProvideRateLimiter,
		ProvideChartHandler,
		ProvideNewsHandler,
		ProvideHub,
		ProvideHTTPServer,
		ProvideKafkaConsumer,
		ProvideScheduler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
