//go:build wireinject
// +build wireinject

package di

import (
	"PowerCast/pkg/config"
	"PowerCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Logging and metrics
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCache,
		ProvideRunQueue,

		// Repositories (with business logic)
		ProvideSeriesStore,
		ProvideObservationPublisher,
		ProvideGridFeedStream,

		// Use cases
		ProvideObservationProcessor,
		ProvideObservationCollector,
		ProvideKafkaObservationsHandler,
		ProvideBacktestRunner,
		ProvideSeriesUseCase,
		ProvideReaders,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
