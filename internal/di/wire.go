//go:build wireinject
// +build wireinject

package di

import (
	"WhaleRadar/pkg/config"
	"WhaleRadar/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogSink,
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Repositories
		ProvideCandleStore,
		ProvideSignalHub,
		ProvideSignalPublisher,
		ProvideSignalCache,
		ProvideMarketStream,

		// Pipeline
		ProvideEngine,
		ProvideScanner,
		ProvideWindower,
		ProvideTradeCollector,
		ProvideCandlesUseCase,

		// HTTP
		ProvideRadarHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
