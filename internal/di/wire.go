//go:build wireinject
// +build wireinject

package di

import (
	"StockBrief/pkg/config"
	"StockBrief/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisCache,
		ProvideNewsCache,
		ProvideKafkaProducer,
		ProvideClickHouseClient,

		// Remote services
		ProvidePositionSource,
		ProvideNewsSource,
		ProvideSummarizer,
		ProvideReportBuilder,
		ProvideMailer,

		// Use case and scheduling
		ProvideReportPipeline,
		ProvideScheduler,

		// Application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil, nil
}
