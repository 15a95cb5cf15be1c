//go:build wireinject
// +build wireinject

package di

import (
	"MarketLens/pkg/config"
	"MarketLens/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideProducer,
		ProvideLogger,
		ProvideMetrics,

		// Core pipeline
		ProvideState,
		ProvideExchangeClient,
		ProvideProvider,
		ProvideRegistry,
		ProvideOrchestrator,

		// Sinks and stream
		ProvideArchive,
		ProvidePublisher,
		ProvideStream,

		// Serving layer
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
