//go:build wireinject
// +build wireinject

package di

import (
	"LevelWatch/pkg/config"
	"LevelWatch/pkg/server"

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
		ProvideAlertLog,
		ProvideKafkaPublisher,
		ProvideNotifyQueue,

		// Repositories and external services
		ProvideLevelStore,
		ProvidePriceFeed,
		ProvideZoneFinder,

		// Delivery
		ProvideWSHub,
		ProvideAlertPipeline,

		// Use cases
		ProvideMonitor,
		ProvideSummaryBroadcaster,
		ProvideToggleReconciler,

		// HTTP and application server
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
