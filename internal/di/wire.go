//go:build wireinject
// +build wireinject

package di

import (
	"RankPulse/pkg/config"
	"RankPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideCacheStore,
		ProvideReportPublisher,

		// Provider access
		ProvideRateLimiter,
		ProvideRankingProvider,
		ProvideKeyedCache,

		// Analytics
		ProvideDetector,
		ProvideTracker,

		// Use cases
		ProvideFetchOrchestrator,
		ProvideReportBuilder,
		ProvideReportService,

		// HTTP surface
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
