//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"DipScan/internal/domain/repository"
	"DipScan/internal/domain/service"
	"DipScan/internal/usecase"
	"DipScan/pkg/config"
	"DipScan/pkg/metrics"
	"DipScan/pkg/server"
)

var scannerSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	wire.Bind(new(repository.Metrics), new(*metrics.Recorder)),

	// Infrastructure clients
	ProvideCache,
	ProvideClickHouseClient,
	ProvideKafkaProducer,

	// Repositories
	ProvidePriceStore,
	ProvidePriceProvider,

	// Domain services
	ProvideEstimator,
	ProvideClassifier,
	ProvideScannerSettings,

	usecase.NewScanner,
)

// InitializeScanner wires a one-shot scanner writing files and the console summary.
func InitializeScanner(cfg *config.Config) (*usecase.Scanner, func(), error) {
	wire.Build(
		scannerSet,
		ProvideScanSinks,
	)
	return nil, nil, nil
}

// InitializeApp wires the dashboard application.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		scannerSet,
		usecase.NewReportStore,
		ProvideHub,
		ProvideServeSinks,
		wire.Bind(new(service.Scanner), new(*usecase.Scanner)),
		usecase.NewScanRunner,
		ProvideDashboardHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}
