//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package di

import (
	"context"

	"nodetree/infrastructure/config"
)

// Injectors from wire.go:

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	atomicLevel, err := ProvideLogLevel(cfg)
	if err != nil {
		return nil, nil, err
	}
	logger, err := ProvideLogger(cfg, atomicLevel)
	if err != nil {
		return nil, nil, err
	}
	awsConfig, err := ProvideAWSConfig(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	tracerProvider, cleanup, err := ProvideTracing(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	nodeStore, cleanup2, err := ProvideNodeStore(ctx, cfg, awsConfig, tracerProvider, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	collector := ProvideCollector()
	recorder := ProvideRecorder(cfg, awsConfig, collector, logger)
	eventPublisher := ProvideEventPublisher(cfg, awsConfig, recorder, logger)
	cascadeDeleter := ProvideCascadeDeleter(nodeStore, logger)
	domainConfig, err := ProvideDomainConfig(cfg)
	if err != nil {
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	commandBus, err := ProvideCommandBus(nodeStore, eventPublisher, cascadeDeleter, domainConfig, recorder, logger)
	if err != nil {
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	queryBus, err := ProvideQueryBus(nodeStore, recorder)
	if err != nil {
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	healthChecker := ProvideHealthChecker(nodeStore)
	limiter, cleanup3 := ProvideRateLimiter(cfg)
	router := ProvideRouter(cfg, commandBus, queryBus, healthChecker, collector, limiter, logger)
	container := &Container{
		Config:     cfg,
		Logger:     logger,
		LogLevel:   atomicLevel,
		Store:      nodeStore,
		CommandBus: commandBus,
		QueryBus:   queryBus,
		Collector:  collector,
		Tracing:    tracerProvider,
		Router:     router,
	}
	return container, func() {
		cleanup3()
		cleanup2()
		cleanup()
	}, nil
}
