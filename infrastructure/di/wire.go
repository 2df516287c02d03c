//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"nodetree/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogLevel,
	ProvideLogger,
	ProvideDomainConfig,
	ProvideAWSConfig,
	ProvideTracing,
	ProvideNodeStore,
	ProvideHealthChecker,
	ProvideCollector,
	ProvideRecorder,
	ProvideEventPublisher,
	ProvideCascadeDeleter,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideRateLimiter,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
