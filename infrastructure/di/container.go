package di

import (
	"go.uber.org/zap"

	"nodetree/application/commands/bus"
	"nodetree/application/ports"
	querybus "nodetree/application/queries/bus"
	"nodetree/infrastructure/config"
	"nodetree/infrastructure/observability"
	"nodetree/interfaces/http/rest"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	LogLevel   zap.AtomicLevel
	Store      ports.NodeStore
	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
	Collector  *observability.Collector
	Tracing    *observability.TracerProvider
	Router     *rest.Router
}
