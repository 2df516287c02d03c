package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"nodetree/application/commands"
	"nodetree/application/commands/bus"
	commandhandlers "nodetree/application/commands/handlers"
	"nodetree/application/ports"
	querybus "nodetree/application/queries/bus"
	queryhandlers "nodetree/application/queries/handlers"
	"nodetree/application/services"
	domainconfig "nodetree/domain/config"
	"nodetree/infrastructure/config"
	"nodetree/infrastructure/messaging"
	"nodetree/infrastructure/messaging/eventbridge"
	"nodetree/infrastructure/observability"
	"nodetree/infrastructure/persistence/dynamodb"
	"nodetree/infrastructure/persistence/memory"
	"nodetree/infrastructure/persistence/mongo"
	"nodetree/infrastructure/persistence/resilience"
	"nodetree/interfaces/http/rest"
	"nodetree/pkg/ratelimit"
)

const rateLimitSweepInterval = 5 * time.Minute

// ProvideLogLevel creates the level shared by the logger and the config watcher
func ProvideLogLevel(cfg *config.Config) (zap.AtomicLevel, error) {
	return zap.ParseAtomicLevel(cfg.LogLevel)
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}

	return logger.With(zap.String("environment", cfg.Environment)), nil
}

// ProvideDomainConfig applies deployment overrides to the domain rules
func ProvideDomainConfig(cfg *config.Config) (*domainconfig.DomainConfig, error) {
	domainCfg := domainconfig.LoadDomainConfig(cfg.Environment)
	domainCfg.EnforceParentExists = cfg.EnforceParentExists
	domainCfg.MaxTreeDepth = cfg.MaxTreeDepth
	if err := domainCfg.Validate(); err != nil {
		return nil, err
	}
	return domainCfg, nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideTracing installs the OTLP tracer provider when tracing is enabled.
// The result is nil otherwise.
func ProvideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	if !cfg.EnableTracing {
		return nil, func() {}, nil
	}

	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: "nodetree",
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialise tracing: %w", err)
	}

	cleanup := func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn("Failed to shut down tracer provider", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideNodeStore opens the configured backend and wraps it with tracing,
// the circuit breaker and retries, innermost first.
func ProvideNodeStore(
	ctx context.Context,
	cfg *config.Config,
	awsCfg aws.Config,
	_ *observability.TracerProvider,
	logger *zap.Logger,
) (ports.NodeStore, func(), error) {
	var (
		store   ports.NodeStore
		cleanup = func() {}
	)

	switch cfg.StoreBackend {
	case config.BackendDynamoDB:
		client := awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
			if cfg.DynamoDBEndpoint != "" {
				o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
			}
		})
		if cfg.DynamoDBEndpoint != "" && !cfg.IsProduction() {
			if err := dynamodb.EnsureTable(ctx, client, cfg.DynamoDBTable, cfg.ParentIndexName, logger); err != nil {
				return nil, nil, err
			}
		}
		store = dynamodb.NewNodeStore(client, cfg.DynamoDBTable, cfg.ParentIndexName, logger)

	case config.BackendMongo:
		mongoStore, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, logger)
		if err != nil {
			return nil, nil, err
		}
		store = mongoStore
		cleanup = func() {
			if err := mongoStore.Close(context.Background()); err != nil {
				logger.Warn("Failed to disconnect from MongoDB", zap.Error(err))
			}
		}

	case config.BackendMemory:
		store = memory.NewNodeStore()

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	if cfg.EnableTracing {
		store = observability.NewTracedStore(store, cfg.StoreBackend)
	}
	if cfg.BreakerEnabled {
		store = resilience.NewBreakerStore(store, resilience.DefaultBreakerConfig("node-store"), logger)
	}
	if cfg.StoreMaxRetries > 0 {
		retryCfg := resilience.DefaultRetryConfig()
		retryCfg.MaxRetries = cfg.StoreMaxRetries
		retryCfg.InitialDelay = cfg.StoreRetryDelay
		store = resilience.NewRetryingStore(store, retryCfg, logger)
	}

	logger.Info("Node store ready", zap.String("backend", cfg.StoreBackend))
	return store, cleanup, nil
}

// ProvideHealthChecker exposes the store's ping for readiness probes
func ProvideHealthChecker(store ports.NodeStore) ports.HealthChecker {
	if hc, ok := store.(ports.HealthChecker); ok {
		return hc
	}
	return nil
}

// ProvideCollector creates the Prometheus collector
func ProvideCollector() *observability.Collector {
	return observability.NewCollector("nodetree")
}

// ProvideRecorder combines the enabled metric sinks
func ProvideRecorder(
	cfg *config.Config,
	awsCfg aws.Config,
	collector *observability.Collector,
	logger *zap.Logger,
) observability.Recorder {
	var recorders []observability.Recorder
	if cfg.EnableMetrics {
		recorders = append(recorders, collector)
	}
	if cfg.EnableCloudWatchMetrics {
		namespace := fmt.Sprintf("NodeTree/%s", cfg.Environment)
		recorders = append(recorders,
			observability.NewCloudWatchMetrics(namespace, awscloudwatch.NewFromConfig(awsCfg), logger))
	}
	return observability.NewRecorders(recorders...)
}

// ProvideEventPublisher sends events to EventBridge when enabled, or to the
// log otherwise, and always feeds the node counters.
func ProvideEventPublisher(
	cfg *config.Config,
	awsCfg aws.Config,
	recorder observability.Recorder,
	logger *zap.Logger,
) ports.EventPublisher {
	var primary ports.EventPublisher = messaging.NewLoggingPublisher(logger)
	if cfg.EnableEvents {
		primary = eventbridge.NewPublisher(awseventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger)
	}
	return messaging.NewFanoutPublisher(primary, observability.NewEventCounter(recorder))
}

// ProvideCascadeDeleter creates the subtree deletion service
func ProvideCascadeDeleter(store ports.NodeStore, logger *zap.Logger) *services.CascadeDeleter {
	return services.NewCascadeDeleter(store, logger)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	store ports.NodeStore,
	publisher ports.EventPublisher,
	deleter *services.CascadeDeleter,
	domainCfg *domainconfig.DomainConfig,
	recorder observability.Recorder,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus()
	pipeline := bus.NewPipeline(
		bus.LoggingMiddleware(logger),
		bus.MetricsMiddleware(recorder),
	)

	createHandler := commandhandlers.NewCreateNodeHandler(store, publisher, domainCfg, logger)
	renameHandler := commandhandlers.NewRenameNodeHandler(store, publisher, domainCfg, logger)
	deleteHandler := commandhandlers.NewDeleteNodeHandler(deleter, publisher, logger)

	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandlerFunc
	}{
		{commands.CreateNodeCommand{}, func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			createCmd, ok := cmd.(commands.CreateNodeCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type %T", cmd)
			}
			return createHandler.Handle(ctx, createCmd)
		}},
		{commands.RenameNodeCommand{}, func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			renameCmd, ok := cmd.(commands.RenameNodeCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type %T", cmd)
			}
			return renameHandler.Handle(ctx, renameCmd)
		}},
		{commands.DeleteNodeCommand{}, func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			deleteCmd, ok := cmd.(commands.DeleteNodeCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type %T", cmd)
			}
			return deleteHandler.Handle(ctx, deleteCmd)
		}},
	}

	for _, reg := range registrations {
		if err := commandBus.Register(reg.cmd, pipeline.Execute(reg.handler)); err != nil {
			return nil, err
		}
	}

	return commandBus, nil
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(store ports.NodeStore, recorder observability.Recorder) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(recorder)

	if err := querybus.Register(queryBus, queryhandlers.NewListNodesHandler(store).Handle); err != nil {
		return nil, err
	}
	if err := querybus.Register(queryBus, queryhandlers.NewGetNodeHandler(store).Handle); err != nil {
		return nil, err
	}
	if err := querybus.Register(queryBus, queryhandlers.NewGetTreeHandler(store).Handle); err != nil {
		return nil, err
	}

	return queryBus, nil
}

// ProvideRateLimiter creates the per-IP limiter and its idle-key sweeper.
// The limiter is nil when RateLimitPerMinute is zero.
func ProvideRateLimiter(cfg *config.Config) (ratelimit.Limiter, func()) {
	if cfg.RateLimitPerMinute <= 0 {
		return nil, func() {}
	}

	limiter := ratelimit.NewPerMinuteLimiter(cfg.RateLimitPerMinute)
	ctx, cancel := context.WithCancel(context.Background())
	go limiter.Run(ctx, rateLimitSweepInterval)
	return limiter, cancel
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	health ports.HealthChecker,
	collector *observability.Collector,
	limiter ratelimit.Limiter,
	logger *zap.Logger,
) *rest.Router {
	options := rest.Options{
		EnableCORS:  cfg.EnableCORS,
		CORSOrigins: cfg.CORSOrigins,
		Debug:       cfg.IsDevelopment(),
		Tracing:     cfg.EnableTracing,
		RateLimiter: limiter,
	}
	if cfg.EnableMetrics {
		options.Metrics = collector
	}
	return rest.NewRouter(commandBus, queryBus, health, options, logger)
}
