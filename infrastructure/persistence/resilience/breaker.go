package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"nodetree/application/ports"
	"nodetree/domain/core/entities"
	"nodetree/domain/core/valueobjects"
	pkgerrors "nodetree/pkg/errors"
)

// BreakerConfig holds configuration for the store circuit breaker
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns a default configuration for the circuit breaker
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// BreakerStore stops calling the wrapped store while it keeps failing.
// An open circuit surfaces as an unavailable error.
type BreakerStore struct {
	inner  ports.NodeStore
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewBreakerStore wraps inner with a circuit breaker
func NewBreakerStore(inner ports.NodeStore, config BreakerConfig, logger *zap.Logger) *BreakerStore {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: isHealthyOutcome,
	})

	return &BreakerStore{inner: inner, cb: cb, logger: logger}
}

// State reports the current breaker state
func (b *BreakerStore) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerStore) Create(ctx context.Context, name string, parent valueobjects.NodeID) (*entities.Node, error) {
	return executeNode(b, func() (*entities.Node, error) { return b.inner.Create(ctx, name, parent) })
}

func (b *BreakerStore) FindAll(ctx context.Context) ([]*entities.Node, error) {
	return executeNodes(b, func() ([]*entities.Node, error) { return b.inner.FindAll(ctx) })
}

func (b *BreakerStore) FindByID(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	return executeNode(b, func() (*entities.Node, error) { return b.inner.FindByID(ctx, id) })
}

func (b *BreakerStore) FindChildren(ctx context.Context, parentID valueobjects.NodeID) ([]*entities.Node, error) {
	return executeNodes(b, func() ([]*entities.Node, error) { return b.inner.FindChildren(ctx, parentID) })
}

func (b *BreakerStore) DeleteByID(ctx context.Context, id valueobjects.NodeID) error {
	_, err := b.execute(func() (interface{}, error) { return nil, b.inner.DeleteByID(ctx, id) })
	return err
}

func (b *BreakerStore) Rename(ctx context.Context, id valueobjects.NodeID, name string) (*entities.Node, error) {
	return executeNode(b, func() (*entities.Node, error) { return b.inner.Rename(ctx, id, name) })
}

// Ping bypasses the breaker so readiness reflects the real backend.
func (b *BreakerStore) Ping(ctx context.Context) error {
	return ping(ctx, b.inner)
}

func (b *BreakerStore) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		b.logger.Warn("Circuit breaker rejected store call",
			zap.String("breaker", b.cb.Name()),
			zap.Error(err),
		)
		return nil, pkgerrors.NewUnavailableError("node store").WithCause(err)
	}
	return result, err
}

func executeNode(b *BreakerStore, fn func() (*entities.Node, error)) (*entities.Node, error) {
	result, err := b.execute(func() (interface{}, error) { return fn() })
	node, _ := result.(*entities.Node)
	return node, err
}

func executeNodes(b *BreakerStore, fn func() ([]*entities.Node, error)) ([]*entities.Node, error) {
	result, err := b.execute(func() (interface{}, error) { return fn() })
	nodes, _ := result.([]*entities.Node)
	return nodes, err
}

// isHealthyOutcome treats answers about the data, such as a missing node,
// as a working backend.
func isHealthyOutcome(err error) bool {
	return err == nil ||
		errors.Is(err, ports.ErrNodeNotFound) ||
		errors.Is(err, ports.ErrMalformedNode) ||
		errors.Is(err, context.Canceled) ||
		pkgerrors.IsNotFound(err) ||
		pkgerrors.IsValidation(err)
}

var (
	_ ports.NodeStore     = (*BreakerStore)(nil)
	_ ports.HealthChecker = (*BreakerStore)(nil)
)
