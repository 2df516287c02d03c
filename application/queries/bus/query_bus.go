package bus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"
)

// Query represents a read-only query
type Query interface {
	Validate() error
}

var (
	// ErrHandlerNotFound is returned when no handler is registered for a query
	ErrHandlerNotFound = errors.New("query handler not found")

	// ErrResultType is returned when Ask expects a result type other than
	// the one the registered handler produces
	ErrResultType = errors.New("query result type mismatch")
)

// Metrics records query executions
type Metrics interface {
	RecordQueryExecution(ctx context.Context, queryName string, duration time.Duration, err error)
}

type route struct {
	result reflect.Type
	run    func(ctx context.Context, query Query) (any, error)
}

// QueryBus routes each query type to exactly one handler and times every
// execution.
type QueryBus struct {
	mu      sync.RWMutex
	routes  map[reflect.Type]route
	metrics Metrics
}

// NewQueryBus creates a new query bus. metrics may be nil.
func NewQueryBus(metrics Metrics) *QueryBus {
	return &QueryBus{
		routes:  make(map[reflect.Type]route),
		metrics: metrics,
	}
}

// Register binds handle to queries of type Q. A query type can only be
// registered once.
func Register[Q Query, R any](b *QueryBus, handle func(ctx context.Context, query Q) (R, error)) error {
	if handle == nil {
		return fmt.Errorf("nil handler for query type %s", reflect.TypeFor[Q]().Name())
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeFor[Q]()
	if _, exists := b.routes[t]; exists {
		return fmt.Errorf("handler already registered for query type %s", t.Name())
	}

	b.routes[t] = route{
		result: reflect.TypeFor[R](),
		run: func(ctx context.Context, query Query) (any, error) {
			return handle(ctx, query.(Q))
		},
	}
	return nil
}

// Ask validates the query, runs its handler and returns the result as R
func Ask[R any, Q Query](ctx context.Context, b *QueryBus, query Q) (R, error) {
	var zero R

	if err := query.Validate(); err != nil {
		return zero, fmt.Errorf("query validation failed: %w", err)
	}

	t := reflect.TypeFor[Q]()
	b.mu.RLock()
	rt, exists := b.routes[t]
	b.mu.RUnlock()

	if !exists {
		return zero, fmt.Errorf("%w: %s", ErrHandlerNotFound, t)
	}
	if want := reflect.TypeFor[R](); rt.result != want {
		return zero, fmt.Errorf("%w: %s answers %s, not %s", ErrResultType, t.Name(), rt.result, want)
	}

	start := time.Now()
	result, err := rt.run(ctx, query)
	if b.metrics != nil {
		b.metrics.RecordQueryExecution(ctx, t.Name(), time.Since(start), err)
	}
	if err != nil {
		return zero, fmt.Errorf("query handler failed: %w", err)
	}

	typed, _ := result.(R)
	return typed, nil
}
