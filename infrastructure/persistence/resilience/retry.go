// Package resilience decorates a node store with retries and a circuit
// breaker.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"nodetree/application/ports"
	"nodetree/domain/core/entities"
	"nodetree/domain/core/valueobjects"
	pkgerrors "nodetree/pkg/errors"
)

// RetryConfig configures retry behavior for store operations.
type RetryConfig struct {
	MaxRetries    int           // Maximum number of retry attempts
	InitialDelay  time.Duration // Delay before the first retry
	MaxDelay      time.Duration // Cap on any single delay
	BackoffFactor float64       // Multiplier applied per attempt
	JitterFactor  float64       // Random variation, 0.0 to 1.0

	// OnRetry is called before each retry with the attempt number.
	OnRetry func(operation string, attempt int, err error)
}

// DefaultRetryConfig returns sensible defaults for retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		JitterFactor:  0.1,
	}
}

// RetryingStore retries idempotent store operations with exponential
// backoff. Create is never retried since a lost response could otherwise
// produce a duplicate node.
type RetryingStore struct {
	inner  ports.NodeStore
	config RetryConfig
	logger *zap.Logger

	mu   sync.Mutex
	rand *rand.Rand
}

// NewRetryingStore wraps inner with retry logic
func NewRetryingStore(inner ports.NodeStore, config RetryConfig, logger *zap.Logger) *RetryingStore {
	return &RetryingStore{
		inner:  inner,
		config: config,
		logger: logger.Named("retry_node_store"),
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Create passes through without retries
func (r *RetryingStore) Create(ctx context.Context, name string, parent valueobjects.NodeID) (*entities.Node, error) {
	return r.inner.Create(ctx, name, parent)
}

// FindAll retries on transient failures
func (r *RetryingStore) FindAll(ctx context.Context) ([]*entities.Node, error) {
	var result []*entities.Node
	err := r.executeWithRetry(ctx, "FindAll", func() error {
		var err error
		result, err = r.inner.FindAll(ctx)
		return err
	})
	return result, err
}

// FindByID retries on transient failures
func (r *RetryingStore) FindByID(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	var result *entities.Node
	err := r.executeWithRetry(ctx, "FindByID", func() error {
		var err error
		result, err = r.inner.FindByID(ctx, id)
		return err
	})
	return result, err
}

// FindChildren retries on transient failures
func (r *RetryingStore) FindChildren(ctx context.Context, parentID valueobjects.NodeID) ([]*entities.Node, error) {
	var result []*entities.Node
	err := r.executeWithRetry(ctx, "FindChildren", func() error {
		var err error
		result, err = r.inner.FindChildren(ctx, parentID)
		return err
	})
	return result, err
}

// DeleteByID is idempotent, so it is retried like a read.
func (r *RetryingStore) DeleteByID(ctx context.Context, id valueobjects.NodeID) error {
	return r.executeWithRetry(ctx, "DeleteByID", func() error {
		return r.inner.DeleteByID(ctx, id)
	})
}

// Rename sets an absolute value and is safe to repeat.
func (r *RetryingStore) Rename(ctx context.Context, id valueobjects.NodeID, name string) (*entities.Node, error) {
	var result *entities.Node
	err := r.executeWithRetry(ctx, "Rename", func() error {
		var err error
		result, err = r.inner.Rename(ctx, id, name)
		return err
	})
	return result, err
}

// Ping forwards to the wrapped store when it supports health checks.
func (r *RetryingStore) Ping(ctx context.Context) error {
	return ping(ctx, r.inner)
}

func (r *RetryingStore) executeWithRetry(ctx context.Context, operation string, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("context cancelled before attempt %d: %w", attempt, err)
			}
			return err
		}

		err := fn()
		if err == nil {
			if attempt > 0 {
				r.logger.Info("operation succeeded after retry",
					zap.String("operation", operation),
					zap.Int("attempt", attempt),
				)
			}
			return nil
		}

		if !shouldRetry(err) {
			return err
		}
		lastErr = err

		if attempt >= r.config.MaxRetries {
			break
		}

		delay := r.calculateDelay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(operation, attempt+1, err)
		}

		r.logger.Warn("retrying operation",
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("context cancelled during retry delay: %w", ctx.Err())
		}
	}

	return fmt.Errorf("operation %s failed after %d attempts: %w", operation, r.config.MaxRetries+1, lastErr)
}

// shouldRetry reports whether err may be transient. Missing nodes, bad
// input and cancellation are final.
func shouldRetry(err error) bool {
	switch {
	case errors.Is(err, ports.ErrNodeNotFound),
		errors.Is(err, ports.ErrMalformedNode),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		pkgerrors.IsNotFound(err),
		pkgerrors.IsValidation(err),
		pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable):
		return false
	}
	return true
}

func (r *RetryingStore) calculateDelay(attempt int) time.Duration {
	base := float64(r.config.InitialDelay) * math.Pow(r.config.BackoffFactor, float64(attempt))
	if base > float64(r.config.MaxDelay) {
		base = float64(r.config.MaxDelay)
	}

	r.mu.Lock()
	jitter := r.config.JitterFactor * base * (r.rand.Float64()*2 - 1)
	r.mu.Unlock()

	delay := base + jitter
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

func ping(ctx context.Context, store ports.NodeStore) error {
	if hc, ok := store.(ports.HealthChecker); ok {
		return hc.Ping(ctx)
	}
	return nil
}

var (
	_ ports.NodeStore     = (*RetryingStore)(nil)
	_ ports.HealthChecker = (*RetryingStore)(nil)
)
