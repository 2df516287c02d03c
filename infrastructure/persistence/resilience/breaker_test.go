package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nodetree/application/ports"
	"nodetree/infrastructure/persistence/memory"
	pkgerrors "nodetree/pkg/errors"
	"nodetree/tests/fixtures"
	"nodetree/tests/mocks"
)

func testBreakerConfig() BreakerConfig {
	cfg := DefaultBreakerConfig("test-store")
	cfg.MinRequests = 2
	cfg.FailureThreshold = 0.5
	cfg.Timeout = time.Minute
	return cfg
}

func TestBreakerStore_OpensAfterFailures(t *testing.T) {
	inner := new(mocks.MockNodeStore)
	inner.On("FindAll", mock.Anything).Return(nil, errors.New("connection reset"))

	store := NewBreakerStore(inner, testBreakerConfig(), zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := store.FindAll(ctx)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, store.State())

	_, err := store.FindAll(ctx)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	inner.AssertNumberOfCalls(t, "FindAll", 2)
}

func TestBreakerStore_NotFoundKeepsCircuitClosed(t *testing.T) {
	inner := new(mocks.MockNodeStore)
	id := fixtures.NodeID("missing")
	inner.On("FindByID", mock.Anything, id).Return(nil, ports.ErrNodeNotFound)

	store := NewBreakerStore(inner, testBreakerConfig(), zap.NewNop())

	for i := 0; i < 5; i++ {
		_, err := store.FindByID(context.Background(), id)
		assert.ErrorIs(t, err, ports.ErrNodeNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, store.State())
}

func TestBreakerStore_MalformedRecordKeepsCircuitClosed(t *testing.T) {
	inner := new(mocks.MockNodeStore)
	id := fixtures.NodeID("p")
	inner.On("FindChildren", mock.Anything, id).Return(nil, ports.ErrMalformedNode)

	store := NewBreakerStore(inner, testBreakerConfig(), zap.NewNop())

	for i := 0; i < 5; i++ {
		_, err := store.FindChildren(context.Background(), id)
		assert.ErrorIs(t, err, ports.ErrMalformedNode)
	}
	assert.Equal(t, gobreaker.StateClosed, store.State())
	inner.AssertNumberOfCalls(t, "FindChildren", 5)
}

func TestBreakerStore_PassesThroughResults(t *testing.T) {
	ctx := context.Background()
	store := NewBreakerStore(memory.NewNodeStore(), DefaultBreakerConfig("memory"), zap.NewNop())

	root, err := store.Create(ctx, "Docs", fixtures.NodeID(""))
	require.NoError(t, err)

	child, err := store.Create(ctx, "Report", root.ID())
	require.NoError(t, err)

	children, err := store.FindChildren(ctx, root.ID())
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, child.ID(), children[0].ID())

	renamed, err := store.Rename(ctx, root.ID(), "Documents")
	require.NoError(t, err)
	assert.Equal(t, "Documents", renamed.Name())

	require.NoError(t, store.DeleteByID(ctx, child.ID()))
	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	assert.NoError(t, store.Ping(ctx))
}
