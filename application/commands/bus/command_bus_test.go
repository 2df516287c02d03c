package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pingCommand struct{ Value string }

func (c pingCommand) Validate() error {
	if c.Value == "" {
		return errors.New("value is required")
	}
	return nil
}

type recordingMetrics struct {
	names []string
	errs  []error
}

func (m *recordingMetrics) RecordCommandExecution(_ context.Context, name string, _ time.Duration, err error) {
	m.names = append(m.names, name)
	m.errs = append(m.errs, err)
}

func echoHandler() CommandHandler {
	return CommandHandlerFunc(func(_ context.Context, cmd Command) (interface{}, error) {
		return cmd.(pingCommand).Value, nil
	})
}

func TestCommandBus_Send(t *testing.T) {
	b := NewCommandBus()
	require.NoError(t, b.Register(pingCommand{}, echoHandler()))

	result, err := b.Send(context.Background(), pingCommand{Value: "pong"})

	require.NoError(t, err)
	assert.Equal(t, "pong", result)
}

func TestCommandBus_ValidationRunsFirst(t *testing.T) {
	b := NewCommandBus()
	called := false
	require.NoError(t, b.Register(pingCommand{}, CommandHandlerFunc(func(context.Context, Command) (interface{}, error) {
		called = true
		return nil, nil
	})))

	_, err := b.Send(context.Background(), pingCommand{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "command validation failed")
	assert.False(t, called)
}

func TestCommandBus_DuplicateAndMissingHandlers(t *testing.T) {
	b := NewCommandBus()
	require.NoError(t, b.Register(pingCommand{}, echoHandler()))
	assert.Error(t, b.Register(pingCommand{}, echoHandler()))

	_, err := NewCommandBus().Send(context.Background(), pingCommand{Value: "x"})
	assert.ErrorIs(t, err, ErrHandlerNotFound)
}

func TestCommandBus_WrapsHandlerErrors(t *testing.T) {
	boom := errors.New("boom")
	b := NewCommandBus()
	require.NoError(t, b.Register(pingCommand{}, CommandHandlerFunc(func(context.Context, Command) (interface{}, error) {
		return nil, boom
	})))

	_, err := b.Send(context.Background(), pingCommand{Value: "x"})

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "command handler failed")
}

func TestPipeline_AppliesMiddlewareInOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next CommandHandler) CommandHandler {
			return CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
				order = append(order, name)
				return next.Handle(ctx, cmd)
			})
		}
	}
	metrics := &recordingMetrics{}
	handler := NewPipeline(tag("first"), LoggingMiddleware(zap.NewNop()), MetricsMiddleware(metrics), tag("second")).
		Execute(echoHandler())

	result, err := handler.Handle(context.Background(), pingCommand{Value: "v"})

	require.NoError(t, err)
	assert.Equal(t, "v", result)
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, []string{"pingCommand"}, metrics.names)
	assert.Equal(t, []error{nil}, metrics.errs)
}
