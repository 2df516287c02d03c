package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nodetree/domain/events"
	"nodetree/tests/fixtures"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*eventbridge.PutEventsOutput), args.Error(1)
}

func created(id string) events.DomainEvent {
	return events.NewNodeCreated(fixtures.NodeID(id), "Docs", fixtures.NodeID(""), fixtures.BaseTime)
}

func TestPublisher_PublishSendsEntry(t *testing.T) {
	client := new(mockClient)
	client.On("PutEvents", mock.Anything, mock.MatchedBy(func(in *eventbridge.PutEventsInput) bool {
		require.Len(t, in.Entries, 1)
		entry := in.Entries[0]

		var detail map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(*entry.Detail), &detail))

		return *entry.EventBusName == "nodes" &&
			*entry.Source == Source &&
			*entry.DetailType == events.TypeNodeCreated &&
			detail["nodeId"] == "n1" &&
			detail["parentId"] == nil
	})).Return(&eventbridge.PutEventsOutput{}, nil)

	p := NewPublisher(client, "nodes", zap.NewNop())

	require.NoError(t, p.Publish(context.Background(), created("n1")))
	client.AssertExpectations(t)
}

func TestPublisher_BatchesByTen(t *testing.T) {
	client := new(mockClient)
	client.On("PutEvents", mock.Anything, mock.Anything).Return(&eventbridge.PutEventsOutput{}, nil)

	batch := make([]events.DomainEvent, 0, 23)
	for i := 0; i < 23; i++ {
		batch = append(batch, created("n"))
	}

	p := NewPublisher(client, "nodes", zap.NewNop())
	require.NoError(t, p.PublishBatch(context.Background(), batch))

	require.Len(t, client.Calls, 3)
	sizes := []int{}
	for _, call := range client.Calls {
		sizes = append(sizes, len(call.Arguments.Get(1).(*eventbridge.PutEventsInput).Entries))
	}
	assert.Equal(t, []int{10, 10, 3}, sizes)
}

func TestPublisher_FailedEntries(t *testing.T) {
	client := new(mockClient)
	client.On("PutEvents", mock.Anything, mock.Anything).Return(&eventbridge.PutEventsOutput{
		FailedEntryCount: 1,
		Entries: []types.PutEventsResultEntry{
			{ErrorCode: aws.String("InternalFailure"), ErrorMessage: aws.String("try again")},
		},
	}, nil)

	p := NewPublisher(client, "nodes", zap.NewNop())
	err := p.Publish(context.Background(), created("n1"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 events failed to publish")
}

func TestPublisher_ClientError(t *testing.T) {
	client := new(mockClient)
	client.On("PutEvents", mock.Anything, mock.Anything).Return(nil, errors.New("network down"))

	p := NewPublisher(client, "nodes", zap.NewNop())
	err := p.Publish(context.Background(), created("n1"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "network down")
}

func TestPublisher_EmptyBatch(t *testing.T) {
	client := new(mockClient)
	p := NewPublisher(client, "nodes", zap.NewNop())

	require.NoError(t, p.PublishBatch(context.Background(), nil))
	client.AssertNotCalled(t, "PutEvents", mock.Anything, mock.Anything)
}
