package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// CloudWatchClient is the subset of the CloudWatch API used here
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics sends command, query and node counts to CloudWatch.
// Send failures are logged and never affect the request.
type CloudWatchMetrics struct {
	namespace string
	client    CloudWatchClient
	logger    *zap.Logger
	now       func() time.Time
}

// NewCloudWatchMetrics creates a new metrics instance
func NewCloudWatchMetrics(namespace string, client CloudWatchClient, logger *zap.Logger) *CloudWatchMetrics {
	return &CloudWatchMetrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
		now:       time.Now,
	}
}

// RecordCommandExecution records metrics for command execution
func (m *CloudWatchMetrics) RecordCommandExecution(ctx context.Context, commandName string, duration time.Duration, err error) {
	m.recordExecution(ctx, "Command", "CommandName", commandName, duration, err)
}

// RecordQueryExecution records metrics for query execution
func (m *CloudWatchMetrics) RecordQueryExecution(ctx context.Context, queryName string, duration time.Duration, err error) {
	m.recordExecution(ctx, "Query", "QueryName", queryName, duration, err)
}

// RecordNodesCreated records a count of created nodes
func (m *CloudWatchMetrics) RecordNodesCreated(ctx context.Context, n int) {
	m.put(ctx, m.datum("NodesCreated", float64(n), types.StandardUnitCount))
}

// RecordNodesDeleted records a count of removed nodes
func (m *CloudWatchMetrics) RecordNodesDeleted(ctx context.Context, n int) {
	m.put(ctx, m.datum("NodesDeleted", float64(n), types.StandardUnitCount))
}

func (m *CloudWatchMetrics) recordExecution(ctx context.Context, kind, dimension, name string, duration time.Duration, err error) {
	dims := []types.Dimension{
		{Name: aws.String(dimension), Value: aws.String(name)},
		{Name: aws.String("Status"), Value: aws.String(outcome(err))},
	}

	latency := m.datum(kind+"Execution", float64(duration.Milliseconds()), types.StandardUnitMilliseconds)
	latency.Dimensions = dims
	count := m.datum(kind+"Count", 1, types.StandardUnitCount)
	count.Dimensions = dims

	m.put(ctx, latency, count)
}

func (m *CloudWatchMetrics) datum(name string, value float64, unit types.StandardUnit) types.MetricDatum {
	return types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(m.now()),
	}
}

func (m *CloudWatchMetrics) put(ctx context.Context, data ...types.MetricDatum) {
	if m.client == nil {
		return
	}

	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}

	// Metrics must not fail a request whose context has already ended.
	ctx = context.WithoutCancel(ctx)
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Warn("Failed to send metrics",
			zap.String("namespace", m.namespace),
			zap.Error(err),
		)
	}
}
