package observability

import (
	"context"

	"nodetree/application/ports"
	"nodetree/domain/events"
)

// EventCounter turns published domain events into node counters
type EventCounter struct {
	recorder Recorder
}

// NewEventCounter creates a publisher that feeds recorder
func NewEventCounter(recorder Recorder) *EventCounter {
	return &EventCounter{recorder: recorder}
}

// Publish counts a single event
func (c *EventCounter) Publish(ctx context.Context, event events.DomainEvent) error {
	switch e := event.(type) {
	case events.NodeCreated:
		c.recorder.RecordNodesCreated(ctx, 1)
	case *events.NodeCreated:
		c.recorder.RecordNodesCreated(ctx, 1)
	case events.NodeSubtreeDeleted:
		c.recorder.RecordNodesDeleted(ctx, len(e.DeletedIDs))
	case *events.NodeSubtreeDeleted:
		c.recorder.RecordNodesDeleted(ctx, len(e.DeletedIDs))
	}
	return nil
}

// PublishBatch counts each event
func (c *EventCounter) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	for _, event := range batch {
		_ = c.Publish(ctx, event)
	}
	return nil
}

var _ ports.EventPublisher = (*EventCounter)(nil)
