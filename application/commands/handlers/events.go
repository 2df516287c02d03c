package handlers

import (
	"context"

	"go.uber.org/zap"

	"nodetree/application/ports"
	"nodetree/domain/events"
)

// publishEvents sends events after a successful write. Publishing is best
// effort: the write has already happened, so failures are only logged.
func publishEvents(ctx context.Context, publisher ports.EventPublisher, logger *zap.Logger, evts ...events.DomainEvent) {
	if publisher == nil || len(evts) == 0 {
		return
	}
	if err := publisher.PublishBatch(ctx, evts); err != nil {
		logger.Warn("Failed to publish domain events",
			zap.Int("count", len(evts)),
			zap.String("eventType", evts[0].GetEventType()),
			zap.Error(err),
		)
	}
}
