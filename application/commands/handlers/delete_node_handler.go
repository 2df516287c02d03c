package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"nodetree/application/commands"
	"nodetree/application/ports"
	"nodetree/application/services"
	"nodetree/domain/core/valueobjects"
	"nodetree/domain/events"
)

// DeleteNodeHandler handles node deletion commands
type DeleteNodeHandler struct {
	deleter   *services.CascadeDeleter
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewDeleteNodeHandler creates a new delete node handler
func NewDeleteNodeHandler(
	deleter *services.CascadeDeleter,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *DeleteNodeHandler {
	return &DeleteNodeHandler{
		deleter:   deleter,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle deletes the node and its whole subtree
func (h *DeleteNodeHandler) Handle(ctx context.Context, cmd commands.DeleteNodeCommand) (*services.DeleteResult, error) {
	nodeID, err := valueobjects.NodeIDFromString(cmd.NodeID)
	if err != nil {
		return nil, err
	}

	result, err := h.deleter.Delete(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	publishEvents(ctx, h.publisher, h.logger,
		events.NewNodeSubtreeDeleted(nodeID, result.Deleted, time.Now()))

	return result, nil
}
