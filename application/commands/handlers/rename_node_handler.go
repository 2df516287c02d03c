package handlers

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"nodetree/application/commands"
	"nodetree/application/ports"
	"nodetree/domain/config"
	"nodetree/domain/core/entities"
	"nodetree/domain/core/valueobjects"
	pkgerrors "nodetree/pkg/errors"
)

// RenameNodeHandler handles node rename commands
type RenameNodeHandler struct {
	store     ports.NodeStore
	publisher ports.EventPublisher
	config    *config.DomainConfig
	logger    *zap.Logger
}

// NewRenameNodeHandler creates a new rename node handler
func NewRenameNodeHandler(
	store ports.NodeStore,
	publisher ports.EventPublisher,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *RenameNodeHandler {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &RenameNodeHandler{
		store:     store,
		publisher: publisher,
		config:    cfg,
		logger:    logger,
	}
}

// Handle renames the node and returns its stored state
func (h *RenameNodeHandler) Handle(ctx context.Context, cmd commands.RenameNodeCommand) (*entities.Node, error) {
	nodeID, err := valueobjects.NodeIDFromString(cmd.NodeID)
	if err != nil {
		return nil, err
	}

	node, err := h.store.FindByID(ctx, nodeID)
	if err != nil {
		if errors.Is(err, ports.ErrNodeNotFound) {
			return nil, pkgerrors.NewNotFoundError("Node")
		}
		return nil, fmt.Errorf("failed to get node: %w", err)
	}

	if err := node.RenameWithConfig(cmd.Name, h.config); err != nil {
		return nil, err
	}

	pending := node.GetUncommittedEvents()
	if len(pending) == 0 {
		return node, nil
	}

	updated, err := h.store.Rename(ctx, nodeID, node.Name())
	if err != nil {
		if errors.Is(err, ports.ErrNodeNotFound) {
			return nil, pkgerrors.NewNotFoundError("Node")
		}
		return nil, fmt.Errorf("failed to rename node: %w", err)
	}

	publishEvents(ctx, h.publisher, h.logger, pending...)
	node.MarkEventsAsCommitted()

	h.logger.Info("Node renamed", zap.String("nodeID", nodeID.String()))

	return updated, nil
}
