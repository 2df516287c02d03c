package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"nodetree/application/commands"
	"nodetree/application/ports"
	"nodetree/domain/config"
	"nodetree/domain/core/entities"
	"nodetree/domain/core/valueobjects"
	"nodetree/domain/events"
	pkgerrors "nodetree/pkg/errors"
)

// CreateNodeHandler handles the CreateNodeCommand
type CreateNodeHandler struct {
	store     ports.NodeStore
	publisher ports.EventPublisher
	config    *config.DomainConfig
	logger    *zap.Logger
}

// NewCreateNodeHandler creates a new handler instance
func NewCreateNodeHandler(
	store ports.NodeStore,
	publisher ports.EventPublisher,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *CreateNodeHandler {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &CreateNodeHandler{
		store:     store,
		publisher: publisher,
		config:    cfg,
		logger:    logger,
	}
}

// Handle executes the create node command and returns the persisted node
func (h *CreateNodeHandler) Handle(ctx context.Context, cmd commands.CreateNodeCommand) (*entities.Node, error) {
	name, err := valueobjects.NewNodeNameWithLimit(cmd.Name, h.config.MaxNameLength)
	if err != nil {
		return nil, err
	}

	parent := valueobjects.OptionalNodeID(cmd.ParentID)
	if !parent.IsZero() && h.config.EnforceParentExists {
		if _, err := h.store.FindByID(ctx, parent); err != nil {
			if errors.Is(err, ports.ErrNodeNotFound) {
				return nil, pkgerrors.NewNotFoundError("Parent node")
			}
			return nil, fmt.Errorf("failed to load parent node: %w", err)
		}
	}

	if limit := h.config.MaxTreeDepth; limit > 0 && !parent.IsZero() {
		if err := h.checkDepth(ctx, parent, limit); err != nil {
			return nil, err
		}
	}

	node, err := h.store.Create(ctx, name.String(), parent)
	if err != nil {
		return nil, fmt.Errorf("failed to create node: %w", err)
	}

	h.logger.Info("Node created",
		zap.String("nodeID", node.ID().String()),
		zap.String("parentID", node.Parent().String()),
	)

	publishEvents(ctx, h.publisher, h.logger,
		events.NewNodeCreated(node.ID(), node.Name(), node.Parent(), time.Now()))

	return node, nil
}

// checkDepth walks up from parent and rejects a new node that would sit
// below level limit. A missing ancestor ends the chain; the walk never
// takes more than limit steps, so a parent cycle cannot hang it.
func (h *CreateNodeHandler) checkDepth(ctx context.Context, parent valueobjects.NodeID, limit int) error {
	depth := 1
	for current := parent; !current.IsZero(); {
		depth++
		if depth > limit {
			h.logger.Debug("Tree depth limit reached",
				zap.String("parentID", parent.String()),
				zap.Int("maxDepth", limit),
			)
			return pkgerrors.NewValidationError(fmt.Sprintf("Tree depth limit of %d reached", limit))
		}

		ancestor, err := h.store.FindByID(ctx, current)
		if errors.Is(err, ports.ErrNodeNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load ancestor %s: %w", current, err)
		}
		current = ancestor.Parent()
	}
	return nil
}
