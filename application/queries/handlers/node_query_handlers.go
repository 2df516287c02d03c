package handlers

import (
	"context"
	"errors"
	"fmt"

	"nodetree/application/ports"
	"nodetree/application/queries"
	"nodetree/domain/core/entities"
	"nodetree/domain/core/valueobjects"
	"nodetree/domain/tree"
	pkgerrors "nodetree/pkg/errors"
)

// ListNodesHandler returns all nodes as stored
type ListNodesHandler struct {
	store ports.NodeStore
}

// NewListNodesHandler creates a new list nodes handler
func NewListNodesHandler(store ports.NodeStore) *ListNodesHandler {
	return &ListNodesHandler{store: store}
}

// Handle returns every node in creation order
func (h *ListNodesHandler) Handle(ctx context.Context, _ queries.ListNodesQuery) ([]*entities.Node, error) {
	nodes, err := h.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	return nodes, nil
}

// GetNodeHandler returns a single node
type GetNodeHandler struct {
	store ports.NodeStore
}

// NewGetNodeHandler creates a new get node handler
func NewGetNodeHandler(store ports.NodeStore) *GetNodeHandler {
	return &GetNodeHandler{store: store}
}

// Handle executes the get node query
func (h *GetNodeHandler) Handle(ctx context.Context, query queries.GetNodeQuery) (*entities.Node, error) {
	nodeID, err := valueobjects.NodeIDFromString(query.NodeID)
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
	return node, nil
}

// GetTreeHandler assembles the stored nodes into a forest
type GetTreeHandler struct {
	store ports.NodeStore
}

// NewGetTreeHandler creates a new get tree handler
func NewGetTreeHandler(store ports.NodeStore) *GetTreeHandler {
	return &GetTreeHandler{store: store}
}

// Handle executes the get tree query
func (h *GetTreeHandler) Handle(ctx context.Context, _ queries.GetTreeQuery) ([]*tree.Node, error) {
	nodes, err := h.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	return tree.Build(entities.Records(nodes)), nil
}
