package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"nodetree/application/commands"
	"nodetree/application/commands/bus"
	"nodetree/application/dto"
	"nodetree/application/queries"
	querybus "nodetree/application/queries/bus"
	"nodetree/application/services"
	"nodetree/domain/core/entities"
	"nodetree/domain/tree"
	"nodetree/pkg/common"
	pkgerrors "nodetree/pkg/errors"
	"nodetree/pkg/utils"
)

// NodeHandler handles node-related HTTP requests
type NodeHandler struct {
	commandBus   *bus.CommandBus
	queryBus     *querybus.QueryBus
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *NodeHandler {
	return &NodeHandler{
		commandBus:   commandBus,
		queryBus:     queryBus,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// CreateNodeRequest represents the request body for creating a node.
// An empty or missing parent creates a root.
type CreateNodeRequest struct {
	Name   string  `json:"name" validate:"notblank"`
	Parent *string `json:"parent,omitempty"`
}

// RenameNodeRequest represents the request body for renaming a node
type RenameNodeRequest struct {
	Name string `json:"name" validate:"notblank"`
}

// ListNodes handles GET /nodes
func (h *NodeHandler) ListNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := querybus.Ask[[]*entities.Node](r.Context(), h.queryBus, queries.ListNodesQuery{})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, h.logger, http.StatusOK, dto.FromNodes(nodes))
}

// GetTree handles GET /nodes/tree
func (h *NodeHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	forest, err := querybus.Ask[[]*tree.Node](r.Context(), h.queryBus, queries.GetTreeQuery{})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if forest == nil {
		forest = []*tree.Node{}
	}

	common.RespondJSON(w, h.logger, http.StatusOK, forest)
}

// GetNode handles GET /nodes/{nodeID}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	node, err := querybus.Ask[*entities.Node](r.Context(), h.queryBus, queries.GetNodeQuery{NodeID: chi.URLParam(r, "nodeID")})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	h.respondNode(w, r, http.StatusOK, node)
}

// CreateNode handles POST /nodes
func (h *NodeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req CreateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewValidationError(pkgerrors.MessageInvalidRequestBody).WithCause(err))
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	cmd := commands.CreateNodeCommand{Name: req.Name}
	if req.Parent != nil {
		cmd.ParentID = *req.Parent
	}

	result, err := h.commandBus.Send(r.Context(), cmd)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	h.respondNode(w, r, http.StatusCreated, result)
}

// RenameNode handles PATCH /nodes/{nodeID}
func (h *NodeHandler) RenameNode(w http.ResponseWriter, r *http.Request) {
	var req RenameNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewValidationError(pkgerrors.MessageInvalidRequestBody).WithCause(err))
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.RenameNodeCommand{
		NodeID: chi.URLParam(r, "nodeID"),
		Name:   req.Name,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	h.respondNode(w, r, http.StatusOK, result)
}

// DeleteNode handles DELETE /nodes/{nodeID}, removing the whole subtree
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")

	result, err := h.commandBus.Send(r.Context(), commands.DeleteNodeCommand{NodeID: nodeID})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if res, ok := result.(*services.DeleteResult); ok {
		h.logger.Info("Node subtree deleted",
			zap.String("nodeID", nodeID),
			zap.Int("deletedCount", len(res.Deleted)),
		)
	}

	common.RespondJSON(w, h.logger, http.StatusOK, dto.MessageResponse{Message: pkgerrors.MessageNodeDeleted})
}

func (h *NodeHandler) respondNode(w http.ResponseWriter, r *http.Request, status int, result interface{}) {
	node, ok := result.(*entities.Node)
	if !ok || node == nil {
		h.errorHandler.Handle(w, r, unexpectedResult(result))
		return
	}
	common.RespondJSON(w, h.logger, status, dto.FromNode(node))
}

func unexpectedResult(result interface{}) error {
	return pkgerrors.NewInternalError(fmt.Sprintf("unexpected result type %T", result))
}
