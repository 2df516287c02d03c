package services

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"nodetree/application/ports"
	"nodetree/domain/core/valueobjects"
	pkgerrors "nodetree/pkg/errors"
	"nodetree/pkg/observability"
)

// DeleteResult describes a cascade. Deleted lists ids in deletion order:
// every node appears after all of its descendants, so the root is last.
type DeleteResult struct {
	RootID  string
	Deleted []string
}

// CascadeError reports a cascade that stopped part way. Nodes listed in
// Deleted are gone; the rest of the subtree is untouched. Running the same
// delete again resumes from the remaining nodes.
type CascadeError struct {
	RootID  string
	NodeID  string
	Deleted []string
	Err     error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("cascade delete of %s stopped at node %s after deleting %d nodes: %v",
		e.RootID, e.NodeID, len(e.Deleted), e.Err)
}

func (e *CascadeError) Unwrap() error {
	return e.Err
}

// CascadeDeleter removes a node together with all of its descendants.
type CascadeDeleter struct {
	store  ports.NodeStore
	tracer *observability.Tracer
	logger *zap.Logger
}

// NewCascadeDeleter creates a new cascade deleter
func NewCascadeDeleter(store ports.NodeStore, logger *zap.Logger) *CascadeDeleter {
	return &CascadeDeleter{
		store:  store,
		tracer: observability.NewTracer("nodetree"),
		logger: logger,
	}
}

type cascadeFrame struct {
	id       valueobjects.NodeID
	expanded bool
}

// Delete removes the node and its subtree depth-first, children before
// parents. A missing node yields a NotFound error without touching the
// store. Each store call is issued once; retries belong to the store.
// On a mid-cascade failure the partial result is returned together with
// a *CascadeError.
func (d *CascadeDeleter) Delete(ctx context.Context, id valueobjects.NodeID) (*DeleteResult, error) {
	ctx, span := d.tracer.StartSpan(ctx, "cascade_delete", attribute.String("node.id", id.String()))
	defer span.End()

	root, err := d.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNodeNotFound) {
			return nil, pkgerrors.NewNotFoundError("Node")
		}
		observability.RecordError(span, err)
		return nil, fmt.Errorf("failed to load node %s: %w", id, err)
	}

	result := &DeleteResult{RootID: root.ID().String(), Deleted: []string{}}
	fail := func(at valueobjects.NodeID, cause error) (*DeleteResult, error) {
		cerr := &CascadeError{
			RootID:  result.RootID,
			NodeID:  at.String(),
			Deleted: append([]string(nil), result.Deleted...),
			Err:     cause,
		}
		observability.RecordError(span, cerr)
		d.logger.Error("Cascade delete stopped",
			zap.String("nodeID", result.RootID),
			zap.String("failedAt", at.String()),
			zap.Int("deleted", len(result.Deleted)),
			zap.Error(cause),
		)
		return result, cerr
	}

	seen := map[string]bool{result.RootID: true}
	stack := []cascadeFrame{{id: root.ID()}}

	for len(stack) > 0 {
		top := len(stack) - 1
		current := stack[top].id

		if err := ctx.Err(); err != nil {
			return fail(current, err)
		}

		if !stack[top].expanded {
			stack[top].expanded = true

			children, err := d.store.FindChildren(ctx, current)
			if err != nil {
				return fail(current, fmt.Errorf("failed to list children: %w", err))
			}

			// Reverse push keeps siblings in store order
			for i := len(children) - 1; i >= 0; i-- {
				childID := children[i].ID()
				if seen[childID.String()] {
					d.logger.Warn("Skipping node reached twice during cascade",
						zap.String("nodeID", childID.String()),
						zap.String("parentID", current.String()),
					)
					continue
				}
				seen[childID.String()] = true
				stack = append(stack, cascadeFrame{id: childID})
			}
			continue
		}

		if err := d.store.DeleteByID(ctx, current); err != nil {
			return fail(current, fmt.Errorf("failed to delete node: %w", err))
		}
		stack = stack[:top]
		result.Deleted = append(result.Deleted, current.String())
	}

	span.SetAttributes(attribute.Int("cascade.deleted", len(result.Deleted)))
	d.logger.Info("Cascade delete completed",
		zap.String("nodeID", result.RootID),
		zap.Int("deleted", len(result.Deleted)),
	)

	return result, nil
}
