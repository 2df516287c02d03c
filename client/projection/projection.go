// Package projection keeps a client-side mirror of the node forest in step
// with the API.
package projection

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"nodetree/application/dto"
	"nodetree/domain/tree"
)

// API is the subset of the nodes API the projection calls.
// *nodesapi.Client satisfies it.
type API interface {
	List(ctx context.Context) ([]dto.NodeResponse, error)
	Create(ctx context.Context, name, parent string) (*dto.NodeResponse, error)
	Rename(ctx context.Context, id, name string) (*dto.NodeResponse, error)
	Delete(ctx context.Context, id string) (string, error)
}

// Projection is a local forest rebuilt from the API. Operations are safe
// for concurrent use but overlapping reloads are not coalesced; the last
// one to finish wins.
type Projection struct {
	api    API
	logger *zap.Logger

	mu      sync.Mutex
	forest  []*tree.Node
	err     error
	loading bool
}

// New creates an empty projection. Call Load to populate it.
func New(api API, logger *zap.Logger) *Projection {
	return &Projection{
		api:    api,
		logger: logger.Named("projection"),
		forest: []*tree.Node{},
	}
}

// Load fetches every node and replaces the local forest. On failure the
// forest is cleared.
func (p *Projection) Load(ctx context.Context) error {
	p.mu.Lock()
	p.err = nil
	p.loading = true
	p.mu.Unlock()

	nodes, err := p.api.List(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false

	if err != nil {
		p.forest = []*tree.Node{}
		return p.fail("load nodes", err)
	}

	records := make([]tree.Record, 0, len(nodes))
	for _, n := range nodes {
		records = append(records, toRecord(n))
	}
	p.forest = tree.Build(records)

	p.logger.Debug("Forest loaded",
		zap.Int("nodes", len(records)),
		zap.Int("roots", len(p.forest)),
		zap.Int("depth", tree.Depth(p.forest)),
	)
	return nil
}

// AddNode creates a node on the server. A new root is appended locally;
// a new child triggers a full reload.
func (p *Projection) AddNode(ctx context.Context, name, parent string) error {
	p.clearErr()

	created, err := p.api.Create(ctx, name, parent)
	if err != nil {
		return p.failLocked("add node", err)
	}

	if parent != "" {
		return p.Load(ctx)
	}

	node := &tree.Node{
		ID:        created.ID,
		Name:      created.Name,
		CreatedAt: created.CreatedAt,
	}

	p.mu.Lock()
	p.forest = tree.Append(p.forest, "", node)
	p.mu.Unlock()
	return nil
}

// Delete removes the node on the server, then prunes its subtree locally.
func (p *Projection) Delete(ctx context.Context, id string) error {
	p.clearErr()

	if _, err := p.api.Delete(ctx, id); err != nil {
		return p.failLocked("delete node", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var removed []string
	p.forest, removed = tree.Prune(p.forest, id)
	p.logger.Debug("Subtree pruned",
		zap.String("nodeID", id),
		zap.Int("removed", len(removed)),
	)
	return nil
}

// Rename persists the new name and applies the stored one locally.
func (p *Projection) Rename(ctx context.Context, id, name string) error {
	p.clearErr()

	updated, err := p.api.Rename(ctx, id, name)
	if err != nil {
		return p.failLocked("rename node", err)
	}

	p.RenameLocal(id, updated.Name)
	return nil
}

// RenameLocal changes the displayed name only. It reports whether the node
// was found.
func (p *Projection) RenameLocal(id, name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return tree.Update(p.forest, id, func(n *tree.Node) {
		n.Name = name
	})
}

// Toggle flips the expansion flag of a node with children. It reports
// whether the flag changed; leaves and unknown ids are left alone. The
// flag is never persisted.
func (p *Projection) Toggle(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := tree.Find(p.forest, id)
	if n == nil || n.IsLeaf() {
		return false
	}
	n.IsExpanded = !n.IsExpanded
	return true
}

// Forest returns a deep copy of the current forest
func (p *Projection) Forest() []*tree.Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	return tree.Clone(p.forest)
}

// Err returns the error recorded by the last failed operation, or nil
func (p *Projection) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Loading reports whether a Load is in flight
func (p *Projection) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

func (p *Projection) clearErr() {
	p.mu.Lock()
	p.err = nil
	p.mu.Unlock()
}

// fail records err; the caller holds mu.
func (p *Projection) fail(op string, err error) error {
	p.err = fmt.Errorf("%s: %w", op, err)
	p.logger.Warn("Projection update failed", zap.String("operation", op), zap.Error(err))
	return p.err
}

func (p *Projection) failLocked(op string, err error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fail(op, err)
}

func toRecord(n dto.NodeResponse) tree.Record {
	r := tree.Record{
		ID:        n.ID,
		Name:      n.Name,
		CreatedAt: n.CreatedAt,
	}
	if n.Parent != nil {
		r.ParentID = *n.Parent
	}
	return r
}
