// Package memory provides a process-local NodeStore used for local
// development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nodetree/application/ports"
	"nodetree/domain/core/entities"
	"nodetree/domain/core/valueobjects"
)

type record struct {
	id        valueobjects.NodeID
	name      string
	parent    valueobjects.NodeID
	createdAt time.Time
}

// NodeStore keeps nodes in insertion order, which is also creation order.
type NodeStore struct {
	mu      sync.RWMutex
	order   []valueobjects.NodeID
	records map[valueobjects.NodeID]record
	now     func() time.Time
	newID   func() valueobjects.NodeID
}

// Option configures a NodeStore
type Option func(*NodeStore)

// WithClock overrides the creation timestamp source
func WithClock(now func() time.Time) Option {
	return func(s *NodeStore) { s.now = now }
}

// WithIDGenerator overrides id assignment
func WithIDGenerator(newID func() valueobjects.NodeID) Option {
	return func(s *NodeStore) { s.newID = newID }
}

// NewNodeStore creates an empty store
func NewNodeStore(opts ...Option) *NodeStore {
	s := &NodeStore{
		records: make(map[valueobjects.NodeID]record),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   valueobjects.NewNodeID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new node
func (s *NodeStore) Create(ctx context.Context, name string, parent valueobjects.NodeID) (*entities.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := record{id: s.newID(), name: name, parent: parent, createdAt: s.now()}
	node, err := toEntity(r)
	if err != nil {
		return nil, err
	}

	s.records[r.id] = r
	s.order = append(s.order, r.id)
	return node, nil
}

// FindAll returns all nodes in creation order
func (s *NodeStore) FindAll(ctx context.Context) ([]*entities.Node, error) {
	return s.collect(ctx, func(record) bool { return true })
}

// FindByID returns a single node
func (s *NodeStore) FindByID(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	r, ok := s.records[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ports.ErrNodeNotFound
	}
	return toEntity(r)
}

// FindChildren returns the direct children of parentID
func (s *NodeStore) FindChildren(ctx context.Context, parentID valueobjects.NodeID) ([]*entities.Node, error) {
	return s.collect(ctx, func(r record) bool { return r.parent.Equals(parentID) })
}

// DeleteByID removes a node; missing ids are ignored
func (s *NodeStore) DeleteByID(ctx context.Context, id valueobjects.NodeID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return nil
	}
	delete(s.records, id)
	for i, existing := range s.order {
		if existing.Equals(id) {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Rename updates a node's name
func (s *NodeStore) Rename(ctx context.Context, id valueobjects.NodeID, name string) (*entities.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return nil, ports.ErrNodeNotFound
	}
	r.name = name
	node, err := toEntity(r)
	if err != nil {
		return nil, err
	}
	s.records[id] = r
	return node, nil
}

// Ping always succeeds
func (s *NodeStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Len returns the number of stored nodes
func (s *NodeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *NodeStore) collect(ctx context.Context, keep func(record) bool) ([]*entities.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]*entities.Node, 0)
	for _, id := range s.order {
		r := s.records[id]
		if !keep(r) {
			continue
		}
		node, err := toEntity(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ports.ErrMalformedNode, id, err)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func toEntity(r record) (*entities.Node, error) {
	return entities.ReconstructNode(r.id, r.name, r.parent, r.createdAt)
}

var (
	_ ports.NodeStore     = (*NodeStore)(nil)
	_ ports.HealthChecker = (*NodeStore)(nil)
)
