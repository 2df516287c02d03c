package entities

import (
	"time"

	"nodetree/domain/config"
	"nodetree/domain/core/valueobjects"
	"nodetree/domain/events"
	"nodetree/domain/tree"
	pkgerrors "nodetree/pkg/errors"
)

// Node is a named element of the forest. Its identity and creation time
// are assigned by the store; its parent is fixed for the node's lifetime.
type Node struct {
	id        valueobjects.NodeID
	name      valueobjects.NodeName
	parent    valueobjects.NodeID
	createdAt time.Time

	// Domain events that occurred during this entity's lifetime
	events []events.DomainEvent
}

// ReconstructNode rebuilds a node from persisted data.
// The zero parent marks a root. A node may never be its own parent.
func ReconstructNode(
	id valueobjects.NodeID,
	name string,
	parent valueobjects.NodeID,
	createdAt time.Time,
) (*Node, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError(pkgerrors.MessageNodeIDRequired)
	}

	// Stored names were validated on the way in; only emptiness is rechecked
	nodeName, err := valueobjects.NewNodeNameWithLimit(name, 0)
	if err != nil {
		return nil, err
	}

	if parent.Equals(id) {
		return nil, pkgerrors.NewValidationError("node cannot be its own parent")
	}

	return &Node{
		id:        id,
		name:      nodeName,
		parent:    parent,
		createdAt: createdAt,
		events:    []events.DomainEvent{},
	}, nil
}

// ID returns the node's unique identifier
func (n *Node) ID() valueobjects.NodeID {
	return n.id
}

// Name returns the node's label
func (n *Node) Name() string {
	return n.name.String()
}

// Parent returns the parent id, the zero NodeID for roots
func (n *Node) Parent() valueobjects.NodeID {
	return n.parent
}

// IsRoot reports whether the node has no parent
func (n *Node) IsRoot() bool {
	return n.parent.IsZero()
}

// CreatedAt returns the creation timestamp
func (n *Node) CreatedAt() time.Time {
	return n.createdAt
}

// Rename changes the node's label using default limits.
func (n *Node) Rename(name string) error {
	return n.RenameWithConfig(name, config.DefaultDomainConfig())
}

// RenameWithConfig changes the node's label and records a NodeRenamed
// event. Renaming to the current name is a no-op.
func (n *Node) RenameWithConfig(name string, cfg *config.DomainConfig) error {
	newName, err := valueobjects.NewNodeNameWithLimit(name, cfg.MaxNameLength)
	if err != nil {
		return err
	}
	if newName.Equals(n.name) {
		return nil
	}

	old := n.name
	n.name = newName
	n.addEvent(events.NewNodeRenamed(n.id, old.String(), newName.String(), time.Now()))
	return nil
}

// Record returns the flat form used by tree assembly.
func (n *Node) Record() tree.Record {
	return tree.Record{
		ID:        n.id.String(),
		Name:      n.name.String(),
		ParentID:  n.parent.String(),
		CreatedAt: n.createdAt,
	}
}

// Records converts nodes to tree records preserving order.
func Records(nodes []*Node) []tree.Record {
	records := make([]tree.Record, 0, len(nodes))
	for _, n := range nodes {
		records = append(records, n.Record())
	}
	return records
}

// GetUncommittedEvents returns events that haven't been published
func (n *Node) GetUncommittedEvents() []events.DomainEvent {
	return n.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (n *Node) MarkEventsAsCommitted() {
	n.events = []events.DomainEvent{}
}

func (n *Node) addEvent(event events.DomainEvent) {
	n.events = append(n.events, event)
}
