package ports

import (
	"context"
	"errors"

	"nodetree/domain/core/entities"
	"nodetree/domain/core/valueobjects"
	"nodetree/domain/events"
)

// ErrNodeNotFound is returned by stores when a node does not exist.
var ErrNodeNotFound = errors.New("node not found")

// ErrMalformedNode is returned when a stored record cannot be read back as
// a node. Reads fail rather than hide the record, so a cascade never skips
// a descendant it cannot decode.
var ErrMalformedNode = errors.New("malformed node record")

// NodeStore defines the persistence port for nodes
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type NodeStore interface {
	// Create persists a new node. The store assigns id and createdAt.
	// A zero parent creates a root.
	Create(ctx context.Context, name string, parent valueobjects.NodeID) (*entities.Node, error)

	// FindAll returns every node in creation order (createdAt, then id).
	// A record that cannot be decoded fails the call with ErrMalformedNode.
	FindAll(ctx context.Context) ([]*entities.Node, error)

	// FindByID returns ErrNodeNotFound when the node does not exist.
	FindByID(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error)

	// FindChildren returns the direct children of parentID in creation order.
	FindChildren(ctx context.Context, parentID valueobjects.NodeID) ([]*entities.Node, error)

	// DeleteByID removes a single node. Deleting a missing node succeeds.
	DeleteByID(ctx context.Context, id valueobjects.NodeID) error

	// Rename replaces the node's name and returns the updated node.
	Rename(ctx context.Context, id valueobjects.NodeID, name string) (*entities.Node, error)
}

// HealthChecker is implemented by stores that can verify connectivity.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}
