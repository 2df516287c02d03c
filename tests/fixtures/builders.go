// Package fixtures builds domain objects for tests.
package fixtures

import (
	"fmt"
	"time"

	"nodetree/domain/core/entities"
	"nodetree/domain/core/valueobjects"
)

// BaseTime is the creation time used by builders unless overridden
var BaseTime = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

// NodeBuilder helps create test nodes with default values
type NodeBuilder struct {
	id        valueobjects.NodeID
	name      string
	parent    valueobjects.NodeID
	createdAt time.Time
}

func NewNodeBuilder() *NodeBuilder {
	return &NodeBuilder{
		id:        valueobjects.NewNodeID(),
		name:      "Test Node",
		createdAt: BaseTime,
	}
}

func (b *NodeBuilder) WithID(id string) *NodeBuilder {
	b.id = valueobjects.OptionalNodeID(id)
	return b
}

func (b *NodeBuilder) WithName(name string) *NodeBuilder {
	b.name = name
	return b
}

func (b *NodeBuilder) WithParent(parentID string) *NodeBuilder {
	b.parent = valueobjects.OptionalNodeID(parentID)
	return b
}

func (b *NodeBuilder) WithCreatedAt(t time.Time) *NodeBuilder {
	b.createdAt = t
	return b
}

func (b *NodeBuilder) Build() (*entities.Node, error) {
	return entities.ReconstructNode(b.id, b.name, b.parent, b.createdAt)
}

func (b *NodeBuilder) MustBuild() *entities.Node {
	node, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build node: %v", err))
	}
	return node
}

// Node is a shorthand for a built node with the given id, name and parent
func Node(id, name, parent string) *entities.Node {
	return NewNodeBuilder().WithID(id).WithName(name).WithParent(parent).MustBuild()
}

// NodeID converts a raw id for use in mock expectations
func NodeID(id string) valueobjects.NodeID {
	return valueobjects.OptionalNodeID(id)
}
