package events

import (
	"time"

	"nodetree/domain/core/valueobjects"
)

// Event types published to the event bus.
const (
	TypeNodeCreated        = "node.created"
	TypeNodeRenamed        = "node.renamed"
	TypeNodeSubtreeDeleted = "node.subtree_deleted"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregateId"`
	EventType   string    `json:"eventType"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// NodeCreated is raised when a new node is created
type NodeCreated struct {
	BaseEvent
	NodeID   valueobjects.NodeID `json:"nodeId"`
	Name     string              `json:"name"`
	ParentID valueobjects.NodeID `json:"parentId"`
}

// NewNodeCreated creates a NodeCreated event
func NewNodeCreated(nodeID valueobjects.NodeID, name string, parentID valueobjects.NodeID, timestamp time.Time) NodeCreated {
	return NodeCreated{
		BaseEvent: BaseEvent{
			AggregateID: nodeID.String(),
			EventType:   TypeNodeCreated,
			Timestamp:   timestamp,
			Version:     1,
		},
		NodeID:   nodeID,
		Name:     name,
		ParentID: parentID,
	}
}

// NodeRenamed is raised when a node's name changes
type NodeRenamed struct {
	BaseEvent
	NodeID  valueobjects.NodeID `json:"nodeId"`
	OldName string              `json:"oldName"`
	NewName string              `json:"newName"`
}

// NewNodeRenamed creates a NodeRenamed event
func NewNodeRenamed(nodeID valueobjects.NodeID, oldName, newName string, timestamp time.Time) NodeRenamed {
	return NodeRenamed{
		BaseEvent: BaseEvent{
			AggregateID: nodeID.String(),
			EventType:   TypeNodeRenamed,
			Timestamp:   timestamp,
			Version:     1,
		},
		NodeID:  nodeID,
		OldName: oldName,
		NewName: newName,
	}
}

// NodeSubtreeDeleted is raised after a cascade removed a node and all of
// its descendants. DeletedIDs is in deletion order, root last.
type NodeSubtreeDeleted struct {
	BaseEvent
	NodeID     valueobjects.NodeID `json:"nodeId"`
	DeletedIDs []string            `json:"deletedIds"`
}

// NewNodeSubtreeDeleted creates a NodeSubtreeDeleted event
func NewNodeSubtreeDeleted(nodeID valueobjects.NodeID, deletedIDs []string, timestamp time.Time) NodeSubtreeDeleted {
	return NodeSubtreeDeleted{
		BaseEvent: BaseEvent{
			AggregateID: nodeID.String(),
			EventType:   TypeNodeSubtreeDeleted,
			Timestamp:   timestamp,
			Version:     1,
		},
		NodeID:     nodeID,
		DeletedIDs: deletedIDs,
	}
}
