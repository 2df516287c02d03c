package valueobjects

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"nodetree/pkg/errors"
)

// NodeID is an opaque, store-assigned node identifier.
// The zero value means "no node" and is used for absent parents.
type NodeID struct {
	value string
}

// NewNodeID creates a new random NodeID
func NewNodeID() NodeID {
	return NodeID{value: uuid.New().String()}
}

// NodeIDFromString creates a NodeID from an existing identifier.
// Stores choose their own id format, so only emptiness is rejected.
func NodeIDFromString(id string) (NodeID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return NodeID{}, errors.NewValidationError(errors.MessageNodeIDRequired)
	}
	return NodeID{value: id}, nil
}

// OptionalNodeID converts a possibly empty identifier, returning the zero
// NodeID for empty input.
func OptionalNodeID(id string) NodeID {
	return NodeID{value: strings.TrimSpace(id)}
}

// String returns the string representation of the NodeID
func (id NodeID) String() string {
	return id.value
}

// Equals checks if two NodeIDs are equal
func (id NodeID) Equals(other NodeID) bool {
	return id.value == other.value
}

// IsZero checks if the NodeID is the zero value
func (id NodeID) IsZero() bool {
	return id.value == ""
}

// Ptr returns nil for the zero id, otherwise a pointer to its string.
func (id NodeID) Ptr() *string {
	if id.IsZero() {
		return nil
	}
	s := id.value
	return &s
}

// MarshalJSON encodes the zero id as null.
func (id NodeID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (id *NodeID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		id.value = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.NewValidationError("node ID must be a string")
	}
	id.value = strings.TrimSpace(s)
	return nil
}
