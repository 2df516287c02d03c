// Package dto holds the wire representations returned by the API.
package dto

import (
	"time"

	"nodetree/domain/core/entities"
)

// NodeResponse is the flat JSON form of a node. Parent is null for roots.
type NodeResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Parent    *string   `json:"parent"`
	CreatedAt time.Time `json:"createdAt"`
}

// FromNode converts an entity to its response form
func FromNode(n *entities.Node) NodeResponse {
	return NodeResponse{
		ID:        n.ID().String(),
		Name:      n.Name(),
		Parent:    n.Parent().Ptr(),
		CreatedAt: n.CreatedAt(),
	}
}

// FromNodes converts entities preserving order
func FromNodes(nodes []*entities.Node) []NodeResponse {
	out := make([]NodeResponse, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, FromNode(n))
	}
	return out
}

// MessageResponse carries a confirmation message
type MessageResponse struct {
	Message string `json:"message"`
}
