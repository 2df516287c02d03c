package queries

import (
	"strings"

	"nodetree/pkg/errors"
)

// GetNodeQuery represents a query to get a single node
type GetNodeQuery struct {
	NodeID string
}

// Validate validates the GetNodeQuery
func (q GetNodeQuery) Validate() error {
	if strings.TrimSpace(q.NodeID) == "" {
		return errors.NewValidationError(errors.MessageNodeIDRequired)
	}
	return nil
}
