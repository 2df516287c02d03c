package commands

import (
	"strings"

	"nodetree/pkg/errors"
)

// DeleteNodeCommand removes a node and its whole subtree
type DeleteNodeCommand struct {
	NodeID string `json:"nodeId"`
}

// Validate validates the DeleteNodeCommand
func (c DeleteNodeCommand) Validate() error {
	if strings.TrimSpace(c.NodeID) == "" {
		return errors.NewValidationError(errors.MessageNodeIDRequired)
	}
	return nil
}
