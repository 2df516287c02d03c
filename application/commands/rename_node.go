package commands

import (
	"strings"

	"nodetree/pkg/errors"
)

// RenameNodeCommand changes a node's name
type RenameNodeCommand struct {
	NodeID string `json:"nodeId"`
	Name   string `json:"name"`
}

// Validate validates the RenameNodeCommand
func (c RenameNodeCommand) Validate() error {
	if strings.TrimSpace(c.NodeID) == "" {
		return errors.NewValidationError(errors.MessageNodeIDRequired)
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.NewValidationError(errors.MessageNameRequired)
	}
	return nil
}
