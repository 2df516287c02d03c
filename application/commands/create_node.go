package commands

import (
	"strings"

	"nodetree/pkg/errors"
)

// CreateNodeCommand represents the command to create a new node.
// An empty ParentID creates a root.
type CreateNodeCommand struct {
	Name     string `json:"name"`
	ParentID string `json:"parent,omitempty"`
}

// Validate validates the CreateNodeCommand
func (c CreateNodeCommand) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.NewValidationError(errors.MessageNameRequired)
	}
	return nil
}
