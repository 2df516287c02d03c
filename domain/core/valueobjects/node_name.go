package valueobjects

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"nodetree/pkg/errors"
)

// DefaultMaxNameLength bounds node names when no domain config is supplied.
const DefaultMaxNameLength = 200

// NodeName is a trimmed, non-empty node label.
type NodeName struct {
	value string
}

// NewNodeName validates and normalizes a name using the default limit.
func NewNodeName(raw string) (NodeName, error) {
	return NewNodeNameWithLimit(raw, DefaultMaxNameLength)
}

// NewNodeNameWithLimit validates a name against maxLength runes.
// A maxLength of zero or less disables the length check.
func NewNodeNameWithLimit(raw string, maxLength int) (NodeName, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return NodeName{}, errors.NewValidationError(errors.MessageNameRequired)
	}
	if maxLength > 0 && utf8.RuneCountInString(trimmed) > maxLength {
		return NodeName{}, errors.NewValidationError(
			fmt.Sprintf("Name must be at most %d characters", maxLength))
	}
	return NodeName{value: trimmed}, nil
}

// String returns the name
func (n NodeName) String() string {
	return n.value
}

// Equals checks if two names are equal
func (n NodeName) Equals(other NodeName) bool {
	return n.value == other.value
}
