package config

import (
	"fmt"

	"nodetree/domain/core/valueobjects"
)

// DomainConfig holds the configurable business rules for the node tree
type DomainConfig struct {
	// Node constraints
	MaxNameLength int

	// EnforceParentExists rejects creation under a parent that is not in
	// the store. When false a dangling parent is stored as given and the
	// node surfaces as a root on assembly.
	EnforceParentExists bool

	// MaxTreeDepth caps the number of levels a node may sit at, roots
	// being level 1. Creation below the limit is rejected. Zero means
	// unbounded.
	MaxTreeDepth int
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxNameLength:       valueobjects.DefaultMaxNameLength,
		EnforceParentExists: true,
		MaxTreeDepth:        0,
	}
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Longer labels are handy when seeding test data
	config.MaxNameLength = 1000

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.MaxNameLength < 0 {
		return fmt.Errorf("max name length must not be negative, got %d", c.MaxNameLength)
	}
	if c.MaxTreeDepth < 0 {
		return fmt.Errorf("max tree depth must not be negative, got %d", c.MaxTreeDepth)
	}
	return nil
}
