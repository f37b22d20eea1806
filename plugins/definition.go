package plugins

import (
	"fmt"
	"strings"

	"github.com/kingrea/rrfars/internal/component"
)

// ComponentDefinition describes one configured task loaded from YAML or a Go
// definition script.
//
// The struct mirrors the on-disk schema under .rrfars/definitions/. The host
// only needs to know which bundle to load and which definition to hand it.
type ComponentDefinition struct {
	ID          string               `json:"id" yaml:"id"`
	Name        string               `json:"name,omitempty" yaml:"name,omitempty"`
	Description string               `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string               `json:"version" yaml:"version"`
	Bundle      string               `json:"bundle" yaml:"bundle"`
	Definition  component.Definition `json:"definition,omitempty" yaml:"definition,omitempty"`
}

// Normalized returns a trimmed, copy-on-write variant of the definition.
func (def ComponentDefinition) Normalized() ComponentDefinition {
	return ComponentDefinition{
		ID:          strings.TrimSpace(def.ID),
		Name:        strings.TrimSpace(def.Name),
		Description: strings.TrimSpace(def.Description),
		Version:     strings.TrimSpace(def.Version),
		Bundle:      strings.TrimSpace(def.Bundle),
		Definition:  def.Definition.Clone(),
	}
}

// Validate ensures the definition is well-formed.
func (def ComponentDefinition) Validate() error {
	normalized := def.Normalized()
	if normalized.ID == "" {
		return fmt.Errorf("plugin: id is required")
	}
	if strings.ContainsAny(normalized.ID, " \t\n/\\") {
		return fmt.Errorf("plugin %s: id must not contain whitespace or path separators", normalized.ID)
	}
	if normalized.Version == "" {
		return fmt.Errorf("plugin %s: version is required", normalized.ID)
	}
	if normalized.Bundle == "" {
		return fmt.Errorf("plugin %s: bundle is required", normalized.ID)
	}
	if len(normalized.Definition) == 0 {
		return fmt.Errorf("plugin %s: definition is empty", normalized.ID)
	}
	return nil
}

// DisplayName returns Name, falling back to ID.
func (def ComponentDefinition) DisplayName() string {
	if name := strings.TrimSpace(def.Name); name != "" {
		return name
	}
	return strings.TrimSpace(def.ID)
}
