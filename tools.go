package classpilot

import (
	"fmt"
	"slices"
)

// Property describes one tool parameter.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// ToolDefinition is the declarative tool schema exposed to models.
// Definitions are immutable after process start.
type ToolDefinition struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Parameters  map[string]Property `json:"parameters,omitempty"`
	Required    []string            `json:"required,omitempty"`
}

// Validate checks that the required set only references declared parameters.
func (d ToolDefinition) Validate() error {
	if d.Name == "" {
		return ErrToolNameEmpty
	}
	for _, name := range d.Required {
		if _, ok := d.Parameters[name]; !ok {
			return fmt.Errorf("tool %s: required parameter %q is not declared: %w", d.Name, name, ErrInvalidDefinition)
		}
	}
	return nil
}

// IsRequired reports whether the named parameter is in the required set.
func (d ToolDefinition) IsRequired(name string) bool {
	return slices.Contains(d.Required, name)
}

// ParameterSchema flattens the definition into the JSON-schema object shape
// every backend's function-calling convention expects. The required set is
// preserved verbatim so downstream required-field checks stay exact.
func (d ToolDefinition) ParameterSchema() map[string]any {
	props := make(map[string]any, len(d.Parameters))
	for name, p := range d.Parameters {
		prop := map[string]any{"type": p.Type}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		props[name] = prop
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(d.Required) > 0 {
		schema["required"] = append([]string(nil), d.Required...)
	}
	return schema
}

// findDefinition returns the definition with the given name from an ordered
// tool subset, failing closed when the name is unknown.
func findDefinition(tools []ToolDefinition, name string) (ToolDefinition, bool) {
	for _, d := range tools {
		if d.Name == name {
			return d, true
		}
	}
	return ToolDefinition{}, false
}
