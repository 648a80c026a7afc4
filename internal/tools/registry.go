package tools

import (
	"stockagents/internal/adapters/ai"
	"stockagents/pkg/errors"
)

// Descriptor is the read-only public view of a registered tool.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Registry is an immutable, ordered set of tools. It is built once and shared
// by reference between agents, so no locking is needed.
type Registry struct {
	tools  map[string]Tool
	order  []string
	schema map[string]interface{}
}

// NewRegistry builds a registry from tools, rejecting empty and duplicate names.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{
		tools:  make(map[string]Tool, len(tools)),
		order:  make([]string, 0, len(tools)),
		schema: symbolSchema(),
	}

	for _, t := range tools {
		if t == nil || t.Name() == "" {
			return nil, errors.NewValidationError("tool", "name is required", t)
		}
		if _, exists := r.tools[t.Name()]; exists {
			return nil, errors.NewValidationError("tool", "duplicate name", t.Name())
		}
		r.tools[t.Name()] = t
		r.order = append(r.order, t.Name())
	}

	return r, nil
}

// Get retrieves a tool by name if registered.
func (r *Registry) Get(name string) (Tool, bool) {
	if r == nil {
		return nil, false
	}
	t, ok := r.tools[name]
	return t, ok
}

// List returns the names of all registered tools in registration order.
func (r *Registry) List() []string {
	if r == nil {
		return nil
	}
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Descriptors returns name and description of every tool.
func (r *Registry) Descriptors() []Descriptor {
	if r == nil {
		return []Descriptor{}
	}
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		out = append(out, Descriptor{Name: t.Name(), Description: t.Description()})
	}
	return out
}

// Definitions returns the tools as function declarations for the chat model.
// Every tool takes a single "symbol" argument.
func (r *Registry) Definitions() []ai.ToolDefinition {
	if r == nil {
		return nil
	}
	out := make([]ai.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		out = append(out, ai.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  r.schema,
		})
	}
	return out
}

func symbolSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"symbol": map[string]interface{}{
				"type":        "string",
				"description": "Stock ticker symbol, for example AAPL or BRK.B",
			},
		},
		"required": []string{"symbol"},
	}
}
