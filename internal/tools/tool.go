package tools

import (
	"context"

	"stockagents/pkg/errors"
)

// Tool is a named capability an agent can call with a ticker symbol.
type Tool interface {
	// Name returns the unique tool identifier.
	Name() string
	// Description returns a short human-readable summary shown to the model.
	Description() string
	// Invoke runs the tool for symbol and returns text for the model.
	Invoke(ctx context.Context, symbol string) (string, error)
}

// HandlerFunc is the function signature for tool handlers.
type HandlerFunc func(ctx context.Context, symbol string) (string, error)

// FunctionTool is a simple Tool implementation backed by a handler function.
type FunctionTool struct {
	name        string
	description string
	handler     HandlerFunc
}

// New creates a new function-backed Tool.
func New(name, description string, handler HandlerFunc) Tool {
	return &FunctionTool{
		name:        name,
		description: description,
		handler:     handler,
	}
}

// Name returns the tool identifier.
func (t *FunctionTool) Name() string { return t.name }

// Description returns a human description of the tool.
func (t *FunctionTool) Description() string { return t.description }

// Invoke runs the underlying handler.
func (t *FunctionTool) Invoke(ctx context.Context, symbol string) (string, error) {
	if t.handler == nil {
		return "", errors.Wrapf(errors.ErrInternal, "tool %s has no handler", t.name)
	}

	return t.handler(ctx, symbol)
}
