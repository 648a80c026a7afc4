package middleware

import "context"

// ToolFunc is the function signature for tool execution
type ToolFunc func(ctx context.Context, symbol string) (string, error)
