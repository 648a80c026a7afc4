// Package aitest provides an in-memory ai.ChatProvider for tests.
package aitest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"stockagents/internal/adapters/ai"
)

// HandlerFunc produces the reply for one Chat round.
type HandlerFunc func(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error)

// Provider replays scripted replies in order, or delegates to Handler when set.
// Every request is recorded for later assertions.
type Provider struct {
	Handler HandlerFunc

	mu       sync.Mutex
	script   []step
	requests []ai.ChatRequest
}

type step struct {
	resp *ai.ChatResponse
	err  error
}

var _ ai.ChatProvider = (*Provider)(nil)

// NewScripted returns a provider answering with replies in order.
func NewScripted(replies ...*ai.ChatResponse) *Provider {
	p := &Provider{}
	for _, r := range replies {
		p.script = append(p.script, step{resp: r})
	}
	return p
}

// NewFunc returns a provider delegating every round to fn.
func NewFunc(fn HandlerFunc) *Provider {
	return &Provider{Handler: fn}
}

// Fail appends a round that returns err.
func (p *Provider) Fail(err error) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.script = append(p.script, step{err: err})
	return p
}

func (p *Provider) Name() ai.ProviderName { return ai.ProviderNameOpenAI }

func (p *Provider) GetModel(_ context.Context, model string) (ai.ModelInfo, error) {
	return ai.ModelInfo{Provider: ai.ProviderNameOpenAI, Name: model, Family: "test"}, nil
}

func (p *Provider) ListModels(ctx context.Context) ([]ai.ModelInfo, error) {
	m, _ := p.GetModel(ctx, ai.ModelGPT4)
	return []ai.ModelInfo{m}, nil
}

// Chat records req and returns the next scripted reply.
func (p *Provider) Chat(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	p.mu.Lock()
	p.requests = append(p.requests, cloneRequest(req))
	handler := p.Handler
	var next *step
	if handler == nil && len(p.script) > 0 {
		s := p.script[0]
		p.script = p.script[1:]
		next = &s
	}
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if handler != nil {
		return handler(ctx, req)
	}
	if next == nil {
		return nil, fmt.Errorf("aitest: script exhausted after %d requests", len(p.Requests()))
	}
	return next.resp, next.err
}

// Requests returns a copy of every request seen so far.
func (p *Provider) Requests() []ai.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ai.ChatRequest, len(p.requests))
	copy(out, p.requests)
	return out
}

// Text builds a final assistant reply.
func Text(content string) *ai.ChatResponse {
	return &ai.ChatResponse{
		ID:           "resp-text",
		Model:        ai.ModelGPT4,
		Message:      ai.Message{Role: ai.RoleAssistant, Content: content},
		FinishReason: ai.FinishReasonStop,
		Usage:        ai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

// Call describes one tool call in a scripted reply.
type Call struct {
	Name string
	Args map[string]interface{}
}

// ToolCalls builds an assistant reply requesting the given tools.
func ToolCalls(calls ...Call) *ai.ChatResponse {
	msg := ai.Message{Role: ai.RoleAssistant}
	for i, c := range calls {
		args, _ := json.Marshal(c.Args)
		msg.ToolCalls = append(msg.ToolCalls, ai.ToolCall{
			ID:        fmt.Sprintf("call_%d", i+1),
			Name:      c.Name,
			Arguments: string(args),
		})
	}
	return &ai.ChatResponse{
		ID:           "resp-tools",
		Model:        ai.ModelGPT4,
		Message:      msg,
		FinishReason: ai.FinishReasonToolCalls,
		Usage:        ai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

// Symbol is shorthand for a call carrying {"symbol": sym}.
func Symbol(tool, sym string) Call {
	return Call{Name: tool, Args: map[string]interface{}{"symbol": sym}}
}

// LastToolResults returns the tool messages sent in the most recent request.
func LastToolResults(req ai.ChatRequest) []ai.Message {
	var out []ai.Message
	for _, m := range req.Messages {
		if m.Role == ai.RoleTool {
			out = append(out, m)
		}
	}
	return out
}

func cloneRequest(req ai.ChatRequest) ai.ChatRequest {
	req.Messages = append([]ai.Message(nil), req.Messages...)
	req.Tools = append([]ai.ToolDefinition(nil), req.Tools...)
	return req
}
