package agents

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"stockagents/internal/adapters/ai"
	"stockagents/internal/metrics"
	"stockagents/internal/tools"
	"stockagents/pkg/errors"
	"stockagents/pkg/logger"
	"stockagents/pkg/templates"
)

// Deps are the collaborators shared by every agent.
type Deps struct {
	Provider ai.ChatProvider
	Model    string
	Prompts  *templates.Registry
	Tracker  errors.Tracker // optional
}

func (d Deps) validate() error {
	if d.Provider == nil {
		return errors.NewValidationError("provider", "is required", nil)
	}
	if d.Model == "" {
		return errors.NewValidationError("model", "is required", d.Model)
	}
	return nil
}

func (d Deps) prompts() *templates.Registry {
	if d.Prompts != nil {
		return d.Prompts
	}
	return templates.Get()
}

// SubAgent is an agent the orchestrator can delegate to.
type SubAgent interface {
	Type() AgentType
	Name() string
	Capabilities() []string
	SetTools(registry *tools.Registry)
	Execute(ctx context.Context, query string) Result
}

// Agent answers a query by letting the model call stock tools in a loop.
// Junior and master agents differ only in config and prompt.
type Agent struct {
	cfg   AgentConfig
	deps  Deps
	tools atomic.Pointer[tools.Registry]
	log   *logger.Logger
}

var _ SubAgent = (*Agent)(nil)

// NewAgent creates an LLM tool-calling agent.
func NewAgent(cfg AgentConfig, deps Deps, registry *tools.Registry) (*Agent, error) {
	if err := deps.validate(); err != nil {
		return nil, errors.Wrapf(err, "create %s", cfg.Name)
	}
	if cfg.MaxIterations <= 0 {
		return nil, errors.NewValidationError("max_iterations", "must be positive", cfg.MaxIterations)
	}

	a := &Agent{
		cfg:  cfg,
		deps: deps,
		log:  logger.Get().With("component", "agent", "agent", cfg.Type),
	}
	a.tools.Store(registry)
	return a, nil
}

// NewJuniorAgent creates the agent for simple single-symbol lookups.
func NewJuniorAgent(cfg AgentConfig, deps Deps, registry *tools.Registry) (*Agent, error) {
	cfg.Type = AgentJunior
	return NewAgent(cfg, deps, registry)
}

// NewMasterAgent creates the agent for analysis, comparison and research.
func NewMasterAgent(cfg AgentConfig, deps Deps, registry *tools.Registry) (*Agent, error) {
	cfg.Type = AgentMaster
	return NewAgent(cfg, deps, registry)
}

func (a *Agent) Type() AgentType { return a.cfg.Type }
func (a *Agent) Name() string    { return a.cfg.Name }

// Capabilities lists the kinds of requests the agent serves.
func (a *Agent) Capabilities() []string { return copyStrings(a.cfg.Capabilities) }

// Tools returns the registry currently bound to the agent.
func (a *Agent) Tools() *tools.Registry { return a.tools.Load() }

// SetTools rebinds the agent to registry. Runs already in flight keep the old one.
func (a *Agent) SetTools(registry *tools.Registry) { a.tools.Store(registry) }

// Execute runs the tool loop for query. It never panics on tool or model
// failures; they come back as a failed Result.
func (a *Agent) Execute(ctx context.Context, query string) Result {
	start := time.Now()

	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	output, err := a.run(ctx, query)
	duration := time.Since(start)
	metrics.RecordAgentCall(a.cfg.Type.String(), a.deps.Model, duration, err)

	if err != nil {
		a.log.Warnw("Agent failed", "duration", duration, "error", err)
		a.report(ctx, err)
		return Failure(a.cfg.Type, err)
	}

	a.log.Infow("Agent completed", "duration", duration, "output_chars", len(output))
	return Success(a.cfg.Type, output)
}

func (a *Agent) run(ctx context.Context, query string) (string, error) {
	registry := a.tools.Load()

	system, err := a.systemPrompt(registry)
	if err != nil {
		return "", err
	}

	conv := NewConversationManager(system)
	conv.AddUserMessage(query)
	definitions := registry.Definitions()

	for iteration := 1; iteration <= a.cfg.MaxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return "", a.contextError(err)
		}

		resp, err := a.deps.Provider.Chat(ctx, ai.ChatRequest{
			Model:       a.deps.Model,
			System:      conv.SystemPrompt(),
			Messages:    conv.Messages(),
			Tools:       definitions,
			Temperature: a.cfg.Temperature,
			MaxTokens:   a.cfg.MaxTokens,
		})
		if err != nil {
			if ctx.Err() != nil {
				return "", a.contextError(ctx.Err())
			}
			return "", errors.Wrapf(err, "%s model call", a.cfg.Name)
		}

		a.log.Debugw("Model round",
			"iteration", iteration,
			"finish_reason", resp.FinishReason,
			"tool_calls", len(resp.Message.ToolCalls),
			"tokens", resp.Usage.TotalTokens,
		)

		if !resp.HasToolCalls() {
			answer := strings.TrimSpace(resp.Message.Content)
			if answer == "" {
				return "", errors.Wrapf(errors.ErrEmptyResponse, "%s returned no answer", a.cfg.Name)
			}
			return answer, nil
		}

		conv.AddAssistantMessage(resp.Message.Content, resp.Message.ToolCalls)
		for _, call := range resp.Message.ToolCalls {
			content, isError, err := a.invokeTool(ctx, registry, call)
			if err != nil {
				return "", err
			}
			conv.AddToolResult(call, content, isError)
		}
	}

	return "", errors.Wrapf(errors.ErrMaxIterations, "%s stopped after %d rounds of tool calls",
		a.cfg.Name, a.cfg.MaxIterations)
}

// invokeTool runs one requested call. Mistakes the model can correct (unknown
// tool, bad arguments) go back to it as error content; a failing tool aborts
// the run with the tool's error.
func (a *Agent) invokeTool(ctx context.Context, registry *tools.Registry, call ai.ToolCall) (string, bool, error) {
	tool, ok := registry.Get(call.Name)
	if !ok {
		a.log.Warnw("Model requested unknown tool", "tool", call.Name)
		return "unknown tool " + call.Name + ", available tools: " + strings.Join(registry.List(), ", "), true, nil
	}

	args, err := call.DecodeArguments()
	if err != nil {
		return "arguments must be a JSON object with a \"symbol\" field", true, nil
	}
	symbol, _ := args["symbol"].(string)
	if strings.TrimSpace(symbol) == "" {
		return "missing required argument \"symbol\"", true, nil
	}

	if a.deps.Tracker != nil {
		a.deps.Tracker.AddBreadcrumb(ctx, "tool call", "tool", errors.LevelInfo, map[string]interface{}{
			"agent":  a.cfg.Type.String(),
			"tool":   call.Name,
			"symbol": symbol,
		})
	}

	out, err := tool.Invoke(ctx, symbol)
	if err != nil {
		return "", true, errors.Wrapf(err, "tool %s", call.Name)
	}
	return out, false, nil
}

func (a *Agent) systemPrompt(registry *tools.Registry) (string, error) {
	prompt, err := a.deps.prompts().Render(a.cfg.SystemPromptTemplate, map[string]interface{}{
		"AgentName":     a.cfg.Name,
		"MaxIterations": a.cfg.MaxIterations,
		"Tools":         registry.Descriptors(),
	})
	if err != nil {
		return "", errors.Wrapf(err, "render %s prompt", a.cfg.Name)
	}
	return prompt, nil
}

func (a *Agent) contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrapf(errors.ErrTimeout, "%s did not finish in time", a.cfg.Name)
	}
	return errors.Wrapf(err, "%s cancelled", a.cfg.Name)
}

// report forwards unexpected failures to the error tracker. Bad symbols and
// provider throttling are expected and only logged.
func (a *Agent) report(ctx context.Context, err error) {
	if a.deps.Tracker == nil ||
		errors.Is(err, errors.ErrInvalidSymbol) ||
		errors.Is(err, errors.ErrRateLimitExceeded) {
		return
	}
	_ = a.deps.Tracker.CaptureError(ctx, err, map[string]string{
		"agent": a.cfg.Type.String(),
		"model": a.deps.Model,
	})
}
