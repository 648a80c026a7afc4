package agents

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stockagents/internal/adapters/ai"
	"stockagents/internal/adapters/config"
	"stockagents/internal/tools"
	"stockagents/pkg/errors"
)

func testConfigs() map[AgentType]AgentConfig {
	return DefaultAgentConfigs(config.AgentsConfig{
		OrchestratorTemperature: 0.3,
		JuniorTemperature:       0.1,
		MasterTemperature:       0.7,
		MaxIterations:           3,
		Timeout:                 5 * time.Second,
	})
}

func testDeps(provider ai.ChatProvider) Deps {
	return Deps{Provider: provider, Model: ai.ModelGPT4}
}

// fakeTools returns price and company tools backed by canned data. calls
// counts every invocation.
func fakeTools(t *testing.T, calls *int32) *tools.Registry {
	t.Helper()

	lookup := func(kind string) tools.HandlerFunc {
		return func(_ context.Context, symbol string) (string, error) {
			if calls != nil {
				atomic.AddInt32(calls, 1)
			}
			switch strings.ToUpper(symbol) {
			case "AAPL":
				if kind == "price" {
					return "AAPL: $190.12 USD (+1.25%)", nil
				}
				return "Apple Inc. (AAPL), Technology", nil
			case "MSFT":
				if kind == "price" {
					return "MSFT: $410.50 USD (-0.40%)", nil
				}
				return "Microsoft Corporation (MSFT), Technology", nil
			default:
				return "", errors.Wrapf(errors.ErrInvalidSymbol, "%q", symbol)
			}
		}
	}

	registry, err := tools.NewRegistry(
		tools.New(tools.ToolGetStockPrice, "Get the current price of a stock", lookup("price")),
		tools.New(tools.ToolGetCompanyInfo, "Get company information", lookup("company")),
	)
	require.NoError(t, err)
	return registry
}

func newTestAgent(t *testing.T, agentType AgentType, provider ai.ChatProvider, registry *tools.Registry) *Agent {
	t.Helper()
	agent, err := NewAgent(testConfigs()[agentType], testDeps(provider), registry)
	require.NoError(t, err)
	return agent
}

// stubAgent is a SubAgent with a fixed answer.
type stubAgent struct {
	agentType AgentType
	result    Result
	panicMsg  string
	delay     time.Duration
	calls     int32
	tools     atomic.Pointer[tools.Registry]
}

func (s *stubAgent) Type() AgentType                   { return s.agentType }
func (s *stubAgent) Name() string                      { return s.agentType.String() + "-stub" }
func (s *stubAgent) Capabilities() []string            { return nil }
func (s *stubAgent) SetTools(registry *tools.Registry) { s.tools.Store(registry) }

func (s *stubAgent) Execute(_ context.Context, _ string) Result {
	atomic.AddInt32(&s.calls, 1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return s.result
}

func (s *stubAgent) Calls() int { return int(atomic.LoadInt32(&s.calls)) }
