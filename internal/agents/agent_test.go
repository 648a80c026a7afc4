package agents

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockagents/internal/adapters/ai"
	"stockagents/internal/adapters/ai/aitest"
	"stockagents/internal/tools"
	"stockagents/pkg/errors"
)

func TestAgentAnswersFromToolResults(t *testing.T) {
	var calls int32
	provider := aitest.NewScripted(
		aitest.ToolCalls(aitest.Symbol(tools.ToolGetStockPrice, "AAPL")),
		aitest.Text("AAPL is trading at $190.12, up 1.25% today."),
	)
	agent := newTestAgent(t, AgentJunior, provider, fakeTools(t, &calls))

	result := agent.Execute(context.Background(), "Get the current stock price for AAPL")

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "junior", result.Agent)
	assert.Contains(t, result.Output, "$190.12")
	assert.Empty(t, result.Error)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	requests := provider.Requests()
	require.Len(t, requests, 2)
	assert.Contains(t, requests[0].System, "JuniorAgent")
	assert.Contains(t, requests[0].System, tools.ToolGetStockPrice)
	assert.Len(t, requests[0].Tools, 2)
	assert.InDelta(t, 0.1, requests[0].Temperature, 1e-9)

	results := aitest.LastToolResults(requests[1])
	require.Len(t, results, 1)
	assert.Equal(t, "call_1", results[0].ToolCallID)
	assert.Contains(t, results[0].Content, "$190.12")
	assert.False(t, results[0].IsError)
}

func TestAgentRunsSeveralToolCallsInOneRound(t *testing.T) {
	var calls int32
	provider := aitest.NewScripted(
		aitest.ToolCalls(
			aitest.Symbol(tools.ToolGetStockPrice, "AAPL"),
			aitest.Symbol(tools.ToolGetStockPrice, "MSFT"),
		),
		aitest.Text("AAPL is up while MSFT is slightly down."),
	)
	agent := newTestAgent(t, AgentMaster, provider, fakeTools(t, &calls))

	result := agent.Execute(context.Background(), "Compare these stocks: AAPL, MSFT")

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "master", result.Agent)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	assert.Len(t, aitest.LastToolResults(provider.Requests()[1]), 2)
}

func TestAgentReportsUnknownToolToModel(t *testing.T) {
	provider := aitest.NewScripted(
		aitest.ToolCalls(aitest.Symbol("get_news", "AAPL")),
		aitest.Text("I can only look up prices and company info."),
	)
	agent := newTestAgent(t, AgentJunior, provider, fakeTools(t, nil))

	result := agent.Execute(context.Background(), "News for AAPL")

	require.True(t, result.Success)
	results := aitest.LastToolResults(provider.Requests()[1])
	require.Len(t, results, 1)
	assert.True(t, results[0].IsError)
	assert.Contains(t, results[0].Content, "unknown tool get_news")
}

func TestAgentReportsMissingSymbolToModel(t *testing.T) {
	provider := aitest.NewScripted(
		aitest.ToolCalls(aitest.Call{Name: tools.ToolGetStockPrice, Args: map[string]interface{}{}}),
		aitest.Text("Which symbol?"),
	)
	agent := newTestAgent(t, AgentJunior, provider, fakeTools(t, nil))

	result := agent.Execute(context.Background(), "price please")

	require.True(t, result.Success)
	results := aitest.LastToolResults(provider.Requests()[1])
	require.Len(t, results, 1)
	assert.True(t, results[0].IsError)
	assert.Contains(t, results[0].Content, "symbol")
}

func TestAgentFailsOnInvalidSymbol(t *testing.T) {
	provider := aitest.NewScripted(
		aitest.ToolCalls(aitest.Symbol(tools.ToolGetStockPrice, "INVALID_SYMBOL_12345")),
	)
	agent := newTestAgent(t, AgentJunior, provider, fakeTools(t, nil))

	result := agent.Execute(context.Background(), "Get the current stock price for INVALID_SYMBOL_12345")

	assert.False(t, result.Success)
	assert.Empty(t, result.Output)
	assert.Contains(t, result.Error, "invalid stock symbol")
	assert.Contains(t, result.Error, tools.ToolGetStockPrice)
	assert.Len(t, provider.Requests(), 1)
}

func TestAgentStopsAfterMaxIterations(t *testing.T) {
	provider := aitest.NewFunc(func(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
		return aitest.ToolCalls(aitest.Symbol(tools.ToolGetStockPrice, "AAPL")), nil
	})
	agent := newTestAgent(t, AgentJunior, provider, fakeTools(t, nil))

	result := agent.Execute(context.Background(), "loop forever on AAPL")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, errors.ErrMaxIterations.Error())
	assert.Len(t, provider.Requests(), 3)
}

func TestAgentTimesOut(t *testing.T) {
	provider := aitest.NewFunc(func(ctx context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	cfg := testConfigs()[AgentJunior]
	cfg.Timeout = 20 * time.Millisecond
	agent, err := NewJuniorAgent(cfg, testDeps(provider), fakeTools(t, nil))
	require.NoError(t, err)

	result := agent.Execute(context.Background(), "Get the current stock price for AAPL")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, errors.ErrTimeout.Error())
}

func TestAgentFailsOnEmptyAnswer(t *testing.T) {
	agent := newTestAgent(t, AgentJunior, aitest.NewScripted(aitest.Text("   ")), fakeTools(t, nil))

	result := agent.Execute(context.Background(), "Get the current stock price for AAPL")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, errors.ErrEmptyResponse.Error())
}

func TestAgentFailsOnProviderError(t *testing.T) {
	provider := aitest.NewScripted().Fail(errors.Wrap(errors.ErrUnavailable, "upstream 503"))
	agent := newTestAgent(t, AgentMaster, provider, fakeTools(t, nil))

	result := agent.Execute(context.Background(), "Perform comprehensive analysis of AAPL")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "MasterAgent model call")
	assert.Contains(t, result.Error, "upstream 503")
}

func TestAgentSetToolsRebinds(t *testing.T) {
	provider := aitest.NewScripted(aitest.Text("no tools yet"), aitest.Text("now with tools"))
	agent := newTestAgent(t, AgentJunior, provider, nil)

	require.True(t, agent.Execute(context.Background(), "hello").Success)
	assert.Empty(t, provider.Requests()[0].Tools)
	assert.Equal(t, 0, agent.Tools().Len())

	agent.SetTools(fakeTools(t, nil))

	require.True(t, agent.Execute(context.Background(), "hello").Success)
	assert.Len(t, provider.Requests()[1].Tools, 2)
	assert.Equal(t, 2, agent.Tools().Len())
}

func TestNewAgentValidation(t *testing.T) {
	cfg := testConfigs()[AgentJunior]

	_, err := NewAgent(cfg, Deps{Model: ai.ModelGPT4}, nil)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = NewAgent(cfg, Deps{Provider: aitest.NewScripted()}, nil)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	cfg.MaxIterations = 0
	_, err = NewAgent(cfg, testDeps(aitest.NewScripted()), nil)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestAgentCapabilitiesAreCopied(t *testing.T) {
	agent := newTestAgent(t, AgentJunior, aitest.NewScripted(), nil)

	caps := agent.Capabilities()
	require.NotEmpty(t, caps)
	caps[0] = "mutated"
	assert.NotEqual(t, "mutated", agent.Capabilities()[0])
}
