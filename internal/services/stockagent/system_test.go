package stockagent

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockagents/internal/adapters/ai"
	"stockagents/internal/adapters/ai/aitest"
	"stockagents/internal/adapters/config"
	"stockagents/internal/adapters/stockdata"
	"stockagents/internal/tools"
	"stockagents/pkg/errors"
)

type fakeStockData struct {
	calls int32
}

func (f *fakeStockData) Name() string { return "fake" }

func (f *fakeStockData) Quote(_ context.Context, symbol string) (*stockdata.Quote, error) {
	atomic.AddInt32(&f.calls, 1)
	return &stockdata.Quote{
		Symbol:        symbol,
		Price:         decimal.RequireFromString("190.12"),
		Change:        decimal.RequireFromString("2.35"),
		ChangePercent: decimal.RequireFromString("1.25"),
		Currency:      "USD",
		Source:        "fake",
	}, nil
}

func (f *fakeStockData) Profile(_ context.Context, symbol string) (*stockdata.Profile, error) {
	atomic.AddInt32(&f.calls, 1)
	return &stockdata.Profile{Symbol: symbol, Name: symbol + " Inc.", Currency: "USD", Source: "fake"}, nil
}

func (f *fakeStockData) Calls() int { return int(atomic.LoadInt32(&f.calls)) }

func testConfig() *config.Config {
	return &config.Config{
		AI: config.AIConfig{Provider: "openai", OpenAIKey: "sk-test", Model: ai.ModelGPT4},
		StockData: config.StockDataConfig{
			CacheTTL: time.Minute,
		},
		Agents: config.AgentsConfig{
			OrchestratorTemperature: 0.3,
			JuniorTemperature:       0.5,
			MasterTemperature:       0.7,
			MaxIterations:           5,
			Verbose:                 true,
			Classifier:              "keyword",
			Timeout:                 5 * time.Second,
			ToolTimeout:             time.Second,
		},
	}
}

// echoProvider answers every query with a fixed text, without tool calls.
func echoProvider() *aitest.Provider {
	return aitest.NewFunc(func(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
		return aitest.Text("done"), nil
	})
}

func newTestSystem(t *testing.T, provider ai.ChatProvider, stock stockdata.Provider) *System {
	t.Helper()
	s, err := New(context.Background(), testConfig(), Options{Provider: provider, StockData: stock})
	require.NoError(t, err)
	return s
}

func TestNewFailsFastWithoutCredential(t *testing.T) {
	cfg := testConfig()
	cfg.AI.OpenAIKey = ""

	s, err := New(context.Background(), cfg, Options{Provider: echoProvider()})
	assert.Nil(t, s)
	assert.ErrorIs(t, err, errors.ErrMissingCredential)

	_, err = New(context.Background(), nil, Options{})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestUninitializedSystem(t *testing.T) {
	var s System
	ctx := context.Background()

	result := s.AnalyzeQuery(ctx, "Get the current stock price for AAPL")
	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success": false, "error": "System not initialized"}`, string(data))

	assert.False(t, s.GetStockPrice(ctx, "AAPL").Success)
	assert.False(t, s.CompareStocks(ctx, []string{"AAPL", "MSFT"}).Success)
	assert.False(t, s.TestSystem(ctx).SystemWorking)

	assert.Empty(t, s.SessionHistory())
	assert.Equal(t, map[string][]string{}, s.AgentCapabilities())
	assert.Empty(t, s.AvailableTools())
	assert.Equal(t, "StockAgentSystem(initialized=false, agents=3, tools=0)", s.String())

	status := s.Status()
	assert.False(t, status.Initialized)
	assert.Equal(t, map[string]bool{"orchestrator": false, "junior": false, "master": false}, status.Agents)
	assert.Zero(t, status.SessionHistoryLength)
}

func TestAnalyzeQueryRoutesPriceQueryToJunior(t *testing.T) {
	stock := &fakeStockData{}
	provider := aitest.NewScripted(
		aitest.ToolCalls(aitest.Symbol(tools.ToolGetStockPrice, "AAPL")),
		aitest.Text("AAPL is trading at $190.12."),
	)
	s := newTestSystem(t, provider, stock)

	result := s.GetStockPrice(context.Background(), "AAPL")

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "junior", result.Agent)
	assert.Equal(t, "AAPL is trading at $190.12.", result.Output)
	assert.Empty(t, result.Error)
	assert.Equal(t, 1, stock.Calls())

	toolResult := aitest.LastToolResults(provider.Requests()[1])[0].Content
	assert.Contains(t, toolResult, "190.12")

	history := s.SessionHistory()
	require.Len(t, history, 1)
	assert.Equal(t, "Get the current stock price for AAPL", history[0].Query)
	assert.NotEqual(t, uuid.Nil, history[0].ID)
	assert.False(t, history[0].Timestamp.IsZero())
	assert.Equal(t, result, history[0].Result)
}

func TestAnalyzeQueryRoutesComparisonToMaster(t *testing.T) {
	provider := aitest.NewScripted(
		aitest.ToolCalls(
			aitest.Symbol(tools.ToolGetStockPrice, "AAPL"),
			aitest.Symbol(tools.ToolGetStockPrice, "MSFT"),
			aitest.Symbol(tools.ToolGetStockPrice, "GOOGL"),
		),
		aitest.Text("All three are up today."),
	)
	s := newTestSystem(t, provider, &fakeStockData{})

	result := s.CompareStocks(context.Background(), []string{"AAPL", "MSFT", "GOOGL"})

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "master", result.Agent)
	assert.InDelta(t, 0.7, provider.Requests()[0].Temperature, 1e-9)
}

func TestAnalyzeQueryInvalidSymbol(t *testing.T) {
	stock := &fakeStockData{}
	provider := aitest.NewScripted(
		aitest.ToolCalls(aitest.Symbol(tools.ToolGetStockPrice, "INVALID_SYMBOL_12345")),
	)
	s := newTestSystem(t, provider, stock)

	result := s.GetStockPrice(context.Background(), "INVALID_SYMBOL_12345")

	assert.False(t, result.Success)
	assert.Empty(t, result.Output)
	assert.Contains(t, result.Error, "invalid stock symbol")
	assert.Equal(t, "Get the current stock price for INVALID_SYMBOL_12345", result.Query)
	assert.Zero(t, stock.Calls(), "malformed symbols never reach the provider")
	assert.Len(t, s.SessionHistory(), 1)
}

func TestAnalyzeQueryEmpty(t *testing.T) {
	s := newTestSystem(t, echoProvider(), &fakeStockData{})

	result := s.AnalyzeQuery(context.Background(), "")

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.Empty(t, result.Output)
	assert.Len(t, s.SessionHistory(), 1)
}

func TestAnalyzeQueryRecoversFromPanic(t *testing.T) {
	provider := aitest.NewFunc(func(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
		panic("provider exploded")
	})
	s := newTestSystem(t, provider, &fakeStockData{})

	result := s.GetStockPrice(context.Background(), "AAPL")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "provider exploded")
	assert.Equal(t, "Get the current stock price for AAPL", result.Query)
	assert.Len(t, s.SessionHistory(), 1)
}

func TestConvenienceWrappers(t *testing.T) {
	s := newTestSystem(t, echoProvider(), &fakeStockData{})
	ctx := context.Background()

	s.GetStockPrice(ctx, "AAPL")
	s.GetStockInfo(ctx, "AAPL")
	s.AnalyzeStock(ctx, "AAPL")
	s.CompareStocks(ctx, []string{"AAPL", "MSFT"})
	s.PortfolioAnalysis(ctx, []string{"AAPL", "MSFT", "NVDA"})
	s.MarketResearch(ctx, "electric vehicles")

	var queries []string
	for _, e := range s.SessionHistory() {
		queries = append(queries, e.Query)
		assert.True(t, e.Result.Success, e.Result.Error)
	}
	assert.Equal(t, []string{
		"Get the current stock price for AAPL",
		"Get detailed information about AAPL",
		"Perform comprehensive analysis of AAPL",
		"Compare these stocks: AAPL, MSFT",
		"Analyze this portfolio: AAPL, MSFT, NVDA",
		"Research the market for: electric vehicles",
	}, queries)
}

func TestClearSessionHistoryIsIdempotent(t *testing.T) {
	s := newTestSystem(t, echoProvider(), &fakeStockData{})
	ctx := context.Background()

	s.AnalyzeQuery(ctx, "Get the current stock price for AAPL")
	s.AnalyzeQuery(ctx, "Research the market for: semiconductors")
	require.Len(t, s.SessionHistory(), 2)

	s.ClearSessionHistory()
	assert.Empty(t, s.SessionHistory())
	s.ClearSessionHistory()
	assert.Empty(t, s.SessionHistory())
	assert.Zero(t, s.SessionHistoryLength())
}

func TestConcurrentQueriesKeepEveryHistoryEntry(t *testing.T) {
	s := newTestSystem(t, echoProvider(), &fakeStockData{})

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				s.GetStockPrice(context.Background(), "AAPL")
			} else {
				s.MarketResearch(context.Background(), "banks")
			}
		}(i)
	}
	wg.Wait()

	history := s.SessionHistory()
	require.Len(t, history, n)

	ids := make(map[uuid.UUID]bool, n)
	for _, e := range history {
		ids[e.ID] = true
	}
	assert.Len(t, ids, n)
}

func TestIntrospection(t *testing.T) {
	usage := ai.NewUsageTracker()
	s, err := New(context.Background(), testConfig(), Options{
		Provider:  echoProvider(),
		StockData: &fakeStockData{},
		Usage:     usage,
	})
	require.NoError(t, err)

	assert.True(t, s.IsInitialized())
	assert.Equal(t, "StockAgentSystem(initialized=true, agents=3, tools=2)", s.String())

	caps := s.AgentCapabilities()
	assert.Len(t, caps, 3)
	assert.Contains(t, caps["orchestrator"], "Route queries appropriately")
	assert.NotEmpty(t, caps["junior"])
	assert.NotEmpty(t, caps["master"])

	available := s.AvailableTools()
	require.Len(t, available, 2)
	assert.Equal(t, tools.ToolGetStockPrice, available[0].Name)
	assert.True(t, strings.HasPrefix(available[0].Description, "Get the current price"))

	status := s.Status()
	assert.True(t, status.Initialized)
	assert.Equal(t, ai.ModelGPT4, status.Config.Model)
	assert.True(t, status.Config.Verbose)
	assert.Equal(t, 5, status.Config.MaxIterations)
	assert.Equal(t, map[string]bool{"orchestrator": true, "junior": true, "master": true}, status.Agents)
	assert.Equal(t, 2, status.Tools)
	assert.Equal(t, "0.0000", status.TotalCostUSD)

	usage.Record(ai.ModelInfo{Provider: ai.ProviderNameOpenAI, Name: ai.ModelGPT4, InputCostPer1K: 0.03, OutputCostPer1K: 0.06}, 1000, 1000)
	assert.InDelta(t, 0.09, s.TotalCostUSD(), 1e-9)
}

func TestTestSystem(t *testing.T) {
	s := newTestSystem(t, echoProvider(), &fakeStockData{})

	report := s.TestSystem(context.Background())

	assert.Equal(t, TestQuery, report.TestQuery)
	assert.True(t, report.SystemWorking)
	assert.Equal(t, "junior", report.Result.Agent)

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"system_working":true`)
}
