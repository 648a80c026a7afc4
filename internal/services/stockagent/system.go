// Package stockagent is the entry point of the agent system. It owns the
// configuration, builds the tools and agents and keeps the session history.
package stockagent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"stockagents/internal/adapters/ai"
	"stockagents/internal/adapters/config"
	redisadapter "stockagents/internal/adapters/redis"
	"stockagents/internal/adapters/stockdata"
	"stockagents/internal/agents"
	"stockagents/internal/metrics"
	"stockagents/internal/tools"
	"stockagents/internal/tools/middleware"
	"stockagents/pkg/errors"
	"stockagents/pkg/logger"
)

const (
	// TestQuery is the query run by TestSystem.
	TestQuery = "Get the current stock price for AAPL"

	agentCount  = 3
	toolBackoff = 500 * time.Millisecond
)

// Options overrides collaborators that New would otherwise build from config.
type Options struct {
	// Provider replaces the LLM provider selected by LLM_PROVIDER.
	Provider ai.ChatProvider
	// StockData replaces the provider chosen from the stock data credentials.
	StockData stockdata.Provider
	// Redis backs the tool cache and shares LLM rate limits. Optional.
	Redis *redisadapter.Client
	// Tracker receives unexpected failures. Optional.
	Tracker errors.Tracker
	// Usage accumulates token usage. A new tracker is created when nil.
	Usage *ai.UsageTracker
}

// HistoryEntry is one answered query.
type HistoryEntry struct {
	ID        uuid.UUID     `json:"id"`
	Query     string        `json:"query"`
	Result    agents.Result `json:"result"`
	Timestamp time.Time     `json:"timestamp"`
}

// System is the stock agent façade. The zero value is an uninitialized system
// whose query methods all fail with "System not initialized".
type System struct {
	mu          sync.RWMutex
	initialized bool
	history     []HistoryEntry

	cfg          *config.Config
	model        string
	registry     *tools.Registry
	orchestrator *agents.Orchestrator
	junior       agents.SubAgent
	master       agents.SubAgent
	usage        *ai.UsageTracker
	tracker      errors.Tracker
	log          *logger.Logger
}

var _ metrics.SessionSource = (*System)(nil)

// New validates cfg and builds the tool registry and the three agents. It
// fails fast on configuration errors and builds nothing in that case.
func New(ctx context.Context, cfg *config.Config, opts Options) (*System, error) {
	if cfg == nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	log := logger.Get().With("component", "stock_agent_system")
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	usage := opts.Usage
	if usage == nil {
		usage = ai.NewUsageTracker()
	}

	provider := opts.Provider
	if provider == nil {
		var err error
		provider, err = ai.NewChatProvider(ctx, cfg.AI, redisClient(opts.Redis), usage)
		if err != nil {
			return nil, errors.Wrap(err, "create LLM provider")
		}
	}

	stock := opts.StockData
	if stock == nil {
		stock = stockdata.NewProvider(cfg.StockData)
	}

	var cache middleware.Cache = middleware.NewMemoryCache()
	if opts.Redis != nil {
		cache = opts.Redis
	}

	registry, err := tools.NewStockRegistry(stock, tools.StockToolOptions{
		Timeout:  cfg.Agents.ToolTimeout,
		Retries:  cfg.StockData.Retries,
		Backoff:  toolBackoff,
		Cache:    cache,
		CacheTTL: cfg.StockData.CacheTTL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "build stock tools")
	}

	model := ai.ModelFor(cfg.AI)
	factory, err := agents.NewFactory(agents.FactoryDeps{
		Deps: agents.Deps{
			Provider: provider,
			Model:    model,
			Tracker:  opts.Tracker,
		},
		Configs:    agents.DefaultAgentConfigs(cfg.Agents),
		Classifier: cfg.Agents.Classifier,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create agent factory")
	}

	team, err := factory.CreateTeam(registry)
	if err != nil {
		return nil, errors.Wrap(err, "create agents")
	}

	s := &System{
		cfg:          cfg,
		model:        model,
		registry:     registry,
		orchestrator: team.Orchestrator,
		junior:       team.Junior,
		master:       team.Master,
		usage:        usage,
		tracker:      opts.Tracker,
		log:          log,
	}

	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()

	log.Infow("Stock agent system initialized",
		"model", model,
		"stock_provider", stock.Name(),
		"tools", registry.List(),
		"classifier", cfg.Agents.Classifier,
	)
	return s, nil
}

func redisClient(c *redisadapter.Client) *goredis.Client {
	if c == nil {
		return nil
	}
	return c.Client()
}

// AnalyzeQuery routes query through the orchestrator and records the outcome
// in the session history. It never panics.
func (s *System) AnalyzeQuery(ctx context.Context, query string) agents.Result {
	s.mu.RLock()
	initialized, orchestrator := s.initialized, s.orchestrator
	s.mu.RUnlock()

	if !initialized {
		return agents.Result{Success: false, Error: errors.ErrNotInitialized.Error()}
	}

	id := uuid.New()
	ctx = errors.WithQueryID(ctx, id.String())

	result := s.orchestrate(ctx, orchestrator, query)
	if !result.Success {
		result = result.WithQuery(query)
	}

	s.appendHistory(HistoryEntry{
		ID:        id,
		Query:     query,
		Result:    result,
		Timestamp: time.Now(),
	})
	return result
}

func (s *System) orchestrate(ctx context.Context, orchestrator *agents.Orchestrator, query string) (result agents.Result) {
	defer func() {
		if r := recover(); r != nil {
			err := errors.Wrapf(errors.ErrInternal, "query processing panicked: %v", r)
			s.logger().Errorw("Recovered from panic", "query", query, "panic", r)
			if s.tracker != nil {
				_ = s.tracker.CaptureError(ctx, err, map[string]string{"component": "stock_agent_system"})
			}
			result = agents.Failure(agents.AgentOrchestrator, err)
		}
	}()

	return orchestrator.OrchestrateAnalysis(ctx, query)
}

func (s *System) appendHistory(entry HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, entry)
}

// GetStockPrice asks for the current price of symbol.
func (s *System) GetStockPrice(ctx context.Context, symbol string) agents.Result {
	return s.AnalyzeQuery(ctx, "Get the current stock price for "+symbol)
}

// GetStockInfo asks for company information about symbol.
func (s *System) GetStockInfo(ctx context.Context, symbol string) agents.Result {
	return s.AnalyzeQuery(ctx, "Get detailed information about "+symbol)
}

// AnalyzeStock asks for a comprehensive analysis of symbol.
func (s *System) AnalyzeStock(ctx context.Context, symbol string) agents.Result {
	return s.AnalyzeQuery(ctx, "Perform comprehensive analysis of "+symbol)
}

// CompareStocks asks for a comparison of symbols.
func (s *System) CompareStocks(ctx context.Context, symbols []string) agents.Result {
	return s.AnalyzeQuery(ctx, "Compare these stocks: "+strings.Join(symbols, ", "))
}

// PortfolioAnalysis asks for a review of a portfolio made of symbols.
func (s *System) PortfolioAnalysis(ctx context.Context, symbols []string) agents.Result {
	return s.AnalyzeQuery(ctx, "Analyze this portfolio: "+strings.Join(symbols, ", "))
}

// MarketResearch asks for research on a market topic.
func (s *System) MarketResearch(ctx context.Context, topic string) agents.Result {
	return s.AnalyzeQuery(ctx, "Research the market for: "+topic)
}

// SessionHistory returns a copy of the history in insertion order.
func (s *System) SessionHistory() []HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]HistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}

// ClearSessionHistory drops every history entry.
func (s *System) ClearSessionHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

// IsInitialized reports whether the system accepts queries.
func (s *System) IsInitialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// SessionHistoryLength returns the number of history entries.
func (s *System) SessionHistoryLength() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// TotalCostUSD returns the LLM spend of this process.
func (s *System) TotalCostUSD() float64 {
	if s.usage == nil {
		return 0
	}
	return s.usage.TotalCost().InexactFloat64()
}

// AgentCapabilities maps each agent to what it can do. Empty when the system
// is not initialized.
func (s *System) AgentCapabilities() map[string][]string {
	if !s.IsInitialized() {
		return map[string][]string{}
	}
	return map[string][]string{
		agents.AgentOrchestrator.String(): s.orchestrator.Capabilities(),
		agents.AgentJunior.String():       s.junior.Capabilities(),
		agents.AgentMaster.String():       s.master.Capabilities(),
	}
}

// AvailableTools describes the registered tools.
func (s *System) AvailableTools() []tools.Descriptor {
	return s.registry.Descriptors()
}

// TestReport is the outcome of TestSystem.
type TestReport struct {
	TestQuery     string        `json:"test_query"`
	Result        agents.Result `json:"result"`
	SystemWorking bool          `json:"system_working"`
}

// TestSystem runs a known price query end to end.
func (s *System) TestSystem(ctx context.Context) TestReport {
	result := s.AnalyzeQuery(ctx, TestQuery)
	return TestReport{
		TestQuery:     TestQuery,
		Result:        result,
		SystemWorking: result.Success,
	}
}

func (s *System) String() string {
	return fmt.Sprintf("StockAgentSystem(initialized=%t, agents=%d, tools=%d)",
		s.IsInitialized(), agentCount, s.registry.Len())
}

func (s *System) logger() *logger.Logger {
	if s.log == nil {
		return logger.Get()
	}
	return s.log
}
