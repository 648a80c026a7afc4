package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Query metrics
	Queries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockagents_queries_total",
			Help: "Total number of analyzed queries",
		},
		[]string{"route", "status"}, // status: success|error
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockagents_query_duration_seconds",
			Help:    "End-to-end query duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"route"},
	)

	// Agent metrics
	AgentCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockagents_agent_calls_total",
			Help: "Total number of agent executions",
		},
		[]string{"agent", "model", "status"}, // status: success|error
	)

	AgentLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockagents_agent_latency_seconds",
			Help:    "Agent execution latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"agent", "model"},
	)

	// LLM metrics
	LLMRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockagents_llm_requests_total",
			Help: "Total number of language model requests",
		},
		[]string{"provider", "model", "status"}, // status: success|error|rate_limited
	)

	LLMTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockagents_llm_tokens_total",
			Help: "Total tokens consumed",
		},
		[]string{"provider", "model", "type"}, // type: input|output
	)

	LLMCost = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockagents_llm_cost_usd",
			Help: "Total language model cost in USD",
		},
		[]string{"provider", "model"},
	)

	// Tool metrics
	ToolExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockagents_tool_executions_total",
			Help: "Total number of tool executions",
		},
		[]string{"tool", "status"},
	)

	ToolLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockagents_tool_latency_seconds",
			Help:    "Tool execution latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"tool"},
	)

	ToolCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockagents_tool_cache_total",
			Help: "Tool cache lookups",
		},
		[]string{"tool", "result"}, // result: hit|miss
	)

	// Stock data provider metrics
	StockAPICalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockagents_stock_api_calls_total",
			Help: "Total number of stock data API calls",
		},
		[]string{"provider", "endpoint", "status"},
	)

	StockAPILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockagents_stock_api_latency_seconds",
			Help:    "Stock data API latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"provider", "endpoint"},
	)
)

var initOnce sync.Once

// Init registers all metrics with Prometheus. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(Queries)
		prometheus.MustRegister(QueryDuration)

		prometheus.MustRegister(AgentCalls)
		prometheus.MustRegister(AgentLatency)

		prometheus.MustRegister(LLMRequests)
		prometheus.MustRegister(LLMTokens)
		prometheus.MustRegister(LLMCost)

		prometheus.MustRegister(ToolExecutions)
		prometheus.MustRegister(ToolLatency)
		prometheus.MustRegister(ToolCacheHits)

		prometheus.MustRegister(StockAPICalls)
		prometheus.MustRegister(StockAPILatency)
	})
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordQuery records one orchestrated query
func RecordQuery(route string, duration time.Duration, success bool) {
	s := "success"
	if !success {
		s = "error"
	}

	Queries.WithLabelValues(route, s).Inc()
	QueryDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordAgentCall records an agent execution
func RecordAgentCall(agent, model string, latency time.Duration, err error) {
	AgentCalls.WithLabelValues(agent, model, status(err)).Inc()
	AgentLatency.WithLabelValues(agent, model).Observe(latency.Seconds())
}

// RecordLLMRequest records a single completion round and its token usage
func RecordLLMRequest(provider, model string, inputTokens, outputTokens int, cost float64, err error) {
	LLMRequests.WithLabelValues(provider, model, status(err)).Inc()

	if inputTokens > 0 {
		LLMTokens.WithLabelValues(provider, model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		LLMTokens.WithLabelValues(provider, model, "output").Add(float64(outputTokens))
	}
	if cost > 0 {
		LLMCost.WithLabelValues(provider, model).Add(cost)
	}
}

// RecordLLMRateLimited records a request rejected by the local limiter
func RecordLLMRateLimited(provider, model string) {
	LLMRequests.WithLabelValues(provider, model, "rate_limited").Inc()
}

// RecordToolExecution records a tool execution
func RecordToolExecution(tool string, latency time.Duration, err error) {
	ToolExecutions.WithLabelValues(tool, status(err)).Inc()
	ToolLatency.WithLabelValues(tool).Observe(latency.Seconds())
}

// RecordToolCache records a cache lookup
func RecordToolCache(tool string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	ToolCacheHits.WithLabelValues(tool, result).Inc()
}

// RecordStockAPICall records a stock data API call
func RecordStockAPICall(provider, endpoint string, latency time.Duration, err error) {
	StockAPICalls.WithLabelValues(provider, endpoint, status(err)).Inc()
	StockAPILatency.WithLabelValues(provider, endpoint).Observe(latency.Seconds())
}
