package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SessionSource exposes the live state the session collector reports.
type SessionSource interface {
	SessionHistoryLength() int
	TotalCostUSD() float64
	IsInitialized() bool
}

// SessionCollector reports façade state at scrape time
type SessionCollector struct {
	source SessionSource

	historyLength *prometheus.Desc
	totalCost     *prometheus.Desc
	initialized   *prometheus.Desc
}

// NewSessionCollector creates a collector over the given source
func NewSessionCollector(source SessionSource) *SessionCollector {
	return &SessionCollector{
		source: source,

		historyLength: prometheus.NewDesc(
			"stockagents_session_history_length",
			"Number of entries in the session history",
			nil, nil,
		),
		totalCost: prometheus.NewDesc(
			"stockagents_session_cost_usd",
			"Language model cost accumulated by this process",
			nil, nil,
		),
		initialized: prometheus.NewDesc(
			"stockagents_system_initialized",
			"Agent system state (0=not initialized, 1=initialized)",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *SessionCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.historyLength
	ch <- c.totalCost
	ch <- c.initialized
}

// Collect implements prometheus.Collector
func (c *SessionCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.historyLength, prometheus.GaugeValue, float64(c.source.SessionHistoryLength()))
	ch <- prometheus.MustNewConstMetric(c.totalCost, prometheus.GaugeValue, c.source.TotalCostUSD())

	initialized := 0.0
	if c.source.IsInitialized() {
		initialized = 1
	}
	ch <- prometheus.MustNewConstMetric(c.initialized, prometheus.GaugeValue, initialized)
}

// RegisterSessionCollector registers the collector with the default registry
func RegisterSessionCollector(collector *SessionCollector) error {
	return prometheus.Register(collector)
}
