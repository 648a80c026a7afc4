package stockagent

import (
	"stockagents/internal/adapters/ai"
	"stockagents/internal/agents"
)

// Status is a read-only snapshot of the system.
type Status struct {
	Initialized          bool               `json:"initialized"`
	Config               StatusConfig       `json:"config"`
	Agents               map[string]bool    `json:"agents"`
	Tools                int                `json:"tools"`
	SessionHistoryLength int                `json:"session_history_length"`
	Usage                []ai.ProviderUsage `json:"usage,omitempty"`
	TotalCostUSD         string             `json:"total_cost_usd"`
}

// StatusConfig is the part of the configuration shown in Status.
type StatusConfig struct {
	Model         string `json:"model"`
	Provider      string `json:"provider,omitempty"`
	Classifier    string `json:"classifier,omitempty"`
	Verbose       bool   `json:"verbose"`
	MaxIterations int    `json:"max_iterations"`
}

// Status reports configuration, agent presence, tool count and usage. Safe
// to call on an uninitialized system.
func (s *System) Status() Status {
	s.mu.RLock()
	initialized := s.initialized
	historyLen := len(s.history)
	s.mu.RUnlock()

	status := Status{
		Initialized: initialized,
		Agents: map[string]bool{
			agents.AgentOrchestrator.String(): s.orchestrator != nil,
			agents.AgentJunior.String():       s.junior != nil,
			agents.AgentMaster.String():       s.master != nil,
		},
		Tools:                s.registry.Len(),
		SessionHistoryLength: historyLen,
		TotalCostUSD:         "0",
	}

	if s.cfg != nil {
		status.Config = StatusConfig{
			Model:         s.model,
			Provider:      s.cfg.AI.Provider,
			Classifier:    s.cfg.Agents.Classifier,
			Verbose:       s.cfg.Agents.Verbose,
			MaxIterations: s.cfg.Agents.MaxIterations,
		}
	}
	if s.usage != nil {
		status.Usage = s.usage.Snapshot()
		status.TotalCostUSD = s.usage.TotalCost().StringFixed(4)
	}

	return status
}
