package agents

import (
	"time"

	"stockagents/internal/adapters/config"
)

// AgentConfig captures runtime settings for an agent instance.
type AgentConfig struct {
	Type                 AgentType
	Name                 string
	SystemPromptTemplate string
	Capabilities         []string

	Temperature   float64
	MaxIterations int
	MaxTokens     int
	Timeout       time.Duration
}

var (
	orchestratorCapabilities = []string{
		"Coordinate between agents",
		"Route queries appropriately",
		"Synthesize results",
		"Quality control",
	}

	juniorCapabilities = []string{
		"Get current stock prices",
		"Look up company information",
		"Answer simple single-stock questions",
		"Quick market data retrieval",
	}

	masterCapabilities = []string{
		"Comprehensive stock analysis",
		"Multi-stock comparison",
		"Portfolio analysis",
		"Market research",
		"Investment insights and recommendations",
	}
)

// DefaultAgentConfigs builds the three agent configs from runtime settings.
func DefaultAgentConfigs(cfg config.AgentsConfig) map[AgentType]AgentConfig {
	return map[AgentType]AgentConfig{
		AgentOrchestrator: {
			Type:                 AgentOrchestrator,
			Name:                 "OrchestratorAgent",
			SystemPromptTemplate: "agents/orchestrator",
			Capabilities:         orchestratorCapabilities,
			Temperature:          cfg.OrchestratorTemperature,
			MaxIterations:        1,
			MaxTokens:            1024,
			Timeout:              cfg.Timeout,
		},
		AgentJunior: {
			Type:                 AgentJunior,
			Name:                 "JuniorAgent",
			SystemPromptTemplate: "agents/junior",
			Capabilities:         juniorCapabilities,
			Temperature:          cfg.JuniorTemperature,
			MaxIterations:        cfg.MaxIterations,
			MaxTokens:            1024,
			Timeout:              cfg.Timeout,
		},
		AgentMaster: {
			Type:                 AgentMaster,
			Name:                 "MasterAgent",
			SystemPromptTemplate: "agents/master",
			Capabilities:         masterCapabilities,
			Temperature:          cfg.MasterTemperature,
			MaxIterations:        cfg.MaxIterations,
			MaxTokens:            4096,
			Timeout:              cfg.Timeout,
		},
	}
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
