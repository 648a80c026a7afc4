package agents

import (
	"stockagents/internal/tools"
	"stockagents/pkg/errors"
)

// FactoryDeps gathers everything needed to build the agent team.
type FactoryDeps struct {
	Deps
	Configs map[AgentType]AgentConfig
	// Classifier is "keyword" (default) or "llm".
	Classifier string
}

// Factory creates the orchestrator with its junior and master agents.
type Factory struct {
	deps       Deps
	configs    map[AgentType]AgentConfig
	classifier string
}

// Team is the built agent hierarchy.
type Team struct {
	Orchestrator *Orchestrator
	Junior       *Agent
	Master       *Agent
}

// NewFactory validates dependencies and returns a factory.
func NewFactory(deps FactoryDeps) (*Factory, error) {
	if err := deps.Deps.validate(); err != nil {
		return nil, errors.Wrap(err, "create agent factory")
	}
	for _, t := range []AgentType{AgentOrchestrator, AgentJunior, AgentMaster} {
		if _, ok := deps.Configs[t]; !ok {
			return nil, errors.NewValidationError("configs", "missing agent config", t.String())
		}
	}

	return &Factory{deps: deps.Deps, configs: deps.Configs, classifier: deps.Classifier}, nil
}

// CreateTeam builds all three agents and binds each sub-agent to its tools
// from the shared registry.
func (f *Factory) CreateTeam(registry *tools.Registry) (*Team, error) {
	juniorTools, err := ToolsFor(AgentJunior, registry)
	if err != nil {
		return nil, errors.Wrap(err, "junior tools")
	}
	masterTools, err := ToolsFor(AgentMaster, registry)
	if err != nil {
		return nil, errors.Wrap(err, "master tools")
	}

	junior, err := NewJuniorAgent(f.configs[AgentJunior], f.deps, nil)
	if err != nil {
		return nil, err
	}
	master, err := NewMasterAgent(f.configs[AgentMaster], f.deps, nil)
	if err != nil {
		return nil, err
	}

	orchestratorCfg := f.configs[AgentOrchestrator]
	classifier, err := NewClassifier(f.classifier, orchestratorCfg, f.deps)
	if err != nil {
		return nil, err
	}

	orchestrator, err := NewOrchestrator(orchestratorCfg, f.deps, classifier, junior, master)
	if err != nil {
		return nil, err
	}
	orchestrator.SetupAgents(juniorTools, masterTools)

	return &Team{Orchestrator: orchestrator, Junior: junior, Master: master}, nil
}
