package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockagents/internal/adapters/ai/aitest"
	"stockagents/internal/tools"
	"stockagents/pkg/errors"
)

func TestFactoryCreateTeam(t *testing.T) {
	provider := aitest.NewScripted(
		aitest.ToolCalls(aitest.Symbol(tools.ToolGetCompanyInfo, "MSFT")),
		aitest.Text("Microsoft Corporation is a technology company."),
	)
	factory, err := NewFactory(FactoryDeps{Deps: testDeps(provider), Configs: testConfigs()})
	require.NoError(t, err)

	registry := fakeTools(t, nil)
	team, err := factory.CreateTeam(registry)
	require.NoError(t, err)

	assert.Equal(t, AgentJunior, team.Junior.Type())
	assert.Equal(t, AgentMaster, team.Master.Type())
	assert.Equal(t, []string{tools.ToolGetStockPrice, tools.ToolGetCompanyInfo}, team.Junior.Tools().List())
	assert.Same(t, registry, team.Junior.Tools())
	assert.Same(t, registry, team.Master.Tools())

	result := team.Orchestrator.OrchestrateAnalysis(context.Background(), "Get detailed information about MSFT")
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "junior", result.Agent)
}

func TestFactoryRequiresAllConfigs(t *testing.T) {
	configs := testConfigs()
	delete(configs, AgentMaster)

	_, err := NewFactory(FactoryDeps{Deps: testDeps(aitest.NewScripted()), Configs: configs})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestToolsForFiltersUnassignedTools(t *testing.T) {
	registry, err := tools.NewRegistry(
		tools.New(tools.ToolGetStockPrice, "price", nil),
		tools.New("get_news", "news", nil),
	)
	require.NoError(t, err)

	selected, err := ToolsFor(AgentJunior, registry)
	require.NoError(t, err)
	assert.Equal(t, []string{tools.ToolGetStockPrice}, selected.List())
	assert.NotSame(t, registry, selected)
}
