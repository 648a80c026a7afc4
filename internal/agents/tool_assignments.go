package agents

import "stockagents/internal/tools"

// AgentTools lists the tools each sub-agent may call. Both agents see the
// full stock catalog; the master uses it to gather data for several symbols.
var AgentTools = map[AgentType][]string{
	AgentJunior: {
		tools.ToolGetStockPrice,
		tools.ToolGetCompanyInfo,
	},
	AgentMaster: {
		tools.ToolGetStockPrice,
		tools.ToolGetCompanyInfo,
	},
}

// ToolsFor returns the tools assigned to agentType. When the assignment covers
// the whole registry, all itself is returned so agents share one instance.
func ToolsFor(agentType AgentType, all *tools.Registry) (*tools.Registry, error) {
	names := AgentTools[agentType]
	selected := make([]tools.Tool, 0, len(names))
	for _, name := range names {
		t, ok := all.Get(name)
		if !ok {
			continue
		}
		selected = append(selected, t)
	}
	if len(selected) == all.Len() {
		return all, nil
	}
	return tools.NewRegistry(selected...)
}
