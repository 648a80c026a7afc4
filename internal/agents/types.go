package agents

// AgentType enumerates supported agent specializations.
type AgentType string

const (
	AgentOrchestrator AgentType = "orchestrator"
	AgentJunior       AgentType = "junior"
	AgentMaster       AgentType = "master"
)

func (t AgentType) String() string { return string(t) }

// Route is the classifier's decision on which sub-agents answer a query.
type Route string

const (
	RouteJunior Route = "junior"
	RouteMaster Route = "master"
	RouteBoth   Route = "both"
)

// ParseRoute accepts "junior", "master" or "both".
func ParseRoute(s string) (Route, bool) {
	switch r := Route(s); r {
	case RouteJunior, RouteMaster, RouteBoth:
		return r, true
	default:
		return "", false
	}
}

// Agents lists the sub-agents a route dispatches to.
func (r Route) Agents() []AgentType {
	switch r {
	case RouteJunior:
		return []AgentType{AgentJunior}
	case RouteMaster:
		return []AgentType{AgentMaster}
	case RouteBoth:
		return []AgentType{AgentJunior, AgentMaster}
	default:
		return nil
	}
}
