package agents

// Result is the uniform outcome of every query entry point.
// Output is set only on success and Error only on failure.
type Result struct {
	Success bool   `json:"success"`
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
	Agent   string `json:"agent,omitempty"`
	Query   string `json:"query,omitempty"`
}

// Success builds a successful result.
func Success(agent AgentType, output string) Result {
	return Result{Success: true, Output: output, Agent: agent.String()}
}

// Failure builds a failed result from err.
func Failure(agent AgentType, err error) Result {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return Result{Success: false, Error: msg, Agent: agent.String()}
}

// WithQuery tags the result with the query that produced it.
func (r Result) WithQuery(query string) Result {
	r.Query = query
	return r
}
