package agents

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"stockagents/internal/adapters/ai"
	"stockagents/internal/metrics"
	"stockagents/internal/tools"
	"stockagents/pkg/errors"
	"stockagents/pkg/logger"
)

// Orchestrator classifies queries, delegates them to the junior and/or master
// agent and merges their answers. It keeps no per-query state.
type Orchestrator struct {
	cfg        AgentConfig
	deps       Deps
	classifier Classifier
	junior     SubAgent
	master     SubAgent
	log        *logger.Logger
}

// NewOrchestrator creates the orchestrator. A nil classifier means keyword routing.
func NewOrchestrator(cfg AgentConfig, deps Deps, classifier Classifier, junior, master SubAgent) (*Orchestrator, error) {
	if err := deps.validate(); err != nil {
		return nil, errors.Wrap(err, "create orchestrator")
	}
	if junior == nil || master == nil {
		return nil, errors.NewValidationError("agents", "junior and master agents are required", nil)
	}
	if classifier == nil {
		classifier = NewKeywordClassifier()
	}

	return &Orchestrator{
		cfg:        cfg,
		deps:       deps,
		classifier: classifier,
		junior:     junior,
		master:     master,
		log:        logger.Get().With("component", "orchestrator"),
	}, nil
}

// SetupAgents binds tool registries to the sub-agents. Calling it again
// simply rebinds them.
func (o *Orchestrator) SetupAgents(juniorTools, masterTools *tools.Registry) {
	o.junior.SetTools(juniorTools)
	o.master.SetTools(masterTools)
	o.log.Debugw("Sub-agents wired", "junior_tools", juniorTools.Len(), "master_tools", masterTools.Len())
}

// Capabilities lists what the orchestrator itself does.
func (o *Orchestrator) Capabilities() []string { return copyStrings(o.cfg.Capabilities) }

// Junior returns the junior sub-agent.
func (o *Orchestrator) Junior() SubAgent { return o.junior }

// Master returns the master sub-agent.
func (o *Orchestrator) Master() SubAgent { return o.master }

// OrchestrateAnalysis answers query. Failures of sub-agents and tools are
// returned inside the Result, never as a panic or error.
func (o *Orchestrator) OrchestrateAnalysis(ctx context.Context, query string) Result {
	start := time.Now()

	if strings.TrimSpace(query) == "" {
		metrics.RecordQuery("none", time.Since(start), false)
		return Failure(AgentOrchestrator, errors.Wrap(errors.ErrInvalidInput,
			"empty query, ask about a stock symbol, a company or a market topic"))
	}

	classification, err := o.classifier.Classify(ctx, query)
	if err != nil {
		o.log.Warnw("Classification failed, routing to master", "error", err)
		classification = Classification{Route: RouteMaster, Reason: "classifier error"}
	}

	o.log.Infow("Query routed",
		"route", classification.Route,
		"reason", classification.Reason,
		"keyword", classification.MatchedKeyword,
		"symbols", classification.Symbols,
	)
	if o.deps.Tracker != nil {
		o.deps.Tracker.AddBreadcrumb(ctx, "query routed", "orchestrator", errors.LevelInfo, map[string]interface{}{
			"route":  string(classification.Route),
			"reason": classification.Reason,
		})
	}

	var result Result
	switch classification.Route {
	case RouteJunior:
		result = o.junior.Execute(ctx, query)
	case RouteBoth:
		result = o.synthesize(ctx, query, o.runParallel(ctx, query, o.junior, o.master))
	default:
		result = o.master.Execute(ctx, query)
	}

	metrics.RecordQuery(string(classification.Route), time.Since(start), result.Success)
	return result
}

// runParallel executes the agents concurrently and returns results in argument order.
func (o *Orchestrator) runParallel(ctx context.Context, query string, agents ...SubAgent) []Result {
	results := make([]Result, len(agents))

	var wg sync.WaitGroup
	for i, agent := range agents {
		wg.Add(1)
		go func(i int, agent SubAgent) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					o.log.Errorw("Sub-agent panicked", "agent", agent.Type(), "panic", r)
					results[i] = Failure(agent.Type(), errors.Wrapf(errors.ErrInternal, "%s panicked: %v", agent.Name(), r))
				}
			}()
			results[i] = agent.Execute(ctx, query)
		}(i, agent)
	}
	wg.Wait()

	return results
}

// synthesize merges sub-results. All failed: failure with every error. Some
// failed: the successful answers plus a note naming the failed agents.
func (o *Orchestrator) synthesize(ctx context.Context, query string, results []Result) Result {
	var succeeded []Result
	var failures errors.MultiError
	var failed []string

	for _, r := range results {
		if r.Success {
			succeeded = append(succeeded, r)
			continue
		}
		failures.Add(fmt.Errorf("%s agent: %s", r.Agent, r.Error))
		failed = append(failed, r.Agent)
	}

	o.log.Infow("Sub-agents finished", "succeeded", len(succeeded), "failed", failed)

	switch {
	case len(succeeded) == 0:
		return Failure(AgentOrchestrator, failures.ToError())
	case len(succeeded) == 1:
		output := succeeded[0].Output
		if failures.HasErrors() {
			output += "\n\nNote: this answer is partial. " + failures.Error()
		}
		return Success(AgentOrchestrator, output)
	}

	output, err := o.merge(ctx, query, succeeded)
	if err != nil {
		o.log.Warnw("Synthesis call failed, concatenating answers", "error", err)
		output = concatenate(succeeded)
	}
	if failures.HasErrors() {
		output += "\n\nNote: this answer is partial. " + failures.Error()
	}
	return Success(AgentOrchestrator, output)
}

type synthesisInput struct {
	Agent  string
	Output string
}

// merge asks the model to combine several answers into one.
func (o *Orchestrator) merge(ctx context.Context, query string, results []Result) (string, error) {
	inputs := make([]synthesisInput, 0, len(results))
	for _, r := range results {
		inputs = append(inputs, synthesisInput{Agent: r.Agent, Output: r.Output})
	}

	prompt, err := o.deps.prompts().Render("agents/synthesis", map[string]interface{}{
		"Query":   query,
		"Results": inputs,
	})
	if err != nil {
		return "", errors.Wrap(err, "render synthesis prompt")
	}

	resp, err := o.deps.Provider.Chat(ctx, ai.ChatRequest{
		Model:       o.deps.Model,
		Messages:    []ai.Message{ai.UserMessage(prompt)},
		Temperature: o.cfg.Temperature,
		MaxTokens:   o.cfg.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	merged := strings.TrimSpace(resp.Message.Content)
	if merged == "" {
		return "", errors.ErrEmptyResponse
	}
	return merged, nil
}

func concatenate(results []Result) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, fmt.Sprintf("## %s agent\n%s", r.Agent, r.Output))
	}
	return strings.Join(parts, "\n\n")
}
