// Package debate implements the Parallel Debate Orchestrator (C7): it fans
// a query out to one specialist worker per database concurrently, collects
// every result (successful or error-typed, never propagating a failure),
// and synthesizes a final answer from the labelled per-worker responses.
//
// The fan-out/collect shape is grounded directly on the teacher's
// SubAgentRunner (pkg/agent/orchestrator/runner.go): per-task timeout
// derived from a parent context, a buffered result channel sized to the
// worker count, and a mutex-guarded execution table.
package debate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/graphqa/kgqa/pkg/llmclient"
	"github.com/graphqa/kgqa/pkg/memory"
	"github.com/graphqa/kgqa/pkg/trace"
	"github.com/graphqa/kgqa/pkg/worker"
)

// PerTaskTimeout bounds each specialist worker's turn within a debate.
const PerTaskTimeout = 45 * time.Second

// State reports whether the debate could be run at all.
type State string

const (
	StateReady   State = "ready"
	StateBlocked State = "blocked"
)

// Result is one worker's contribution to the debate: {agent_name, db_name,
// response, trace_steps} per spec.md §3. A failed worker still produces a
// Result, with Response prefixed "Error: " and empty Steps.
type Result struct {
	AgentName string       `json:"agent_name"`
	DBName    string       `json:"db_name"`
	Response  string       `json:"response"`
	Steps     []trace.Step `json:"trace_steps,omitempty"`
}

// Outcome is what Run returns: the synthesized answer, the full trace
// tree, and every worker's individual result.
type Outcome struct {
	State           State
	Response        string
	TraceSteps      []trace.Step
	PerAgentResults []Result
	DegradedDBs     []string
}

// Orchestrator runs the debate across a set of specialist workers.
type Orchestrator struct {
	llm llmclient.Client
	log *slog.Logger
}

// New builds an Orchestrator. llm is used once, at the end, to synthesize
// the final answer from the labelled per-worker responses.
func New(llm llmclient.Client) *Orchestrator {
	return &Orchestrator{llm: llm, log: slog.With("component", "debate_orchestrator")}
}

// Run executes the six-step algorithm in spec.md §4.7.
func (o *Orchestrator) Run(ctx context.Context, query string, workers map[string]*worker.Worker, mem *memory.SharedMemory) Outcome {
	ready, degraded := o.partitionByReadiness(ctx, workers)
	if len(ready) == 0 {
		return Outcome{State: StateBlocked, DegradedDBs: degraded}
	}

	names := make([]string, 0, len(ready))
	for name := range ready {
		names = append(names, name)
	}
	sort.Strings(names)

	fanoutStep := trace.Step{
		ID: uuid.NewString(), Type: trace.StepFanout, Agent: "debate_orchestrator",
		Content: "dispatching " + strings.Join(names, ", "),
	}

	results := o.fanOut(ctx, names, ready, mem, query)

	debateSteps, collectStep := o.buildDebateAndCollect(results)

	perAgent := make([]Result, len(names))
	for i, name := range names {
		perAgent[i] = results[name]
	}

	synthesisResponse, synthesisStep := o.synthesize(ctx, query, perAgent)

	allSteps := []trace.Step{fanoutStep}
	allSteps = append(allSteps, debateSteps...)
	allSteps = append(allSteps, collectStep, synthesisStep)

	return Outcome{
		State:           StateReady,
		Response:        synthesisResponse,
		TraceSteps:      allSteps,
		PerAgentResults: perAgent,
		DegradedDBs:     degraded,
	}
}

// partitionByReadiness provisions each worker's schema (get_schema), and
// marks a DB degraded (excluded from the debate) if that fetch fails
// (spec.md §4.7 readiness degradation).
func (o *Orchestrator) partitionByReadiness(ctx context.Context, workers map[string]*worker.Worker) (ready map[string]*worker.Worker, degraded []string) {
	ready = make(map[string]*worker.Worker, len(workers))
	for db, w := range workers {
		if err := w.EnsureSchema(ctx); err != nil {
			o.log.Warn("worker schema fetch failed, marking degraded", "db", db, "error", err)
			degraded = append(degraded, db)
			continue
		}
		ready[db] = w
	}
	sort.Strings(degraded)
	return ready, degraded
}

// fanOut starts one concurrent task per (db, worker) pair, waits for all of
// them (no early cancellation on individual failure), and publishes each
// response to shared memory under agent_result:<db> (spec.md §4.7 steps
// 2-4).
func (o *Orchestrator) fanOut(ctx context.Context, names []string, workers map[string]*worker.Worker, mem *memory.SharedMemory, query string) map[string]Result {
	resultsCh := make(chan Result, len(names))
	var wg sync.WaitGroup

	for _, name := range names {
		wg.Add(1)
		go func(db string, w *worker.Worker) {
			defer wg.Done()
			taskCtx, cancel := context.WithTimeout(ctx, PerTaskTimeout)
			defer cancel()

			runResult, err := w.Run(taskCtx, mem, query)
			if err != nil {
				resultsCh <- Result{AgentName: db, DBName: db, Response: "Error: " + err.Error()}
				return
			}
			resultsCh <- Result{AgentName: db, DBName: db, Response: runResult.Response, Steps: runResult.Steps}
		}(name, workers[name])
	}

	wg.Wait()
	close(resultsCh)

	out := make(map[string]Result, len(names))
	for r := range resultsCh {
		out[r.DBName] = r
		mem.Set("agent_result:"+r.DBName, r.Response)
	}
	return out
}

// buildDebateAndCollect re-parents each worker's internal trace steps under
// a DEBATE node for that worker, then fans all the DEBATE nodes into one
// COLLECT node (spec.md §4.7 step 6).
func (o *Orchestrator) buildDebateAndCollect(results map[string]Result) (steps []trace.Step, collect trace.Step) {
	collectID := uuid.NewString()
	collect = trace.Step{ID: collectID, Type: trace.StepCollect, Agent: "debate_orchestrator", Content: "collecting all worker results"}

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		r := results[name]
		debateID := uuid.NewString()
		debateStep := trace.Step{ID: debateID, Type: trace.StepDebate, Agent: name, Content: r.Response, ParentID: collectID}
		steps = append(steps, debateStep)
		steps = append(steps, trace.Reparent(r.Steps, debateID)...)
	}
	return steps, collect
}

// synthesize composes a structured prompt containing the original question
// and the labelled per-worker responses, invokes the supervisor once, and
// records a SYNTHESIS step (spec.md §4.7 step 5).
func (o *Orchestrator) synthesize(ctx context.Context, query string, perAgent []Result) (string, trace.Step) {
	var labelled strings.Builder
	for _, r := range perAgent {
		fmt.Fprintf(&labelled, "[%s]: %s\n", r.DBName, r.Response)
	}

	system := "You are the debate supervisor. Synthesize one answer to the user's question from the labelled responses of each database specialist below. Note disagreement explicitly if responses conflict."
	user := fmt.Sprintf("Question: %s\n\nSpecialist responses:\n%s", query, labelled.String())

	decision, err := o.llm.CompleteJSON(ctx, system, user)
	response := ""
	if err != nil {
		response = "Error: synthesis failed: " + err.Error()
	} else if final, ok := decision["final_answer"].(string); ok {
		response = final
	} else {
		response = labelled.String()
	}

	step := trace.Step{ID: uuid.NewString(), Type: trace.StepSynthesis, Agent: "debate_orchestrator", Content: response}
	return response, step
}
