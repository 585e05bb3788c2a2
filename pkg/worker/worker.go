// Package worker implements the Specialist Worker (C6): one lazily
// provisioned agent per database, exposing get_schema/query_db tools to
// itself and answering strictly within its bound database's scope.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/graphqa/kgqa/pkg/errs"
	"github.com/graphqa/kgqa/pkg/graphdb"
	"github.com/graphqa/kgqa/pkg/llmclient"
	"github.com/graphqa/kgqa/pkg/memory"
	"github.com/graphqa/kgqa/pkg/trace"
)

// MaxIterations bounds the worker's reason/act loop (spec.md has no
// explicit cap; this mirrors the teacher's ReAct controller's
// MaxIterations safety valve).
const MaxIterations = 4

// IterationTimeout bounds a single LLM-plus-tool round.
const IterationTimeout = 20 * time.Second

// Worker answers questions about exactly one database.
type Worker struct {
	DB     string
	schema string // cached schema text, fetched lazily on first get_schema() call

	connector *graphdb.Connector
	llm       llmclient.Client
	log       *slog.Logger
}

// New creates a worker bound to database db. The schema is not fetched
// until the first call that needs it (lazy provisioning, spec.md §4.6).
func New(db string, connector *graphdb.Connector, llm llmclient.Client) *Worker {
	return &Worker{
		DB:        db,
		connector: connector,
		llm:       llm,
		log:       slog.With("component", "specialist_worker", "db", db),
	}
}

// Result is what Run returns: the worker's final response plus the trace
// steps it generated internally (re-parented under DEBATE by the
// orchestrator).
type Result struct {
	Response string
	Steps    []trace.Step
}

// EnsureSchema fetches and caches the worker's schema text, the
// get_schema() tool described in spec.md §4.6. It is the readiness probe
// the orchestrator uses: a DB whose schema fetch fails is marked degraded
// and excluded from the debate (spec.md §4.7).
func (w *Worker) EnsureSchema(ctx context.Context) error {
	if w.schema != "" {
		return nil
	}
	rows, err := w.connector.Run(ctx, w.DB, graphdb.QuerySpec{
		Kind: graphdb.KindLabelCount,
		Text: "schema probe: label counts",
	})
	if err != nil {
		return err
	}
	w.schema = formatSchemaSummary(rows)
	return nil
}

func formatSchemaSummary(rows []graphdb.Row) string {
	if len(rows) == 0 {
		return "(empty database: no labels present)"
	}
	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "- %v (%v nodes)\n", r["label"], r["count"])
	}
	return b.String()
}

// instructionTemplate binds the target DB name and schema summary into the
// worker's system prompt, and must declare that out-of-scope questions are
// answered explicitly as such (spec.md §4.6).
func (w *Worker) instructionTemplate() string {
	return fmt.Sprintf(`You are the specialist agent for graph database %q.
Known schema (label: node count):
%s
You have two tools: get_schema() returns this schema text; query_db(cypher) runs a
read-only Cypher query against %q and returns its rows as JSON.
Answer only using information obtainable from this database. If the question is
outside what %q's schema could possibly answer, say so explicitly: do not guess
or answer from general knowledge.
Respond as JSON: either {"tool_calls":[{"name":"query_db","arguments":{"cypher":"..."}}]}
or {"final_answer":"..."}.`, w.DB, w.schema, w.DB, w.DB)
}

// Run answers query, looping through tool calls until the worker returns a
// final answer or MaxIterations is exhausted.
func (w *Worker) Run(ctx context.Context, mem *memory.SharedMemory, query string) (Result, error) {
	if err := w.EnsureSchema(ctx); err != nil {
		return Result{}, err
	}

	var steps []trace.Step
	steps = append(steps, trace.Step{
		ID: uuid.NewString(), Type: trace.StepUserInput, Agent: w.DB, Content: query,
	})

	observations := ""
	for iter := 0; iter < MaxIterations; iter++ {
		iterCtx, cancel := context.WithTimeout(ctx, IterationTimeout)
		user := query
		if observations != "" {
			user = query + "\n\nObservations so far:\n" + observations
		}

		decision, err := w.llm.CompleteJSON(iterCtx, w.instructionTemplate(), user)
		cancel()
		if err != nil {
			return Result{}, err
		}

		if final, ok := decision["final_answer"].(string); ok && final != "" {
			steps = append(steps, trace.Step{
				ID: uuid.NewString(), Type: trace.StepGeneration, Agent: w.DB, Content: final,
			})
			return Result{Response: final, Steps: steps}, nil
		}

		calls, _ := decision["tool_calls"].([]any)
		if len(calls) == 0 {
			return Result{}, errs.New(errs.KindPipeline, "specialist_worker", "worker returned neither tool_calls nor final_answer")
		}

		for _, raw := range calls {
			call, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			name, _ := call["name"].(string)

			// spec.md §9: worker trace inlines tool names only, never arguments.
			steps = append(steps, trace.Step{
				ID: uuid.NewString(), Type: trace.StepToolCall, Agent: w.DB, Content: name,
			})

			var observation string
			switch name {
			case "get_schema":
				observation = w.schema
			case "query_db":
				args, _ := call["arguments"].(map[string]any)
				cypher, _ := args["cypher"].(string)
				observation, err = w.queryDB(ctx, mem, cypher)
				if err != nil {
					observation = "Error: " + err.Error()
				}
			default:
				observation = fmt.Sprintf("Error: unknown tool %q", name)
			}

			steps = append(steps, trace.Step{
				ID: uuid.NewString(), Type: trace.StepToolOutput, Agent: w.DB, Content: observation,
			})
			observations += fmt.Sprintf("[%s] %s\n", name, observation)
		}
	}

	return Result{}, errs.New(errs.KindPipeline, "specialist_worker", "exceeded max iterations without a final answer")
}

// queryDB implements the query_db tool: cache-then-connector-fallback with
// write-through on miss (spec.md §4.6).
func (w *Worker) queryDB(ctx context.Context, mem *memory.SharedMemory, cypher string) (string, error) {
	if cached, ok := mem.CacheGet(w.DB, cypher); ok {
		return fmt.Sprint(cached), nil
	}

	// The underlying graph engine is abstracted away (spec.md §1): rather
	// than parse Cypher syntax, the query text is routed through the same
	// CONTAINS lookup the entity resolver falls back to, over the fixed
	// property set a specialist worker is allowed to search.
	rows, err := w.connector.Run(ctx, w.DB, graphdb.QuerySpec{
		Kind: graphdb.KindContainsSearch,
		Text: cypher,
		Params: map[string]any{
			"properties": []string{"name", "title", "id", "uri", "code", "symbol", "alias"},
			"text":       cypher,
			"limit":      10,
		},
	})
	if err != nil {
		return "", err
	}

	result := fmt.Sprintf("%v", rows)
	mem.CachePut(w.DB, cypher, result)
	return result, nil
}
