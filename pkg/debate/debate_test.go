package debate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphqa/kgqa/pkg/graph"
	"github.com/graphqa/kgqa/pkg/graphdb"
	"github.com/graphqa/kgqa/pkg/llmclient"
	"github.com/graphqa/kgqa/pkg/memory"
	"github.com/graphqa/kgqa/pkg/trace"
	"github.com/graphqa/kgqa/pkg/worker"
)

func newReadyWorker(t *testing.T, db string, mock *llmclient.MockClient, finalAnswer string) *worker.Worker {
	t.Helper()
	driver := graphdb.NewMemDriver()
	driver.SeedNodes(db, graph.Node{ID: "n1", Label: "Thing", Properties: map[string]any{"name": "X"}})
	registry := graph.NewRegistry(db)
	connector := graphdb.NewConnector(driver, registry)
	w := worker.New(db, connector, mock)
	require.NoError(t, w.EnsureSchema(context.Background()))
	mock.Seed("the question", map[string]any{"final_answer": finalAnswer})
	return w
}

func TestOrchestrator_Run_OneResultPerWorker(t *testing.T) {
	mock := llmclient.NewMockClient()
	mock.Seed("the question", map[string]any{"final_answer": "generic answer"})

	workers := map[string]*worker.Worker{
		"kgnormal": newReadyWorker(t, "kgnormal", mock, "generic answer"),
		"kgalt":    newReadyWorker(t, "kgalt", mock, "generic answer"),
	}
	mock.Seed("Question: the question\n\nSpecialist responses:\n[kgalt]: generic answer\n[kgnormal]: generic answer\n",
		map[string]any{"final_answer": "synthesized answer"})

	orch := New(mock)
	outcome := orch.Run(context.Background(), "the question", workers, memory.New(0))

	require.Equal(t, StateReady, outcome.State)
	assert.Len(t, outcome.PerAgentResults, len(workers), "invariant: one result per registered worker")
	assert.Equal(t, "synthesized answer", outcome.Response)
}

func TestOrchestrator_Run_TraceOrderFanoutToSynthesis(t *testing.T) {
	mock := llmclient.NewMockClient()
	workers := map[string]*worker.Worker{
		"kgnormal": newReadyWorker(t, "kgnormal", mock, "generic answer"),
	}

	orch := New(mock)
	outcome := orch.Run(context.Background(), "the question", workers, memory.New(0))

	require.NotEmpty(t, outcome.TraceSteps)
	assert.Equal(t, trace.StepFanout, outcome.TraceSteps[0].Type)
	assert.Equal(t, trace.StepSynthesis, outcome.TraceSteps[len(outcome.TraceSteps)-1].Type)

	var sawCollect bool
	for _, s := range outcome.TraceSteps {
		if s.Type == trace.StepCollect {
			sawCollect = true
		}
	}
	assert.True(t, sawCollect)
}

func TestOrchestrator_Run_BlockedWhenAllWorkersDegraded(t *testing.T) {
	mock := llmclient.NewMockClient()
	driver := graphdb.NewMemDriver()
	driver.ForceTransient("kgnormal", true)
	registry := graph.NewRegistry("kgnormal")
	connector := graphdb.NewConnector(driver, registry)
	w := worker.New("kgnormal", connector, mock)

	orch := New(mock)
	outcome := orch.Run(context.Background(), "the question", map[string]*worker.Worker{"kgnormal": w}, memory.New(0))

	assert.Equal(t, StateBlocked, outcome.State)
	assert.Contains(t, outcome.DegradedDBs, "kgnormal")
}

func TestOrchestrator_Run_WorkerFailureProducesErrorResultNeverAborts(t *testing.T) {
	mock := llmclient.NewMockClient() // unseeded: worker LLM call falls back to a response lacking tool_calls/final_answer, which the worker treats as a pipeline error
	driver := graphdb.NewMemDriver()
	registry := graph.NewRegistry("kgnormal")
	connector := graphdb.NewConnector(driver, registry)
	w := worker.New("kgnormal", connector, mock)
	require.NoError(t, w.EnsureSchema(context.Background()))

	orch := New(mock)
	outcome := orch.Run(context.Background(), "unanswerable question", map[string]*worker.Worker{"kgnormal": w}, memory.New(0))

	require.Equal(t, StateReady, outcome.State)
	require.Len(t, outcome.PerAgentResults, 1)
	assert.Contains(t, outcome.PerAgentResults[0].Response, "Error:")
}
