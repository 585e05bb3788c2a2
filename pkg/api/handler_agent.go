package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/graphqa/kgqa/pkg/debate"
	"github.com/graphqa/kgqa/pkg/errs"
	"github.com/graphqa/kgqa/pkg/graph"
	"github.com/graphqa/kgqa/pkg/memory"
	"github.com/graphqa/kgqa/pkg/store"
	"github.com/graphqa/kgqa/pkg/worker"
)

// runAgentHandler handles POST /run_agent: router-mode execution, handing
// the query to a single specialist worker with no fan-out or synthesis
// (spec.md §6, the GLOSSARY's "legacy single-entry-point execution").
func (s *Server) runAgentHandler(c *gin.Context) {
	var req RunAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Wrap(errs.KindValidation, "api", err))
		return
	}
	if err := graph.ValidateWorkspaceID(req.WorkspaceID); err != nil {
		respondError(c, err)
		return
	}

	databases := s.registry.ListUserDatabases()
	if len(databases) == 0 {
		respondError(c, errs.New(errs.KindValidation, "api", "no databases registered"))
		return
	}

	w := worker.New(databases[0], s.connector, s.llm)
	result, err := w.Run(c.Request.Context(), memory.New(s.memCap), req.Query)
	if err != nil {
		respondError(c, errs.Wrap(errs.KindPipeline, "api.run_agent", err))
		return
	}

	c.JSON(http.StatusOK, RunAgentResponse{Response: result.Response, TraceSteps: result.Steps})
}

// runDebateHandler handles POST /run_debate: the Parallel Debate
// Orchestrator fanned out over every registered database, with no
// semantic-pipeline fallback — that fallback belongs to the chat façade
// alone, not this raw endpoint.
func (s *Server) runDebateHandler(c *gin.Context) {
	var req RunAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Wrap(errs.KindValidation, "api", err))
		return
	}
	if err := graph.ValidateWorkspaceID(req.WorkspaceID); err != nil {
		respondError(c, err)
		return
	}

	databases := s.registry.ListUserDatabases()
	workers := make(map[string]*worker.Worker, len(databases))
	for _, db := range databases {
		workers[db] = worker.New(db, s.connector, s.llm)
	}

	outcome := s.debateOrch.Run(c.Request.Context(), req.Query, workers, memory.New(s.memCap))
	if outcome.State == debate.StateBlocked {
		respondError(c, errs.New(errs.KindPipeline, "api.run_debate", "every specialist database is degraded"))
		return
	}

	if s.store != nil {
		_, _ = s.store.RecordDebateRun(c.Request.Context(), store.DebateRun{
			WorkspaceID:      req.WorkspaceID,
			Query:            req.Query,
			ReadyWorkerCount: len(outcome.PerAgentResults),
			FinalStatus:      string(outcome.State),
		})
	}

	c.JSON(http.StatusOK, RunDebateResponse{
		Response:          outcome.Response,
		TraceSteps:        outcome.TraceSteps,
		PerAgentResults:   outcome.PerAgentResults,
		DegradedDatabases: outcome.DegradedDBs,
	})
}

// runAgentSemanticHandler handles POST /run_agent_semantic: the four-stage
// Semantic Query Flow, with the flat specialist results reshaped into the
// entity-grouped view spec.md §8 scenario 3 asserts.
func (s *Server) runAgentSemanticHandler(c *gin.Context) {
	var req RunAgentSemanticRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Wrap(errs.KindValidation, "api", err))
		return
	}
	if err := graph.ValidateWorkspaceID(req.WorkspaceID); err != nil {
		respondError(c, err)
		return
	}

	databases := req.Databases
	if len(databases) == 0 {
		databases = s.registry.ListUserDatabases()
	}

	outcome, err := s.semPipe.Run(c.Request.Context(), req.Query, databases, req.EntityOverrides, 0)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, RunAgentSemanticResponse{
		Response:         outcome.Answer.Text,
		TraceSteps:       outcome.TraceSteps,
		Route:            outcome.Route,
		SemanticContext:  outcome.Resolution,
		OverridesApplied: outcome.OverridesApplied,
		LPGResult:        newLPGResultView(outcome.LPG),
		RDFResult:        newRDFResultView(outcome.RDF),
	})
}
