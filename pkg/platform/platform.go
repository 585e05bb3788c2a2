// Package platform is the Session/Platform Façade (C16): the single entry
// point a chat-style client calls, fanning out to router, debate, or
// semantic execution and recording the exchange in a capped per-session
// history (spec.md §4.16, §9 "shared mutable tables"). Grounded on the
// teacher's pkg/api/handler_alert.go request-shape/service-call idiom and
// cmd/tarsy/main.go's service-wiring order — the façade sits where the
// teacher's services.AlertService/ChatService sit, one layer above the
// HTTP handlers.
package platform

import (
	"context"
	"fmt"

	"github.com/graphqa/kgqa/pkg/chatsession"
	"github.com/graphqa/kgqa/pkg/debate"
	"github.com/graphqa/kgqa/pkg/errs"
	"github.com/graphqa/kgqa/pkg/graph"
	"github.com/graphqa/kgqa/pkg/graphdb"
	"github.com/graphqa/kgqa/pkg/llmclient"
	"github.com/graphqa/kgqa/pkg/memory"
	"github.com/graphqa/kgqa/pkg/semantic"
	"github.com/graphqa/kgqa/pkg/trace"
	"github.com/graphqa/kgqa/pkg/worker"
)

// Mode selects which execution path Send takes for one turn.
type Mode string

const (
	ModeRouter   Mode = "router"
	ModeDebate   Mode = "debate"
	ModeSemantic Mode = "semantic"
)

// SendRequest is the input to Send, mirroring POST /platform/chat/send's
// body (spec.md §6): {session_id, message, mode, workspace_id, databases?}.
type SendRequest struct {
	SessionID       string
	Message         string
	Mode            Mode
	WorkspaceID     string
	Databases       []string
	EntityOverrides []semantic.Override
}

// Card is one piece of structured UI content alongside the assistant's
// prose response (e.g. a resolved-entity chip, a route badge).
type Card struct {
	Kind  string `json:"kind"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// SendResponse is what Send returns, mirroring the response body of
// POST /platform/chat/send.
type SendResponse struct {
	SessionID        string            `json:"session_id"`
	AssistantMessage string            `json:"assistant_message"`
	History          []chatsession.Turn `json:"history"`
	ModeUsed         Mode              `json:"mode_used"`
	FellBackToMode   Mode              `json:"fell_back_to_mode,omitempty"`
	TraceSteps       []trace.Step      `json:"trace_steps"`
	UICards          []Card            `json:"ui_cards"`
}

// Facade wires the chat session history to the three execution paths.
type Facade struct {
	sessions   *chatsession.Manager
	connector  *graphdb.Connector
	registry   *graph.Registry
	llm        llmclient.Client
	debateOrch *debate.Orchestrator
	semPipe    *semantic.Pipeline
	memCap     int
}

// New builds a Facade. memCap is the per-request Shared Memory cache
// capacity (spec.md §4.3: one instance created fresh per request, never
// reused across requests); <= 0 uses memory.DefaultCacheCapacity.
// Workspaces are scoped by the caller at the HTTP layer, so one Facade
// serves every workspace.
func New(sessions *chatsession.Manager, connector *graphdb.Connector, registry *graph.Registry, llm llmclient.Client, debateOrch *debate.Orchestrator, semPipe *semantic.Pipeline, memCap int) *Facade {
	return &Facade{
		sessions:   sessions,
		connector:  connector,
		registry:   registry,
		llm:        llm,
		debateOrch: debateOrch,
		semPipe:    semPipe,
		memCap:     memCap,
	}
}

// Send appends the user's message to the session, dispatches per mode,
// records the assistant's reply, and returns the full turn outcome.
func (f *Facade) Send(ctx context.Context, req SendRequest) (SendResponse, error) {
	if req.Message == "" {
		return SendResponse{}, errs.New(errs.KindValidation, "platform", "message must not be empty")
	}
	if err := graph.ValidateWorkspaceID(req.WorkspaceID); err != nil {
		return SendResponse{}, err
	}

	session := f.sessions.GetOrCreate(req.SessionID)
	session.AddTurn(chatsession.RoleUser, req.Message, map[string]any{"workspace_id": req.WorkspaceID})

	databases := req.Databases
	if len(databases) == 0 {
		databases = f.registry.ListUserDatabases()
	}

	modeUsed := req.Mode
	var (
		answerText string
		steps      []trace.Step
		cards      []Card
		fellBack   Mode
		err        error
	)

	switch req.Mode {
	case ModeRouter:
		answerText, steps, err = f.runRouter(ctx, req.Message, databases)
	case ModeDebate:
		answerText, steps, cards, fellBack, err = f.runDebateWithFallback(ctx, req.Message, databases)
		if fellBack != "" {
			modeUsed = fellBack
		}
	case ModeSemantic:
		answerText, steps, cards, err = f.runSemantic(ctx, req.Message, databases, req.EntityOverrides)
	default:
		return SendResponse{}, errs.New(errs.KindValidation, "platform", "unknown mode: "+string(req.Mode))
	}
	if err != nil {
		return SendResponse{}, err
	}

	session.AddTurn(chatsession.RoleAssistant, answerText, map[string]any{"mode": string(modeUsed)})

	return SendResponse{
		SessionID:        session.ID,
		AssistantMessage: answerText,
		History:          session.Clone().Turns,
		ModeUsed:         modeUsed,
		FellBackToMode:   fellBack,
		TraceSteps:       steps,
		UICards:          cards,
	}, nil
}

// Reset clears a session's turn history without retiring its id.
func (f *Facade) Reset(sessionID string) error {
	session, err := f.sessions.Get(sessionID)
	if err != nil {
		return errs.Wrap(errs.KindValidation, "platform", err)
	}
	session.Clear()
	return nil
}

// Session returns a read-safe snapshot of one session's state, for
// GET /platform/chat/session/{id}.
func (f *Facade) Session(sessionID string) (chatsession.Session, error) {
	session, err := f.sessions.Get(sessionID)
	if err != nil {
		return chatsession.Session{}, errs.Wrap(errs.KindValidation, "platform", err)
	}
	return session.Clone(), nil
}

// runRouter implements the "legacy single-entry-point execution that
// delegates to one specialist via handoff" mode (GLOSSARY): it picks the
// first eligible database and runs that specialist's worker directly,
// with no fan-out or synthesis stage.
func (f *Facade) runRouter(ctx context.Context, query string, databases []string) (string, []trace.Step, error) {
	if len(databases) == 0 {
		return "", nil, errs.New(errs.KindValidation, "platform", "no databases registered for router handoff")
	}
	db := databases[0]
	w := worker.New(db, f.connector, f.llm)

	result, err := w.Run(ctx, memory.New(f.memCap), query)
	if err != nil {
		return "", nil, errs.Wrap(errs.KindPipeline, "platform.router", err)
	}
	return result.Response, result.Steps, nil
}

// runDebateWithFallback runs the Parallel Debate Orchestrator and, per
// spec.md §9, falls back to the semantic pipeline whenever every
// specialist worker was degraded (debate.StateBlocked) rather than
// surfacing an unusable "blocked" reply to the chat client.
func (f *Facade) runDebateWithFallback(ctx context.Context, query string, databases []string) (string, []trace.Step, []Card, Mode, error) {
	workers := make(map[string]*worker.Worker, len(databases))
	for _, db := range databases {
		workers[db] = worker.New(db, f.connector, f.llm)
	}

	outcome := f.debateOrch.Run(ctx, query, workers, memory.New(f.memCap))
	if outcome.State == debate.StateBlocked {
		answer, steps, cards, err := f.runSemantic(ctx, query, databases, nil)
		return answer, steps, cards, ModeSemantic, err
	}

	cards := make([]Card, 0, len(outcome.PerAgentResults))
	for _, r := range outcome.PerAgentResults {
		cards = append(cards, Card{Kind: "specialist_result", Title: r.AgentName, Body: r.Response})
	}
	if len(outcome.DegradedDBs) > 0 {
		cards = append(cards, Card{Kind: "degraded_databases", Title: "degraded", Body: fmt.Sprint(outcome.DegradedDBs)})
	}
	return outcome.Response, outcome.TraceSteps, cards, "", nil
}

// runSemantic runs the four-stage semantic pipeline and formats its
// resolution into a UI card alongside the prose answer.
func (f *Facade) runSemantic(ctx context.Context, query string, databases []string, overrides []semantic.Override) (string, []trace.Step, []Card, error) {
	outcome, err := f.semPipe.Run(ctx, query, databases, overrides, 0)
	if err != nil {
		return "", nil, nil, errs.Wrap(errs.KindPipeline, "platform.semantic", err)
	}

	cards := []Card{{Kind: "route", Title: "route", Body: string(outcome.Route)}}
	for _, m := range outcome.Resolution.Matches {
		cards = append(cards, Card{Kind: "entity_resolution", Title: m.Entity, Body: fmt.Sprintf("confident=%v candidates=%d", m.IsConfident, len(m.Candidates))})
	}
	return outcome.Answer.Text, outcome.TraceSteps, cards, nil
}
