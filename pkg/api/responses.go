package api

import (
	"github.com/graphqa/kgqa/pkg/chatsession"
	"github.com/graphqa/kgqa/pkg/debate"
	"github.com/graphqa/kgqa/pkg/platform"
	"github.com/graphqa/kgqa/pkg/resolver"
	"github.com/graphqa/kgqa/pkg/router"
	"github.com/graphqa/kgqa/pkg/specialist"
	"github.com/graphqa/kgqa/pkg/trace"
)

// RunAgentResponse answers POST /run_agent.
type RunAgentResponse struct {
	Response   string       `json:"response"`
	TraceSteps []trace.Step `json:"trace_steps"`
}

// RunDebateResponse answers POST /run_debate, per spec.md §6's
// {response, trace_steps, per_agent_results, degraded_databases}.
type RunDebateResponse struct {
	Response           string          `json:"response"`
	TraceSteps         []trace.Step    `json:"trace_steps"`
	PerAgentResults    []debate.Result `json:"per_agent_results"`
	DegradedDatabases  []string        `json:"degraded_databases,omitempty"`
}

// LPGNeighborView is one outgoing relationship from an entity, grouped
// under that entity in LPGRecordView (spec.md §8 scenario 3:
// {entity, neighbors: [{type, target}]}).
type LPGNeighborView struct {
	Type   string `json:"type"`
	Target string `json:"target"`
}

// LPGRecordView groups the specialist's flat NeighborRecord list by
// originating entity, the shape POST /run_agent_semantic's lpg_result
// renders.
type LPGRecordView struct {
	Entity    string            `json:"entity"`
	Neighbors []LPGNeighborView `json:"neighbors"`
}

// LPGResultView is the response-shaped translation of specialist.LPGResult.
type LPGResultView struct {
	Records      []LPGRecordView          `json:"records,omitempty"`
	LabelCounts  []specialist.LabelCount  `json:"label_counts,omitempty"`
	UsedFallback bool                     `json:"used_fallback"`
}

// newLPGResultView groups result.Neighbors by EntityName, preserving the
// order each entity's neighbors first appear in.
func newLPGResultView(result *specialist.LPGResult) *LPGResultView {
	if result == nil {
		return nil
	}
	view := &LPGResultView{LabelCounts: result.LabelCounts, UsedFallback: result.UsedFallback}

	index := make(map[string]int)
	for _, n := range result.Neighbors {
		i, ok := index[n.EntityName]
		if !ok {
			i = len(view.Records)
			index[n.EntityName] = i
			view.Records = append(view.Records, LPGRecordView{Entity: n.EntityName})
		}
		view.Records[i].Neighbors = append(view.Records[i].Neighbors, LPGNeighborView{
			Type: n.RelationshipType, Target: n.TargetName,
		})
	}
	return view
}

// RDFResourceView is one RDF resource-signature match.
type RDFResourceView struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	URI   string `json:"uri,omitempty"`
	Name  string `json:"name,omitempty"`
}

// RDFResultView is the response-shaped translation of specialist.RDFResult.
type RDFResultView struct {
	Resources    []RDFResourceView       `json:"resources,omitempty"`
	LabelCounts  []specialist.LabelCount `json:"label_counts,omitempty"`
	UsedFallback bool                    `json:"used_fallback"`
}

func newRDFResultView(result *specialist.RDFResult) *RDFResultView {
	if result == nil {
		return nil
	}
	view := &RDFResultView{LabelCounts: result.LabelCounts, UsedFallback: result.UsedFallback}
	for _, r := range result.Resources {
		view.Resources = append(view.Resources, RDFResourceView{ID: r.ID, Label: r.Label, URI: r.URI, Name: r.Name})
	}
	return view
}

// RunAgentSemanticResponse answers POST /run_agent_semantic.
type RunAgentSemanticResponse struct {
	Response         string            `json:"response"`
	TraceSteps       []trace.Step      `json:"trace_steps"`
	Route            router.Mode       `json:"route"`
	SemanticContext  resolver.Result   `json:"semantic_context"`
	OverridesApplied map[string]string `json:"overrides_applied,omitempty"`
	LPGResult        *LPGResultView    `json:"lpg_result,omitempty"`
	RDFResult        *RDFResultView    `json:"rdf_result,omitempty"`
}

// ChatSendResponse answers POST /platform/chat/send.
type ChatSendResponse struct {
	SessionID        string              `json:"session_id"`
	AssistantMessage string              `json:"assistant_message"`
	History          []chatsession.Turn  `json:"history"`
	ModeUsed         platform.Mode       `json:"mode_used"`
	FellBackToMode   platform.Mode       `json:"fell_back_to_mode,omitempty"`
	TraceSteps       []trace.Step        `json:"trace_steps"`
	UICards          []platform.Card     `json:"ui_cards"`
}

// ChatSessionResponse answers GET /platform/chat/session/{id}.
type ChatSessionResponse struct {
	SessionID string              `json:"session_id"`
	State     chatsession.State   `json:"state"`
	History   []chatsession.Turn  `json:"history"`
}

// IngestResponse answers POST /platform/ingest/raw.
type IngestResponse struct {
	TotalRecords  int                 `json:"total_records"`
	Loaded        int                 `json:"loaded"`
	Failed        int                 `json:"failed"`
	UsedFallback  bool                `json:"used_fallback"`
	Status        string              `json:"status"`
	Outcomes      []ingestOutcomeView `json:"outcomes"`
	RuleProfileID string              `json:"rule_profile_id,omitempty"`
}

type ingestOutcomeView struct {
	Index    int      `json:"index"`
	Loaded   bool     `json:"loaded"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// DatabasesResponse answers GET /databases.
type DatabasesResponse struct {
	Databases []string `json:"databases"`
}

// AgentsResponse answers GET /agents: one entry per provisionable
// specialist worker, named after its bound database.
type AgentsResponse struct {
	Agents []string `json:"agents"`
}

// FulltextEnsureResponse answers POST /indexes/fulltext/ensure.
type FulltextEnsureResponse struct {
	Results []fulltextResultView `json:"results"`
}

type fulltextResultView struct {
	Database string `json:"database"`
	Created  bool   `json:"created"`
	Exists   bool   `json:"exists"`
	Error    string `json:"error,omitempty"`
}
