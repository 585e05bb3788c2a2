// Package ontology implements the Semantic Pass Orchestrator (C12): three
// sequential LM invocations — ontology draft, SHACL-like constraint draft,
// entity-graph extraction — each returning strict JSON (spec.md §4.12).
// Modeled on the teacher's SingleShotController/ReactController idiom of a
// config-parameterized single call wrapped with its own failure handling,
// run three times in sequence with the second and third passes seeded by
// the earlier ones' output.
package ontology

import (
	"context"
	"log/slog"

	"github.com/graphqa/kgqa/pkg/graph"
	"github.com/graphqa/kgqa/pkg/llmclient"
)

// Class is one ontology class produced by the ontology pass.
type Class struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Properties  []string `json:"properties"`
}

// RelationshipDef is one relationship type produced by the ontology pass.
type RelationshipDef struct {
	Type        string `json:"type"`
	Source      string `json:"source"`
	Target      string `json:"target"`
	Description string `json:"description"`
}

// OntologyDraft is the ontology pass's output (spec.md §4.12 step 1).
type OntologyDraft struct {
	OntologyName  string            `json:"ontology_name"`
	Classes       []Class           `json:"classes"`
	Relationships []RelationshipDef `json:"relationships"`
}

// PropertyShape is one SHACL-like property constraint.
type PropertyShape struct {
	Path       string         `json:"path"`
	Constraint string         `json:"constraint"`
	Params     map[string]any `json:"params"`
}

// Shape is one class's set of property shapes.
type Shape struct {
	TargetClass string          `json:"target_class"`
	Properties  []PropertyShape `json:"properties"`
}

// ShaclDraft is the SHACL-like pass's output (spec.md §4.12 step 2).
type ShaclDraft struct {
	Shapes []Shape `json:"shapes"`
}

// Result bundles every pass's output plus per-pass failure metadata. Passes
// 1-2 degrade to a zero-value draft on failure; pass 3 is required — its
// error is returned directly.
type Result struct {
	Ontology   OntologyDraft
	Shacl      ShaclDraft
	Payload    graph.Payload
	PassErrors map[string]string
}

const (
	ontologySystemPrompt = "You are a knowledge-graph ontology designer. Given source text, respond with strict JSON: " +
		`{"ontology_name": string, "classes": [{"name","description","properties":[string]}], ` +
		`"relationships": [{"type","source","target","description"}]}. No prose outside the JSON object.`

	shaclSystemPrompt = "You are a constraint designer working from an ontology. Respond with strict JSON: " +
		`{"shapes": [{"target_class", "properties": [{"path","constraint" in required|datatype|enum|range, "params"}]}]}.`

	entityGraphSystemPrompt = "You are a knowledge-graph extractor operating under a fixed ontology and constraint set. " +
		`Respond with strict JSON: {"nodes": [{"id","label","properties"}], "relationships": [{"source_id","target_id","type","properties"}]}.`
)

// Orchestrator runs the three passes over an llmclient.Client.
type Orchestrator struct {
	llm llmclient.Client
	log *slog.Logger
}

// New builds an Orchestrator.
func New(llm llmclient.Client) *Orchestrator {
	return &Orchestrator{llm: llm, log: slog.With("component", "ontology_orchestrator")}
}

// Run executes all three passes over sourceText, returning whatever passes
// 1-2 managed to produce (possibly empty) and a required pass-3 payload.
func (o *Orchestrator) Run(ctx context.Context, sourceText string) (Result, error) {
	passErrors := make(map[string]string)

	ontologyDraft := o.runOntologyPass(ctx, sourceText, passErrors)
	shaclDraft := o.runShaclPass(ctx, sourceText, ontologyDraft, passErrors)

	payload, err := o.runEntityGraphPass(ctx, sourceText, ontologyDraft, shaclDraft)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Ontology:   ontologyDraft,
		Shacl:      shaclDraft,
		Payload:    payload,
		PassErrors: passErrors,
	}, nil
}

func (o *Orchestrator) runOntologyPass(ctx context.Context, sourceText string, passErrors map[string]string) OntologyDraft {
	raw, err := o.llm.CompleteJSON(ctx, ontologySystemPrompt, sourceText)
	if err != nil {
		o.log.Warn("ontology pass failed, degrading to empty draft", "error", err)
		passErrors["ontology"] = err.Error()
		return OntologyDraft{}
	}

	var draft OntologyDraft
	if err := decodeInto(raw, &draft); err != nil {
		passErrors["ontology"] = err.Error()
		return OntologyDraft{}
	}
	return draft
}

func (o *Orchestrator) runShaclPass(ctx context.Context, sourceText string, ontology OntologyDraft, passErrors map[string]string) ShaclDraft {
	userPrompt := sourceText + "\n\nOntology:\n" + summarizeOntology(ontology)
	raw, err := o.llm.CompleteJSON(ctx, shaclSystemPrompt, userPrompt)
	if err != nil {
		o.log.Warn("shacl pass failed, degrading to empty draft", "error", err)
		passErrors["shacl"] = err.Error()
		return ShaclDraft{}
	}

	var draft ShaclDraft
	if err := decodeInto(raw, &draft); err != nil {
		passErrors["shacl"] = err.Error()
		return ShaclDraft{}
	}
	return draft
}

func (o *Orchestrator) runEntityGraphPass(ctx context.Context, sourceText string, ontology OntologyDraft, shacl ShaclDraft) (graph.Payload, error) {
	userPrompt := sourceText + "\n\nOntology:\n" + summarizeOntology(ontology) + "\n\nConstraints:\n" + summarizeShacl(shacl)
	raw, err := o.llm.CompleteJSON(ctx, entityGraphSystemPrompt, userPrompt)
	if err != nil {
		return graph.Payload{}, err
	}

	var payload graph.Payload
	if err := decodeInto(raw, &payload); err != nil {
		return graph.Payload{}, err
	}
	return payload, nil
}
