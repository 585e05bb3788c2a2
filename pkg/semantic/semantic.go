// Package semantic stitches the four deterministic stages of the Semantic
// Query Flow (spec.md §4.8-§4.11) into one call: entity resolution, route
// selection, specialist execution, and answer synthesis. No example repo
// has a single component doing exactly this — it's new wiring grounded on
// the same controller shape pkg/ontology.Orchestrator uses to sequence its
// three passes (pkg/agent/controller/single_shot.go's config-parameterized
// single-call controller, applied here to whole pipeline stages instead of
// LM calls).
package semantic

import (
	"context"

	"github.com/google/uuid"

	"github.com/graphqa/kgqa/pkg/resolver"
	"github.com/graphqa/kgqa/pkg/router"
	"github.com/graphqa/kgqa/pkg/specialist"
	"github.com/graphqa/kgqa/pkg/synth"
	"github.com/graphqa/kgqa/pkg/trace"
)

// overrideFinalScore is the fixed score an injected entity_overrides
// candidate receives, per spec.md §4.16 scenario 4 ("top match has
// source=override, final_score=10.0") — high enough to outrank any
// lexically-scored candidate regardless of base/lexical/boost terms.
const overrideFinalScore = 10.0

// Override is one caller-supplied entity_overrides entry (spec.md §6's
// POST /run_agent_semantic request body): the caller asserts which node a
// named question entity resolves to, bypassing fulltext/CONTAINS lookup
// for that entity entirely.
type Override struct {
	QuestionEntity string   `json:"question_entity"`
	Database       string   `json:"database"`
	NodeID         string   `json:"node_id"`
	DisplayName    string   `json:"display_name"`
	Labels         []string `json:"labels,omitempty"`
}

// Pipeline runs the four-stage flow.
type Pipeline struct {
	resolver   *resolver.Resolver
	specialist *specialist.Specialist
}

// New builds a Pipeline over the already-constructed resolver and
// specialist (both depend on the same graphdb.Connector the caller wires
// up once at startup).
func New(r *resolver.Resolver, s *specialist.Specialist) *Pipeline {
	return &Pipeline{resolver: r, specialist: s}
}

// Outcome is the result of one semantic query, shaped to answer
// POST /run_agent_semantic directly (spec.md §6).
type Outcome struct {
	Route             router.Mode
	Resolution        resolver.Result
	OverridesApplied  map[string]string
	LPG               *specialist.LPGResult
	RDF               *specialist.RDFResult
	Answer            synth.Answer
	TraceSteps        []trace.Step
}

// Run executes entity resolution (with any entity_overrides injected ahead
// of ranking), route selection, specialist execution, and synthesis, in
// that order (spec.md §4.8-§4.11).
func (p *Pipeline) Run(ctx context.Context, question string, databases []string, overrides []Override, resultLimit int) (Outcome, error) {
	resolution := p.resolver.Resolve(ctx, question, databases)
	overridesApplied := applyOverrides(&resolution, overrides)

	resolveStep := trace.Step{
		ID: uuid.NewString(), Type: trace.StepSemantic, Agent: "semantic_pipeline",
		Content: "resolved entities for: " + question,
	}

	mode := router.Classify(question)
	routerStep := trace.Step{
		ID: uuid.NewString(), Type: trace.StepRouter, Agent: "semantic_pipeline",
		Content: "route: " + string(mode), ParentID: resolveStep.ID,
	}

	var lpgResult *specialist.LPGResult
	var rdfResult *specialist.RDFResult
	var err error

	specialistStep := trace.Step{
		ID: uuid.NewString(), Type: trace.StepSpecialist, Agent: "semantic_pipeline", ParentID: routerStep.ID,
	}

	switch mode {
	case router.ModeLPG:
		lpgResult, err = p.runLPG(ctx, resolution, databases, resultLimit)
	case router.ModeRDF:
		rdfResult, err = p.runRDF(ctx, resolution, databases)
	case router.ModeHybrid:
		lpgResult, err = p.runLPG(ctx, resolution, databases, resultLimit)
		if err == nil {
			rdfResult, err = p.runRDF(ctx, resolution, databases)
		}
	}
	if err != nil {
		return Outcome{}, err
	}
	specialistStep.Content = "ran specialists for mode " + string(mode)

	answer := synth.Synthesize(mode, resolution, lpgResult, rdfResult)
	synthesisStep := trace.Step{
		ID: uuid.NewString(), Type: trace.StepSynthesis, Agent: "semantic_pipeline",
		Content: answer.Text, ParentID: specialistStep.ID,
	}

	return Outcome{
		Route:            mode,
		Resolution:       resolution,
		OverridesApplied: overridesApplied,
		LPG:              lpgResult,
		RDF:              rdfResult,
		Answer:           answer,
		TraceSteps:       []trace.Step{resolveStep, routerStep, specialistStep, synthesisStep},
	}, nil
}

func (p *Pipeline) runLPG(ctx context.Context, resolution resolver.Result, databases []string, resultLimit int) (*specialist.LPGResult, error) {
	result, err := p.specialist.RunLPG(ctx, resolution, databases, resultLimit)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (p *Pipeline) runRDF(ctx context.Context, resolution resolver.Result, databases []string) (*specialist.RDFResult, error) {
	result, err := p.specialist.RunRDF(ctx, resolution, databases)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// applyOverrides injects one CandidateMatch per override directly into
// resolution, ranked above every lexically-scored candidate by fixed score
// (spec.md §4.16 scenario 4). An override for an entity the resolver
// already matched is prepended to that entity's candidate list; an
// override for an entity the resolver couldn't resolve at all promotes it
// out of Unresolved into a new single-candidate match.
func applyOverrides(resolution *resolver.Result, overrides []Override) map[string]string {
	if len(overrides) == 0 {
		return nil
	}
	applied := make(map[string]string, len(overrides))

	for _, o := range overrides {
		candidate := resolver.CandidateMatch{
			Database:    o.Database,
			NodeID:      o.NodeID,
			Labels:      o.Labels,
			DisplayName: o.DisplayName,
			FinalScore:  overrideFinalScore,
			Source:      resolver.SourceOverride,
		}

		idx := -1
		for i, m := range resolution.Matches {
			if m.Entity == o.QuestionEntity {
				idx = i
				break
			}
		}

		if idx >= 0 {
			m := resolution.Matches[idx]
			m.Candidates = append([]resolver.CandidateMatch{candidate}, m.Candidates...)
			m.IsConfident = true
			resolution.Matches[idx] = m
		} else {
			resolution.Matches = append(resolution.Matches, resolver.EntityResolution{
				Entity:      o.QuestionEntity,
				Candidates:  []resolver.CandidateMatch{candidate},
				IsConfident: true,
			})
			resolution.Unresolved = removeString(resolution.Unresolved, o.QuestionEntity)
		}

		applied[o.QuestionEntity] = o.NodeID
	}

	return applied
}

func removeString(items []string, target string) []string {
	out := items[:0:0]
	for _, s := range items {
		if s != target {
			out = append(out, s)
		}
	}
	return out
}
