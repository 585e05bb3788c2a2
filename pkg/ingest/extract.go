package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/graphqa/kgqa/pkg/graph"
	"github.com/graphqa/kgqa/pkg/ontology"
	"github.com/graphqa/kgqa/pkg/resolver"
)

const documentLabel = "Document"
const mentionsType = "MENTIONS"

// extractGraph turns parsed text into a graph payload (spec.md §4.15 step
// 2). When an ontology.Orchestrator is configured it runs the full
// three-pass LM extraction; when that orchestrator is absent, or its
// required entity-graph pass fails, extraction falls back to a
// deterministic scheme: one Document node plus one node per
// resolver.ExtractEntities hit, linked by MENTIONS. The bool return
// reports whether the fallback path was used, so the caller can reflect
// it in the run's status and per-record warnings.
func extractGraph(ctx context.Context, orch *ontology.Orchestrator, sourceText, documentID string) (graph.Payload, bool, []string, error) {
	var warnings []string

	if orch != nil {
		result, err := orch.Run(ctx, sourceText)
		if err == nil {
			for pass, msg := range result.PassErrors {
				warnings = append(warnings, fmt.Sprintf("%s pass degraded: %s", pass, msg))
			}
			return result.Payload, false, warnings, nil
		}
		warnings = append(warnings, fmt.Sprintf("ontology extraction failed, using fallback extraction: %s", err))
	}

	payload := fallbackExtract(sourceText, documentID)
	return payload, true, warnings, nil
}

// fallbackExtract builds a minimal graph without any LM call: a Document
// node holding the source text, and one node per capitalized-token entity
// ExtractEntities finds, each connected to the document by MENTIONS.
// Entity node IDs are derived from the entity's slugified display name
// rather than the document, so the same entity mentioned in two different
// records resolves to the same node id before dedup/relatedness ever run.
func fallbackExtract(sourceText, documentID string) graph.Payload {
	nodes := []graph.Node{{
		ID:    documentID,
		Label: documentLabel,
		Properties: map[string]any{
			"name": documentID,
			"text": truncate(sourceText, 2000),
		},
	}}
	var rels []graph.Relationship

	seen := make(map[string]bool)
	for _, name := range resolver.ExtractEntities(sourceText) {
		id := "ent_" + slugify(name)
		if seen[id] {
			continue
		}
		seen[id] = true
		nodes = append(nodes, graph.Node{
			ID:         id,
			Label:      "Entity",
			Properties: map[string]any{"name": name},
		})
		rels = append(rels, graph.Relationship{
			SourceID: documentID,
			TargetID: id,
			Type:     mentionsType,
		})
	}

	return graph.Payload{Nodes: nodes, Relationships: rels}
}

func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
