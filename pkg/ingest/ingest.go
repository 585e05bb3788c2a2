// Package ingest implements the Runtime Ingestor (C15): a per-record
// parse → extract → relatedness-check → accumulate → load pipeline that
// degrades gracefully at each stage rather than aborting the whole batch
// (spec.md §4.15). Modeled on the teacher's pkg/queue/executor.go: continue
// past a per-item failure, collect per-item outcomes, and roll them up into
// one terminal status.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/graphqa/kgqa/pkg/dedup"
	"github.com/graphqa/kgqa/pkg/graph"
	"github.com/graphqa/kgqa/pkg/graphdb"
	"github.com/graphqa/kgqa/pkg/llmclient"
	"github.com/graphqa/kgqa/pkg/ontology"
	"github.com/graphqa/kgqa/pkg/rules"
)

// Ingestor runs the ingestion pipeline against one graph database.
// Orchestrator, Deduper, and llm are all optional: a nil Orchestrator makes
// every record use the deterministic fallback extractor; a nil Deduper
// skips canonicalization and loads entity nodes as extracted; a nil llm
// falls back to deterministic lowercase-name matching for relatedness
// linking instead of asking the model to decide (spec.md §4.15 step 3).
type Ingestor struct {
	connector    *graphdb.Connector
	orchestrator *ontology.Orchestrator
	deduper      *dedup.Deduplicator
	llm          llmclient.Client
	log          *slog.Logger
}

// New builds an Ingestor.
func New(connector *graphdb.Connector, orchestrator *ontology.Orchestrator, deduper *dedup.Deduplicator, llm llmclient.Client) *Ingestor {
	return &Ingestor{
		connector:    connector,
		orchestrator: orchestrator,
		deduper:      deduper,
		llm:          llm,
		log:          slog.With("component", "ingestor"),
	}
}

// Summary is the terminal result of one Ingest call.
type Summary struct {
	TotalRecords int
	Loaded       int
	Failed       int
	UsedFallback bool
	Status       Status
	Outcomes     []RecordOutcome
	RuleProfile  []rules.RuleProfile
	Violations   map[string]rules.NodeValidation
}

// Ingest runs parse → extract → relatedness → accumulate → load over
// records against database, never aborting the batch on a single record's
// failure (spec.md §4.15).
func (ing *Ingestor) Ingest(ctx context.Context, database string, records []Record, opts Options) (Summary, error) {
	existing, err := existingEntityIndex(ctx, ing.connector, database)
	if err != nil {
		return Summary{}, err
	}

	outcomes := make([]RecordOutcome, len(records))
	extracted := make(map[int]graph.Payload, len(records))
	usedFallback := false

	for i, rec := range records {
		outcome := RecordOutcome{Index: i}

		text, err := ParseRecord(rec)
		if err != nil {
			outcome.Error = err.Error()
			outcomes[i] = outcome
			continue
		}

		documentID := fmt.Sprintf("doc_%d", i)
		payload, fallback, warnings, err := extractGraph(ctx, ing.orchestrator, text, documentID)
		if err != nil {
			outcome.Error = err.Error()
			outcomes[i] = outcome
			continue
		}
		outcome.Warnings = append(outcome.Warnings, warnings...)
		if fallback {
			usedFallback = true
		}

		entityNames := entityDisplayNames(payload)
		ratio, overlap := relatedness(entityNames, existing)
		if shouldLink(ratio, overlap, opts.RelatednessThreshold) {
			payload = ing.linkEntities(ctx, payload, entityNames, existing)
		} else if len(entityNames) > 0 {
			outcome.Warnings = append(outcome.Warnings, fmt.Sprintf(
				"skipped relatedness linking: overlap ratio %.2f below threshold %.2f", ratio, opts.RelatednessThreshold))
		}

		outcome.SourceID = documentID
		outcome.Loaded = true
		outcomes[i] = outcome
		extracted[i] = payload
	}

	var union graph.Payload
	for _, p := range extracted {
		union.Nodes = append(union.Nodes, p.Nodes...)
		union.Relationships = append(union.Relationships, p.Relationships...)
	}
	profile := rules.Infer(union, rules.DefaultThresholds())
	nodeValidations, violationSummary := rules.Validate(union, profile)
	ing.log.Info("inferred rule profile for ingest run", "database", database,
		"rules", len(profile), "failed_nodes", violationSummary.Failed)

	loadedCount := 0
	for i, payload := range extracted {
		if ing.deduper != nil {
			nodes, remap, err := ing.deduper.DedupNodes(ctx, payload.Nodes)
			if err != nil {
				outcomes[i].Loaded = false
				outcomes[i].Error = err.Error()
				continue
			}
			payload = graph.Payload{Nodes: nodes, Relationships: dedup.DedupRelationships(payload.Relationships, remap)}
		}
		if err := ing.connector.LoadGraph(ctx, database, outcomes[i].SourceID, payload); err != nil {
			outcomes[i].Loaded = false
			outcomes[i].Error = err.Error()
			continue
		}
		loadedCount++
	}

	failedCount := len(records) - loadedCount

	return Summary{
		TotalRecords: len(records),
		Loaded:       loadedCount,
		Failed:       failedCount,
		UsedFallback: usedFallback,
		Status:       classifyStatus(len(records), loadedCount, usedFallback),
		Outcomes:     outcomes,
		RuleProfile:  profile,
		Violations:   nodeValidations,
	}, nil
}

func classifyStatus(total, loaded int, usedFallback bool) Status {
	switch {
	case loaded == 0 && total > 0:
		return StatusFailed
	case loaded < total:
		return StatusPartialSuccess
	case usedFallback:
		return StatusSuccessWithFallback
	default:
		return StatusSuccess
	}
}

func entityDisplayNames(payload graph.Payload) []string {
	var names []string
	for _, n := range payload.Nodes {
		if n.Label == documentLabel {
			continue
		}
		if name, ok := n.Properties["name"].(string); ok && name != "" {
			names = append(names, name)
		}
	}
	return names
}

// linkEntities decides which of the record's new entity nodes should be
// rewritten onto existing graph nodes. When an LM client is configured, the
// decision is delegated to it (spec.md §4.15 step 3, "run the LM linker");
// any name the model doesn't resolve — or every name, if the call fails or
// the client is nil — falls back to deterministic lowercase-name matching.
func (ing *Ingestor) linkEntities(ctx context.Context, payload graph.Payload, entityNames []string, existing map[string]string) graph.Payload {
	effective := existing
	if ing.llm != nil {
		if lmRemap := lmLink(ctx, ing.llm, entityNames, existing); len(lmRemap) > 0 {
			merged := make(map[string]string, len(existing))
			for name, id := range existing {
				merged[name] = id
			}
			for name, id := range lmRemap {
				merged[name] = id
			}
			effective = merged
		}
	}
	return linkToExisting(payload, effective)
}

// linkToExisting rewrites any new entity node whose display name matches
// an existing node (case-insensitively) to use the existing node's id,
// and drops the now-redundant duplicate node, so the loaded relationships
// attach onto the existing graph rather than creating a disconnected copy.
func linkToExisting(payload graph.Payload, existing map[string]string) graph.Payload {
	remap := make(map[string]string)
	var nodes []graph.Node
	for _, n := range payload.Nodes {
		if n.Label == documentLabel {
			nodes = append(nodes, n)
			continue
		}
		name, _ := n.Properties["name"].(string)
		if existingID, ok := existing[strings.ToLower(name)]; ok && existingID != n.ID {
			remap[n.ID] = existingID
			continue
		}
		nodes = append(nodes, n)
	}

	rels := make([]graph.Relationship, len(payload.Relationships))
	for i, r := range payload.Relationships {
		if target, ok := remap[r.TargetID]; ok {
			r.TargetID = target
		}
		if source, ok := remap[r.SourceID]; ok {
			r.SourceID = source
		}
		rels[i] = r
	}

	return graph.Payload{Nodes: nodes, Relationships: rels}
}
