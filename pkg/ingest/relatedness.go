package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/graphqa/kgqa/pkg/graphdb"
	"github.com/graphqa/kgqa/pkg/llmclient"
)

// existingEntityIndex fetches every node currently stored in database and
// returns a lowercase-display-name → id map, used both to score relatedness
// and, when a record is judged related, to link new entity nodes onto
// existing ones instead of creating duplicates.
func existingEntityIndex(ctx context.Context, connector *graphdb.Connector, database string) (map[string]string, error) {
	rows, err := connector.Run(ctx, database, graphdb.QuerySpec{Kind: graphdb.KindEntityNames, Text: "entity names"})
	if err != nil {
		return nil, err
	}
	index := make(map[string]string, len(rows))
	for _, row := range rows {
		id, _ := row["id"].(string)
		name, _ := row["name"].(string)
		if id == "" || name == "" {
			continue
		}
		index[strings.ToLower(name)] = id
	}
	return index, nil
}

// relatedness computes the lowercase-name overlap ratio between a record's
// extracted entity display names and the names already present in the
// target database (spec.md §4.15 step 3). An empty entity set is treated
// as unrelated (ratio 0) rather than vacuously related.
func relatedness(entityNames []string, existing map[string]string) (ratio float64, overlap int) {
	if len(entityNames) == 0 {
		return 0, 0
	}
	for _, name := range entityNames {
		if _, ok := existing[strings.ToLower(name)]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(entityNames)), overlap
}

// shouldLink reports whether the relatedness score clears the configured
// threshold — or found at least one direct overlap, which spec.md §4.15
// treats as related regardless of the ratio.
func shouldLink(ratio float64, overlap int, threshold float64) bool {
	return overlap > 0 || ratio >= threshold
}

const linkingSystemPrompt = "You are an entity linking assistant. Given a list of newly extracted entity names and a list of candidate entities already present in the graph, decide which extracted names refer to the same real-world entity as one of the candidates."

// lmLink asks the model to resolve each extracted name against the
// existing-entity candidates, returning a lowercase-name → existing-id
// remap for the names it judged as the same entity (spec.md §4.15 step 3).
// Only ids present in existing are accepted, so a hallucinated id can never
// corrupt the load. Any CompleteJSON error or malformed response degrades
// to an empty remap rather than failing the record.
func lmLink(ctx context.Context, llm llmclient.Client, entityNames []string, existing map[string]string) map[string]string {
	remap := make(map[string]string)
	if llm == nil || len(entityNames) == 0 || len(existing) == 0 {
		return remap
	}

	candidates := make(map[string]string, len(existing))
	for name, id := range existing {
		candidates[name] = id
	}
	payload, err := json.Marshal(map[string]any{"extracted_entities": entityNames, "candidates": candidates})
	if err != nil {
		return remap
	}
	user := fmt.Sprintf("Decide links for these entities:\n%s\n\nRespond with a JSON object {\"links\": {<extracted name>: <candidate id or null>}}.", payload)

	decision, err := llm.CompleteJSON(ctx, linkingSystemPrompt, user)
	if err != nil {
		return remap
	}
	links, ok := decision["links"].(map[string]any)
	if !ok {
		return remap
	}
	validIDs := make(map[string]bool, len(existing))
	for _, id := range existing {
		validIDs[id] = true
	}
	for name, raw := range links {
		id, ok := raw.(string)
		if !ok || !validIDs[id] {
			continue
		}
		remap[strings.ToLower(name)] = id
	}
	return remap
}
