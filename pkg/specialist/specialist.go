// Package specialist implements the LPG and RDF Specialists (C10): the two
// graph-execution strategies the semantic query flow dispatches to once the
// Query Router has picked a mode (spec.md §4.10).
package specialist

import (
	"context"
	"sort"

	"github.com/graphqa/kgqa/pkg/graphdb"
	"github.com/graphqa/kgqa/pkg/resolver"
)

// topN is the number of highest-scoring resolved candidates each
// specialist drives its lookup from (spec.md §4.10: "top-3 resolved
// matches").
const topN = 3

// defaultResultLimit bounds how many neighbors a single neighborhood query
// returns when the caller doesn't specify one.
const defaultResultLimit = 25

// rdfSignatureLabels are the labels spec.md §4.10 names as qualifying a
// node for the RDF resource-signature lookup, alongside any node carrying
// a non-empty uri property.
var rdfSignatureLabels = map[string]bool{
	"resource": true, "class": true, "ontology": true, "individual": true,
}

// NeighborRecord is one neighbor found by the LPG neighborhood query.
type NeighborRecord struct {
	Database         string
	EntityID         string
	EntityName       string
	RelationshipType string
	TargetID         string
	TargetName       string
	TargetLabels     []string
}

// ResourceRecord is one node matching the RDF resource signature.
type ResourceRecord struct {
	Database string
	ID       string
	Label    string
	URI      string
	Name     string
}

// LabelCount is one (database, label) → count row from the fallback
// distribution query.
type LabelCount struct {
	Database string
	Label    string
	Count    int
}

// LPGResult is the output of RunLPG.
type LPGResult struct {
	Neighbors    []NeighborRecord
	LabelCounts  []LabelCount
	UsedFallback bool
}

// RDFResult is the output of RunRDF.
type RDFResult struct {
	Resources    []ResourceRecord
	LabelCounts  []LabelCount
	UsedFallback bool
}

// Specialist runs graph lookups over a Connector, driven by the candidates
// a Resolver produced.
type Specialist struct {
	connector *graphdb.Connector
}

// New builds a Specialist.
func New(connector *graphdb.Connector) *Specialist {
	return &Specialist{connector: connector}
}

// topCandidates flattens every entity's candidate list into one slice,
// sorts by FinalScore descending, and keeps the top topN — the "top-3
// resolved matches by score" spec.md §4.10 describes.
func topCandidates(result resolver.Result) []resolver.CandidateMatch {
	var all []resolver.CandidateMatch
	for _, m := range result.Matches {
		all = append(all, m.Candidates...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].FinalScore > all[j].FinalScore })
	if len(all) > topN {
		all = all[:topN]
	}
	return all
}

// RunLPG implements the LPG specialist: a neighborhood query per top
// resolved candidate, or a label-count distribution across databases when
// nothing resolved.
func (s *Specialist) RunLPG(ctx context.Context, result resolver.Result, databases []string, resultLimit int) (LPGResult, error) {
	if resultLimit <= 0 {
		resultLimit = defaultResultLimit
	}

	candidates := topCandidates(result)
	if len(candidates) == 0 {
		counts, err := s.labelCounts(ctx, databases)
		return LPGResult{LabelCounts: counts, UsedFallback: true}, err
	}

	var neighbors []NeighborRecord
	for _, c := range candidates {
		rows, err := s.connector.Run(ctx, c.Database, graphdb.QuerySpec{
			Kind: graphdb.KindNeighbors,
			Text: "neighbors: " + c.NodeID,
			Params: map[string]any{"node_id": c.NodeID, "limit": resultLimit},
		})
		if err != nil {
			return LPGResult{}, err
		}
		for _, row := range rows {
			relType, _ := row["type"].(string)
			targetID, _ := row["target"].(string)
			targetName, _ := row["target_name"].(string)
			if targetName == "" {
				targetName = targetID
			}
			targetLabels, _ := row["target_labels"].([]string)
			neighbors = append(neighbors, NeighborRecord{
				Database:         c.Database,
				EntityID:         c.NodeID,
				EntityName:       c.DisplayName,
				RelationshipType: relType,
				TargetID:         targetID,
				TargetName:       targetName,
				TargetLabels:     targetLabels,
			})
		}
	}
	return LPGResult{Neighbors: neighbors}, nil
}

// RunRDF implements the RDF specialist: a resource-signature lookup per top
// resolved candidate (kept only when it carries a qualifying label or a
// uri property), or a label-count overview when nothing resolved.
func (s *Specialist) RunRDF(ctx context.Context, result resolver.Result, databases []string) (RDFResult, error) {
	candidates := topCandidates(result)
	if len(candidates) == 0 {
		counts, err := s.labelCounts(ctx, databases)
		return RDFResult{LabelCounts: counts, UsedFallback: true}, err
	}

	var resources []ResourceRecord
	for _, c := range candidates {
		rows, err := s.connector.Run(ctx, c.Database, graphdb.QuerySpec{
			Kind: graphdb.KindResourceLookup,
			Text: "resource: " + c.NodeID,
			Params: map[string]any{"node_id": c.NodeID},
		})
		if err != nil {
			return RDFResult{}, err
		}
		for _, row := range rows {
			label, _ := row["label"].(string)
			uri, _ := row["uri"].(string)
			if !rdfSignatureLabels[label] && uri == "" {
				continue
			}
			id, _ := row["id"].(string)
			name, _ := row["name"].(string)
			resources = append(resources, ResourceRecord{
				Database: c.Database, ID: id, Label: label, URI: uri, Name: name,
			})
		}
	}
	return RDFResult{Resources: resources}, nil
}

func (s *Specialist) labelCounts(ctx context.Context, databases []string) ([]LabelCount, error) {
	var out []LabelCount
	for _, db := range databases {
		rows, err := s.connector.Run(ctx, db, graphdb.QuerySpec{Kind: graphdb.KindLabelCount, Text: "label distribution"})
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			label, _ := row["label"].(string)
			count, _ := row["count"].(int)
			out = append(out, LabelCount{Database: db, Label: label, Count: count})
		}
	}
	return out, nil
}
