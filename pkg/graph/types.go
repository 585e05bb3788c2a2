// Package graph defines the canonical inter-component graph payload (Node,
// Relationship) and the runtime-extensible database registry (C4).
package graph

import (
	"regexp"

	"github.com/graphqa/kgqa/pkg/errs"
)

// labelPattern validates node labels and relationship types. Anything that
// does not match is rejected before it ever reaches a graph write, which is
// what prevents injection via label/type strings (spec.md §3).
var labelPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Node is the canonical node shape shared by extraction, dedup, rule
// inference, and the graph connector.
type Node struct {
	ID         string         `json:"id"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties"`
}

// Relationship is the canonical edge shape.
type Relationship struct {
	SourceID   string         `json:"source_id"`
	TargetID   string         `json:"target_id"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// ValidateLabel checks a node label or relationship type against the
// identifier pattern required by spec.md §3 and §8.
func ValidateLabel(label string) error {
	if !labelPattern.MatchString(label) {
		return errs.New(errs.KindValidation, "graph", "label must match ^[A-Za-z_][A-Za-z0-9_]*$: "+label)
	}
	return nil
}

// ValidateNode validates a single node's label.
func ValidateNode(n Node) error {
	if n.ID == "" {
		return errs.New(errs.KindValidation, "graph", "node id must not be empty")
	}
	return ValidateLabel(n.Label)
}

// ValidateRelationship validates a single relationship's type.
func ValidateRelationship(r Relationship) error {
	if r.SourceID == "" || r.TargetID == "" {
		return errs.New(errs.KindValidation, "graph", "relationship source_id/target_id must not be empty")
	}
	return ValidateLabel(r.Type)
}

// Payload is the (nodes, relationships) pair passed between extraction,
// dedup, rule inference, and the loader.
type Payload struct {
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
}

// ValidateAll validates every node and relationship in the payload,
// returning the first validation error encountered, or nil if every entry
// is valid.
func (p Payload) ValidateAll() error {
	for _, n := range p.Nodes {
		if err := ValidateNode(n); err != nil {
			return err
		}
	}
	for _, r := range p.Relationships {
		if err := ValidateRelationship(r); err != nil {
			return err
		}
	}
	return nil
}
