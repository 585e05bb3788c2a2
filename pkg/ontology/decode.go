package ontology

import (
	"encoding/json"
	"fmt"
	"strings"
)

// decodeInto round-trips an LM client's map[string]any response through
// JSON into a typed struct, since llmclient.Client.CompleteJSON returns a
// generic decoded object rather than the caller's concrete shape.
func decodeInto(raw map[string]any, dest any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("re-encode LM response: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode LM response: %w", err)
	}
	return nil
}

func summarizeOntology(draft OntologyDraft) string {
	if draft.OntologyName == "" && len(draft.Classes) == 0 {
		return "(none)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "name: %s\n", draft.OntologyName)
	for _, c := range draft.Classes {
		fmt.Fprintf(&b, "class %s: %s\n", c.Name, strings.Join(c.Properties, ", "))
	}
	for _, r := range draft.Relationships {
		fmt.Fprintf(&b, "relationship %s: %s -> %s\n", r.Type, r.Source, r.Target)
	}
	return b.String()
}

func summarizeShacl(draft ShaclDraft) string {
	if len(draft.Shapes) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, s := range draft.Shapes {
		fmt.Fprintf(&b, "shape %s:\n", s.TargetClass)
		for _, p := range s.Properties {
			fmt.Fprintf(&b, "  %s: %s\n", p.Path, p.Constraint)
		}
	}
	return b.String()
}
