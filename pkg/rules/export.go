package rules

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// DDLColumn is one NOT NULL constraint derived from a required rule.
type DDLColumn struct {
	Label    string `json:"label"`
	Property string `json:"property"`
}

// DDLExport is the graph-DDL export target (spec.md §4.13: "only required
// maps to a NOT NULL constraint; other kinds listed as unsupported_rules").
type DDLExport struct {
	NotNullColumns  []DDLColumn   `json:"not_null_columns"`
	UnsupportedRules []RuleProfile `json:"unsupported_rules"`
}

// ExportDDL partitions profiles into NOT NULL columns and everything else.
func ExportDDL(profiles []RuleProfile) DDLExport {
	export := DDLExport{}
	for _, p := range profiles {
		if p.Constraint == ConstraintRequired {
			export.NotNullColumns = append(export.NotNullColumns, DDLColumn{Label: p.Label, Property: p.Property})
		} else {
			export.UnsupportedRules = append(export.UnsupportedRules, p)
		}
	}
	return export
}

// ShaclShape is one target-class's set of property shapes, structurally
// identical to ontology.Shape but kept separate since rules is the package
// that owns rule→shape translation.
type ShaclShape struct {
	TargetClass string              `json:"target_class"`
	Properties  []ShaclPropertyTerm `json:"properties"`
}

// ShaclPropertyTerm is one property-shape constraint term.
type ShaclPropertyTerm struct {
	Path       string     `json:"path"`
	Constraint Constraint `json:"constraint"`
	Params     map[string]any `json:"params,omitempty"`
}

// ShaclExport bundles the structured shape document with its Turtle text.
type ShaclExport struct {
	Shapes []ShaclShape `json:"shapes"`
	Turtle string       `json:"turtle"`
}

// ExportSHACL groups profiles by label into shapes and renders a Turtle
// serialization of the result.
func ExportSHACL(profiles []RuleProfile) ShaclExport {
	byLabel := make(map[string][]ShaclPropertyTerm)
	for _, p := range profiles {
		byLabel[p.Label] = append(byLabel[p.Label], ShaclPropertyTerm{
			Path: p.Property, Constraint: p.Constraint, Params: p.Params,
		})
	}

	labels := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	shapes := make([]ShaclShape, 0, len(labels))
	for _, label := range labels {
		shapes = append(shapes, ShaclShape{TargetClass: label, Properties: byLabel[label]})
	}

	return ShaclExport{Shapes: shapes, Turtle: renderTurtle(shapes)}
}

var turtleTemplate = template.Must(
	template.New("shacl-turtle").
		Funcs(template.FuncMap{"shaclTerm": shaclTerm}).
		Parse(`@prefix sh: <http://www.w3.org/ns/shacl#> .
@prefix ex: <http://example.org/shapes#> .
{{range .}}
ex:{{.TargetClass}}Shape a sh:NodeShape ;
	sh:targetClass ex:{{.TargetClass}} ;
{{range .Properties}}	sh:property [ sh:path ex:{{.Path}} ; {{shaclTerm .}} ] ;
{{end}}	.
{{end}}`))

func shaclTerm(p ShaclPropertyTerm) string {
	switch p.Constraint {
	case ConstraintRequired:
		return "sh:minCount 1"
	case ConstraintDatatype:
		return fmt.Sprintf("sh:datatype xsd:%v", p.Params["type"])
	case ConstraintEnum:
		return fmt.Sprintf("sh:in ( %s )", joinValues(p.Params["values"]))
	case ConstraintRange:
		return fmt.Sprintf("sh:minInclusive %v ; sh:maxInclusive %v", p.Params["minInclusive"], p.Params["maxInclusive"])
	default:
		return ""
	}
}

func joinValues(raw any) string {
	values, ok := raw.([]any)
	if !ok {
		return ""
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%v", v)
	}
	return strings.Join(parts, " ")
}

func renderTurtle(shapes []ShaclShape) string {
	var buf bytes.Buffer
	if err := turtleTemplate.Execute(&buf, shapes); err != nil {
		return ""
	}
	return buf.String()
}
