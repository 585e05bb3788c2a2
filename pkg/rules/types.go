// Package rules implements the Rule Engine (C13): property-level
// completeness/datatype/enum/range inference over a graph payload, per-node
// validation against the inferred profile, and SHACL/DDL export (spec.md
// §4.13).
package rules

// Constraint is a sum type over the four rule kinds spec.md §4.13 names.
type Constraint string

const (
	ConstraintRequired Constraint = "required"
	ConstraintDatatype Constraint = "datatype"
	ConstraintEnum     Constraint = "enum"
	ConstraintRange    Constraint = "range"
)

// Thresholds parameterizes inference. Zero-value Thresholds is invalid;
// use DefaultThresholds.
type Thresholds struct {
	// CompletenessMin is the minimum non-null fraction for a property to be
	// inferred as required (spec.md §4.13 default 0.98).
	CompletenessMin float64
	// EnumMaxValues is the maximum number of distinct values for a property
	// to still be eligible for an enum rule.
	EnumMaxValues int
	// EnumMaxRatio is the maximum fraction of distinct-to-total values for
	// a property to still be eligible for an enum rule (spec.md: 20%).
	EnumMaxRatio float64
}

// DefaultThresholds matches spec.md §4.13's stated defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{CompletenessMin: 0.98, EnumMaxValues: 20, EnumMaxRatio: 0.2}
}

// RuleProfile is one inferred rule on a (label, property) pair.
type RuleProfile struct {
	Label      string         `json:"label"`
	Property   string         `json:"property"`
	Constraint Constraint     `json:"constraint"`
	Params     map[string]any `json:"params,omitempty"`
}

// Violation is one failed constraint check on a single node.
type Violation struct {
	Rule     Constraint `json:"rule"`
	Property string     `json:"property"`
	Message  string     `json:"message"`
}

// NodeValidation is the per-node validation outcome.
type NodeValidation struct {
	Status     string      `json:"status"`
	Violations []Violation `json:"violations"`
}

// Summary is the graph-wide validation rollup (spec.md §4.13:
// "rule_validation_summary = {total, passed, failed}").
type Summary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}
