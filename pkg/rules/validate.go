package rules

import (
	"fmt"

	"github.com/graphqa/kgqa/pkg/graph"
)

// Validate applies every rule in profiles whose label matches a node's
// label against that node, returning a per-node validation outcome plus
// a graph-wide pass/fail summary (spec.md §4.13).
func Validate(payload graph.Payload, profiles []RuleProfile) (map[string]NodeValidation, Summary) {
	byLabel := make(map[string][]RuleProfile)
	for _, p := range profiles {
		byLabel[p.Label] = append(byLabel[p.Label], p)
	}

	results := make(map[string]NodeValidation, len(payload.Nodes))
	summary := Summary{}

	for _, n := range payload.Nodes {
		violations := validateNode(n, byLabel[n.Label])
		status := "passed"
		if len(violations) > 0 {
			status = "failed"
			summary.Failed++
		} else {
			summary.Passed++
		}
		summary.Total++
		results[n.ID] = NodeValidation{Status: status, Violations: violations}
	}

	return results, summary
}

func validateNode(n graph.Node, rules []RuleProfile) []Violation {
	var violations []Violation
	for _, rule := range rules {
		val, present := n.Properties[rule.Property]
		switch rule.Constraint {
		case ConstraintRequired:
			if !present || val == nil || val == "" {
				violations = append(violations, Violation{
					Rule: rule.Constraint, Property: rule.Property,
					Message: fmt.Sprintf("%s is required but missing", rule.Property),
				})
			}
		case ConstraintDatatype:
			if present && val != nil && !matchesDatatype(val, rule.Params["type"]) {
				violations = append(violations, Violation{
					Rule: rule.Constraint, Property: rule.Property,
					Message: fmt.Sprintf("%s expected type %v, got %T", rule.Property, rule.Params["type"], val),
				})
			}
		case ConstraintEnum:
			if present && val != nil && !inEnum(val, rule.Params["values"]) {
				violations = append(violations, Violation{
					Rule: rule.Constraint, Property: rule.Property,
					Message: fmt.Sprintf("%s value %v not in allowed set", rule.Property, val),
				})
			}
		case ConstraintRange:
			if present && val != nil {
				if _, numeric := toFloat(val); !numeric {
					violations = append(violations, Violation{
						Rule: rule.Constraint, Property: rule.Property,
						Message: fmt.Sprintf("non-numeric value for numeric range constraint: %s=%v", rule.Property, val),
					})
				} else if !inRange(val, rule.Params["minInclusive"], rule.Params["maxInclusive"]) {
					violations = append(violations, Violation{
						Rule: rule.Constraint, Property: rule.Property,
						Message: fmt.Sprintf("%s value %v outside [%v, %v]", rule.Property, val, rule.Params["minInclusive"], rule.Params["maxInclusive"]),
					})
				}
			}
		}
	}
	return violations
}

func matchesDatatype(val any, wantType any) bool {
	want, _ := wantType.(string)
	switch want {
	case "string":
		_, ok := val.(string)
		return ok
	case "boolean":
		_, ok := val.(bool)
		return ok
	case "integer":
		f, ok := toFloat(val)
		return ok && f == float64(int64(f))
	case "number":
		_, ok := toFloat(val)
		return ok
	default:
		return true
	}
}

func inEnum(val any, allowed any) bool {
	values, ok := allowed.([]any)
	if !ok {
		return true
	}
	for _, v := range values {
		if v == val {
			return true
		}
	}
	return false
}

func inRange(val any, min, max any) bool {
	f, ok := toFloat(val)
	if !ok {
		return false
	}
	lo, loOK := toFloat(min)
	hi, hiOK := toFloat(max)
	if loOK && f < lo {
		return false
	}
	if hiOK && f > hi {
		return false
	}
	return true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
