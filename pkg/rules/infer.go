package rules

import (
	"sort"

	"github.com/graphqa/kgqa/pkg/graph"
)

type propertyStats struct {
	total       int
	nonNull     int
	typeCounts  map[string]int
	numeric     []float64
	numericOnly bool
	distinct    map[any]bool
}

// Infer aggregates property values per (label, property) across every node
// in payload and derives a RuleProfile per property per spec.md §4.13's
// four inference rules. Validated in the order: validate queue → agents →
// ... in the teacher's validator.go is the idiom this mirrors — inference
// here runs one deterministic pass per (label, property) key, sorted for
// stable output.
func Infer(payload graph.Payload, thresholds Thresholds) []RuleProfile {
	stats := collectStats(payload)

	var profiles []RuleProfile
	for _, key := range sortedKeys(stats) {
		s := stats[key]
		profiles = append(profiles, inferForProperty(key.label, key.property, s, thresholds)...)
	}
	return profiles
}

type propertyKey struct {
	label    string
	property string
}

func collectStats(payload graph.Payload) map[propertyKey]*propertyStats {
	stats := make(map[propertyKey]*propertyStats)
	labelTotals := make(map[string]int)
	for _, n := range payload.Nodes {
		labelTotals[n.Label]++
	}

	for _, n := range payload.Nodes {
		for prop, val := range n.Properties {
			key := propertyKey{label: n.Label, property: prop}
			s, ok := stats[key]
			if !ok {
				s = &propertyStats{typeCounts: make(map[string]int), distinct: make(map[any]bool), numericOnly: true}
				stats[key] = s
			}
			if val == nil {
				continue
			}
			s.nonNull++
			switch v := val.(type) {
			case string:
				s.typeCounts["string"]++
				s.numericOnly = false
				s.distinct[v] = true
			case bool:
				s.typeCounts["boolean"]++
				s.numericOnly = false
				s.distinct[v] = true
			case float64:
				if v == float64(int64(v)) {
					s.typeCounts["integer"]++
				} else {
					s.typeCounts["number"]++
				}
				s.numeric = append(s.numeric, v)
				s.distinct[v] = true
			case int:
				s.typeCounts["integer"]++
				s.numeric = append(s.numeric, float64(v))
				s.distinct[v] = true
			default:
				// Non-scalar properties (nested maps/slices) are not
				// comparable, so they never participate in enum inference.
				s.typeCounts["string"]++
				s.numericOnly = false
			}
		}
	}

	for label, total := range labelTotals {
		for key, s := range stats {
			if key.label == label {
				s.total = total
			}
		}
	}
	return stats
}

func inferForProperty(label, property string, s *propertyStats, thresholds Thresholds) []RuleProfile {
	if s.total == 0 {
		return nil
	}
	var profiles []RuleProfile

	completeness := float64(s.nonNull) / float64(s.total)
	if completeness >= thresholds.CompletenessMin {
		profiles = append(profiles, RuleProfile{Label: label, Property: property, Constraint: ConstraintRequired})
	}

	if datatype := dominantType(s.typeCounts); datatype != "" {
		profiles = append(profiles, RuleProfile{
			Label: label, Property: property, Constraint: ConstraintDatatype,
			Params: map[string]any{"type": datatype},
		})
	}

	distinctCount := len(s.distinct)
	if s.nonNull > 0 && distinctCount <= thresholds.EnumMaxValues &&
		float64(distinctCount)/float64(s.nonNull) <= thresholds.EnumMaxRatio {
		profiles = append(profiles, RuleProfile{
			Label: label, Property: property, Constraint: ConstraintEnum,
			Params: map[string]any{"values": distinctValues(s.distinct)},
		})
	}

	if s.numericOnly && len(s.numeric) > 0 {
		min, max := s.numeric[0], s.numeric[0]
		for _, v := range s.numeric {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		profiles = append(profiles, RuleProfile{
			Label: label, Property: property, Constraint: ConstraintRange,
			Params: map[string]any{"minInclusive": min, "maxInclusive": max},
		})
	}

	return profiles
}

func dominantType(counts map[string]int) string {
	best := ""
	bestCount := 0
	for t, c := range counts {
		if c > bestCount {
			best = t
			bestCount = c
		}
	}
	return best
}

func distinctValues(distinct map[any]bool) []any {
	out := make([]any, 0, len(distinct))
	for v := range distinct {
		out = append(out, v)
	}
	return out
}

func sortedKeys(stats map[propertyKey]*propertyStats) []propertyKey {
	keys := make([]propertyKey, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].label != keys[j].label {
			return keys[i].label < keys[j].label
		}
		return keys[i].property < keys[j].property
	})
	return keys
}
