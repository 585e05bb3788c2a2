// Package synth implements the Answer Synthesizer (C11): deterministic
// composition of the semantic query flow's final answer from the router's
// mode, the resolver's entities, and whichever specialists ran. No LM call
// is involved, which keeps the semantic path fully test-deterministic
// (spec.md §4.11).
package synth

import (
	"fmt"
	"sort"
	"strings"

	"github.com/graphqa/kgqa/pkg/resolver"
	"github.com/graphqa/kgqa/pkg/router"
	"github.com/graphqa/kgqa/pkg/specialist"
)

// noRecordsNote is emitted when both specialists that ran produced zero
// records, so the caller never mistakes silence for an error.
const noRecordsNote = "no matching graph records"

// Answer is the synthesized output of the semantic query flow.
type Answer struct {
	Route              router.Mode
	ResolvedEntities   []string
	UnresolvedEntities []string
	LPGRecordCount     int
	RDFRecordCount     int
	Note               string
	Text               string
}

// Synthesize builds the Answer. lpg and/or rdf are nil when the router mode
// didn't call for that specialist.
func Synthesize(route router.Mode, resolution resolver.Result, lpg *specialist.LPGResult, rdf *specialist.RDFResult) Answer {
	resolved := resolvedEntityNames(resolution)
	sort.Strings(resolved)
	unresolved := append([]string(nil), resolution.Unresolved...)
	sort.Strings(unresolved)

	lpgCount := 0
	rdfCount := 0
	var sections []string

	if lpg != nil {
		lpgCount = len(lpg.Neighbors) + len(lpg.LabelCounts)
		sections = append(sections, formatLPG(*lpg))
	}
	if rdf != nil {
		rdfCount = len(rdf.Resources) + len(rdf.LabelCounts)
		sections = append(sections, formatRDF(*rdf))
	}

	note := ""
	if (lpg != nil || rdf != nil) && lpgCount == 0 && rdfCount == 0 {
		note = noRecordsNote
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Route selected: %s.\n", strings.ToUpper(string(route)))
	b.WriteString(formatList("resolved entities", resolved))
	b.WriteString(formatList("unresolved entities", unresolved))
	for _, s := range sections {
		b.WriteString(s)
	}
	if note != "" {
		b.WriteString(note + "\n")
	}

	return Answer{
		Route:              route,
		ResolvedEntities:   resolved,
		UnresolvedEntities: unresolved,
		LPGRecordCount:     lpgCount,
		RDFRecordCount:     rdfCount,
		Note:               note,
		Text:               strings.TrimRight(b.String(), "\n"),
	}
}

func resolvedEntityNames(result resolver.Result) []string {
	var names []string
	for _, m := range result.Matches {
		names = append(names, m.Entity)
	}
	return names
}

func formatList(label string, items []string) string {
	if len(items) == 0 {
		return fmt.Sprintf("%s: (none)\n", label)
	}
	return fmt.Sprintf("%s: %s\n", label, strings.Join(items, ", "))
}

func formatLPG(result specialist.LPGResult) string {
	var b strings.Builder
	if result.UsedFallback {
		b.WriteString("lpg label distribution (no entities resolved):\n")
		for _, c := range result.LabelCounts {
			fmt.Fprintf(&b, "  %s/%s: %d\n", c.Database, c.Label, c.Count)
		}
		return b.String()
	}
	b.WriteString("lpg neighbors:\n")
	for _, n := range result.Neighbors {
		fmt.Fprintf(&b, "  %s -[%s]-> %s (%s)\n", n.EntityName, n.RelationshipType, n.TargetID, strings.Join(n.TargetLabels, ","))
	}
	return b.String()
}

func formatRDF(result specialist.RDFResult) string {
	var b strings.Builder
	if result.UsedFallback {
		b.WriteString("rdf label distribution (no entities resolved):\n")
		for _, c := range result.LabelCounts {
			fmt.Fprintf(&b, "  %s/%s: %d\n", c.Database, c.Label, c.Count)
		}
		return b.String()
	}
	b.WriteString("rdf resources:\n")
	for _, r := range result.Resources {
		fmt.Fprintf(&b, "  %s (%s) uri=%s\n", r.Name, r.Label, r.URI)
	}
	return b.String()
}
