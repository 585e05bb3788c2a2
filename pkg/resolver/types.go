// Package resolver implements the Semantic Entity Resolver (C8): it
// extracts candidate entity mentions from a question, resolves aliases,
// and ranks fulltext/CONTAINS matches per database (spec.md §4.8).
package resolver

// CandidateMatch is one ranked match for a question entity against a
// single database, per spec.md §3.
type CandidateMatch struct {
	Database    string   `json:"database"`
	NodeID      string   `json:"node_id"`
	Labels      []string `json:"labels"`
	DisplayName string   `json:"display_name"`

	BaseScore   float64 `json:"base_score"`
	LexicalScore float64 `json:"lexical_score"`
	LabelBoost  float64 `json:"label_boost"`
	AliasBoost  float64 `json:"alias_boost"`
	FinalScore  float64 `json:"final_score"`

	Source string `json:"source"` // fulltext, contains, override
}

// Source values for CandidateMatch.Source.
const (
	SourceFulltext = "fulltext"
	SourceContains = "contains"
	SourceOverride = "override"
)

// fixedProperties is the property set a CONTAINS fallback lookup searches
// when no fulltext index returns rows (spec.md §4.8 step 3).
var fixedProperties = []string{"name", "title", "id", "uri", "code", "symbol", "alias"}

// confidenceGapThreshold is the rank1-rank2 score gap above which a
// resolved entity's top candidate is flagged confident (spec.md §4.8).
const confidenceGapThreshold = 0.15

// Boost constants from spec.md §4.8.
const (
	exactNameBoost = 0.2
	aliasBoost     = 0.12
)

// EntityResolution is the per-entity outcome of resolving one extracted
// mention against every requested database.
type EntityResolution struct {
	Entity        string           `json:"entity"`
	AliasResolved string           `json:"alias_resolved,omitempty"`
	Candidates    []CandidateMatch `json:"candidates"`
	IsConfident   bool             `json:"is_confident"`
}

// Result is what Resolve returns, per spec.md §4.8's
// {entities, matches, unresolved, label_hints, alias_resolved}.
type Result struct {
	Entities      []string          `json:"entities"`
	Matches       []EntityResolution `json:"matches"`
	Unresolved    []string          `json:"unresolved"`
	LabelHints    []string          `json:"label_hints"`
	AliasResolved map[string]string `json:"alias_resolved"`
}
