package resolver

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/graphqa/kgqa/pkg/fulltext"
	"github.com/graphqa/kgqa/pkg/graphdb"
)

// topK is the number of candidates retained per entity after dedup
// (implementation default; spec.md §4.8 names the dedup/gap rules but not
// a specific K).
const topK = 5

// labelBoostValue is applied when a candidate's label matches a
// question-inferred label hint (spec.md §4.8 establishes the existence of
// the boost, not its size; the magnitude matches the original
// implementation's _label_boost).
const labelBoostValue = 0.15

// labelVocabulary is the small closed set of label words the resolver
// recognizes as a "hint" when they appear in the question text, used for
// the label-boost ranking term.
var labelVocabulary = []string{"technology", "person", "organization", "document", "resource", "class", "ontology", "individual"}

var wordPattern = regexp.MustCompile(`[A-Za-z]+`)

// Resolver implements Semantic Entity Resolver (C8).
type Resolver struct {
	fulltext  *fulltext.Manager
	connector *graphdb.Connector
	hints     *OntologyHints
}

// New builds a Resolver.
func New(connector *graphdb.Connector, ftManager *fulltext.Manager, hints *OntologyHints) *Resolver {
	return &Resolver{fulltext: ftManager, connector: connector, hints: hints}
}

// Resolve implements spec.md §4.8's resolve(question, databases).
func (r *Resolver) Resolve(ctx context.Context, question string, databases []string) Result {
	entities := ExtractEntities(question)
	labelHints := inferLabelHints(question)

	aliasResolved := make(map[string]string)
	var matches []EntityResolution
	var unresolved []string

	// Cache fulltext index discovery per database for the lifetime of this
	// request (spec.md §4.8 step 1: "cached per request").
	indexCache := make(map[string][]graphdb.IndexInfo)
	indexesFor := func(db string) []graphdb.IndexInfo {
		if idx, ok := indexCache[db]; ok {
			return idx
		}
		idx, err := r.fulltext.List(ctx, db)
		if err != nil {
			idx = nil
		}
		indexCache[db] = idx
		return idx
	}

	for _, entity := range entities {
		lookupTerm := entity
		viaAlias := false
		if canonical, resolved := r.hints.Resolve(entity); resolved {
			aliasResolved[entity] = canonical
			lookupTerm = canonical
			viaAlias = true
		}

		var candidates []CandidateMatch
		for _, db := range databases {
			candidates = append(candidates, r.matchInDatabase(ctx, db, lookupTerm, indexesFor(db), labelHints, viaAlias)...)
		}

		candidates = dedupAndRank(candidates)
		if len(candidates) == 0 {
			unresolved = append(unresolved, entity)
			continue
		}
		if len(candidates) > topK {
			candidates = candidates[:topK]
		}

		matches = append(matches, EntityResolution{
			Entity:        entity,
			AliasResolved: aliasResolved[entity],
			Candidates:    candidates,
			IsConfident:   isConfident(candidates),
		})
	}

	return Result{
		Entities:      entities,
		Matches:       matches,
		Unresolved:    unresolved,
		LabelHints:    labelHints,
		AliasResolved: aliasResolved,
	}
}

// matchInDatabase runs the fulltext-then-contains lookup for one (entity,
// database) pair (spec.md §4.8 steps 2-3) and scores every resulting row.
func (r *Resolver) matchInDatabase(ctx context.Context, db, term string, indexes []graphdb.IndexInfo, labelHints []string, viaAlias bool) []CandidateMatch {
	for _, idx := range indexes {
		rows, err := r.connector.Run(ctx, db, graphdb.QuerySpec{
			Kind: graphdb.KindFulltextSearch,
			Text: "fulltext: " + term,
			Params: map[string]any{"index": idx.Name, "text": term, "limit": topK},
		})
		if err == nil && len(rows) > 0 {
			return scoreRows(db, term, rows, labelHints, SourceFulltext, viaAlias)
		}
	}

	rows, err := r.connector.Run(ctx, db, graphdb.QuerySpec{
		Kind: graphdb.KindContainsSearch,
		Text: "contains: " + term,
		Params: map[string]any{"properties": fixedProperties, "text": term, "limit": topK},
	})
	if err != nil {
		return nil
	}
	return scoreRows(db, term, rows, labelHints, SourceContains, viaAlias)
}

func scoreRows(db, term string, rows []graphdb.Row, labelHints []string, source string, viaAlias bool) []CandidateMatch {
	out := make([]CandidateMatch, 0, len(rows))
	for _, row := range rows {
		nodeID, _ := row["node_id"].(string)
		label, _ := row["label"].(string)
		displayName, _ := row["display_name"].(string)
		baseScore, _ := row["score"].(float64)

		lexical := SequenceMatcherRatio(term, displayName)

		var lblBoost float64
		for _, hint := range labelHints {
			if strings.EqualFold(hint, label) {
				lblBoost = labelBoostValue
				break
			}
		}

		var exactBoost float64
		if strings.EqualFold(displayName, term) {
			exactBoost = exactNameBoost
		}
		var aliasB float64
		if viaAlias {
			aliasB = aliasBoost
		}

		cm := CandidateMatch{
			Database:     db,
			NodeID:       nodeID,
			Labels:       []string{label},
			DisplayName:  displayName,
			BaseScore:    baseScore,
			LexicalScore: lexical,
			LabelBoost:   lblBoost,
			AliasBoost:   aliasB,
			Source:       source,
		}
		cm.FinalScore = cm.BaseScore + cm.LexicalScore*0.3 + cm.LabelBoost + cm.AliasBoost + exactBoost
		out = append(out, cm)
	}
	return out
}

// dedupAndRank removes duplicate (database, node_id) pairs, keeping the
// highest-scoring copy, then sorts descending by FinalScore.
func dedupAndRank(candidates []CandidateMatch) []CandidateMatch {
	best := make(map[string]CandidateMatch)
	for _, c := range candidates {
		key := c.Database + "/" + c.NodeID
		if existing, ok := best[key]; !ok || c.FinalScore > existing.FinalScore {
			best[key] = c
		}
	}
	out := make([]CandidateMatch, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FinalScore > out[j].FinalScore })
	return out
}

// isConfident flags the top candidate when the rank1-rank2 score gap
// exceeds confidenceGapThreshold (spec.md §4.8).
func isConfident(candidates []CandidateMatch) bool {
	if len(candidates) < 2 {
		return len(candidates) == 1
	}
	return candidates[0].FinalScore-candidates[1].FinalScore > confidenceGapThreshold
}

// inferLabelHints scans question for words from the closed label
// vocabulary, used as the label-boost ranking term (spec.md §4.8).
func inferLabelHints(question string) []string {
	var hints []string
	seen := make(map[string]bool)
	for _, word := range wordPattern.FindAllString(strings.ToLower(question), -1) {
		for _, label := range labelVocabulary {
			if word == label && !seen[label] {
				seen[label] = true
				hints = append(hints, label)
			}
		}
	}
	return hints
}
