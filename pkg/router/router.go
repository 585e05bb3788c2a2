// Package router implements the Query Router (C9): a keyword-based
// classifier that tags a question as lpg, rdf, or hybrid before the
// Specialist Worker picks its execution strategy (spec.md §4.9, §4.10).
package router

import "strings"

// Mode is a sum type over the three routing outcomes — a tagged variant,
// not a class hierarchy (see DESIGN.md design notes on sum types).
type Mode string

const (
	ModeLPG    Mode = "lpg"
	ModeRDF    Mode = "rdf"
	ModeHybrid Mode = "hybrid"
)

// rdfVocabulary and lpgVocabulary are the fixed keyword sets spec.md §4.9
// names without enumerating; these are the implementation's closed lists.
var rdfVocabulary = []string{
	"rdf", "triple", "triples", "ontology", "ontologies", "sparql",
	"shacl", "owl", "turtle", "uri", "iri", "class", "subclass",
	"individual", "resource", "predicate", "namespace", "vocabulary",
}

var lpgVocabulary = []string{
	"graph", "node", "nodes", "relationship", "relationships", "edge",
	"edges", "neighbor", "neighbors", "property", "label", "labels",
	"path", "connected", "cypher",
}

// Classify matches question against both vocabularies and returns the
// routing mode: both match → hybrid, only RDF terms match → rdf,
// otherwise → lpg (spec.md §4.9's default).
func Classify(question string) Mode {
	lower := strings.ToLower(question)

	hasRDF := containsAny(lower, rdfVocabulary)
	hasLPG := containsAny(lower, lpgVocabulary)

	switch {
	case hasRDF && hasLPG:
		return ModeHybrid
	case hasRDF:
		return ModeRDF
	default:
		return ModeLPG
	}
}

func containsAny(text string, vocabulary []string) bool {
	for _, word := range vocabulary {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
