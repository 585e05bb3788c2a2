package resolver

import (
	"regexp"
	"strings"
)

// Extraction regexes, pre-compiled once at package init — the
// masking.Service idiom for a set of regexes applied in a fixed pass order.
var (
	quotedSpanPattern  = regexp.MustCompile(`"([^"]{2,})"`)
	capitalizedNGram   = regexp.MustCompile(`\b([A-Z][a-zA-Z0-9]*(?:\s+[A-Z][a-zA-Z0-9]*)*)\b`)
	longTokenPattern   = regexp.MustCompile(`\b([a-zA-Z][a-zA-Z0-9_-]{5,})\b`)
	punctuationTrim    = regexp.MustCompile(`^[^\w]+|[^\w]+$`)
)

// stopwords are rejected as candidate entities regardless of extraction
// pass; kept small and domain-neutral (question/connective words).
var stopwords = map[string]bool{
	"what": true, "where": true, "when": true, "which": true, "who": true,
	"how": true, "why": true, "does": true, "is": true, "are": true,
	"the": true, "and": true, "or": true, "of": true, "for": true,
	"with": true, "about": true, "neighbors": true, "neighbor": true,
	"show": true, "tell": true, "list": true, "find": true, "me": true,
}

// ExtractEntities extracts candidate entity mentions from question in the
// fixed pass order spec.md §4.8 requires: quoted spans, then capitalized
// n-grams, then long single tokens — each pass skipping spans already
// covered by an earlier pass, then cleaning the result.
func ExtractEntities(question string) []string {
	var covered []string
	var out []string
	seen := make(map[string]bool)

	add := func(raw string) {
		cleaned := clean(raw)
		if cleaned == "" || stopwords[strings.ToLower(cleaned)] {
			return
		}
		key := strings.ToLower(cleaned)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, cleaned)
	}

	for _, m := range quotedSpanPattern.FindAllStringSubmatch(question, -1) {
		add(m[1])
		covered = append(covered, m[1])
	}

	remaining := removeCovered(question, covered)
	var ngramCovered []string
	for _, m := range capitalizedNGram.FindAllString(remaining, -1) {
		add(m)
		ngramCovered = append(ngramCovered, m)
	}

	remaining = removeCovered(remaining, ngramCovered)
	for _, m := range longTokenPattern.FindAllString(remaining, -1) {
		add(m)
	}

	return out
}

// removeCovered blanks out already-extracted spans so later passes don't
// re-extract substrings of an earlier, more specific match.
func removeCovered(text string, covered []string) string {
	for _, c := range covered {
		text = strings.ReplaceAll(text, c, "")
	}
	return text
}

// clean strips surrounding punctuation and trims whitespace.
func clean(raw string) string {
	trimmed := strings.TrimSpace(raw)
	trimmed = punctuationTrim.ReplaceAllString(trimmed, "")
	return strings.TrimSpace(trimmed)
}
