package ingest

import (
	"bytes"
	"compress/zlib"
	"io"
	"regexp"
	"strings"
)

// streamPattern finds each PDF content stream object; flatePattern
// confirms the enclosing object declares FlateDecode so we don't attempt
// to inflate an already-uncompressed stream.
var (
	streamPattern = regexp.MustCompile(`(?s)(<<.*?>>)\s*stream\r?\n(.*?)\r?\nendstream`)
	flatePattern  = regexp.MustCompile(`/Filter\s*/FlateDecode`)
	showTextPattern = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)\s*Tj`)
	showArrayPattern = regexp.MustCompile(`\[((?:[^\[\]])*)\]\s*TJ`)
	arrayStringPattern = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)`)
)

// extractPDFText returns one string per recovered content stream, treated
// as a page. This is a minimal hand-rolled reader: it finds each content
// stream, inflates it if FlateDecode-compressed, and pulls out the literal
// strings passed to the Tj/TJ text-showing operators. It has no font,
// encoding, or layout awareness — good enough to recover plain ASCII/Latin
// body text from a straightforward PDF, not a general-purpose parser.
func extractPDFText(data []byte) ([]string, error) {
	var pages []string
	for _, match := range streamPattern.FindAllSubmatch(data, -1) {
		dict := match[1]
		raw := match[2]

		content := raw
		if flatePattern.Match(dict) {
			if inflated, err := inflate(raw); err == nil {
				content = inflated
			}
		}

		if text := extractShownText(content); text != "" {
			pages = append(pages, text)
		}
	}
	return pages, nil
}

func inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func extractShownText(content []byte) string {
	var parts []string
	for _, m := range showTextPattern.FindAllSubmatch(content, -1) {
		parts = append(parts, unescapePDFString(string(m[1])))
	}
	for _, m := range showArrayPattern.FindAllSubmatch(content, -1) {
		for _, inner := range arrayStringPattern.FindAllSubmatch(m[1], -1) {
			parts = append(parts, unescapePDFString(string(inner[1])))
		}
	}
	return strings.Join(parts, " ")
}

func unescapePDFString(s string) string {
	replacer := strings.NewReplacer(`\(`, "(", `\)`, ")", `\\`, `\`, `\n`, "\n")
	return replacer.Replace(s)
}
