package services

import "regexp"

var citationPattern = regexp.MustCompile(`\[([^\[\]]+)\]`)

// ExtractCitations returns the inner text of every bracketed span in text,
// left to right. Duplicates are kept so positions match the rendered answer.
// Spans containing nested brackets are skipped; only the innermost span counts.
// Empty [] spans are not citations.
func ExtractCitations(text string) []string {
	matches := citationPattern.FindAllStringSubmatch(text, -1)
	citations := make([]string, 0, len(matches))
	for _, m := range matches {
		citations = append(citations, m[1])
	}
	return citations
}
