// Package list provides list display components for the TUI.
package list

import (
	"strings"

	"github.com/custodia-labs/scribe-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/scribe-cli/internal/core/domain"
)

const minExcerptWidth = 20

// CitationList renders the sources an answer cites, each followed by an
// excerpt of the first matching passage.
type CitationList struct {
	citations []domain.Citation
	styles    *styles.Styles
	width     int
}

// NewCitationList creates a new citation list component.
func NewCitationList(s *styles.Styles) *CitationList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &CitationList{
		styles: s,
		width:  80,
	}
}

// SetCitations replaces the listed citations.
func (c *CitationList) SetCitations(citations []domain.Citation) {
	c.citations = citations
}

// Citations returns the listed citations.
func (c *CitationList) Citations() []domain.Citation {
	return c.citations
}

// SetWidth sets the render width.
func (c *CitationList) SetWidth(width int) {
	c.width = width
}

// Width returns the render width.
func (c *CitationList) Width() int {
	return c.width
}

// Count returns the number of citations.
func (c *CitationList) Count() int {
	return len(c.citations)
}

// IsEmpty returns whether there is nothing to render.
func (c *CitationList) IsEmpty() bool {
	return len(c.citations) == 0
}

// View renders the list. An empty list renders as an empty string.
func (c *CitationList) View() string {
	if len(c.citations) == 0 {
		return ""
	}

	lines := make([]string, 0, len(c.citations)*2+1)
	lines = append(lines, c.styles.Muted.Render("Sources:"))
	for _, citation := range c.citations {
		lines = append(lines, c.renderCitation(citation)...)
	}
	return strings.Join(lines, "\n")
}

func (c *CitationList) renderCitation(citation domain.Citation) []string {
	label := c.styles.Citation.Render("  [" + citation.Label + "]")
	if !citation.Found() {
		return []string{label + c.styles.Warning.Render(" source not found")}
	}

	excerpt := Excerpt(citation.Passages[0], c.width-6)
	return []string{label, c.styles.Excerpt.Render(excerpt)}
}

// Excerpt returns the passage's first caption, or its content, flattened to
// one line and cut to at most width runes.
func Excerpt(p domain.RetrievedPassage, width int) string {
	text := p.Content
	if len(p.Captions) > 0 && strings.TrimSpace(p.Captions[0]) != "" {
		text = p.Captions[0]
	}
	return Truncate(strings.Join(strings.Fields(text), " "), width)
}

// Truncate cuts s to at most width runes, marking the cut with "...".
func Truncate(s string, width int) string {
	if width < minExcerptWidth {
		width = minExcerptWidth
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}
