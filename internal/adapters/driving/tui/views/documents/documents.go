// Package documents provides the transcript picker view for the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/scribe-cli/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/scribe-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/scribe-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/scribe-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driving"
)

var errNoDocumentService = errors.New("document service not available")

// View lists stored transcripts and lets the user pick the ones to chat over.
type View struct {
	ctx             context.Context
	styles          *styles.Styles
	keymap          *keymap.KeyMap
	documentService driving.DocumentService

	documents    []domain.Document
	checked      map[string]bool
	selected     int
	scrollOffset int
	width        int
	height       int
	ready        bool
	loading      bool
	err          error
}

// NewView creates a new picker.
func NewView(ctx context.Context, s *styles.Styles, documentService driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &View{
		ctx:             ctx,
		styles:          s,
		keymap:          keymap.DefaultKeyMap(),
		documentService: documentService,
		documents:       []domain.Document{},
		checked:         make(map[string]bool),
	}
}

// Init loads the document list.
func (v *View) Init() tea.Cmd {
	return v.Load()
}

// Load returns a command that fetches the document list.
func (v *View) Load() tea.Cmd {
	v.loading = true
	svc := v.documentService
	ctx := v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentsLoaded{Err: errNoDocumentService}
		}
		docs, err := svc.List(ctx)
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

// Preselect marks the given IDs as picked. IDs missing from the next
// loaded list are dropped.
func (v *View) Preselect(ids []string) {
	for _, id := range ids {
		v.checked[id] = true
	}
}

// Update handles messages for the picker.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.DocumentsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.documents = msg.Documents
		if v.documents == nil {
			v.documents = []domain.Document{}
		}
		v.dropStaleChecks()
		if v.selected >= len(v.documents) {
			v.selected = max(len(v.documents)-1, 0)
		}
		v.adjustScroll()
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Up):
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case keymap.Matches(k, v.keymap.Down):
		if v.selected < len(v.documents)-1 {
			v.selected++
			v.adjustScroll()
		}
	case keymap.Matches(k, v.keymap.Toggle):
		if doc := v.SelectedDocument(); doc != nil {
			v.checked[doc.ID] = !v.checked[doc.ID]
		}
	case keymap.Matches(k, v.keymap.ToggleAll):
		v.toggleAll()
	case keymap.Matches(k, v.keymap.Reload):
		return v, v.Load()
	case keymap.Matches(k, v.keymap.Help):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewHelp} }
	case keymap.Matches(k, v.keymap.Quit):
		return v, func() tea.Msg { return messages.Quit{} }
	case keymap.Matches(k, v.keymap.Start):
		if v.loading {
			return v, nil
		}
		ids := v.CheckedIDs()
		return v, func() tea.Msg { return messages.SelectionConfirmed{DocumentIDs: ids} }
	}
	return v, nil
}

func (v *View) toggleAll() {
	all := len(v.documents) > 0
	for _, d := range v.documents {
		if !v.checked[d.ID] {
			all = false
			break
		}
	}
	for _, d := range v.documents {
		v.checked[d.ID] = !all
	}
}

// dropStaleChecks forgets picks for documents no longer listed.
func (v *View) dropStaleChecks() {
	present := make(map[string]bool, len(v.documents))
	for _, d := range v.documents {
		present[d.ID] = true
	}
	for id := range v.checked {
		if !present[id] {
			delete(v.checked, id)
		}
	}
}

// CheckedIDs returns the picked document IDs in list order.
func (v *View) CheckedIDs() []string {
	ids := make([]string, 0, len(v.checked))
	for _, d := range v.documents {
		if v.checked[d.ID] {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

func (v *View) visibleItemCount() int {
	// title, blank, scroll indicator, blank, hint
	const reserved = 7
	return max(v.height-reserved, 1)
}

// View renders the picker.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Transcripts (%d)", len(v.documents))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading transcripts..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("No transcripts yet. Add some with 'scribe document import <file>'."))
	default:
		v.renderList(&b)
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHint())
	return b.String()
}

func (v *View) renderList(b *strings.Builder) {
	visible := v.visibleItemCount()
	end := min(v.scrollOffset+visible, len(v.documents))
	for i := v.scrollOffset; i < end; i++ {
		b.WriteString(v.renderDocument(i, v.documents[i]))
		b.WriteString("\n")
	}
	if len(v.documents) > visible {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
			v.scrollOffset+1, end, len(v.documents))))
	}
}

func (v *View) renderDocument(index int, doc domain.Document) string {
	box := "[ ] "
	if v.checked[doc.ID] {
		box = "[x] "
	}

	nameWidth := max(v.width-24, 20)
	name := list.Truncate(doc.SourceName(), nameWidth)
	date := ""
	if !doc.CreatedAt.IsZero() {
		date = doc.CreatedAt.Local().Format("2006-01-02 15:04")
	}
	line := fmt.Sprintf("%-*s  %s", nameWidth, name, date)

	if index == v.selected {
		return v.styles.Selected.Render("> " + box + line)
	}
	if v.checked[doc.ID] {
		return "  " + v.styles.Checked.Render(box) + v.styles.Normal.Render(line)
	}
	return "  " + v.styles.Muted.Render(box) + v.styles.Normal.Render(line)
}

func (v *View) renderHint() string {
	n := len(v.CheckedIDs())
	target := "all indexed transcripts"
	if n > 0 {
		target = fmt.Sprintf("%d picked", n)
	}
	return v.styles.Help.Render(
		"[space] pick  [a] all  [enter] chat over " + target + "  [r] reload  [?] help  [q] quit")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.adjustScroll()
}

// Documents returns the listed documents.
func (v *View) Documents() []domain.Document {
	return v.documents
}

// SelectedIndex returns the cursor position.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedDocument returns the document under the cursor.
func (v *View) SelectedDocument() *domain.Document {
	if v.selected >= 0 && v.selected < len(v.documents) {
		return &v.documents[v.selected]
	}
	return nil
}

// Loading reports whether a load is in flight.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
