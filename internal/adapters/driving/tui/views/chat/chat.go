// Package chat provides the conversation view for the TUI.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/scribe-cli/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/scribe-cli/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/scribe-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/scribe-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/scribe-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driving"
)

var errNoChatService = errors.New("chat service not available")

// progressBuffer bounds queued progress updates; extra updates are dropped
// since only the latest fraction matters.
const progressBuffer = 32

type entryKind int

const (
	entryUser entryKind = iota
	entryAssistant
	entryNotice
	entryWarning
	entryError
)

// entry is one rendered block of the transcript.
type entry struct {
	kind      entryKind
	text      string
	citations []domain.Citation
}

// View is the conversation over one chat session.
type View struct {
	ctx         context.Context
	styles      *styles.Styles
	keymap      *keymap.KeyMap
	chatService driving.ChatService

	session     driving.ChatSession
	documentIDs []string
	progressCh  chan float64

	prompt    *input.PromptInput
	viewport  viewport.Model
	spinner   spinner.Model
	progress  progress.Model
	citations *list.CitationList

	entries  []entry
	percent  float64
	indexing bool
	thinking bool
	err      error

	width  int
	height int
}

// NewView creates a chat view with no session.
func NewView(ctx context.Context, s *styles.Styles, chatService driving.ChatService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(s.Theme().Primary)),
	)

	v := &View{
		ctx:         ctx,
		styles:      s,
		keymap:      keymap.DefaultKeyMap(),
		chatService: chatService,
		prompt:      input.NewPromptInput(s),
		viewport:    viewport.New(80, 10),
		spinner:     sp,
		progress:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		citations:   list.NewCitationList(s),
		width:       80,
		height:      20,
	}
	return v
}

// Open discards the current session and returns a command that creates a
// new one over documentIDs. An empty selection searches every indexed document.
func (v *View) Open(documentIDs []string) tea.Cmd {
	v.Close()
	v.documentIDs = documentIDs
	v.entries = nil
	v.percent = 0
	v.err = nil
	v.thinking = false
	v.indexing = true
	v.prompt.Reset()
	v.prompt.Blur()
	v.refresh()

	svc := v.chatService
	return func() tea.Msg {
		if svc == nil {
			return messages.SessionStarted{Err: errNoChatService}
		}
		session, err := svc.NewSession(documentIDs)
		return messages.SessionStarted{Session: session, Err: err}
	}
}

// Close ends the current session, if any.
func (v *View) Close() {
	if v.session != nil {
		v.session.Close()
		v.session = nil
	}
	v.progressCh = nil
	v.indexing = false
	v.thinking = false
}

// Init implements the view lifecycle; the view is driven by Open.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SessionStarted:
		return v.handleSessionStarted(msg)

	case messages.IndexingProgress:
		if !v.current(msg.SessionID) {
			return v, nil
		}
		if msg.Fraction > v.percent {
			v.percent = msg.Fraction
		}
		return v, waitForProgress(msg.SessionID, v.progressCh)

	case messages.IndexingFinished:
		if !v.current(msg.SessionID) {
			return v, nil
		}
		return v.handleIndexingFinished(msg)

	case messages.AnswerReceived:
		if !v.current(msg.SessionID) {
			return v, nil
		}
		return v.handleAnswer(msg)

	case spinner.TickMsg:
		if !v.indexing && !v.thinking {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

func (v *View) handleSessionStarted(msg messages.SessionStarted) (*View, tea.Cmd) {
	if msg.Err != nil {
		v.indexing = false
		v.err = msg.Err
		v.addEntry(entry{kind: entryError, text: msg.Err.Error()})
		return v, nil
	}

	v.session = msg.Session
	ch := make(chan float64, progressBuffer)
	v.progressCh = ch
	return v, tea.Batch(
		startIndexing(v.ctx, msg.Session, ch),
		waitForProgress(msg.Session.ID(), ch),
		v.spinner.Tick,
	)
}

func (v *View) handleIndexingFinished(msg messages.IndexingFinished) (*View, tea.Cmd) {
	v.indexing = false
	v.progressCh = nil
	v.percent = 1

	if msg.Err != nil {
		v.err = msg.Err
		v.addEntry(entry{kind: entryError, text: msg.Err.Error()})
	}
	v.addJobSummary(msg.Jobs)

	return v, v.prompt.Focus()
}

func (v *View) addJobSummary(jobs []domain.IndexingJob) {
	if len(jobs) == 0 {
		v.addEntry(entry{kind: entryNotice, text: "Searching all indexed transcripts."})
		return
	}

	indexed, chunks := 0, 0
	for _, job := range jobs {
		switch job.State {
		case domain.JobIndexed:
			indexed++
			chunks += job.Chunks
		case domain.JobFailed:
			name := job.DisplayName
			if name == "" {
				name = job.DocumentID
			}
			v.addEntry(entry{kind: entryWarning, text: fmt.Sprintf("%s was not indexed: %s", name, job.Reason)})
		case domain.JobPending, domain.JobIndexing:
		}
	}
	v.addEntry(entry{
		kind: entryNotice,
		text: fmt.Sprintf("Indexed %d of %d transcripts (%d passages). Ask away.", indexed, len(jobs), chunks),
	})
}

func (v *View) handleAnswer(msg messages.AnswerReceived) (*View, tea.Cmd) {
	v.thinking = false

	if msg.Err != nil {
		v.err = msg.Err
		v.addEntry(entry{kind: entryError, text: msg.Err.Error()})
		return v, v.prompt.Focus()
	}

	v.err = nil
	if msg.Message != nil {
		v.addEntry(entry{
			kind:      entryAssistant,
			text:      msg.Message.Content,
			citations: msg.Message.Sources(),
		})
	}
	return v, v.prompt.Focus()
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Back):
		v.Close()
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewDocuments} }

	case keymap.Matches(k, v.keymap.ScrollUp), keymap.Matches(k, v.keymap.ScrollDown):
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd

	case keymap.Matches(k, v.keymap.Send):
		return v.send()
	}

	var cmd tea.Cmd
	v.prompt, cmd = v.prompt.Update(msg)
	return v, cmd
}

// send asks the prompt's question. Ignored until the session is ready.
func (v *View) send() (*View, tea.Cmd) {
	question := strings.TrimSpace(v.prompt.Value())
	if question == "" || !v.CanAsk() {
		return v, nil
	}

	v.thinking = true
	v.err = nil
	v.prompt.Reset()
	v.prompt.Blur()
	v.addEntry(entry{kind: entryUser, text: question})

	return v, tea.Batch(ask(v.ctx, v.session, question), v.spinner.Tick)
}

// CanAsk reports whether a question can be sent now.
func (v *View) CanAsk() bool {
	return v.session != nil && !v.indexing && !v.thinking
}

func (v *View) current(sessionID string) bool {
	return v.session != nil && v.session.ID() == sessionID
}

func startIndexing(ctx context.Context, session driving.ChatSession, ch chan<- float64) tea.Cmd {
	return func() tea.Msg {
		err := session.Start(ctx, func(fraction float64) {
			select {
			case ch <- fraction:
			default:
			}
		})
		close(ch)
		return messages.IndexingFinished{SessionID: session.ID(), Jobs: session.Jobs(), Err: err}
	}
}

func waitForProgress(sessionID string, ch <-chan float64) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		fraction, ok := <-ch
		if !ok {
			return nil
		}
		return messages.IndexingProgress{SessionID: sessionID, Fraction: fraction}
	}
}

func ask(ctx context.Context, session driving.ChatSession, question string) tea.Cmd {
	return func() tea.Msg {
		msg, err := session.Ask(ctx, question)
		return messages.AnswerReceived{SessionID: session.ID(), Question: question, Message: msg, Err: err}
	}
}

func (v *View) addEntry(e entry) {
	v.entries = append(v.entries, e)
	v.refresh()
}

// refresh re-renders the transcript into the viewport and scrolls to the end.
func (v *View) refresh() {
	v.viewport.SetContent(v.renderTranscript())
	v.viewport.GotoBottom()
}

func (v *View) renderTranscript() string {
	width := max(v.viewport.Width-2, 20)
	wrap := lipgloss.NewStyle().Width(width)
	v.citations.SetWidth(width)

	blocks := make([]string, 0, len(v.entries))
	for _, e := range v.entries {
		switch e.kind {
		case entryUser:
			blocks = append(blocks, v.styles.UserLabel.Render("You")+"\n"+wrap.Render(e.text))
		case entryAssistant:
			block := v.styles.AssistantLabel.Render("Scribe") + "\n" + wrap.Render(e.text)
			v.citations.SetCitations(e.citations)
			if !v.citations.IsEmpty() {
				block += "\n" + v.citations.View()
			}
			blocks = append(blocks, block)
		case entryNotice:
			blocks = append(blocks, v.styles.Muted.Render(wrap.Render(e.text)))
		case entryWarning:
			blocks = append(blocks, v.styles.Warning.Render(wrap.Render("! "+e.text)))
		case entryError:
			blocks = append(blocks, v.styles.Error.Render(wrap.Render("Error: "+e.text)))
		}
	}
	return strings.Join(blocks, "\n\n")
}

// View renders the chat view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Chat"))
	b.WriteString(v.styles.Muted.Render(" · " + v.scope()))
	b.WriteString("\n\n")

	b.WriteString(v.viewport.View())
	b.WriteString("\n")

	switch {
	case v.indexing:
		b.WriteString(v.spinner.View() + " Indexing transcripts " + v.progress.ViewAs(v.percent))
	case v.thinking:
		b.WriteString(v.spinner.View() + v.styles.Muted.Render(" Thinking..."))
	default:
		b.WriteString(" ")
	}
	b.WriteString("\n")
	b.WriteString(v.prompt.View())

	return b.String()
}

func (v *View) scope() string {
	switch n := len(v.documentIDs); n {
	case 0:
		return "all indexed transcripts"
	case 1:
		return "1 transcript"
	default:
		return fmt.Sprintf("%d transcripts", n)
	}
}

// SetDimensions sizes the viewport, prompt and progress bar.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height

	// header (2), activity line (1), prompt with border (3), status bar (1)
	const chrome = 7
	v.viewport.Width = width
	v.viewport.Height = max(height-chrome, 3)
	v.prompt.SetWidth(width)
	v.progress.Width = max(width-30, 10)
	v.refresh()
}

// Session returns the current session, or nil.
func (v *View) Session() driving.ChatSession {
	return v.session
}

// DocumentIDs returns the selection the current session was opened over.
func (v *View) DocumentIDs() []string {
	return v.documentIDs
}

// Indexing reports whether the session is still indexing.
func (v *View) Indexing() bool {
	return v.indexing
}

// Thinking reports whether a question is being answered.
func (v *View) Thinking() bool {
	return v.thinking
}

// Percent returns the indexing progress in [0, 1].
func (v *View) Percent() float64 {
	return v.percent
}

// Transcript returns the rendered conversation.
func (v *View) Transcript() string {
	return v.renderTranscript()
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
