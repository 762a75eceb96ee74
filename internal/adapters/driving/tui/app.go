package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/scribe-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/scribe-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/scribe-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/scribe-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/scribe-cli/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/scribe-cli/internal/adapters/driving/tui/views/documents"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	documentsView *documents.View
	chatView      *chat.View
	statusBar     *status.Bar

	// initial is the selection passed on the command line; when set the
	// app opens straight into a chat.
	initial []string

	currentView  messages.ViewType
	previousView messages.ViewType
	providers    string

	err    error
	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	a := &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      styles.DefaultStyles(),
		keymap:      keymap.DefaultKeyMap(),
		currentView: messages.ViewDocuments,
	}
	a.statusBar = status.NewBar(a.styles, a.keymap)
	a.providers = describeProviders(ports)
	a.buildViews()
	return a, nil
}

func (a *App) buildViews() {
	a.documentsView = documents.NewView(a.ctx, a.styles, a.ports.Document)
	a.chatView = chat.NewView(a.ctx, a.styles, a.ports.Chat)
}

func describeProviders(ports *Ports) string {
	if ports.Settings == nil {
		return ""
	}
	settings, err := ports.Settings.Get()
	if err != nil {
		return ""
	}
	llm := settings.LLM.Provider.String()
	if settings.LLM.Model != "" {
		llm += " " + settings.LLM.Model
	}
	return fmt.Sprintf("search: %s (%s) · llm: %s",
		settings.Search.Provider, settings.Search.IndexName, llm)
}

// WithContext sets the context passed to every service call.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.buildViews()
	return a
}

// WithSelection opens the app directly into a chat over documentIDs.
func (a *App) WithSelection(documentIDs []string) *App {
	a.initial = documentIDs
	if len(documentIDs) > 0 {
		a.currentView = messages.ViewChat
	}
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.SetWindowTitle("scribe"),
		a.documentsView.Init(),
	}
	if len(a.initial) > 0 {
		a.documentsView.Preselect(a.initial)
		cmds = append(cmds, a.chatView.Open(a.initial))
	}
	a.syncStatus()
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := a.update(msg)
	a.syncStatus()
	return a, cmd
}

//nolint:gocyclo // central message router
func (a *App) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a.quit()
		}
		return a.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		a.documentsView, cmd = a.documentsView.Update(msg)
		return cmd

	case messages.SelectionConfirmed:
		a.currentView = messages.ViewChat
		a.err = nil
		return a.chatView.Open(msg.DocumentIDs)

	case messages.SessionStarted, messages.IndexingProgress, messages.IndexingFinished,
		messages.AnswerReceived, spinner.TickMsg, tea.MouseMsg:
		a.chatView, cmd = a.chatView.Update(msg)
		return cmd

	case messages.ViewChanged:
		return a.changeView(msg.View)

	case messages.ErrorOccurred:
		a.err = msg.Err
		return nil

	case messages.Quit:
		return a.quit()
	}

	// Cursor blinks and other component messages go to the active view.
	switch a.currentView {
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewDocuments:
		a.documentsView, cmd = a.documentsView.Update(msg)
	case messages.ViewHelp:
	}
	return cmd
}

func (a *App) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewHelp:
		k := msg.String()
		if keymap.Matches(k, a.keymap.Back) || keymap.Matches(k, a.keymap.Help) {
			a.currentView = a.previousView
		}
		if keymap.Matches(k, a.keymap.Quit) {
			return a.quit()
		}
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewDocuments:
		a.documentsView, cmd = a.documentsView.Update(msg)
	}
	return cmd
}

func (a *App) changeView(view messages.ViewType) tea.Cmd {
	switch view {
	case messages.ViewHelp:
		if a.currentView != messages.ViewHelp {
			a.previousView = a.currentView
		}
		a.currentView = messages.ViewHelp
	case messages.ViewDocuments:
		a.currentView = messages.ViewDocuments
		return a.documentsView.Load()
	case messages.ViewChat:
		a.currentView = messages.ViewChat
	}
	return nil
}

func (a *App) quit() tea.Cmd {
	a.chatView.Close()
	return tea.Quit
}

// syncStatus mirrors the active view's state into the status bar.
func (a *App) syncStatus() {
	a.statusBar.SetMessage("")
	switch a.currentView {
	case messages.ViewHelp:
		a.statusBar.SetState(status.StateHelp)
	case messages.ViewDocuments:
		a.statusBar.SetState(status.StatePicking)
		a.statusBar.SetSelected(len(a.documentsView.CheckedIDs()))
	case messages.ViewChat:
		a.statusBar.SetSelected(len(a.chatView.DocumentIDs()))
		switch {
		case a.chatView.Indexing():
			a.statusBar.SetState(status.StateIndexing)
		case a.chatView.Thinking():
			a.statusBar.SetState(status.StateThinking)
		case a.chatView.Err() != nil:
			a.statusBar.SetState(status.StateError)
			a.statusBar.SetMessage(a.chatView.Err().Error())
		default:
			a.statusBar.SetState(status.StateReady)
		}
	}
	if a.err != nil {
		a.statusBar.SetState(status.StateError)
		a.statusBar.SetMessage(a.err.Error())
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewChat:
		body = a.chatView.View()
	case messages.ViewHelp:
		body = a.viewHelp()
	default:
		body = a.documentsView.View()
		if a.providers != "" {
			body += "\n" + a.styles.Muted.Render(a.providers)
		}
	}
	return body + "\n" + a.statusBar.View()
}

func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")

	sections := []string{"Transcripts", "Chat", "General"}
	for i, group := range a.keymap.FullHelp() {
		b.WriteString(a.styles.Subtitle.Render(sections[i]))
		b.WriteString("\n")
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-10s %s\n", h.Key, h.Desc))
		}
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Help.Render("[esc] back"))
	return b.String()
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(a.ctx))
	_, err := p.Run()
	a.chatView.Close()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// StatusBar returns the status bar.
func (a *App) StatusBar() *status.Bar {
	return a.statusBar
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its first window size.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.documentsView.SetDimensions(width, height-2)
	a.chatView.SetDimensions(width, height)
	a.statusBar.SetWidth(width)
}
