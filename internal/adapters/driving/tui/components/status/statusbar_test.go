package status

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/scribe-cli/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StatePicking, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 0, bar.Selected())
	assert.Equal(t, 80, bar.Width())
}

func TestNewBar_NilStyles(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
}

func TestStatusBar_InitAndUpdate(t *testing.T) {
	bar := NewBar(nil, nil)

	assert.Nil(t, bar.Init())

	updated, cmd := bar.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, bar, updated)
	assert.Nil(t, cmd)
}

func TestStatusBar_Setters(t *testing.T) {
	bar := NewBar(nil, nil)

	bar.SetState(StateIndexing)
	bar.SetMessage("boom")
	bar.SetSelected(3)
	bar.SetWidth(120)

	assert.Equal(t, StateIndexing, bar.State())
	assert.Equal(t, "boom", bar.Message())
	assert.Equal(t, 3, bar.Selected())
	assert.Equal(t, 120, bar.Width())
}

func TestStatusBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)
	bar.SetMessage("error message")
	bar.SetSelected(10)

	bar.Clear()

	assert.Equal(t, StatePicking, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 0, bar.Selected())
}

func TestStatusBar_View(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		message  string
		selected int
		want     []string
	}{
		{"picking empty", StatePicking, "", 0, []string{"Pick transcripts", "pick all"}},
		{"picking with selection", StatePicking, "", 2, []string{"2 selected"}},
		{"indexing", StateIndexing, "", 1, []string{"Indexing"}},
		{"thinking", StateThinking, "", 1, []string{"Thinking", "ask"}},
		{"ready", StateReady, "", 4, []string{"Ready", "4 transcripts"}},
		{"error", StateError, "", 0, []string{"Error", "quit"}},
		{"error with message", StateError, "connection failed", 0, []string{"Error: connection failed"}},
		{"help", StateHelp, "", 0, []string{"Help"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(160)
			bar.SetState(tt.state)
			bar.SetMessage(tt.message)
			bar.SetSelected(tt.selected)

			view := bar.View()

			for _, w := range tt.want {
				assert.Contains(t, view, w)
			}
		})
	}
}

func TestState_Constants(t *testing.T) {
	assert.Equal(t, State("picking"), StatePicking)
	assert.Equal(t, State("indexing"), StateIndexing)
	assert.Equal(t, State("ready"), StateReady)
	assert.Equal(t, State("thinking"), StateThinking)
	assert.Equal(t, State("error"), StateError)
	assert.Equal(t, State("help"), StateHelp)
}
