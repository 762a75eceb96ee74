// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driving"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewDocuments is the transcript picker.
	ViewDocuments ViewType = iota
	// ViewChat is the conversation view.
	ViewChat
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewDocuments:
		return "documents"
	case ViewChat:
		return "chat"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// DocumentsLoaded carries the document list from the service.
type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// SelectionConfirmed is sent when the user starts a chat over the picked documents.
type SelectionConfirmed struct {
	DocumentIDs []string
}

// SessionStarted carries a freshly created, not yet started session.
type SessionStarted struct {
	Session driving.ChatSession
	Err     error
}

// IndexingProgress reports the session's indexing completion fraction.
type IndexingProgress struct {
	SessionID string
	Fraction  float64
}

// IndexingFinished is sent when the session leaves the indexing phase.
// Err is set only when index initialisation failed.
type IndexingFinished struct {
	SessionID string
	Jobs      []domain.IndexingJob
	Err       error
}

// AnswerReceived carries the assistant reply to a question.
type AnswerReceived struct {
	SessionID string
	Question  string
	Message   *domain.Message
	Err       error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
