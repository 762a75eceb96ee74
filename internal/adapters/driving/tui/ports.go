// Package tui provides an interactive terminal chat interface for scribe.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
type Ports struct {
	// Chat creates question-answering sessions.
	Chat driving.ChatService

	// Document lists the transcripts available for selection.
	Document driving.DocumentService

	// Settings is optional; when set the header shows the active providers.
	Settings driving.SettingsService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(chat driving.ChatService, document driving.DocumentService) *Ports {
	return &Ports{
		Chat:     chat,
		Document: document,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Chat == nil {
		return ErrMissingChatService
	}
	if p.Document == nil {
		return ErrMissingDocumentService
	}
	return nil
}
