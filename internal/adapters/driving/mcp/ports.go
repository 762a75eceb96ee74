package mcp

import (
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Chat answers questions through one-shot sessions.
	Chat driving.ChatService

	// Retrieval returns passages without synthesising an answer.
	Retrieval driving.RetrievalService

	// Document backs the document resources. Optional.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
