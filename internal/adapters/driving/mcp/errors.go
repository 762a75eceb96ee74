// Package mcp provides an MCP (Model Context Protocol) server adapter for Scribe.
// It lets AI assistants ask questions about imported transcripts and read
// the transcripts themselves.
package mcp

import "errors"

var (
	// ErrMissingChatService is returned when the chat service is not provided.
	ErrMissingChatService = errors.New("mcp: chat service is required")

	// ErrMissingRetrievalService is returned when the retrieval service is not provided.
	ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")

	// ErrEmptyQuestion is returned by the tools when no question is given.
	ErrEmptyQuestion = errors.New("mcp: question is required")
)
