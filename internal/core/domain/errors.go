package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or file format.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the completion backend is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrSearchUnavailable indicates the search backend is not configured.
	ErrSearchUnavailable = errors.New("search backend unavailable")

	// Session Errors.

	// ErrSessionBusy indicates a question arrived while the session was
	// indexing or answering another question.
	ErrSessionBusy = errors.New("session busy")

	// ErrSessionNotReady indicates the session has not started indexing yet.
	ErrSessionNotReady = errors.New("session not ready")

	// ErrSessionClosed indicates the session has been closed.
	ErrSessionClosed = errors.New("session closed")
)

// ConfigurationError reports a required endpoint or credential that is
// missing or invalid. It is raised at construction time and never retried.
type ConfigurationError struct {
	// Field is the configuration key at fault (e.g. "search.api_key").
	Field string

	// Reason describes what is wrong with it.
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}

// InitializationError reports that the search index could not be made
// ready within the retry budget. Err is the last underlying cause.
type InitializationError struct {
	Attempts int
	Err      error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("index initialisation failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}

// IndexingError reports a failed batch submission for one document.
// Batches submitted before the failure remain in the index.
type IndexingError struct {
	DocumentID string

	// Batch is the zero-based index of the batch that failed.
	Batch int

	Err error
}

func (e *IndexingError) Error() string {
	return fmt.Sprintf("indexing document %s (batch %d): %v", e.DocumentID, e.Batch, e.Err)
}

func (e *IndexingError) Unwrap() error {
	return e.Err
}

// SearchError reports a failed retrieval query.
type SearchError struct {
	// Status is the backend HTTP status, or 0 for transport failures.
	Status int

	// Detail is the backend error message, or the status text.
	Detail string

	Err error
}

func (e *SearchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("search failed (status %d): %s", e.Status, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("search failed: %v", e.Err)
	}
	return "search failed: " + e.Detail
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// CompletionError reports a failed or malformed completion request.
type CompletionError struct {
	// Status is the backend HTTP status, or 0 for transport or decoding failures.
	Status int

	// Detail is the backend error message or a description of the malformed response.
	Detail string

	Err error
}

func (e *CompletionError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("completion failed (status %d): %s", e.Status, e.Detail)
	case e.Err != nil && e.Detail != "":
		return fmt.Sprintf("completion failed: %s: %v", e.Detail, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("completion failed: %v", e.Err)
	default:
		return "completion failed: " + e.Detail
	}
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}
