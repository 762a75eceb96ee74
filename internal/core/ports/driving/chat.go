package driving

import (
	"context"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
)

// ChatService creates question-answering sessions over selected documents.
type ChatService interface {
	// NewSession creates an idle session over the given documents.
	// The caller must call Start before asking questions.
	NewSession(documentIDs []string) (ChatSession, error)

	// StartSession creates a session, indexes the selected documents and
	// returns once the session is ready. Per-document indexing failures
	// are recorded in the session's jobs, not returned.
	StartSession(ctx context.Context, documentIDs []string, progress domain.ProgressFunc) (ChatSession, error)
}

// ChatSession is one conversation. History lives only as long as the session.
type ChatSession interface {
	// ID returns the session identifier.
	ID() string

	// State returns the current session state.
	State() domain.SessionState

	// Start indexes the selected documents sequentially and moves the
	// session to Ready.
	Start(ctx context.Context, progress domain.ProgressFunc) error

	// Ask answers a question and appends the exchange to the history.
	// Returns domain.ErrSessionBusy while indexing or answering.
	Ask(ctx context.Context, question string) (*domain.Message, error)

	// History returns a copy of the conversation so far.
	History() []domain.Message

	// Jobs returns a snapshot of the per-document indexing jobs.
	Jobs() []domain.IndexingJob

	// Close ends the session and discards its history.
	Close()
}

// RetrievalService exposes passage retrieval without answer synthesis.
type RetrievalService interface {
	// Retrieve returns up to the configured number of passages, most relevant first.
	Retrieve(ctx context.Context, question string) ([]domain.RetrievedPassage, error)

	// RetrieveFrom is Retrieve restricted to documentIDs. An empty list
	// searches every indexed document.
	RetrieveFrom(ctx context.Context, question string, documentIDs []string) ([]domain.RetrievedPassage, error)
}

// IndexService manages the search index outside of a chat session.
type IndexService interface {
	// EnsureReady creates the index if needed.
	EnsureReady(ctx context.Context) error

	// IndexDocuments indexes the given documents sequentially and returns
	// the outcome of each. Per-document failures do not stop the loop.
	IndexDocuments(ctx context.Context, documentIDs []string, progress domain.ProgressFunc) ([]domain.IndexingJob, error)
}
