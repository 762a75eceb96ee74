package driving

import (
	"context"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
)

// DocumentService manages the transcribed documents available for chat.
type DocumentService interface {
	// Import normalises a transcript file and stores it as a new document.
	// An empty displayName is derived from the file name.
	Import(ctx context.Context, filename string, data []byte, displayName string) (*domain.Document, error)

	// List returns all documents.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// Delete removes a document from the store.
	// Chunks already in the search index are left in place.
	Delete(ctx context.Context, documentID string) error

	// SupportedExtensions returns the file extensions Import accepts, sorted.
	SupportedExtensions() []string
}
