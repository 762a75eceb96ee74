package driven

import (
	"context"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
)

// Chunker splits a document into retrievable chunks.
type Chunker interface {
	// Name returns the chunker name for logging.
	Name() string

	// Chunk splits the document text. Chunks are returned in document
	// order with increasing ordinals.
	Chunk(ctx context.Context, doc domain.Document) ([]domain.Chunk, error)
}
