package driven

import (
	"context"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
)

// Normaliser turns a transcript file into a document.
// Each normaliser handles specific file extensions (e.g. .vtt, .srt).
type Normaliser interface {
	// SupportedExtensions returns the lower-case file extensions handled, with dot.
	SupportedExtensions() []string

	// Normalise extracts the transcript text from data.
	// The returned document has no ID; the caller assigns one.
	Normalise(ctx context.Context, filename string, data []byte) (*domain.Document, error)
}
