package driven

import (
	"context"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
)

// SearchBackend is the semantic search service that stores the transcript
// index. Every call is a network round-trip and honours ctx.
//
// Implementations never retry; the retry policy for index initialisation
// belongs to the core.
type SearchBackend interface {
	// IndexExists reports whether the named index is present.
	// An absent index is (false, nil), not an error.
	IndexExists(ctx context.Context, name string) (bool, error)

	// CreateIndex creates the index described by desc.
	// Returns an error wrapping domain.ErrAlreadyExists if another writer
	// created it first.
	CreateIndex(ctx context.Context, desc domain.IndexDescriptor) error

	// UploadDocuments submits one batch of index documents.
	// A transport error or non-success response is returned as an error;
	// per-item outcomes are reported in the result.
	UploadDocuments(ctx context.Context, index string, docs []domain.IndexDocument) (*UploadResult, error)

	// Query runs a search against the index.
	// Backend failures are returned as *domain.SearchError.
	Query(ctx context.Context, index string, q SearchQuery) (*SearchResponse, error)

	// Close releases resources.
	Close() error
}

// UploadResult reports the outcome of one batch submission.
type UploadResult struct {
	// Succeeded is the number of documents accepted.
	Succeeded int

	// Failures lists the documents the backend rejected.
	Failures []UploadFailure
}

// OK returns true if every document in the batch was accepted.
func (r *UploadResult) OK() bool {
	return r != nil && len(r.Failures) == 0
}

// UploadFailure describes one rejected document.
type UploadFailure struct {
	Key     string
	Status  int
	Message string
}

// QueryType selects the ranking mode of a query.
type QueryType string

// Query types.
const (
	QueryTypeSimple   QueryType = "simple"
	QueryTypeSemantic QueryType = "semantic"
)

// SearchQuery is a retrieval request.
type SearchQuery struct {
	// Text is the natural-language question.
	Text string

	// SearchFields restricts matching to these fields.
	SearchFields []string

	// Select lists the fields returned for each hit.
	Select []string

	// Type is the ranking mode.
	Type QueryType

	// SemanticConfiguration names the semantic ranking configuration.
	SemanticConfiguration string

	// Captions requests extractive captions.
	Captions bool

	// Answers requests extractive answers.
	Answers bool

	// Language is the query language, e.g. "en-us".
	Language string

	// Top caps the number of hits.
	Top int

	// DocumentIDs, when set, restricts hits to these documents.
	DocumentIDs []string
}

// SearchResponse is the typed result of a query.
type SearchResponse struct {
	// Hits are ordered most relevant first.
	Hits []SearchHit

	// Answers are extractive answers, if requested and available.
	Answers []string
}

// SearchHit is one ranked index document.
type SearchHit struct {
	ID          string
	Content     string
	DocumentID  string
	DisplayName string

	// Score is the backend search score.
	Score float64

	// RerankerScore is the semantic reranker score, 0 if not applied.
	RerankerScore float64

	// Captions are extractive highlights of the hit.
	Captions []string
}
