package services

import (
	"context"
	"errors"
	"strings"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driving"
	"github.com/custodia-labs/scribe-cli/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.RetrievalService = (*Retriever)(nil)

// DefaultTop is the number of passages retrieved per question.
const DefaultTop = domain.MaxPassages

// Retriever runs semantic queries against the transcript index.
type Retriever struct {
	backend  driven.SearchBackend
	manager  *IndexManager
	top      int
	language string
}

// NewRetriever creates a retriever. A top of zero or less, or above
// DefaultTop, selects DefaultTop.
func NewRetriever(backend driven.SearchBackend, manager *IndexManager, top int, language string) *Retriever {
	if top <= 0 || top > DefaultTop {
		top = DefaultTop
	}
	return &Retriever{
		backend:  backend,
		manager:  manager,
		top:      top,
		language: language,
	}
}

// Retrieve returns the most relevant passages across the whole index,
// in backend rank order. No match is an empty slice, not an error.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]domain.RetrievedPassage, error) {
	return r.RetrieveFrom(ctx, question, nil)
}

// RetrieveFrom is Retrieve restricted to the given documents.
// An empty documentIDs searches every document.
func (r *Retriever) RetrieveFrom(
	ctx context.Context, question string, documentIDs []string,
) ([]domain.RetrievedPassage, error) {
	logger.Section("Retrieval")
	logger.Debug("Question: %q", question)

	question = strings.TrimSpace(question)
	if question == "" {
		logger.Debug("Empty question, returning no passages")
		return []domain.RetrievedPassage{}, nil
	}

	if err := r.manager.EnsureReady(ctx); err != nil {
		return nil, err
	}

	query := driven.SearchQuery{
		Text:                  question,
		SearchFields:          []string{domain.FieldContent, domain.FieldDisplayName},
		Select:                []string{domain.FieldID, domain.FieldContent, domain.FieldDocumentID, domain.FieldDisplayName},
		Type:                  driven.QueryTypeSemantic,
		SemanticConfiguration: r.manager.Descriptor().Semantic.Name,
		Captions:              true,
		Answers:               true,
		Language:              r.language,
		Top:                   r.top,
		DocumentIDs:           documentIDs,
	}

	resp, err := r.backend.Query(ctx, r.manager.IndexName(), query)
	if err != nil {
		var searchErr *domain.SearchError
		if errors.As(err, &searchErr) {
			return nil, err
		}
		return nil, &domain.SearchError{Detail: "query", Err: err}
	}

	if resp == nil {
		return []domain.RetrievedPassage{}, nil
	}

	hits := resp.Hits
	if len(hits) > r.top {
		logger.Debug("Backend returned %d hits, keeping %d", len(hits), r.top)
		hits = hits[:r.top]
	}
	passages := make([]domain.RetrievedPassage, 0, len(hits))
	for _, hit := range hits {
		passages = append(passages, toPassage(hit))
	}
	logger.Info("Retrieved %d passage(s)", len(passages))

	return passages, nil
}

func toPassage(hit driven.SearchHit) domain.RetrievedPassage {
	source := hit.DisplayName
	if source == "" {
		source = hit.DocumentID
	}
	score := hit.Score
	if hit.RerankerScore > 0 {
		score = hit.RerankerScore
	}
	return domain.RetrievedPassage{
		Content:    hit.Content,
		SourceName: source,
		DocumentID: hit.DocumentID,
		Score:      score,
		Captions:   hit.Captions,
	}
}
