package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
)

func TestRetriever_Retrieve(t *testing.T) {
	backend := &mockSearchBackend{
		exists: true,
		hits: []driven.SearchHit{
			{ID: "a_0", Content: "Revenue grew.", DocumentID: "a", DisplayName: "q1 report", Score: 2.1, RerankerScore: 3.4,
				Captions: []string{"Revenue grew."}},
			{ID: "b_0", Content: "Costs fell.", DocumentID: "b", Score: 1.2},
		},
	}
	retriever := NewRetriever(backend, newTestManager(backend), 0, "en-us")

	passages, err := retriever.Retrieve(context.Background(), "  How did revenue change?  ")
	require.NoError(t, err)
	require.Len(t, passages, 2)

	assert.Equal(t, "q1 report", passages[0].SourceName)
	assert.Equal(t, "a", passages[0].DocumentID)
	assert.InDelta(t, 3.4, passages[0].Score, 1e-9)
	assert.Equal(t, []string{"Revenue grew."}, passages[0].Captions)
	assert.Equal(t, "b", passages[1].SourceName, "falls back to document id")

	require.Len(t, backend.queries, 1)
	q := backend.queries[0]
	assert.Equal(t, "How did revenue change?", q.Text)
	assert.Equal(t, driven.QueryTypeSemantic, q.Type)
	assert.Equal(t, domain.DefaultSemanticConfiguration, q.SemanticConfiguration)
	assert.Equal(t, []string{domain.FieldContent, domain.FieldDisplayName}, q.SearchFields)
	assert.True(t, q.Captions)
	assert.True(t, q.Answers)
	assert.Equal(t, DefaultTop, q.Top)
	assert.Equal(t, "en-us", q.Language)
	assert.Empty(t, q.DocumentIDs)
}

func TestRetriever_CapsPassages(t *testing.T) {
	hits := make([]driven.SearchHit, 8)
	for i := range hits {
		hits[i] = driven.SearchHit{ID: fmt.Sprintf("a_%d", i), Content: "passage", DocumentID: "a", DisplayName: "call"}
	}

	tests := []struct {
		name string
		top  int
		want int
	}{
		{"default", 0, DefaultTop},
		{"above limit", 10, DefaultTop},
		{"below limit", 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &mockSearchBackend{exists: true, hits: hits}
			retriever := NewRetriever(backend, newTestManager(backend), tt.top, "")

			passages, err := retriever.Retrieve(context.Background(), "what happened?")

			require.NoError(t, err)
			assert.Len(t, passages, tt.want)
			assert.Equal(t, tt.want, backend.queries[0].Top)
		})
	}
}

func TestRetriever_RetrieveFrom_FiltersDocuments(t *testing.T) {
	backend := &mockSearchBackend{exists: true}
	retriever := NewRetriever(backend, newTestManager(backend), 3, "en-us")

	_, err := retriever.RetrieveFrom(context.Background(), "question", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, backend.queries[0].DocumentIDs)
	assert.Equal(t, 3, backend.queries[0].Top)
}

func TestRetriever_Retrieve_NoHits(t *testing.T) {
	backend := &mockSearchBackend{exists: true}
	retriever := NewRetriever(backend, newTestManager(backend), 5, "en-us")

	passages, err := retriever.Retrieve(context.Background(), "anything")
	require.NoError(t, err)
	assert.NotNil(t, passages)
	assert.Empty(t, passages)
}

func TestRetriever_Retrieve_EmptyQuestion(t *testing.T) {
	backend := &mockSearchBackend{exists: true}
	retriever := NewRetriever(backend, newTestManager(backend), 5, "en-us")

	passages, err := retriever.Retrieve(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, passages)
	assert.Empty(t, backend.queries)
}

func TestRetriever_Retrieve_SearchError(t *testing.T) {
	backend := &mockSearchBackend{
		exists:   true,
		queryErr: &domain.SearchError{Status: 503, Detail: "Service busy"},
	}
	retriever := NewRetriever(backend, newTestManager(backend), 5, "en-us")

	_, err := retriever.Retrieve(context.Background(), "question")

	var searchErr *domain.SearchError
	require.True(t, errors.As(err, &searchErr))
	assert.Equal(t, 503, searchErr.Status)
	assert.Equal(t, "Service busy", searchErr.Detail)
}

func TestRetriever_Retrieve_WrapsOtherErrors(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	backend := &mockSearchBackend{exists: true, queryErr: cause}
	retriever := NewRetriever(backend, newTestManager(backend), 5, "en-us")

	_, err := retriever.Retrieve(context.Background(), "question")

	var searchErr *domain.SearchError
	require.True(t, errors.As(err, &searchErr))
	assert.ErrorIs(t, err, cause)
}

func TestRetriever_Retrieve_IndexUnavailable(t *testing.T) {
	cause := errors.New("unauthorized")
	backend := &mockSearchBackend{existsErr: []error{cause, cause, cause}}
	retriever := NewRetriever(backend, newTestManager(backend), 5, "en-us")

	_, err := retriever.Retrieve(context.Background(), "question")

	var initErr *domain.InitializationError
	assert.True(t, errors.As(err, &initErr))
	assert.Empty(t, backend.queries)
}
