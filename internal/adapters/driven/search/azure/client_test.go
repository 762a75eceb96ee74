package azure

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{Endpoint: srv.URL + "/", APIKey: "secret"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewClient_Configuration(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"missing endpoint", Config{APIKey: "k"}, "search.endpoint"},
		{"invalid endpoint", Config{Endpoint: "not a url", APIKey: "k"}, "search.endpoint"},
		{"missing key", Config{Endpoint: "https://svc.search.windows.net"}, "search.api_key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.cfg)
			var cfgErr *domain.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestIndexExists(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "secret", r.Header.Get("api-key"))
		assert.Equal(t, DefaultAPIVersion, r.URL.Query().Get("api-version"))

		switch r.URL.Path {
		case "/indexes/transcripts":
			_, _ = io.WriteString(w, `{"name":"transcripts","fields":[]}`)
		case "/indexes/missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"error":{"code":"Forbidden","message":"key rejected"}}`)
		}
	})
	ctx := context.Background()

	exists, err := c.IndexExists(ctx, "transcripts")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = c.IndexExists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = c.IndexExists(ctx, "other")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key rejected")
}

func TestCreateIndex(t *testing.T) {
	var created atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "*", r.Header.Get("If-None-Match"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var def indexDefinition
		require.NoError(t, json.NewDecoder(r.Body).Decode(&def))
		assert.Equal(t, "transcripts", def.Name)
		require.Len(t, def.Fields, 5)
		assert.True(t, def.Fields[0].Key)
		assert.Equal(t, domain.DefaultAnalyzer, def.Fields[1].Analyzer)
		require.NotNil(t, def.Semantic)
		require.Len(t, def.Semantic.Configurations, 1)
		cfg := def.Semantic.Configurations[0]
		assert.Equal(t, domain.DefaultSemanticConfiguration, cfg.Name)
		require.NotNil(t, cfg.PrioritizedFields.TitleField)
		assert.Equal(t, domain.FieldDisplayName, cfg.PrioritizedFields.TitleField.FieldName)

		if created.Add(1) == 1 {
			w.WriteHeader(http.StatusCreated)
			return
		}
		w.WriteHeader(http.StatusPreconditionFailed)
	})
	desc := domain.NewIndexDescriptor("transcripts", "")

	require.NoError(t, c.CreateIndex(context.Background(), desc))

	err := c.CreateIndex(context.Background(), desc)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestCreateIndex_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := c.CreateIndex(context.Background(), domain.NewIndexDescriptor("transcripts", ""))
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrAlreadyExists)
	assert.Contains(t, err.Error(), "503")
}

func TestUploadDocuments(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/indexes/transcripts/docs/index", r.URL.Path)

		var batch indexBatch
		require.NoError(t, json.NewDecoder(r.Body).Decode(&batch))
		require.Len(t, batch.Value, 2)
		assert.Equal(t, actionMergeOrUpload, batch.Value[0].Action)
		assert.Equal(t, "doc-1_0", batch.Value[0].ID)
		assert.Equal(t, "doc-1", batch.Value[0].DocumentID)
		assert.Equal(t, "2024-03-01T10:30:00Z", batch.Value[0].Timestamp)

		w.WriteHeader(http.StatusMultiStatus)
		_, _ = io.WriteString(w, `{"value":[
			{"key":"doc-1_0","status":true,"errorMessage":null,"statusCode":201},
			{"key":"doc-1_1","status":false,"errorMessage":"document too large","statusCode":400}
		]}`)
	})

	result, err := c.UploadDocuments(context.Background(), "transcripts", []domain.IndexDocument{
		{ID: "doc-1_0", Content: "one", DocumentID: "doc-1", DisplayName: "report", IndexedAt: at},
		{ID: "doc-1_1", Content: "two", DocumentID: "doc-1", DisplayName: "report", IndexedAt: at},
	})
	require.NoError(t, err)
	assert.False(t, result.OK())
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, []driven.UploadFailure{
		{Key: "doc-1_1", Status: 400, Message: "document too large"},
	}, result.Failures)
}

func TestUploadDocuments_RejectedBatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		_, _ = io.WriteString(w, `{"error":{"message":"batch too large"}}`)
	})

	_, err := c.UploadDocuments(context.Background(), "transcripts", []domain.IndexDocument{{ID: "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch too large")
}

func TestQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/indexes/transcripts/docs/search", r.URL.Path)

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "what grew?", req.Search)
		assert.Equal(t, "content,displayName", req.SearchFields)
		assert.Equal(t, "semantic", req.QueryType)
		assert.Equal(t, "default", req.SemanticConfiguration)
		assert.Equal(t, "extractive", req.Captions)
		assert.Equal(t, "extractive", req.Answers)
		assert.Equal(t, "en-us", req.QueryLanguage)
		assert.Equal(t, 5, req.Top)
		assert.Equal(t, "search.in(documentId, 'doc-1|o''brien', '|')", req.Filter)

		_, _ = io.WriteString(w, `{
			"@search.answers":[{"text":"Revenue grew 12%."}],
			"value":[{
				"@search.score":3.2,
				"@search.rerankerScore":2.7,
				"@search.captions":[{"text":"Revenue grew 12%","highlights":""}],
				"id":"doc-1_0","content":"Revenue grew 12% last quarter.",
				"documentId":"doc-1","displayName":"report_q1"
			}]
		}`)
	})

	resp, err := c.Query(context.Background(), "transcripts", driven.SearchQuery{
		Text:                  "what grew?",
		SearchFields:          []string{"content", "displayName"},
		Type:                  driven.QueryTypeSemantic,
		SemanticConfiguration: "default",
		Captions:              true,
		Answers:               true,
		Language:              "en-us",
		Top:                   5,
		DocumentIDs:           []string{"doc-1", "o'brien"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Hits, 1)
	hit := resp.Hits[0]
	assert.Equal(t, "doc-1_0", hit.ID)
	assert.Equal(t, "report_q1", hit.DisplayName)
	assert.InDelta(t, 3.2, hit.Score, 1e-9)
	assert.InDelta(t, 2.7, hit.RerankerScore, 1e-9)
	assert.Equal(t, []string{"Revenue grew 12%"}, hit.Captions)
	assert.Equal(t, []string{"Revenue grew 12%."}, resp.Answers)
}

func TestQuery_SimpleOmitsSemanticOptions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.NotContains(t, raw, "queryType")
		assert.NotContains(t, raw, "captions")
		assert.NotContains(t, raw, "filter")
		_, _ = io.WriteString(w, `{"value":[]}`)
	})

	resp, err := c.Query(context.Background(), "transcripts", driven.SearchQuery{Text: "x", Captions: true})
	require.NoError(t, err)
	assert.NotNil(t, resp.Hits)
	assert.Empty(t, resp.Hits)
}

func TestQuery_Errors(t *testing.T) {
	t.Run("service error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"code":"InvalidRequestParameter","message":"semantic ranking is disabled"}}`)
		})

		_, err := c.Query(context.Background(), "transcripts", driven.SearchQuery{Text: "x"})
		var searchErr *domain.SearchError
		require.ErrorAs(t, err, &searchErr)
		assert.Equal(t, http.StatusBadRequest, searchErr.Status)
		assert.Equal(t, "semantic ranking is disabled", searchErr.Detail)
	})

	t.Run("hit without id", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"value":[{"content":"orphan"}]}`)
		})

		_, err := c.Query(context.Background(), "transcripts", driven.SearchQuery{Text: "x"})
		var searchErr *domain.SearchError
		require.ErrorAs(t, err, &searchErr)
		assert.Equal(t, "malformed response", searchErr.Detail)
	})

	t.Run("transport", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		endpoint := srv.URL
		srv.Close()

		c, err := NewClient(Config{Endpoint: endpoint, APIKey: "secret"})
		require.NoError(t, err)

		_, err = c.Query(context.Background(), "transcripts", driven.SearchQuery{Text: "x"})
		var searchErr *domain.SearchError
		require.ErrorAs(t, err, &searchErr)
		assert.Zero(t, searchErr.Status)
		assert.NotNil(t, searchErr.Err)
	})
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := NewClient(Config{Endpoint: srv.URL, APIKey: "secret", RequestsPerSecond: 0.001})
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < DefaultBurst; i++ {
		_, err := c.IndexExists(ctx, "transcripts")
		require.NoError(t, err)
	}

	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = c.IndexExists(ctx, "transcripts")
	require.Error(t, err)
	assert.Equal(t, int32(DefaultBurst), calls.Load())
	assert.False(t, errors.Is(err, domain.ErrNotFound))
}
