package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s, err := NewLLMService(Config{APIKey: "ak-test", BaseURL: srv.URL})
	require.NoError(t, err)
	return s
}

func TestNewLLMService_RequiresAPIKey(t *testing.T) {
	_, err := NewLLMService(Config{})
	var cfgErr *domain.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestChat_LiftsSystemPrompt(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "ak-test", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModel, req.Model)
		assert.Equal(t, "Be brief.", req.System)
		assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
		require.Len(t, req.Messages, 3)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "assistant", req.Messages[1].Role)

		_, _ = io.WriteString(w, `{"content":[
			{"type":"text","text":"Revenue grew "},
			{"type":"text","text":"12% [report_q1]."}
		],"stop_reason":"end_turn"}`)
	})

	answer, err := s.Chat(context.Background(), []driven.ChatMessage{
		{Role: driven.ChatRoleSystem, Content: "Be brief."},
		{Role: driven.ChatRoleUser, Content: "Hi"},
		{Role: driven.ChatRoleAssistant, Content: "Hello"},
		{Role: driven.ChatRoleUser, Content: "What grew?"},
	}, driven.ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Revenue grew 12% [report_q1].", answer)
}

func TestChat_Errors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		s := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
		})

		_, err := s.Chat(context.Background(), []driven.ChatMessage{{Role: "user", Content: "q"}}, driven.ChatOptions{})
		var completionErr *domain.CompletionError
		require.ErrorAs(t, err, &completionErr)
		assert.Equal(t, http.StatusUnauthorized, completionErr.Status)
		assert.Equal(t, "invalid x-api-key", completionErr.Detail)
	})

	t.Run("no text blocks", func(t *testing.T) {
		s := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"content":[]}`)
		})

		_, err := s.Chat(context.Background(), []driven.ChatMessage{{Role: "user", Content: "q"}}, driven.ChatOptions{})
		var completionErr *domain.CompletionError
		require.ErrorAs(t, err, &completionErr)
		assert.Zero(t, completionErr.Status)
	})
}

func TestPing(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		assert.Equal(t, "ak-test", r.Header.Get("x-api-key"))
		_, _ = io.WriteString(w, `{"data":[]}`)
	})
	assert.NoError(t, s.Ping(context.Background()))
}
