package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
)

var testPassages = []domain.RetrievedPassage{
	{Content: "Revenue grew ten percent.", SourceName: "report_q1"},
	{Content: "Costs were flat.", SourceName: "board_call"},
}

func TestSynthesizer_NoPassages(t *testing.T) {
	llm := &mockLLMService{reply: "should not be used"}
	synth := NewSynthesizer(llm)

	answer, err := synth.Synthesize(context.Background(), "What happened?", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, NoRelevantInformationAnswer, answer)
	assert.Equal(t, 0, llm.callCount())
	assert.Empty(t, ExtractCitations(answer))
}

func TestSynthesizer_BuildsMessages(t *testing.T) {
	llm := &mockLLMService{reply: "  Revenue grew [report_q1].  "}
	synth := NewSynthesizer(llm, WithLanguage("German"))

	history := []domain.Message{
		{Role: domain.RoleUser, Content: "Hi", CreatedAt: time.Now()},
		{Role: domain.RoleAssistant, Content: "Hello"},
	}
	answer, err := synth.Synthesize(context.Background(), "How did revenue change?", history, testPassages)
	require.NoError(t, err)
	assert.Equal(t, "Revenue grew [report_q1].", answer)

	msgs := llm.messages
	require.Len(t, msgs, 4)
	assert.Equal(t, driven.ChatRoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Answer in German.")
	assert.Contains(t, msgs[0].Content, "bracketed source name")
	assert.Equal(t, driven.ChatMessage{Role: driven.ChatRoleUser, Content: "Hi"}, msgs[1])
	assert.Equal(t, driven.ChatMessage{Role: driven.ChatRoleAssistant, Content: "Hello"}, msgs[2])

	user := msgs[3]
	assert.Equal(t, driven.ChatRoleUser, user.Role)
	assert.True(t, strings.HasPrefix(user.Content, "How did revenue change?"))
	first := strings.Index(user.Content, "[report_q1] Revenue grew ten percent.")
	second := strings.Index(user.Content, "[board_call] Costs were flat.")
	assert.Greater(t, first, 0)
	assert.Greater(t, second, first)

	assert.Equal(t, DefaultMaxTokens, llm.opts.MaxTokens)
	assert.InDelta(t, DefaultTemperature, llm.opts.Temperature, 1e-9)
}

func TestSynthesizer_Sampling(t *testing.T) {
	llm := &mockLLMService{reply: "ok"}
	synth := NewSynthesizer(llm, WithSampling(0, 200))

	_, err := synth.Synthesize(context.Background(), "q", nil, testPassages)
	require.NoError(t, err)
	assert.Equal(t, 200, llm.opts.MaxTokens)
	assert.Zero(t, llm.opts.Temperature)
}

func TestSynthesizer_PromptStore(t *testing.T) {
	llm := &mockLLMService{reply: "ok"}
	store := &mockPromptStore{prompts: map[string]string{
		driven.PromptAnswerSystem: "Custom persona speaking {{language}}.",
		driven.PromptNoResults:    "Nothing found.\n",
	}}
	synth := NewSynthesizer(llm, WithPromptStore(store), WithLanguage("French"))

	_, err := synth.Synthesize(context.Background(), "q", nil, testPassages)
	require.NoError(t, err)
	assert.Equal(t, "Custom persona speaking French.", llm.messages[0].Content)

	answer, err := synth.Synthesize(context.Background(), "q", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Nothing found.", answer)
}

func TestSynthesizer_PromptKeepsPercentSigns(t *testing.T) {
	llm := &mockLLMService{reply: "ok"}
	store := &mockPromptStore{prompts: map[string]string{
		driven.PromptAnswerSystem: "Answer in {{language}}, {{language}} only. Quote 100% of figures as %d or %s.",
	}}
	synth := NewSynthesizer(llm, WithPromptStore(store), WithLanguage("Dutch"))

	_, err := synth.Synthesize(context.Background(), "q", nil, testPassages)
	require.NoError(t, err)
	assert.Equal(t, "Answer in Dutch, Dutch only. Quote 100% of figures as %d or %s.", llm.messages[0].Content)
}

func TestSynthesizer_PromptStoreFailureFallsBack(t *testing.T) {
	llm := &mockLLMService{reply: "ok"}
	synth := NewSynthesizer(llm, WithPromptStore(&mockPromptStore{err: errors.New("permission denied")}))

	_, err := synth.Synthesize(context.Background(), "q", nil, testPassages)
	require.NoError(t, err)
	assert.Contains(t, llm.messages[0].Content, "You are Scribe")
}

func TestSynthesizer_CompletionErrors(t *testing.T) {
	tests := []struct {
		name   string
		llm    *mockLLMService
		status int
	}{
		{"backend status", &mockLLMService{err: &domain.CompletionError{Status: 429, Detail: "rate limited"}}, 429},
		{"transport", &mockLLMService{err: errors.New("timeout")}, 0},
		{"empty completion", &mockLLMService{reply: "   "}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSynthesizer(tt.llm).Synthesize(context.Background(), "q", nil, testPassages)

			var completionErr *domain.CompletionError
			require.True(t, errors.As(err, &completionErr))
			assert.Equal(t, tt.status, completionErr.Status)
		})
	}
}

func TestSynthesizer_NoBackend(t *testing.T) {
	_, err := NewSynthesizer(nil).Synthesize(context.Background(), "q", nil, testPassages)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestUserTurn(t *testing.T) {
	got := UserTurn("Why?", testPassages[:1])
	assert.Equal(t, "Why?\n\nSources:\n\n[report_q1] Revenue grew ten percent.\n", got)
}
