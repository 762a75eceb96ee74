package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
	"github.com/custodia-labs/scribe-cli/internal/logger"
)

// NoRelevantInformationAnswer is returned when no passages were retrieved.
const NoRelevantInformationAnswer = driven.DefaultNoResultsAnswer

// Default sampling parameters for answer synthesis.
const (
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 800
	DefaultLanguage    = "English"
)

// Synthesizer turns retrieved passages and conversation history into a
// cited answer using the completion backend.
type Synthesizer struct {
	llm         driven.LLMService
	prompts     driven.PromptStore
	language    string
	temperature float64
	maxTokens   int
}

// SynthesizerOption configures a Synthesizer.
type SynthesizerOption func(*Synthesizer)

// WithPromptStore loads the system prompt from store instead of the built-in one.
func WithPromptStore(store driven.PromptStore) SynthesizerOption {
	return func(s *Synthesizer) {
		s.prompts = store
	}
}

// WithLanguage sets the answer language.
func WithLanguage(language string) SynthesizerOption {
	return func(s *Synthesizer) {
		if language != "" {
			s.language = language
		}
	}
}

// WithSampling overrides temperature and max output tokens.
// Non-positive maxTokens and negative temperature are ignored.
func WithSampling(temperature float64, maxTokens int) SynthesizerOption {
	return func(s *Synthesizer) {
		if temperature >= 0 {
			s.temperature = temperature
		}
		if maxTokens > 0 {
			s.maxTokens = maxTokens
		}
	}
}

// NewSynthesizer creates a synthesizer backed by llm.
func NewSynthesizer(llm driven.LLMService, opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{
		llm:         llm,
		language:    DefaultLanguage,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize answers question from passages.
//
// With no passages it returns the no-results answer without calling the
// backend. Backend failures and empty completions are *domain.CompletionError.
func (s *Synthesizer) Synthesize(
	ctx context.Context,
	question string,
	history []domain.Message,
	passages []domain.RetrievedPassage,
) (string, error) {
	logger.Section("Answer Synthesis")

	if len(passages) == 0 {
		logger.Debug("No passages, returning no-results answer")
		return s.noResultsAnswer(), nil
	}

	if s.llm == nil {
		return "", &domain.CompletionError{Detail: "no completion backend configured", Err: domain.ErrLLMUnavailable}
	}

	messages := s.buildMessages(question, history, passages)
	logger.Debug("Model: %s, messages: %d, passages: %d", s.llm.ModelName(), len(messages), len(passages))

	answer, err := s.llm.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		var completionErr *domain.CompletionError
		if errors.As(err, &completionErr) {
			return "", err
		}
		return "", &domain.CompletionError{Err: err}
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", &domain.CompletionError{Detail: "empty completion"}
	}

	return answer, nil
}

func (s *Synthesizer) buildMessages(
	question string,
	history []domain.Message,
	passages []domain.RetrievedPassage,
) []driven.ChatMessage {
	messages := make([]driven.ChatMessage, 0, len(history)+2)
	messages = append(messages, driven.ChatMessage{
		Role:    driven.ChatRoleSystem,
		Content: s.systemPrompt(),
	})

	for _, m := range history {
		role := driven.ChatRoleUser
		if m.Role == domain.RoleAssistant {
			role = driven.ChatRoleAssistant
		}
		messages = append(messages, driven.ChatMessage{Role: role, Content: m.Content})
	}

	messages = append(messages, driven.ChatMessage{
		Role:    driven.ChatRoleUser,
		Content: UserTurn(question, passages),
	})
	return messages
}

// UserTurn formats the question followed by each passage prefixed with
// its bracketed source name.
func UserTurn(question string, passages []domain.RetrievedPassage) string {
	var b strings.Builder
	b.WriteString(question)
	b.WriteString("\n\nSources:\n")
	for _, p := range passages {
		fmt.Fprintf(&b, "\n[%s] %s\n", p.SourceName, p.Content)
	}
	return b.String()
}

func (s *Synthesizer) systemPrompt() string {
	tmpl := s.loadPrompt(driven.PromptAnswerSystem, driven.DefaultAnswerSystemPrompt)
	return strings.ReplaceAll(tmpl, driven.LanguagePlaceholder, s.language)
}

func (s *Synthesizer) noResultsAnswer() string {
	return strings.TrimSpace(s.loadPrompt(driven.PromptNoResults, NoRelevantInformationAnswer))
}

func (s *Synthesizer) loadPrompt(name, fallback string) string {
	if s.prompts == nil {
		return fallback
	}
	p, err := s.prompts.Load(name)
	if err != nil || strings.TrimSpace(p) == "" {
		logger.Warn("Prompt %s unavailable, using built-in: %v", name, err)
		return fallback
	}
	return p
}
