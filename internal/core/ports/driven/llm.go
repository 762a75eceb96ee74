package driven

import (
	"context"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
)

// LLMService is the completion backend used to synthesise answers.
//
// Implementations may include:
//   - OpenAI (and OpenAI-compatible endpoints such as Azure OpenAI)
//   - Anthropic (Claude)
//   - Ollama (local models)
type LLMService interface {
	// Chat sends an ordered list of role-tagged messages and returns the
	// text of the first completion candidate.
	// Backend failures and malformed responses are *domain.CompletionError.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Chat message roles.
const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}

// LLMConfigValidator checks an LLM configuration by testing connectivity.
type LLMConfigValidator interface {
	// ValidateLLM returns nil if the provider is reachable with the given settings.
	ValidateLLM(config *domain.LLMSettings) error
}
