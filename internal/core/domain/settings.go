package domain

import "fmt"

const unknownDescription = "Unknown"

// SearchProvider identifies the search backend implementation.
type SearchProvider string

// Available search providers.
const (
	// SearchProviderAzure is an Azure AI Search compatible REST service.
	SearchProviderAzure SearchProvider = "azure"

	// SearchProviderMemory is the in-process lexical backend.
	SearchProviderMemory SearchProvider = "memory"
)

// IsValid returns true if the search provider is recognised.
func (p SearchProvider) IsValid() bool {
	switch p {
	case SearchProviderAzure, SearchProviderMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p SearchProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p SearchProvider) Description() string {
	switch p {
	case SearchProviderAzure:
		return "Azure AI Search (semantic ranking)"
	case SearchProviderMemory:
		return "In-memory (lexical, not persisted)"
	default:
		return unknownDescription
	}
}

// AIProvider identifies a completion service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API (or an OpenAI-compatible endpoint).
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// MaxPassages is the most passages retrieved for one question.
const MaxPassages = 5

// SearchSettings holds search backend configuration.
type SearchSettings struct {
	Provider SearchProvider

	// Endpoint is the service URL, e.g. https://<name>.search.windows.net.
	Endpoint string

	// APIKey is the admin key used for index management and queries.
	APIKey string

	// IndexName is the logical index name.
	IndexName string

	// APIVersion is sent as the api-version query parameter.
	APIVersion string

	// Analyzer is the language analyzer for the content field.
	Analyzer string

	// QueryLanguage is the semantic query language, e.g. "en-us".
	QueryLanguage string

	// Top is the number of passages retrieved per question, at most
	// MaxPassages. Zero selects MaxPassages.
	Top int

	// RequestsPerSecond throttles backend requests; 0 disables throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if the search backend is set up.
func (s SearchSettings) IsConfigured() bool {
	return s.Validate() == nil
}

// Validate returns a ConfigurationError if a required value is missing.
func (s SearchSettings) Validate() error {
	if !s.Provider.IsValid() {
		return &ConfigurationError{Field: "search.provider", Reason: "unknown provider " + quote(string(s.Provider))}
	}
	if s.IndexName == "" {
		return &ConfigurationError{Field: "search.index", Reason: "index name is required"}
	}
	if s.Top > MaxPassages {
		return &ConfigurationError{Field: "search.top", Reason: fmt.Sprintf("must be at most %d", MaxPassages)}
	}
	if s.Provider != SearchProviderAzure {
		return nil
	}
	if s.Endpoint == "" {
		return &ConfigurationError{Field: "search.endpoint", Reason: "endpoint is required"}
	}
	if s.APIKey == "" {
		return &ConfigurationError{Field: "search.api_key", Reason: "API key is required"}
	}
	return nil
}

// LLMSettings holds completion provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (required for Ollama, optional otherwise).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// Temperature is the sampling temperature.
	Temperature float64

	// MaxTokens bounds the answer length.
	MaxTokens int
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	return l.Validate() == nil
}

// Validate returns a ConfigurationError if a required value is missing.
func (l LLMSettings) Validate() error {
	if !l.Provider.IsValid() {
		return &ConfigurationError{Field: "llm.provider", Reason: "unknown provider " + quote(string(l.Provider))}
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return &ConfigurationError{Field: "llm.api_key", Reason: "API key is required for " + l.Provider.Description()}
	}
	return nil
}

// ChunkingSettings controls how transcripts are split.
type ChunkingSettings struct {
	// MaxSize is the maximum chunk length in characters.
	MaxSize int
}

// ChatSettings controls answer synthesis.
type ChatSettings struct {
	// Language is the language answers are written in.
	Language string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Search   SearchSettings
	LLM      LLMSettings
	Chunking ChunkingSettings
	Chat     ChatSettings
}

// Validate checks the settings needed to run a chat session.
func (s AppSettings) Validate() error {
	if err := s.Search.Validate(); err != nil {
		return err
	}
	return s.LLM.Validate()
}

// DefaultAppSettings returns settings with sensible defaults.
// Endpoints and credentials are left empty; users configure them via
// 'scribe settings set' or SCRIBE_* environment variables.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Search: SearchSettings{
			Provider:          SearchProviderAzure,
			IndexName:         "transcripts",
			APIVersion:        "2023-11-01",
			Analyzer:          DefaultAnalyzer,
			QueryLanguage:     "en-us",
			Top:               5,
			RequestsPerSecond: 10,
		},
		LLM: LLMSettings{
			Provider:    AIProviderOpenAI,
			Model:       DefaultLLMModels()[AIProviderOpenAI],
			Temperature: 0.3,
			MaxTokens:   800,
		},
		Chunking: ChunkingSettings{
			MaxSize: 1000,
		},
		Chat: ChatSettings{
			Language: "English",
		},
	}
}

// AllSearchProviders returns all available search providers.
func AllSearchProviders() []SearchProvider {
	return []SearchProvider{
		SearchProviderAzure,
		SearchProviderMemory,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

func quote(s string) string {
	return "\"" + s + "\""
}
