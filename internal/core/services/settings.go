package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeySearchProvider  = "search.provider"
	KeySearchEndpoint  = "search.endpoint"
	KeySearchAPIKey    = "search.api_key"
	KeySearchIndex     = "search.index"
	KeySearchVersion   = "search.api_version"
	KeySearchAnalyzer  = "search.analyzer"
	KeySearchLanguage  = "search.language"
	KeySearchTop       = "search.top"
	KeySearchRate      = "search.requests_per_second"
	KeyLLMProvider     = "llm.provider"
	KeyLLMModel        = "llm.model"
	KeyLLMBaseURL      = "llm.base_url"
	KeyLLMAPIKey       = "llm.api_key"
	KeyLLMTemperature  = "llm.temperature"
	KeyLLMMaxTokens    = "llm.max_tokens"
	KeyChunkingMaxSize = "chunking.max_size"
	KeyChatLanguage    = "chat.language"
)

type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindFloat
	kindSearchProvider
	kindLLMProvider
)

var settingKeys = []struct {
	key  string
	kind keyKind
}{
	{KeySearchProvider, kindSearchProvider},
	{KeySearchEndpoint, kindString},
	{KeySearchAPIKey, kindString},
	{KeySearchIndex, kindString},
	{KeySearchVersion, kindString},
	{KeySearchAnalyzer, kindString},
	{KeySearchLanguage, kindString},
	{KeySearchTop, kindInt},
	{KeySearchRate, kindFloat},
	{KeyLLMProvider, kindLLMProvider},
	{KeyLLMModel, kindString},
	{KeyLLMBaseURL, kindString},
	{KeyLLMAPIKey, kindString},
	{KeyLLMTemperature, kindFloat},
	{KeyLLMMaxTokens, kindInt},
	{KeyChunkingMaxSize, kindInt},
	{KeyChatLanguage, kindString},
}

type keyValue struct {
	key   string
	value any
}

// SecretKeys are settings whose values are masked on display.
var SecretKeys = map[string]bool{
	KeySearchAPIKey: true,
	KeyLLMAPIKey:    true,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore  driven.ConfigStore
	llmValidator driven.LLMConfigValidator
}

// NewSettingsService creates a new settings service.
// llmValidator may be nil, in which case ValidateLLMConfig is a no-op.
func NewSettingsService(configStore driven.ConfigStore, llmValidator driven.LLMConfigValidator) *SettingsService {
	return &SettingsService{
		configStore:  configStore,
		llmValidator: llmValidator,
	}
}

// Get retrieves current application settings, filling unset values
// with defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	return &domain.AppSettings{
		Search: domain.SearchSettings{
			Provider:          domain.SearchProvider(s.getString(KeySearchProvider, string(d.Search.Provider))),
			Endpoint:          strings.TrimRight(s.configStore.GetString(KeySearchEndpoint), "/"),
			APIKey:            s.configStore.GetString(KeySearchAPIKey),
			IndexName:         s.getString(KeySearchIndex, d.Search.IndexName),
			APIVersion:        s.getString(KeySearchVersion, d.Search.APIVersion),
			Analyzer:          s.getString(KeySearchAnalyzer, d.Search.Analyzer),
			QueryLanguage:     s.getString(KeySearchLanguage, d.Search.QueryLanguage),
			Top:               s.getInt(KeySearchTop, d.Search.Top),
			RequestsPerSecond: s.getFloat(KeySearchRate, d.Search.RequestsPerSecond),
		},
		LLM: domain.LLMSettings{
			Provider:    s.getProvider(d.LLM.Provider),
			Model:       s.getLLMModel(),
			BaseURL:     s.configStore.GetString(KeyLLMBaseURL),
			APIKey:      s.configStore.GetString(KeyLLMAPIKey),
			Temperature: s.getFloat(KeyLLMTemperature, d.LLM.Temperature),
			MaxTokens:   s.getInt(KeyLLMMaxTokens, d.LLM.MaxTokens),
		},
		Chunking: domain.ChunkingSettings{
			MaxSize: s.getInt(KeyChunkingMaxSize, d.Chunking.MaxSize),
		},
		Chat: domain.ChatSettings{
			Language: s.getString(KeyChatLanguage, d.Chat.Language),
		},
	}, nil
}

// Save persists application settings. Empty API keys are not written,
// so saving never clears a stored credential.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []keyValue{
		{KeySearchProvider, string(settings.Search.Provider)},
		{KeySearchEndpoint, settings.Search.Endpoint},
		{KeySearchIndex, settings.Search.IndexName},
		{KeySearchVersion, settings.Search.APIVersion},
		{KeySearchAnalyzer, settings.Search.Analyzer},
		{KeySearchLanguage, settings.Search.QueryLanguage},
		{KeySearchTop, settings.Search.Top},
		{KeySearchRate, settings.Search.RequestsPerSecond},
		{KeyLLMProvider, string(settings.LLM.Provider)},
		{KeyLLMModel, settings.LLM.Model},
		{KeyLLMBaseURL, settings.LLM.BaseURL},
		{KeyLLMTemperature, settings.LLM.Temperature},
		{KeyLLMMaxTokens, settings.LLM.MaxTokens},
		{KeyChunkingMaxSize, settings.Chunking.MaxSize},
		{KeyChatLanguage, settings.Chat.Language},
	}
	if settings.Search.APIKey != "" {
		values = append(values, keyValue{KeySearchAPIKey, settings.Search.APIKey})
	}
	if settings.LLM.APIKey != "" {
		values = append(values, keyValue{KeyLLMAPIKey, settings.LLM.APIKey})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Set parses value according to the key's type and stores it.
func (s *SettingsService) Set(key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)

	kind, ok := kindOf(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var typed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, key)
		}
		if key == KeySearchTop && n > domain.MaxPassages {
			return fmt.Errorf("%w: %s must be at most %d", domain.ErrInvalidInput, key, domain.MaxPassages)
		}
		typed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		typed = f
	case kindSearchProvider:
		if !domain.SearchProvider(value).IsValid() {
			return fmt.Errorf("%w: unknown search provider %q", domain.ErrInvalidInput, value)
		}
		typed = value
	case kindLLMProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: unknown LLM provider %q", domain.ErrInvalidInput, value)
		}
		typed = value
	default:
		typed = value
	}

	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns the recognised setting keys in display order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingKeys))
	for i, k := range settingKeys {
		keys[i] = k.key
	}
	return keys
}

// Validate checks the current settings are complete enough to chat.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.llmValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := settings.LLM.Validate(); err != nil {
		return err
	}
	return s.llmValidator.ValidateLLM(&settings.LLM)
}

func kindOf(key string) (keyKind, bool) {
	for _, k := range settingKeys {
		if k.key == key {
			return k.kind, true
		}
	}
	return kindString, false
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getProvider(defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(KeyLLMProvider)
	if val == "" {
		return defaultVal
	}
	return domain.AIProvider(val)
}

// getLLMModel falls back to the configured provider's default model.
func (s *SettingsService) getLLMModel() string {
	if model := s.configStore.GetString(KeyLLMModel); model != "" {
		return model
	}
	provider := s.getProvider(domain.DefaultAppSettings().LLM.Provider)
	return domain.DefaultLLMModels()[provider]
}
