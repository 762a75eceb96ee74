package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/scribe-cli/internal/core/domain"
)

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	settings, err := service.Get()
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultAppSettings(), *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("search.endpoint", "https://acme.search.windows.net/")
	_ = store.Set("search.top", 4)
	_ = store.Set("llm.provider", "anthropic")
	_ = store.Set("llm.temperature", 0.0)
	_ = store.Set("chat.language", "Dutch")

	settings, err := NewSettingsService(store, nil).Get()
	require.NoError(t, err)

	assert.Equal(t, "https://acme.search.windows.net", settings.Search.Endpoint)
	assert.Equal(t, 4, settings.Search.Top)
	assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
	assert.Equal(t, domain.DefaultLLMModels()[domain.AIProviderAnthropic], settings.LLM.Model)
	assert.Zero(t, settings.LLM.Temperature, "an explicit zero temperature is kept")
	assert.Equal(t, "Dutch", settings.Chat.Language)
}

func TestSettingsService_Save(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("llm.api_key", "sk-existing")
	service := NewSettingsService(store, nil)

	settings := domain.DefaultAppSettings()
	settings.Search.Endpoint = "https://acme.search.windows.net"
	settings.Search.APIKey = "admin-key"
	require.NoError(t, service.Save(&settings))

	assert.Equal(t, "https://acme.search.windows.net", store.GetString("search.endpoint"))
	assert.Equal(t, "admin-key", store.GetString("search.api_key"))
	assert.Equal(t, "sk-existing", store.GetString("llm.api_key"), "empty key must not clear stored key")
	assert.Equal(t, 800, store.GetInt("llm.max_tokens"))
}

func TestSettingsService_Set(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	require.NoError(t, service.Set("search.top", "3"))
	require.NoError(t, service.Set("LLM.Temperature", " 0.7 "))
	require.NoError(t, service.Set("llm.provider", "ollama"))
	require.NoError(t, service.Set("search.provider", "memory"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, 3, settings.Search.Top)
	assert.InDelta(t, 0.7, settings.LLM.Temperature, 1e-9)
	assert.Equal(t, domain.AIProviderOllama, settings.LLM.Provider)
	assert.Equal(t, domain.SearchProviderMemory, settings.Search.Provider)
}

func TestSettingsService_Set_Invalid(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	for _, tc := range [][2]string{
		{"unknown.key", "x"},
		{"search.top", "zero"},
		{"search.top", "-1"},
		{"search.top", "6"},
		{"llm.temperature", "-0.1"},
		{"llm.provider", "gemini"},
		{"search.provider", "solr"},
	} {
		err := service.Set(tc[0], tc[1])
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "%s=%s", tc[0], tc[1])
	}
}

func TestSettingsService_Keys(t *testing.T) {
	keys := NewSettingsService(memory.NewConfigStore(), nil).Keys()
	assert.Contains(t, keys, "search.endpoint")
	assert.Contains(t, keys, "chunking.max_size")
	assert.Equal(t, "search.provider", keys[0])
}

func TestSettingsService_Validate(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	err := service.Validate()
	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "search.endpoint", cfgErr.Field)

	_ = store.Set("search.endpoint", "https://acme.search.windows.net")
	_ = store.Set("search.api_key", "key")
	err = service.Validate()
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "llm.api_key", cfgErr.Field)

	_ = store.Set("llm.api_key", "sk")
	assert.NoError(t, service.Validate())
}

func TestSettingsService_ValidateLLMConfig(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("llm.api_key", "sk")

	validator := &mockLLMValidator{err: errors.New("unreachable")}
	service := NewSettingsService(store, validator)

	assert.EqualError(t, service.ValidateLLMConfig(), "unreachable")
	assert.True(t, validator.called)

	assert.NoError(t, NewSettingsService(store, nil).ValidateLLMConfig())
}
