package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore returns a store in a temp dir with environment overrides disabled.
func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	store.lookup = func(string) (string, bool) { return "", false }
	return store
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))
}

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".scribe", "config.toml"), store.Path())
}

func TestNewConfigStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "scribe")

	_, err := NewConfigStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/scribe")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_CorruptedFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "[search\nendpoint = ")

	store, err := NewConfigStore(dir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_EmptyOrCommentOnlyFile(t *testing.T) {
	for name, content := range map[string]string{
		"empty":        "",
		"comment only": "# scribe settings\n\n",
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, content)

			store, err := NewConfigStore(dir)
			require.NoError(t, err)

			val, ok := store.Get("search.endpoint")
			assert.False(t, ok)
			assert.Nil(t, val)
		})
	}
}

func TestConfigStore_LoadsNestedTables(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[search]
provider = "azure"
endpoint = "https://svc.search.windows.net"
index = "transcripts"
top = 3
requests_per_second = 2.5

[llm]
provider = "ollama"
model = "llama3"
temperature = 0.2
max_tokens = 800

[chunking]
max_size = 1500

[chat]
language = "French"
`)

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	store.lookup = func(string) (string, bool) { return "", false }

	assert.Equal(t, "azure", store.GetString("search.provider"))
	assert.Equal(t, "https://svc.search.windows.net", store.GetString("search.endpoint"))
	assert.Equal(t, "transcripts", store.GetString("search.index"))
	assert.Equal(t, 3, store.GetInt("search.top"))
	assert.InDelta(t, 2.5, store.GetFloat("search.requests_per_second"), 1e-9)
	assert.Equal(t, "ollama", store.GetString("llm.provider"))
	assert.Equal(t, "llama3", store.GetString("llm.model"))
	assert.InDelta(t, 0.2, store.GetFloat("llm.temperature"), 1e-9)
	assert.Equal(t, 800, store.GetInt("llm.max_tokens"))
	assert.Equal(t, 1500, store.GetInt("chunking.max_size"))
	assert.Equal(t, "French", store.GetString("chat.language"))
}

func TestConfigStore_SetPersistsNestedTables(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("search.endpoint", "https://svc.search.windows.net"))
	require.NoError(t, store.Set("search.index", "transcripts"))
	require.NoError(t, store.Set("search.top", 4))
	require.NoError(t, store.Set("llm.provider", "openai"))
	require.NoError(t, store.Set("llm.temperature", 0.3))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[search]")
	assert.Contains(t, string(data), "[llm]")
	assert.NotContains(t, string(data), "search.index")

	reloaded, err := NewConfigStore(filepath.Dir(store.Path()))
	require.NoError(t, err)
	reloaded.lookup = store.lookup

	assert.Equal(t, "transcripts", reloaded.GetString("search.index"))
	assert.Equal(t, 4, reloaded.GetInt("search.top"))
	assert.Equal(t, "openai", reloaded.GetString("llm.provider"))
	assert.InDelta(t, 0.3, reloaded.GetFloat("llm.temperature"), 1e-9)
}

func TestConfigStore_OverwriteValue(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("chat.language", "English"))
	require.NoError(t, store.Set("chat.language", "German"))

	assert.Equal(t, "German", store.GetString("chat.language"))
}

func TestConfigStore_GetString(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("llm.model", "gpt-4o-mini"))
	require.NoError(t, store.Set("llm.max_tokens", 512))

	assert.Equal(t, "gpt-4o-mini", store.GetString("llm.model"))
	assert.Empty(t, store.GetString("llm.max_tokens"))
	assert.Empty(t, store.GetString("llm.base_url"))
}

func TestConfigStore_GetInt(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int
	}{
		{"int", 4, 4},
		{"int64 from toml", int64(1500), 1500},
		{"integral float", 5.0, 5},
		{"fractional float", 2.5, 0},
		{"numeric string", "3", 3},
		{"padded string", " 800 ", 800},
		{"non-numeric string", "five", 0},
		{"bool", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			store.data["search.top"] = tt.value

			assert.Equal(t, tt.want, store.GetInt("search.top"))
		})
	}

	t.Run("missing", func(t *testing.T) {
		assert.Zero(t, newTestStore(t).GetInt("search.top"))
	})
}

func TestConfigStore_GetFloat(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  float64
	}{
		{"float", 0.7, 0.7},
		{"int64 from toml", int64(1), 1},
		{"int", 10, 10},
		{"numeric string", "0.25", 0.25},
		{"non-numeric string", "warm", 0},
		{"bool", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			store.data["llm.temperature"] = tt.value

			assert.InDelta(t, tt.want, store.GetFloat("llm.temperature"), 1e-9)
		})
	}

	t.Run("missing", func(t *testing.T) {
		assert.Zero(t, newTestStore(t).GetFloat("llm.temperature"))
	})
}

func TestConfigStore_GetBool(t *testing.T) {
	store := newTestStore(t)
	store.data["a"] = true
	store.data["b"] = "true"
	store.data["c"] = "nope"
	store.data["d"] = 1

	assert.True(t, store.GetBool("a"))
	assert.True(t, store.GetBool("b"))
	assert.False(t, store.GetBool("c"))
	assert.False(t, store.GetBool("d"))
	assert.False(t, store.GetBool("missing"))
}

func TestConfigStore_GetStringSlice(t *testing.T) {
	store := newTestStore(t)
	store.data["toml"] = []any{"doc-1", 7, "doc-2"}
	store.data["csv"] = "doc-1, doc-2,,"

	assert.Equal(t, []string{"doc-1", "doc-2"}, store.GetStringSlice("toml"))
	assert.Equal(t, []string{"doc-1", "doc-2"}, store.GetStringSlice("csv"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"search.api_key":             "SCRIBE_SEARCH_API_KEY",
		"search.top":                 "SCRIBE_SEARCH_TOP",
		"search.requests_per_second": "SCRIBE_SEARCH_REQUESTS_PER_SECOND",
		"llm.temperature":            "SCRIBE_LLM_TEMPERATURE",
		"chunking.max-size":          "SCRIBE_CHUNKING_MAX_SIZE",
	}
	for key, want := range tests {
		assert.Equal(t, want, EnvKey(key), key)
	}
}

func TestConfigStore_EnvOverride(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("search.api_key", "from-file"))
	require.NoError(t, store.Set("search.top", 5))
	require.NoError(t, store.Set("llm.temperature", 0.9))
	require.NoError(t, store.Set("llm.provider", "openai"))

	t.Setenv(EnvKey("search.api_key"), "from-env")
	t.Setenv(EnvKey("search.top"), "3")
	t.Setenv(EnvKey("llm.temperature"), "0.1")
	t.Setenv(EnvKey("llm.max_tokens"), "256")

	assert.Equal(t, "from-env", store.GetString("search.api_key"))
	assert.Equal(t, 3, store.GetInt("search.top"))
	assert.InDelta(t, 0.1, store.GetFloat("llm.temperature"), 1e-9)
	assert.Equal(t, 256, store.GetInt("llm.max_tokens"))
	assert.Equal(t, "openai", store.GetString("llm.provider"))

	val, ok := store.Get("search.top")
	assert.True(t, ok)
	assert.Equal(t, "3", val)
}

func TestConfigStore_EnvOverrideNotPersisted(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("search.api_key", "from-file"))

	t.Setenv(EnvKey("search.api_key"), "from-env")
	require.NoError(t, store.Set("search.index", "transcripts"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "from-env")

	reloaded, err := NewConfigStore(filepath.Dir(store.Path()))
	require.NoError(t, err)
	reloaded.lookup = func(string) (string, bool) { return "", false }
	assert.Equal(t, "from-file", reloaded.GetString("search.api_key"))
}

func TestConfigStore_EnvOverrideEmptyValue(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("llm.base_url", "http://localhost:11434"))

	t.Setenv(EnvKey("llm.base_url"), "")

	assert.Empty(t, store.GetString("llm.base_url"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("search.api_key", "secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_SaveWriteError(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.Mkdir(store.Path(), 0700))

	assert.Error(t, store.Set("search.index", "transcripts"))
	assert.Error(t, store.Save())
}

func TestConfigStore_SetUnmarshallableValue(t *testing.T) {
	store := newTestStore(t)

	assert.Error(t, store.Set("search.top", make(chan int)))
}

func TestConfigStore_LoadInvalidTOML(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("search.index", "transcripts"))
	require.NoError(t, os.WriteFile(store.Path(), []byte("][}{"), 0600))

	assert.Error(t, store.Load())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := newTestStore(t)
	keys := []string{"search.top", "llm.max_tokens", "chunking.max_size", "llm.temperature"}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := keys[i%len(keys)]
			_ = store.Set(key, i)
			_ = store.GetInt(key)
			_ = store.GetFloat(key)
			_ = store.GetString(key)
		}(i)
	}
	wg.Wait()

	reloaded, err := NewConfigStore(filepath.Dir(store.Path()))
	require.NoError(t, err)
	for _, key := range keys {
		_, ok := reloaded.Get(key)
		assert.True(t, ok, key)
	}
}
