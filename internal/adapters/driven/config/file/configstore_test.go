package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestNewConfigStore(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
	assert.Empty(t, store.Keys())
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewConfigStore("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".paperqa", "config.toml"), store.Path())
}

func TestNewConfigStore_Errors(t *testing.T) {
	t.Run("cannot create directory", func(t *testing.T) {
		store, err := NewConfigStore("/dev/null/paperqa")
		assert.Error(t, err)
		assert.Nil(t, store)
	})

	t.Run("corrupted file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not toml {{[["), 0600))

		store, err := NewConfigStore(dir)
		assert.Error(t, err)
		assert.Nil(t, store)
	})
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Set("llm.model", "gpt-4o"))
	require.NoError(t, store.Set("search.count", 5))
	require.NoError(t, store.Set("search.threshold", 0.78))
	require.NoError(t, store.Set("server.enabled", true))
	require.NoError(t, store.Set("watch.dirs", []string{"/papers", "/inbox"}))

	// Read back through a fresh store so the values go through TOML.
	reloaded, err := NewConfigStore(filepath.Dir(store.Path()))
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", reloaded.GetString("llm.model"))
	assert.Equal(t, 5, reloaded.GetInt("search.count"))
	assert.InDelta(t, 0.78, reloaded.GetFloat("search.threshold"), 1e-9)
	assert.InDelta(t, 5, reloaded.GetFloat("search.count"), 0)
	assert.True(t, reloaded.GetBool("server.enabled"))
	assert.Equal(t, []string{"/papers", "/inbox"}, reloaded.GetStringSlice("watch.dirs"))
}

func TestConfigStore_WrongTypesAreZero(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Set("name", "paperqa"))
	require.NoError(t, store.Set("ratio", 0.5))

	assert.Equal(t, 0, store.GetInt("name"))
	assert.Equal(t, 0, store.GetInt("ratio"))
	assert.Zero(t, store.GetFloat("name"))
	assert.False(t, store.GetBool("name"))
	assert.Empty(t, store.GetString("ratio"))
	assert.Nil(t, store.GetStringSlice("name"))
	assert.Empty(t, store.GetString("missing"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_WritesNestedTables(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Set("embedding.provider", "ollama"))
	require.NoError(t, store.Set("embedding.model", "nomic-embed-text"))
	require.NoError(t, store.Set("storage", "sqlite"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[embedding]")
	assert.Regexp(t, `(?m)^storage = ['"]sqlite['"]`, string(data))
}

func TestConfigStore_ReadsHandWrittenFile(t *testing.T) {
	dir := t.TempDir()
	content := `
storage = "postgres"

[search]
threshold = 0.5
count = 3

[llm]
provider = "openai"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"llm.provider", "search.count", "search.threshold", "storage"}, store.Keys())
	assert.Equal(t, "postgres", store.GetString("storage"))
	assert.InDelta(t, 0.5, store.GetFloat("search.threshold"), 0)
	assert.Equal(t, 3, store.GetInt("search.count"))
}

func TestConfigStore_Set_FailureLeavesValue(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Set("key", "old"))

	err := store.Set("key", make(chan int))
	assert.Error(t, err)
	assert.Equal(t, "old", store.GetString("key"))

	err = store.Set("other", make(chan int))
	assert.Error(t, err)
	_, ok := store.Get("other")
	assert.False(t, ok)
}

func TestConfigStore_Save_WriteFileError(t *testing.T) {
	store := newStore(t)
	require.NoError(t, os.Mkdir(store.Path(), 0700))

	assert.Error(t, store.Save())
}

func TestConfigStore_Load_InvalidTOML(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Set("valid", "data"))
	require.NoError(t, os.WriteFile(store.Path(), []byte("invalid ][}{"), 0600))

	assert.Error(t, store.Load())
}

func TestConfigStore_Load_EmptyFile(t *testing.T) {
	store := newStore(t)
	require.NoError(t, os.WriteFile(store.Path(), nil, 0600))

	require.NoError(t, store.Load())
	assert.Empty(t, store.Keys())
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Set("openai.api_key", "sk-secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := newStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set("search.count", i)
		}()
		go func() {
			defer wg.Done()
			_ = store.GetInt("search.count")
		}()
	}
	wg.Wait()

	_, ok := store.Get("search.count")
	assert.True(t, ok)
}

func TestNest(t *testing.T) {
	got := nest(map[string]any{
		"a":     1,
		"a.b":   2,
		"x.y.z": "deep",
		"x.w":   true,
	})

	assert.Equal(t, 1, got["a"])
	assert.Equal(t, 2, got["a.b"])
	assert.Equal(t, map[string]any{"y": map[string]any{"z": "deep"}, "w": true}, got["x"])
	assert.Equal(t, map[string]any{"x.w": true, "x.y.z": "deep", "a": 1, "a.b": 2}, flatten(got, ""))
}
