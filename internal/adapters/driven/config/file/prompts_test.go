package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
)

func TestNewPromptStore(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())

	// No I/O before the first Load.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewPromptStore("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".paperqa", "prompts"), store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)

	for _, f := range []string{"answer_system.txt", "answer_user.txt", "no_result.txt", "README.md"} {
		assert.FileExists(t, filepath.Join(dir, f))
	}

	readme, err := os.ReadFile(filepath.Join(dir, "README.md"))
	require.NoError(t, err)
	assert.Contains(t, string(readme), "`answer_user.txt`")
}

func TestPromptStore_Load_ReturnsDefaults(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	for name, want := range driven.DefaultPrompts() {
		got, err := store.Load(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
}

func TestPromptStore_Load_CustomContent(t *testing.T) {
	dir := t.TempDir()
	custom := "Answer in English.\n\nQuestion: %s\nContext:\n%s"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "answer_user.txt"), []byte("  "+custom+"\n\n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	got, err := store.Load(driven.PromptAnswerUser)
	require.NoError(t, err)
	assert.Equal(t, custom, got)

	// Existing files are never overwritten by defaults.
	data, err := os.ReadFile(filepath.Join(dir, "answer_user.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Answer in English.")
}

func TestPromptStore_Load_FallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	_, err = store.Load(driven.PromptNoResult)
	require.NoError(t, err)

	t.Run("deleted file", func(t *testing.T) {
		require.NoError(t, os.Remove(filepath.Join(dir, "answer_system.txt")))
		got, err := store.Load(driven.PromptAnswerSystem)
		require.NoError(t, err)
		assert.Equal(t, driven.DefaultPrompts()[driven.PromptAnswerSystem], got)
	})

	t.Run("blank file", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "answer_user.txt"), []byte("\n \n"), 0600))
		got, err := store.Load(driven.PromptAnswerUser)
		require.NoError(t, err)
		assert.Equal(t, driven.DefaultPrompts()[driven.PromptAnswerUser], got)
	})
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent")
	assert.Error(t, err)
}

func TestPromptStore_InitFailureUsesDefaults(t *testing.T) {
	store, err := NewPromptStore("/dev/null/prompts")
	require.NoError(t, err)

	got, err := store.Load(driven.PromptNoResult)
	require.NoError(t, err)
	assert.Equal(t, driven.DefaultPrompts()[driven.PromptNoResult], got)

	_, err = store.Load("nonexistent")
	assert.ErrorContains(t, err, "init failed")
}

func TestPromptStore_CacheAndReload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	first, err := store.Load(driven.PromptNoResult)
	require.NoError(t, err)

	path := filepath.Join(dir, "no_result.txt")
	require.NoError(t, os.WriteFile(path, []byte("Nothing relevant was found."), 0600))

	cached, err := store.Load(driven.PromptNoResult)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptNoResult)
	require.NoError(t, err)
	assert.Equal(t, "Nothing relevant was found.", fresh)
}

func TestPromptStore_ConcurrentLoad(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := store.Load(driven.PromptAnswerSystem)
			assert.NoError(t, err)
			assert.NotEmpty(t, got)
		}()
	}
	wg.Wait()
}
