package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*ConfigStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	return store, dir
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))
}

func TestNewConfigStore(t *testing.T) {
	store, dir := newStore(t)

	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
	assert.Empty(t, store.Keys())
	_, err := os.Stat(store.Path())
	assert.True(t, os.IsNotExist(err), "nothing is written until a value is set")
}

func TestNewConfigStore_DefaultDirIsUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".scholar", "config.toml"), store.Path())
	info, err := os.Stat(filepath.Join(home, ".scholar"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestNewConfigStore_CreatesNestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	store, err := NewConfigStore(dir)

	require.NoError(t, err)
	require.NoError(t, store.Set("search.mode", "dense"))
	assert.FileExists(t, filepath.Join(dir, "config.toml"))
}

func TestNewConfigStore_Errors(t *testing.T) {
	t.Run("directory cannot be created", func(t *testing.T) {
		store, err := NewConfigStore("/dev/null/scholar")
		assert.Error(t, err)
		assert.Nil(t, store)
	})

	t.Run("corrupted file", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "this is not valid TOML {{{[[")

		store, err := NewConfigStore(dir)
		assert.Error(t, err)
		assert.Nil(t, store)
	})
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, _ := newStore(t)
	require.NoError(t, store.Set("search.mode", "hybrid"))
	require.NoError(t, store.Set("search.semantic_weight", 0.7))
	require.NoError(t, store.Set("search.limit", 10))
	require.NoError(t, store.Set("search.oversample", int64(2)))
	require.NoError(t, store.Set("index.watch", true))

	t.Run("string", func(t *testing.T) {
		assert.Equal(t, "hybrid", store.GetString("search.mode"))
		assert.Empty(t, store.GetString("search.limit"), "wrong type")
		assert.Empty(t, store.GetString("missing"))
	})

	t.Run("int", func(t *testing.T) {
		assert.Equal(t, 10, store.GetInt("search.limit"))
		assert.Equal(t, 2, store.GetInt("search.oversample"))
		assert.Zero(t, store.GetInt("search.mode"))
		assert.Zero(t, store.GetInt("missing"))
	})

	t.Run("float", func(t *testing.T) {
		assert.InDelta(t, 0.7, store.GetFloat("search.semantic_weight"), 1e-9)
		assert.InDelta(t, 2.0, store.GetFloat("search.oversample"), 1e-9)
		assert.InDelta(t, 10.0, store.GetFloat("search.limit"), 1e-9)
		assert.Zero(t, store.GetFloat("search.mode"))
	})

	t.Run("bool", func(t *testing.T) {
		assert.True(t, store.GetBool("index.watch"))
		assert.False(t, store.GetBool("search.mode"))
		assert.False(t, store.GetBool("missing"))
	})

	t.Run("raw", func(t *testing.T) {
		val, ok := store.Get("search.mode")
		assert.True(t, ok)
		assert.Equal(t, "hybrid", val)

		val, ok = store.Get("missing")
		assert.False(t, ok)
		assert.Nil(t, val)
	})
}

func TestConfigStore_Keys_Sorted(t *testing.T) {
	store, _ := newStore(t)

	require.NoError(t, store.Set("search.mode", "dense"))
	require.NoError(t, store.Set("conversation.ttl_days", 30))
	require.NoError(t, store.Set("embedding.provider", "hashing"))

	assert.Equal(t, []string{"conversation.ttl_days", "embedding.provider", "search.mode"}, store.Keys())
}

func TestConfigStore_SetOverwrites(t *testing.T) {
	store, _ := newStore(t)

	require.NoError(t, store.Set("search.mode", "dense"))
	require.NoError(t, store.Set("search.mode", "sparse"))

	assert.Equal(t, "sparse", store.GetString("search.mode"))
	assert.Len(t, store.Keys(), 1)
}

func TestConfigStore_ReloadKeepsValuesAndTypes(t *testing.T) {
	store, dir := newStore(t)
	require.NoError(t, store.Set("search.mode", "sparse"))
	require.NoError(t, store.Set("search.semantic_weight", 0.5))
	require.NoError(t, store.Set("conversation.max_turns", 20))
	require.NoError(t, store.Set("index.watch", true))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, store.Keys(), reopened.Keys())
	assert.Equal(t, "sparse", reopened.GetString("search.mode"))
	assert.InDelta(t, 0.5, reopened.GetFloat("search.semantic_weight"), 1e-9)
	assert.Equal(t, 20, reopened.GetInt("conversation.max_turns"))
	assert.True(t, reopened.GetBool("index.watch"))
}

func TestConfigStore_WritesNestedTablesWithHeader(t *testing.T) {
	store, _ := newStore(t)
	require.NoError(t, store.Set("search.mode", "sparse"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	content := string(data)
	assert.True(t, strings.HasPrefix(content, "# scholar configuration."))
	assert.Contains(t, content, "[search]")
	assert.NotContains(t, content, "search.mode")

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_SaveLeavesNoTempFiles(t *testing.T) {
	store, dir := newStore(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Set(fmt.Sprintf("k.v%d", i), i))
	}
	require.NoError(t, store.Save())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "config.toml", entries[0].Name())
}

func TestConfigStore_Load(t *testing.T) {
	t.Run("hand edited tables", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "[conversation]\nmax_sessions = 25\n\n[conversation.redis]\naddr = \"cache:6379\"\n")

		store, err := NewConfigStore(dir)
		require.NoError(t, err)
		assert.Equal(t, 25, store.GetInt("conversation.max_sessions"))
		assert.Equal(t, "cache:6379", store.GetString("conversation.redis.addr"))
	})

	t.Run("empty file", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "")

		store, err := NewConfigStore(dir)
		require.NoError(t, err)
		assert.Empty(t, store.Keys())
	})

	t.Run("comments only", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "# nothing yet\n")

		store, err := NewConfigStore(dir)
		require.NoError(t, err)
		assert.Empty(t, store.Keys())
	})

	t.Run("file removed resets to empty", func(t *testing.T) {
		store, _ := newStore(t)
		require.NoError(t, store.Set("search.mode", "dense"))
		require.NoError(t, os.Remove(store.Path()))

		require.NoError(t, store.Load())
		assert.Empty(t, store.Keys())
	})

	t.Run("external edit picked up", func(t *testing.T) {
		store, dir := newStore(t)
		require.NoError(t, store.Set("search.mode", "dense"))
		writeConfig(t, dir, "[search]\nmode = \"sparse\"\n")

		require.NoError(t, store.Load())
		assert.Equal(t, "sparse", store.GetString("search.mode"))
	})

	t.Run("invalid toml", func(t *testing.T) {
		store, dir := newStore(t)
		writeConfig(t, dir, "invalid toml syntax ][}{")

		assert.Error(t, store.Load())
	})

	t.Run("unreadable file", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root ignores file permissions")
		}
		store, _ := newStore(t)
		require.NoError(t, store.Set("search.mode", "dense"))
		require.NoError(t, os.Chmod(store.Path(), 0000))
		t.Cleanup(func() { _ = os.Chmod(store.Path(), 0600) })

		err := store.Load()
		assert.Error(t, err)
		assert.False(t, os.IsNotExist(err))
	})
}

func TestConfigStore_Set_RejectedValuesAreNotKept(t *testing.T) {
	t.Run("unmarshallable", func(t *testing.T) {
		store, _ := newStore(t)

		assert.Error(t, store.Set("channel", make(chan int)))
		_, ok := store.Get("channel")
		assert.False(t, ok)
	})

	t.Run("key conflicts with a table", func(t *testing.T) {
		store, _ := newStore(t)
		require.NoError(t, store.Set("search.mode", "dense"))

		assert.Error(t, store.Set("search", "flat"))
		_, ok := store.Get("search")
		assert.False(t, ok)
		assert.Equal(t, "dense", store.GetString("search.mode"))
	})

	t.Run("table conflicts with a key", func(t *testing.T) {
		store, _ := newStore(t)
		require.NoError(t, store.Set("search", "flat"))

		assert.Error(t, store.Set("search.mode", "dense"))
		assert.Equal(t, "flat", store.GetString("search"))
	})

	t.Run("write failure restores previous value", func(t *testing.T) {
		store, _ := newStore(t)
		require.NoError(t, store.Set("search.mode", "dense"))

		// A directory in place of the file makes the rename fail.
		require.NoError(t, os.Remove(store.Path()))
		require.NoError(t, os.Mkdir(store.Path(), 0700))

		assert.Error(t, store.Set("search.mode", "sparse"))
		assert.Equal(t, "dense", store.GetString("search.mode"))
	})
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store, dir := newStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("workers.w%d", id)
			assert.NoError(t, store.Set(key, id))
			_ = store.GetInt(key)
			_ = store.Keys()
		}(i)
	}
	wg.Wait()

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Len(t, reopened.Keys(), 10)
	assert.Equal(t, 7, reopened.GetInt("workers.w7"))
}
