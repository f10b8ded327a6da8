package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*ConfigStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	return store, dir
}

func TestNewConfigStore_Success(t *testing.T) {
	store, dir := newTestStore(t)

	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Set("search.enabled", true))

	val, ok := store.Get("search.enabled")
	assert.True(t, ok)
	assert.Equal(t, true, val)
}

func TestConfigStore_Get_NotFound(t *testing.T) {
	store, _ := newTestStore(t)

	val, ok := store.Get("nonexistent")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Set("repo.remote", "https://github.com/acme/widgets.git"))
	require.NoError(t, store.Set("search.refresh_minutes", 15))
	require.NoError(t, store.Set("search.enabled", true))
	require.NoError(t, store.Set("build.branches", []string{"main", "develop"}))

	assert.Equal(t, "https://github.com/acme/widgets.git", store.GetString("repo.remote"))
	assert.Equal(t, 15, store.GetInt("search.refresh_minutes"))
	assert.True(t, store.GetBool("search.enabled"))
	assert.Equal(t, []string{"main", "develop"}, store.GetStringSlice("build.branches"))
}

func TestConfigStore_TypedGetters_WrongType(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Set("key", "not a number"))

	assert.Equal(t, 0, store.GetInt("key"))
	assert.False(t, store.GetBool("key"))
	assert.Nil(t, store.GetStringSlice("key"))
	assert.Equal(t, "", store.GetString("missing"))
}

func TestConfigStore_GetInt_Int64(t *testing.T) {
	store, _ := newTestStore(t)

	// go-toml hands back int64 after a reload
	store.mu.Lock()
	store.data["n"] = int64(30)
	store.mu.Unlock()

	assert.Equal(t, 30, store.GetInt("n"))
}

func TestConfigStore_GetStringSlice_AnySlice(t *testing.T) {
	store, _ := newTestStore(t)

	store.mu.Lock()
	store.data["branches"] = []any{"main", "develop", 7}
	store.mu.Unlock()

	assert.Equal(t, []string{"main", "develop"}, store.GetStringSlice("branches"))
}

func TestConfigStore_Persistence(t *testing.T) {
	store, dir := newTestStore(t)

	require.NoError(t, store.Set("repo.owner", "acme"))
	require.NoError(t, store.Set("search.refresh_minutes", 5))
	require.NoError(t, store.Set("search.enabled", true))

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "acme", reloaded.GetString("repo.owner"))
	assert.Equal(t, 5, reloaded.GetInt("search.refresh_minutes"))
	assert.True(t, reloaded.GetBool("search.enabled"))
}

func TestConfigStore_Load_FlattensNestedTables(t *testing.T) {
	dir := t.TempDir()
	content := []byte("[search]\nenabled = true\nmanifest_url = \"https://example.com/search-manifest.json\"\n\n[repo]\nowner = \"acme\"\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), content, 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.True(t, store.GetBool("search.enabled"))
	assert.Equal(t, "https://example.com/search-manifest.json", store.GetString("search.manifest_url"))
	assert.Equal(t, "acme", store.GetString("repo.owner"))
}

func TestConfigStore_Load_MissingFileStartsEmpty(t *testing.T) {
	store, _ := newTestStore(t)

	_, ok := store.Get("anything")
	assert.False(t, ok)
}

func TestConfigStore_Load_CorruptedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not toml {{["), 0600))

	store, err := NewConfigStore(dir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Set("k", "v"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_OverwriteValue(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Set("repo.default_branch", "master"))
	require.NoError(t, store.Set("repo.default_branch", "main"))

	assert.Equal(t, "main", store.GetString("repo.default_branch"))
}
