package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitseek/gitseek-cli/internal/core/domain"
	"github.com/gitseek/gitseek-cli/internal/core/ports/driven"
)

// mockConfigStore implements driven.ConfigStore over a plain map.
type mockConfigStore struct {
	data map[string]any
}

func newMockConfigStore(data map[string]any) *mockConfigStore {
	if data == nil {
		data = make(map[string]any)
	}
	return &mockConfigStore{data: data}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	val, ok := m.data[key]
	return val, ok
}

func (m *mockConfigStore) GetString(key string) string {
	s, _ := m.data[key].(string)
	return s
}

func (m *mockConfigStore) GetInt(key string) int {
	switch v := m.data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func (m *mockConfigStore) GetBool(key string) bool {
	b, _ := m.data[key].(bool)
	return b
}

func (m *mockConfigStore) GetStringSlice(key string) []string {
	s, _ := m.data[key].([]string)
	return s
}

func (m *mockConfigStore) Set(key string, value any) error {
	m.data[key] = value
	return nil
}

func (m *mockConfigStore) Save() error  { return nil }
func (m *mockConfigStore) Load() error  { return nil }
func (m *mockConfigStore) Path() string { return "" }

var _ driven.ConfigStore = (*mockConfigStore)(nil)

func TestSettingsService_Load_FullConfig(t *testing.T) {
	store := newMockConfigStore(map[string]any{
		KeySearchEnabled:     true,
		KeyManifestURL:       "https://example.com/idx/search-manifest.json",
		KeyArtifactBase:      "https://example.com/idx",
		KeyRefreshIntervalMS: 60000,
		KeyDefaultBranch:     "develop",
		KeyBuildBranches:     []string{"main", "develop"},
		KeyBuildRemote:       "https://github.com/acme/widgets.git",
		KeyBuildOwner:        "acme",
		KeyBuildRepo:         "widgets",
		KeyContentExts:       []string{"go", "md"},
		KeySizeCeiling:       1024,
		KeyGeneration:        "ci",
		KeyOutputDir:         "/tmp/idx-out",
		KeyIndexerURL:        "https://example.com/indexer-{os}-{arch}.tar.gz",
	})

	settings, err := NewSettingsService(store).Load()
	require.NoError(t, err)

	assert.True(t, settings.Enabled)
	assert.Equal(t, "https://example.com/idx/search-manifest.json", settings.ManifestURL)
	assert.Equal(t, "https://example.com/idx", settings.ArtifactBase)
	assert.Equal(t, time.Minute, settings.RefreshInterval)
	assert.Equal(t, "develop", settings.DefaultBranch)
	assert.Equal(t, []string{"main", "develop"}, settings.Branches)
	assert.Equal(t, "acme", settings.Owner)
	assert.Equal(t, "widgets", settings.Repo)
	assert.Equal(t, []string{"go", "md"}, settings.ContentExtensions)
	assert.Equal(t, int64(1024), settings.SizeCeiling)
	assert.Equal(t, domain.GenerationCI, settings.Generation)
	assert.Equal(t, "https://example.com/indexer-{os}-{arch}.tar.gz", settings.IndexerURL)
}

func TestSettingsService_Load_Defaults(t *testing.T) {
	settings, err := NewSettingsService(newMockConfigStore(nil)).Load()
	require.NoError(t, err)

	assert.False(t, settings.Enabled)
	assert.Equal(t, domain.DefaultRefreshInterval, settings.RefreshInterval)
	assert.Equal(t, domain.DefaultBranch, settings.DefaultBranch)
	assert.Equal(t, []string{domain.DefaultBranch}, settings.Branches)
	assert.Equal(t, domain.DefaultContentExtensions, settings.ContentExtensions)
	assert.Equal(t, int64(domain.DefaultSizeCeiling), settings.SizeCeiling)
	assert.Equal(t, domain.GenerationLocal, settings.Generation)
}

func TestSettingsService_Load_EnabledWithoutManifestURL(t *testing.T) {
	store := newMockConfigStore(map[string]any{
		KeySearchEnabled: true,
	})

	_, err := NewSettingsService(store).Load()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_Load_InvalidGeneration(t *testing.T) {
	store := newMockConfigStore(map[string]any{
		KeyGeneration: "sometimes",
	})

	_, err := NewSettingsService(store).Load()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_SchedulerConfig_Defaults(t *testing.T) {
	cfg := NewSettingsService(newMockConfigStore(nil)).SchedulerConfig()

	assert.True(t, cfg.Enabled)
	task := cfg.GetTaskConfig(domain.TaskIDIndexBuild)
	assert.True(t, task.Enabled)
	assert.Equal(t, 1*time.Hour, task.Interval)
}

func TestSettingsService_SchedulerConfig_Overrides(t *testing.T) {
	store := newMockConfigStore(map[string]any{
		KeySchedulerOn:     false,
		KeySchedulerMinute: 15,
	})

	cfg := NewSettingsService(store).SchedulerConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.GetTaskConfig(domain.TaskIDIndexBuild).Interval)
}

func TestSettingsService_Tokens(t *testing.T) {
	store := newMockConfigStore(map[string]any{
		KeyAuthTokens: []string{"tok1", "tok2"},
	})

	assert.Equal(t, []string{"tok1", "tok2"}, NewSettingsService(store).Tokens())
}
