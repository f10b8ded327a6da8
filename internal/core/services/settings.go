package services

import (
	"time"

	"github.com/gitseek/gitseek-cli/internal/core/domain"
	"github.com/gitseek/gitseek-cli/internal/core/ports/driven"
)

// Configuration keys recognised in config.toml.
const (
	KeySearchEnabled     = "search.enabled"
	KeyManifestURL       = "search.manifest_url"
	KeyArtifactBase      = "search.artifact_base"
	KeyRefreshIntervalMS = "search.refresh_interval_ms"
	KeyDefaultBranch     = "search.default_branch"

	KeyBuildBranches   = "build.branches"
	KeyBuildRemote     = "build.remote"
	KeyBuildOwner      = "build.owner"
	KeyBuildRepo       = "build.repo"
	KeyLocalCheckout   = "build.local_checkout"
	KeyContentExts     = "build.content_extensions"
	KeySizeCeiling     = "build.size_ceiling"
	KeyGeneration      = "build.generation"
	KeyOutputDir       = "build.output_dir"
	KeyIndexerURL      = "build.indexer_url"
	KeyAuthTokens      = "auth.tokens"
	KeySchedulerOn     = "scheduler.enabled"
	KeySchedulerMinute = "scheduler.interval_minutes"
)

// SettingsService materialises typed domain.Settings from the config
// store.
type SettingsService struct {
	store driven.ConfigStore
}

// NewSettingsService creates a settings service.
func NewSettingsService(store driven.ConfigStore) *SettingsService {
	return &SettingsService{store: store}
}

// Load reads, defaults, and validates the settings.
func (s *SettingsService) Load() (domain.Settings, error) {
	settings := domain.Settings{
		Enabled:           s.store.GetBool(KeySearchEnabled),
		ManifestURL:       s.store.GetString(KeyManifestURL),
		ArtifactBase:      s.store.GetString(KeyArtifactBase),
		RefreshInterval:   time.Duration(s.store.GetInt(KeyRefreshIntervalMS)) * time.Millisecond,
		DefaultBranch:     s.store.GetString(KeyDefaultBranch),
		Branches:          s.store.GetStringSlice(KeyBuildBranches),
		Remote:            s.store.GetString(KeyBuildRemote),
		Owner:             s.store.GetString(KeyBuildOwner),
		Repo:              s.store.GetString(KeyBuildRepo),
		LocalCheckout:     s.store.GetString(KeyLocalCheckout),
		ContentExtensions: s.store.GetStringSlice(KeyContentExts),
		SizeCeiling:       int64(s.store.GetInt(KeySizeCeiling)),
		Generation:        domain.GenerationContext(s.store.GetString(KeyGeneration)),
		OutputDir:         s.store.GetString(KeyOutputDir),
		IndexerURL:        s.store.GetString(KeyIndexerURL),
	}

	settings.ApplyDefaults()
	if err := settings.Validate(); err != nil {
		return domain.Settings{}, err
	}
	return settings, nil
}

// SchedulerConfig reads the scheduler configuration, falling back to
// defaults when unset.
func (s *SettingsService) SchedulerConfig() domain.SchedulerConfig {
	cfg := domain.DefaultSchedulerConfig()
	if _, ok := s.store.Get(KeySchedulerOn); ok {
		cfg.Enabled = s.store.GetBool(KeySchedulerOn)
	}
	if minutes := s.store.GetInt(KeySchedulerMinute); minutes > 0 {
		cfg.TaskConfigs[domain.TaskIDIndexBuild] = domain.TaskConfig{
			Enabled:  true,
			Interval: time.Duration(minutes) * time.Minute,
		}
	}
	return cfg
}

// Tokens returns the configured access tokens, most specific first.
func (s *SettingsService) Tokens() []string {
	return s.store.GetStringSlice(KeyAuthTokens)
}
