// Package cli wires the adapters behind the service ports and exposes
// them as cobra commands.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitseek/gitseek-cli/internal/adapters/driven/auth"
	configfile "github.com/gitseek/gitseek-cli/internal/adapters/driven/config/file"
	"github.com/gitseek/gitseek-cli/internal/adapters/driven/indexer"
	"github.com/gitseek/gitseek-cli/internal/adapters/driven/manifest"
	"github.com/gitseek/gitseek-cli/internal/connectors/git"
	"github.com/gitseek/gitseek-cli/internal/connectors/github"
	"github.com/gitseek/gitseek-cli/internal/core/domain"
	"github.com/gitseek/gitseek-cli/internal/core/ports/driven"
	"github.com/gitseek/gitseek-cli/internal/core/ports/driving"
	"github.com/gitseek/gitseek-cli/internal/core/services"
	"github.com/gitseek/gitseek-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

var verbose bool

// Package-level services, wired on first use. Tests assign these
// directly and skip initServices.
var (
	configStore     driven.ConfigStore
	settingsService *services.SettingsService
	searchService   driving.SearchService
	buildService    driving.BuildOrchestrator
	appSettings     domain.Settings
)

var rootCmd = &cobra.Command{
	Use:   "gitseek",
	Short: "Branch-aware repository search",
	Long: `gitseek searches a repository's branches through prebuilt indexes,
falling back to live tree listing when no index is available.

The build half snapshots branches, extracts documents, and runs the
external indexing engine; the search half consumes the resulting
manifest and per-branch query modules.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initServices loads configuration and wires the full adapter graph.
// Idempotent; later calls are no-ops once wiring succeeded.
func initServices() error {
	if searchService != nil && buildService != nil {
		return nil
	}

	store, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	configStore = store
	settingsService = services.NewSettingsService(store)

	settings, err := settingsService.Load()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	appSettings = settings

	resolver := auth.NewResolver(settingsService.Tokens())

	ghClient := github.NewClient(resolver)
	tree := github.NewTreeSearcher(ghClient, settings.Owner, settings.Repo)

	var fetcher driven.ManifestFetcher
	var loader driven.ModuleLoader
	if settings.Enabled {
		client := manifest.NewClient(true, settings.ManifestURL, settings.RefreshInterval)

		cacheDir, err := gitseekDir("cache", "modules")
		if err != nil {
			return err
		}
		l := manifest.NewLoader(artifactBase(settings), cacheDir)
		client.OnInvalidate(l.Invalidate)
		fetcher = client
		loader = l
	}
	searchService = services.NewSearchService(settings, fetcher, loader, tree)

	binDir, err := gitseekDir("bin")
	if err != nil {
		return err
	}
	snapshotter := git.NewSnapshotter(settings.Remote, settings.LocalCheckout, resolver)
	runner := indexer.NewRunner(settings.IndexerURL, binDir)
	buildService = services.NewBuildService(settings, snapshotter, runner)

	return nil
}

// artifactBase defaults to the manifest's own directory so a build's
// relative artifact paths resolve next to the manifest.
func artifactBase(settings domain.Settings) string {
	if settings.ArtifactBase != "" {
		return settings.ArtifactBase
	}
	if i := strings.LastIndex(settings.ManifestURL, "/"); i > 0 {
		return settings.ManifestURL[:i]
	}
	return "."
}

// gitseekDir resolves and creates a directory under ~/.gitseek.
func gitseekDir(parts ...string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	dir := filepath.Join(append([]string{home, ".gitseek"}, parts...)...)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	return dir, nil
}
