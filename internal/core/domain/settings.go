package domain

import (
	"fmt"
	"strings"
	"time"
)

// GenerationContext gates when index builds are allowed to run.
type GenerationContext string

// Recognised generation contexts.
const (
	// GenerationOff disables index builds entirely.
	GenerationOff GenerationContext = "off"

	// GenerationLocal allows builds from a local checkout.
	GenerationLocal GenerationContext = "local"

	// GenerationCI allows builds from a CI action (remote snapshots).
	GenerationCI GenerationContext = "ci"
)

// IsValid returns true if the generation context is recognised.
func (g GenerationContext) IsValid() bool {
	switch g {
	case GenerationOff, GenerationLocal, GenerationCI:
		return true
	default:
		return false
	}
}

// Default configuration values.
const (
	// DefaultSizeCeiling is the largest file whose content is indexed.
	DefaultSizeCeiling = 512 * 1024

	// DefaultRefreshInterval is the manifest cache TTL.
	DefaultRefreshInterval = 5 * time.Minute

	// DefaultBranch is used when a search names no branches.
	DefaultBranch = "main"

	// DefaultSearchLimit caps results when the caller does not.
	DefaultSearchLimit = 50
)

// DefaultContentExtensions is the extension allow-list applied when the
// configuration does not override it.
var DefaultContentExtensions = []string{
	"md", "markdown", "txt", "rst", "adoc",
	"go", "js", "jsx", "ts", "tsx", "py", "rb", "rs", "java", "kt",
	"c", "h", "cc", "cpp", "hpp", "cs", "swift", "scala", "sh", "bash",
	"json", "yaml", "yml", "toml", "ini", "xml", "html", "css", "scss",
	"sql", "proto", "graphql", "tf", "dockerfile", "makefile",
}

// Settings is the validated configuration surface for both the index
// builder and the query client.
type Settings struct {
	// Enabled is the feature flag for index-backed search.
	Enabled bool

	// ManifestURL locates the manifest document (http(s), file URL,
	// or plain path).
	ManifestURL string

	// ArtifactBase is the base path prepended to each BranchEntry's
	// ArtifactPath. Defaults to the manifest's directory.
	ArtifactBase string

	// RefreshInterval is the manifest cache TTL.
	RefreshInterval time.Duration

	// DefaultBranch is used when a search names no branches.
	DefaultBranch string

	// Branches are the branches the builder snapshots.
	Branches []string

	// Remote is the repository remote URL (https form, no credentials).
	Remote string

	// Owner and Repo identify the repository for the live fallback.
	Owner string
	Repo  string

	// LocalCheckout, when set, points at a pre-existing working copy to
	// snapshot from instead of fetching the remote.
	LocalCheckout string

	// ContentExtensions overrides the extension allow-list.
	ContentExtensions []string

	// SizeCeiling overrides the per-file content size ceiling.
	SizeCeiling int64

	// Generation gates index builds: off, local, or ci.
	Generation GenerationContext

	// OutputDir is where build artifacts and the manifest are written.
	OutputDir string

	// IndexerURL is the download location template for the external
	// indexer binary ({os} and {arch} placeholders).
	IndexerURL string
}

// ApplyDefaults fills unset fields with default values.
func (s *Settings) ApplyDefaults() {
	if s.RefreshInterval <= 0 {
		s.RefreshInterval = DefaultRefreshInterval
	}
	if s.DefaultBranch == "" {
		s.DefaultBranch = DefaultBranch
	}
	if len(s.Branches) == 0 {
		s.Branches = []string{s.DefaultBranch}
	}
	if len(s.ContentExtensions) == 0 {
		s.ContentExtensions = DefaultContentExtensions
	}
	if s.SizeCeiling <= 0 {
		s.SizeCeiling = DefaultSizeCeiling
	}
	if s.Generation == "" {
		s.Generation = GenerationLocal
	}
}

// Validate checks settings consistency for the query client.
func (s *Settings) Validate() error {
	if !s.Generation.IsValid() {
		return fmt.Errorf("%w: generation context %q", ErrInvalidInput, s.Generation)
	}
	if s.Enabled && s.ManifestURL == "" {
		return fmt.Errorf("%w: search index enabled but no manifest URL configured", ErrInvalidInput)
	}
	return nil
}

// ContentAllowed reports whether the extension is in the allow-list.
func (s *Settings) ContentAllowed(extension string) bool {
	extension = strings.ToLower(extension)
	for _, ext := range s.ContentExtensions {
		if strings.ToLower(ext) == extension {
			return true
		}
	}
	return false
}
