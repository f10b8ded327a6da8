package driven

import (
	"context"

	"github.com/gitseek/gitseek-cli/internal/core/domain"
)

// ManifestFetcher fetches and time-caches the artifact manifest. It is
// the single source of truth for which branches are searchable.
type ManifestFetcher interface {
	// Fetch returns the manifest, serving a cached copy when the last
	// fetch is within the refresh interval. Errors are one of
	// domain.ErrDisabled, domain.ErrManifestNotFound,
	// domain.ErrManifestInvalid, or domain.ErrCancelled.
	Fetch(ctx context.Context) (*domain.Manifest, error)

	// Invalidate clears the cached manifest and all dependent module
	// caches unconditionally.
	Invalidate()
}

// IndexHit is a raw match from a branch query module, before result
// shaping.
type IndexHit struct {
	// Path of the matched document within the repository.
	Path string `json:"path"`

	// Score assigned by the engine.
	Score float64 `json:"score"`

	// Fragment is a raw content excerpt around the match, may be empty.
	Fragment string `json:"fragment,omitempty"`
}

// QueryHandler executes searches against one branch's loaded index
// module.
type QueryHandler interface {
	// Search runs a keyword query against the module.
	Search(ctx context.Context, keyword string, limit int) ([]IndexHit, error)
}

// ModuleLoader lazily loads and caches per-branch query modules, keyed
// by (branch, hash). A cached module is reused only while its hash
// matches the manifest entry's hash.
type ModuleLoader interface {
	// Load returns the query handler for a branch. Concurrent callers
	// for the same branch and hash share one in-flight load.
	Load(ctx context.Context, branch string, entry domain.BranchEntry) (QueryHandler, error)

	// Invalidate drops all cached modules.
	Invalidate()
}
