package driving

import (
	"context"

	"github.com/gitseek/gitseek-cli/internal/core/domain"
)

// SearchService is the query client. It decides per request whether to
// serve results from a prebuilt branch index or from the live
// tree-listing fallback.
type SearchService interface {
	// IsEnabled reports whether index-backed search is switched on.
	IsEnabled() bool

	// EnsureReady fetches and validates the manifest. Errors are one of
	// domain.ErrDisabled, domain.ErrManifestNotFound,
	// domain.ErrManifestInvalid, or domain.ErrCancelled.
	EnsureReady(ctx context.Context) error

	// GetIndexedBranches returns the branches present in the manifest,
	// sorted.
	GetIndexedBranches(ctx context.Context) ([]string, error)

	// Search executes a ranked search with filters. An unusable index
	// never blocks the request; it silently downgrades to the live
	// fallback with the reason recorded on the response.
	Search(ctx context.Context, filters domain.SearchFilters) (*domain.SearchResponse, error)

	// PrefetchBranch warms the module cache for a branch. Returns true
	// when a module is loaded and ready.
	PrefetchBranch(ctx context.Context, branch string) (bool, error)

	// PrefetchBranches warms several branches concurrently, best-effort:
	// one branch's failure never blocks or fails the others.
	PrefetchBranches(ctx context.Context, branches []string) map[string]bool

	// InvalidateCache clears the manifest cache and all module caches.
	InvalidateCache()

	// Status returns the current index status snapshot.
	Status() domain.IndexStatus
}
