package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gitseek/gitseek-cli/internal/core/domain"
	"github.com/gitseek/gitseek-cli/internal/core/ports/driven"
	"github.com/gitseek/gitseek-cli/internal/core/ports/driving"
	"github.com/gitseek/gitseek-cli/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// prefetchConcurrency bounds how many branch modules are warmed at once.
const prefetchConcurrency = 4

// SearchService is the query client. Per request it decides between the
// index path and the live tree-listing fallback, and never lets an
// unavailable index block a search.
type SearchService struct {
	settings domain.Settings
	manifest driven.ManifestFetcher
	loader   driven.ModuleLoader
	tree     driven.TreeSearcher

	mu       sync.RWMutex
	status   domain.IndexStatus
	fetching bool
}

// NewSearchService creates the query client. The tree searcher is
// required; manifest and loader may be nil when the feature is off.
func NewSearchService(
	settings domain.Settings,
	manifest driven.ManifestFetcher,
	loader driven.ModuleLoader,
	tree driven.TreeSearcher,
) *SearchService {
	settings.ApplyDefaults()
	return &SearchService{
		settings: settings,
		manifest: manifest,
		loader:   loader,
		tree:     tree,
		status:   domain.IndexStatus{Enabled: settings.Enabled},
	}
}

// IsEnabled reports whether index-backed search is switched on.
func (s *SearchService) IsEnabled() bool {
	return s.settings.Enabled && s.manifest != nil && s.loader != nil
}

// EnsureReady fetches and validates the manifest, updating the status
// snapshot. The status transitions only through this fetch cycle.
func (s *SearchService) EnsureReady(ctx context.Context) error {
	if !s.IsEnabled() {
		return domain.ErrDisabled
	}
	_, err := s.fetchManifest(ctx)
	return err
}

// GetIndexedBranches returns the branches present in the manifest, sorted.
func (s *SearchService) GetIndexedBranches(ctx context.Context) ([]string, error) {
	if !s.IsEnabled() {
		return nil, domain.ErrDisabled
	}
	manifest, err := s.fetchManifest(ctx)
	if err != nil {
		return nil, err
	}
	branches := manifest.IndexedBranches()
	sort.Strings(branches)
	return branches, nil
}

// Search executes a ranked search with filters. The empty keyword
// short-circuits to an empty result set with zero Took and no network
// or module calls.
func (s *SearchService) Search(
	ctx context.Context, filters domain.SearchFilters,
) (*domain.SearchResponse, error) {
	filters = filters.Normalize(s.settings.DefaultBranch)
	if filters.Keyword == "" {
		logger.Debug("Empty keyword, returning no results")
		return &domain.SearchResponse{Items: []domain.SearchResultItem{}}, nil
	}
	if filters.Limit <= 0 {
		filters.Limit = domain.DefaultSearchLimit
	}

	start := time.Now()
	logger.Section("Search Execution")
	logger.Debug("Keyword: %q, branches: %v", filters.Keyword, filters.Branches)

	manifest, reason := s.resolveMode(ctx, filters.Branches)
	if err := ctx.Err(); err != nil {
		return nil, domain.CancelledOr(err)
	}

	var (
		items []domain.SearchResultItem
		err   error
	)
	mode := domain.SearchModeIndex
	if reason == domain.FallbackNone {
		items, err = s.searchIndex(ctx, manifest, filters)
		if err != nil {
			if domain.IsCancelled(err) {
				return nil, domain.CancelledOr(err)
			}
			// Index-path failures downgrade to the live fallback, with
			// the reason recorded rather than swallowed.
			logger.Warn("Index path failed, falling back to live search: %v", err)
			reason = domain.FallbackIndexError
		}
	}
	if reason != domain.FallbackNone {
		mode = domain.SearchModeLive
		logger.Info("Live fallback (%s)", reason)
		items, err = s.searchLive(ctx, filters)
		if err != nil {
			// Live fallback failure is terminal; attach the filters for
			// diagnostics.
			return nil, fmt.Errorf("live search (keyword=%q branches=%v): %w",
				filters.Keyword, filters.Branches, err)
		}
	}

	domain.SortResults(items)
	if len(items) > filters.Limit {
		items = items[:filters.Limit]
	}

	resp := &domain.SearchResponse{
		Items:          items,
		Mode:           mode,
		FallbackReason: reason,
		Took:           time.Since(start),
	}
	logger.Info("Search done: %d results in %s (mode=%s)", len(items), resp.Took, mode)
	return resp, nil
}

// resolveMode is the mode/fallback state machine. It returns the
// manifest (when usable) and the fallback reason, FallbackNone meaning
// the index path serves the request.
func (s *SearchService) resolveMode(
	ctx context.Context, branches []string,
) (*domain.Manifest, domain.FallbackReason) {
	if !s.IsEnabled() {
		return nil, domain.FallbackDisabled
	}

	s.mu.RLock()
	coldFetch := s.fetching && !s.status.Ready
	s.mu.RUnlock()
	if coldFetch {
		// The first manifest load is still in flight; don't block the
		// search behind it. Once a manifest has loaded, a concurrent
		// refresh never forces callers off the index path.
		return nil, domain.FallbackNotReady
	}

	manifest, err := s.fetchManifest(ctx)
	if err != nil {
		return nil, domain.FallbackIndexError
	}

	for _, b := range branches {
		if manifest.HasBranch(b) {
			return manifest, domain.FallbackNone
		}
	}
	return nil, domain.FallbackBranchNotIndexed
}

// searchIndex serves the request from per-branch query modules.
// Requested branches absent from the manifest are skipped; at least one
// is guaranteed present by resolveMode.
func (s *SearchService) searchIndex(
	ctx context.Context, manifest *domain.Manifest, filters domain.SearchFilters,
) ([]domain.SearchResultItem, error) {
	var items []domain.SearchResultItem

	for _, branch := range filters.Branches {
		entry, err := manifest.Entry(branch)
		if err != nil {
			logger.Debug("Branch %s not indexed, skipping on index path", branch)
			continue
		}

		handler, err := s.loader.Load(ctx, branch, entry)
		if err != nil {
			return nil, fmt.Errorf("load module for %s: %w", branch, err)
		}

		// Over-fetch so post-filtering still fills the limit.
		hits, err := handler.Search(ctx, filters.Keyword, filters.Limit*3)
		if err != nil {
			return nil, fmt.Errorf("query module for %s: %w", branch, err)
		}
		logger.Debug("Branch %s: %d raw hits", branch, len(hits))

		for _, hit := range hits {
			item, ok := s.shapeHit(branch, hit, filters)
			if !ok {
				continue
			}
			items = append(items, item)
		}
	}

	return items, nil
}

// shapeHit converts a raw engine hit into a result item, applying
// filters and the client-side ranking contract. The engine's raw score
// contributes as an additive boost.
func (s *SearchService) shapeHit(
	branch string, hit driven.IndexHit, filters domain.SearchFilters,
) (domain.SearchResultItem, bool) {
	name := path.Base(hit.Path)
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(hit.Path), "."))

	if !filters.MatchesPath(hit.Path, ext) {
		return domain.SearchResultItem{}, false
	}

	score, snippet := scoreMatch(filters.Keyword, name, hit.Path, hit.Fragment, hit.Score)
	if score <= 0 {
		return domain.SearchResultItem{}, false
	}

	return domain.SearchResultItem{
		Branch:    branch,
		Path:      hit.Path,
		Name:      name,
		Extension: ext,
		HTMLURL:   s.htmlURL(branch, hit.Path),
		Score:     score,
		Snippet:   snippet,
	}, true
}

// searchLive performs the tree-listing fallback independently per
// branch. One branch's failure never cancels the others; results are
// aggregated best-effort and tagged with their source branch.
func (s *SearchService) searchLive(
	ctx context.Context, filters domain.SearchFilters,
) ([]domain.SearchResultItem, error) {
	if s.tree == nil {
		return nil, errors.New("tree search unavailable")
	}

	var (
		items   []domain.SearchResultItem
		lastErr error
		failed  int
	)
	for _, branch := range filters.Branches {
		entries, err := s.tree.ListTree(ctx, branch, filters)
		if err != nil {
			if domain.IsCancelled(err) {
				return nil, domain.CancelledOr(err)
			}
			logger.Warn("Live search failed for branch %s: %v", branch, err)
			lastErr = err
			failed++
			continue
		}

		for _, e := range entries {
			score, _ := scoreMatch(filters.Keyword, e.Name, e.Path, "", 0)
			if score <= 0 {
				continue
			}
			items = append(items, domain.SearchResultItem{
				Branch:      branch,
				Path:        e.Path,
				Name:        e.Name,
				Extension:   e.Extension,
				Size:        e.Size,
				HTMLURL:     e.HTMLURL,
				DownloadURL: e.DownloadURL,
				Score:       score,
			})
		}
	}

	// Only when every branch failed is the fallback itself terminal.
	if failed == len(filters.Branches) && failed > 0 {
		return nil, lastErr
	}
	return items, nil
}

// PrefetchBranch warms the module cache for one branch. Returns true
// when a module is loaded and ready, false when the branch is not
// indexed.
func (s *SearchService) PrefetchBranch(ctx context.Context, branch string) (bool, error) {
	if !s.IsEnabled() {
		return false, domain.ErrDisabled
	}
	manifest, err := s.fetchManifest(ctx)
	if err != nil {
		return false, err
	}
	entry, err := manifest.Entry(branch)
	if err != nil {
		if errors.Is(err, domain.ErrBranchNotIndexed) {
			return false, nil
		}
		return false, err
	}
	if _, err := s.loader.Load(ctx, branch, entry); err != nil {
		return false, err
	}
	return true, nil
}

// PrefetchBranches warms several branches concurrently. Aggregation is
// best-effort-all: one branch's failure never blocks or fails the
// others.
func (s *SearchService) PrefetchBranches(ctx context.Context, branches []string) map[string]bool {
	results := make(map[string]bool, len(branches))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(prefetchConcurrency)
	for _, branch := range branches {
		g.Go(func() error {
			ok, err := s.PrefetchBranch(ctx, branch)
			if err != nil {
				if !domain.IsCancelled(err) {
					logger.Warn("Prefetch %s failed: %v", branch, err)
				}
				ok = false
			}
			mu.Lock()
			results[branch] = ok
			mu.Unlock()
			return nil // best-effort: never propagate
		})
	}
	_ = g.Wait()
	return results
}

// InvalidateCache clears the manifest cache and all module caches
// unconditionally.
func (s *SearchService) InvalidateCache() {
	if s.manifest != nil {
		s.manifest.Invalidate()
	}
	if s.loader != nil {
		s.loader.Invalidate()
	}
	s.mu.Lock()
	s.status.Ready = false
	s.status.IndexedBranches = nil
	s.mu.Unlock()
}

// Status returns the current index status snapshot.
func (s *SearchService) Status() domain.IndexStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status := s.status
	status.IndexedBranches = append([]string(nil), s.status.IndexedBranches...)
	return status
}

// fetchManifest runs one manifest fetch cycle and records its outcome
// on the status snapshot. It is the only mutator of the status.
func (s *SearchService) fetchManifest(ctx context.Context) (*domain.Manifest, error) {
	s.mu.Lock()
	s.fetching = true
	s.status.Loading = true
	s.mu.Unlock()

	manifest, err := s.manifest.Fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetching = false
	s.status.Loading = false

	if err != nil {
		// Cancellation is not a fetch outcome: leave the status as the
		// last completed cycle left it.
		if !domain.IsCancelled(err) {
			s.status.Ready = false
			s.status.Error = err.Error()
		}
		return nil, domain.CancelledOr(err)
	}

	branches := manifest.IndexedBranches()
	sort.Strings(branches)
	s.status.Ready = true
	s.status.Error = ""
	s.status.IndexedBranches = branches
	s.status.LastUpdatedAt = manifest.GeneratedAt
	return manifest, nil
}

// htmlURL derives a browse URL for an index-path hit.
func (s *SearchService) htmlURL(branch, p string) string {
	if s.settings.Owner == "" || s.settings.Repo == "" {
		return ""
	}
	return fmt.Sprintf("https://github.com/%s/%s/blob/%s/%s",
		s.settings.Owner, s.settings.Repo, branch, p)
}
