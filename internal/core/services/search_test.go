package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitseek/gitseek-cli/internal/core/domain"
	"github.com/gitseek/gitseek-cli/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockManifestFetcher implements driven.ManifestFetcher for testing.
type mockManifestFetcher struct {
	manifest    *domain.Manifest
	fetchErr    error
	fetchCount  atomic.Int32
	invalidated atomic.Bool
}

func (m *mockManifestFetcher) Fetch(_ context.Context) (*domain.Manifest, error) {
	m.fetchCount.Add(1)
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.manifest, nil
}

func (m *mockManifestFetcher) Invalidate() {
	m.invalidated.Store(true)
}

// mockModuleLoader implements driven.ModuleLoader for testing.
type mockModuleLoader struct {
	handler     driven.QueryHandler
	loadErr     error
	loadCount   atomic.Int32
	invalidated atomic.Bool
}

func (m *mockModuleLoader) Load(
	_ context.Context, _ string, _ domain.BranchEntry,
) (driven.QueryHandler, error) {
	m.loadCount.Add(1)
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.handler, nil
}

func (m *mockModuleLoader) Invalidate() {
	m.invalidated.Store(true)
}

// mockQueryHandler implements driven.QueryHandler for testing.
type mockQueryHandler struct {
	hits      []driven.IndexHit
	searchErr error
}

func (m *mockQueryHandler) Search(_ context.Context, _ string, _ int) ([]driven.IndexHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.hits, nil
}

// mockTreeSearcher implements driven.TreeSearcher for testing.
type mockTreeSearcher struct {
	entries   map[string][]driven.TreeEntry
	errs      map[string]error
	listCount atomic.Int32
}

func (m *mockTreeSearcher) ListTree(
	_ context.Context, branch string, _ domain.SearchFilters,
) ([]driven.TreeEntry, error) {
	m.listCount.Add(1)
	if err := m.errs[branch]; err != nil {
		return nil, err
	}
	return m.entries[branch], nil
}

// --- Fixtures ---

func testManifest(branches ...string) *domain.Manifest {
	entries := make(map[string]domain.BranchEntry, len(branches))
	for _, b := range branches {
		entries[b] = domain.BranchEntry{
			ArtifactPath:  b + "/" + domain.QueryModuleName,
			Hash:          "hash-" + b,
			DocumentCount: 3,
			GeneratedAt:   time.Now().UTC(),
		}
	}
	return &domain.Manifest{
		SchemaVersion: domain.ManifestSchemaVersion,
		GeneratedAt:   time.Now().UTC(),
		Branches:      entries,
	}
}

func testSettings() domain.Settings {
	return domain.Settings{
		Enabled:       true,
		ManifestURL:   "https://example.com/search-manifest.json",
		DefaultBranch: "main",
		Owner:         "acme",
		Repo:          "widgets",
	}
}

func treeEntry(path string) driven.TreeEntry {
	name := path
	if i := lastSlash(path); i >= 0 {
		name = path[i+1:]
	}
	return driven.TreeEntry{Path: path, Name: name}
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}

// --- Tests ---

func TestSearch_EmptyKeywordShortCircuits(t *testing.T) {
	fetcher := &mockManifestFetcher{manifest: testManifest("main")}
	loader := &mockModuleLoader{handler: &mockQueryHandler{}}
	tree := &mockTreeSearcher{}
	svc := NewSearchService(testSettings(), fetcher, loader, tree)

	resp, err := svc.Search(context.Background(), domain.SearchFilters{Keyword: "   "})

	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.NotNil(t, resp.Items, "items must be an empty slice, not nil")
	assert.Equal(t, time.Duration(0), resp.Took)
	assert.Equal(t, int32(0), fetcher.fetchCount.Load(), "no network for empty keyword")
	assert.Equal(t, int32(0), tree.listCount.Load())
}

func TestSearch_IndexPath(t *testing.T) {
	handler := &mockQueryHandler{hits: []driven.IndexHit{
		{Path: "docs/parser.md", Score: 2, Fragment: "the parser handles nested blocks"},
		{Path: "README.md", Score: 1},
	}}
	fetcher := &mockManifestFetcher{manifest: testManifest("main")}
	loader := &mockModuleLoader{handler: handler}
	svc := NewSearchService(testSettings(), fetcher, loader, &mockTreeSearcher{})

	resp, err := svc.Search(context.Background(), domain.SearchFilters{Keyword: "parser"})

	require.NoError(t, err)
	assert.Equal(t, domain.SearchModeIndex, resp.Mode)
	assert.Equal(t, domain.FallbackNone, resp.FallbackReason)
	require.Len(t, resp.Items, 1, "non-matching hits are excluded")
	assert.Equal(t, "docs/parser.md", resp.Items[0].Path)
	assert.Equal(t, "main", resp.Items[0].Branch)
	assert.NotEmpty(t, resp.Items[0].Snippet)
	assert.Contains(t, resp.Items[0].HTMLURL, "github.com/acme/widgets/blob/main/")
}

func TestSearch_DisabledFallsBackLive(t *testing.T) {
	settings := testSettings()
	settings.Enabled = false
	tree := &mockTreeSearcher{entries: map[string][]driven.TreeEntry{
		"main": {treeEntry("cmd/parser/main.go")},
	}}
	svc := NewSearchService(settings, nil, nil, tree)

	resp, err := svc.Search(context.Background(), domain.SearchFilters{Keyword: "parser"})

	require.NoError(t, err)
	assert.Equal(t, domain.SearchModeLive, resp.Mode)
	assert.Equal(t, domain.FallbackDisabled, resp.FallbackReason)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "cmd/parser/main.go", resp.Items[0].Path)
}

func TestSearch_BranchNotIndexedFallsBackLive(t *testing.T) {
	fetcher := &mockManifestFetcher{manifest: testManifest("main")}
	loader := &mockModuleLoader{handler: &mockQueryHandler{}}
	tree := &mockTreeSearcher{entries: map[string][]driven.TreeEntry{
		"feature/x": {treeEntry("pkg/parser.go")},
	}}
	svc := NewSearchService(testSettings(), fetcher, loader, tree)

	resp, err := svc.Search(context.Background(), domain.SearchFilters{
		Keyword:  "parser",
		Branches: []string{"feature/x"},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.SearchModeLive, resp.Mode)
	assert.Equal(t, domain.FallbackBranchNotIndexed, resp.FallbackReason)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "feature/x", resp.Items[0].Branch)
	assert.Equal(t, int32(0), loader.loadCount.Load(), "unindexed branch never touches the loader")
}

func TestSearch_ManifestErrorFallsBackLive(t *testing.T) {
	fetcher := &mockManifestFetcher{fetchErr: domain.ErrManifestNotFound}
	loader := &mockModuleLoader{handler: &mockQueryHandler{}}
	tree := &mockTreeSearcher{entries: map[string][]driven.TreeEntry{
		"main": {treeEntry("parser.go")},
	}}
	svc := NewSearchService(testSettings(), fetcher, loader, tree)

	resp, err := svc.Search(context.Background(), domain.SearchFilters{Keyword: "parser"})

	require.NoError(t, err)
	assert.Equal(t, domain.SearchModeLive, resp.Mode)
	assert.Equal(t, domain.FallbackIndexError, resp.FallbackReason)
	require.Len(t, resp.Items, 1)
}

func TestSearch_IndexFailureDowngradesToLive(t *testing.T) {
	fetcher := &mockManifestFetcher{manifest: testManifest("main")}
	loader := &mockModuleLoader{loadErr: errors.New("corrupt module")}
	tree := &mockTreeSearcher{entries: map[string][]driven.TreeEntry{
		"main": {treeEntry("parser.go")},
	}}
	svc := NewSearchService(testSettings(), fetcher, loader, tree)

	resp, err := svc.Search(context.Background(), domain.SearchFilters{Keyword: "parser"})

	require.NoError(t, err)
	assert.Equal(t, domain.SearchModeLive, resp.Mode)
	assert.Equal(t, domain.FallbackIndexError, resp.FallbackReason)
	require.Len(t, resp.Items, 1)
}

func TestSearch_ColdRefreshInFlightFallsBackLive(t *testing.T) {
	fetcher := &mockManifestFetcher{manifest: testManifest("main")}
	loader := &mockModuleLoader{handler: &mockQueryHandler{}}
	tree := &mockTreeSearcher{entries: map[string][]driven.TreeEntry{
		"main": {treeEntry("parser.go")},
	}}
	svc := NewSearchService(testSettings(), fetcher, loader, tree)

	// No manifest has ever loaded and another caller is mid-fetch.
	svc.mu.Lock()
	svc.fetching = true
	svc.mu.Unlock()

	resp, err := svc.Search(context.Background(), domain.SearchFilters{Keyword: "parser"})

	require.NoError(t, err)
	assert.Equal(t, domain.SearchModeLive, resp.Mode)
	assert.Equal(t, domain.FallbackNotReady, resp.FallbackReason)
}

func TestSearch_WarmRefreshInFlightStaysOnIndexPath(t *testing.T) {
	handler := &mockQueryHandler{hits: []driven.IndexHit{
		{Path: "docs/parser.md", Score: 1},
	}}
	fetcher := &mockManifestFetcher{manifest: testManifest("main")}
	loader := &mockModuleLoader{handler: handler}
	svc := NewSearchService(testSettings(), fetcher, loader, &mockTreeSearcher{})
	require.NoError(t, svc.EnsureReady(context.Background()))

	// A refresh is in flight, but a manifest is already loaded.
	svc.mu.Lock()
	svc.fetching = true
	svc.mu.Unlock()

	resp, err := svc.Search(context.Background(), domain.SearchFilters{Keyword: "parser"})

	require.NoError(t, err)
	assert.Equal(t, domain.SearchModeIndex, resp.Mode)
	assert.Equal(t, domain.FallbackNone, resp.FallbackReason)
}

func TestSearch_LiveBranchFailureIsBestEffort(t *testing.T) {
	settings := testSettings()
	settings.Enabled = false
	tree := &mockTreeSearcher{
		entries: map[string][]driven.TreeEntry{
			"main": {treeEntry("parser.go")},
		},
		errs: map[string]error{"broken": errors.New("boom")},
	}
	svc := NewSearchService(settings, nil, nil, tree)

	resp, err := svc.Search(context.Background(), domain.SearchFilters{
		Keyword:  "parser",
		Branches: []string{"main", "broken"},
	})

	require.NoError(t, err, "one branch failing must not fail the request")
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "main", resp.Items[0].Branch)
}

func TestSearch_LiveAllBranchesFailedIsTerminal(t *testing.T) {
	settings := testSettings()
	settings.Enabled = false
	tree := &mockTreeSearcher{errs: map[string]error{
		"main": errors.New("boom"),
	}}
	svc := NewSearchService(settings, nil, nil, tree)

	_, err := svc.Search(context.Background(), domain.SearchFilters{Keyword: "parser"})

	assert.Error(t, err)
}

func TestSearch_CancelledContext(t *testing.T) {
	fetcher := &mockManifestFetcher{fetchErr: context.Canceled}
	loader := &mockModuleLoader{}
	svc := NewSearchService(testSettings(), fetcher, loader, &mockTreeSearcher{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Search(ctx, domain.SearchFilters{Keyword: "parser"})

	require.Error(t, err)
	assert.True(t, domain.IsCancelled(err))

	status := svc.Status()
	assert.Empty(t, status.Error, "cancellation must not be recorded as a fetch failure")
}

func TestSearch_LimitApplied(t *testing.T) {
	hits := make([]driven.IndexHit, 10)
	for i := range hits {
		hits[i] = driven.IndexHit{Path: "docs/parser-" + string(rune('a'+i)) + ".md", Score: 1}
	}
	fetcher := &mockManifestFetcher{manifest: testManifest("main")}
	loader := &mockModuleLoader{handler: &mockQueryHandler{hits: hits}}
	svc := NewSearchService(testSettings(), fetcher, loader, &mockTreeSearcher{})

	resp, err := svc.Search(context.Background(), domain.SearchFilters{Keyword: "parser", Limit: 3})

	require.NoError(t, err)
	assert.Len(t, resp.Items, 3)
}

func TestSearch_ExtensionFilterOnIndexPath(t *testing.T) {
	handler := &mockQueryHandler{hits: []driven.IndexHit{
		{Path: "docs/parser.md", Score: 1},
		{Path: "pkg/parser.go", Score: 1},
	}}
	fetcher := &mockManifestFetcher{manifest: testManifest("main")}
	loader := &mockModuleLoader{handler: handler}
	svc := NewSearchService(testSettings(), fetcher, loader, &mockTreeSearcher{})

	resp, err := svc.Search(context.Background(), domain.SearchFilters{
		Keyword:    "parser",
		Extensions: []string{".GO"},
	})

	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "pkg/parser.go", resp.Items[0].Path)
}

func TestEnsureReady_UpdatesStatus(t *testing.T) {
	fetcher := &mockManifestFetcher{manifest: testManifest("main", "develop")}
	loader := &mockModuleLoader{}
	svc := NewSearchService(testSettings(), fetcher, loader, &mockTreeSearcher{})

	require.NoError(t, svc.EnsureReady(context.Background()))

	status := svc.Status()
	assert.True(t, status.Ready)
	assert.Equal(t, []string{"develop", "main"}, status.IndexedBranches)
	assert.False(t, status.LastUpdatedAt.IsZero())
}

func TestEnsureReady_Disabled(t *testing.T) {
	settings := testSettings()
	settings.Enabled = false
	svc := NewSearchService(settings, nil, nil, &mockTreeSearcher{})

	err := svc.EnsureReady(context.Background())

	assert.ErrorIs(t, err, domain.ErrDisabled)
}

func TestEnsureReady_RecordsFetchError(t *testing.T) {
	fetcher := &mockManifestFetcher{fetchErr: domain.ErrManifestInvalid}
	loader := &mockModuleLoader{}
	svc := NewSearchService(testSettings(), fetcher, loader, &mockTreeSearcher{})

	err := svc.EnsureReady(context.Background())

	require.ErrorIs(t, err, domain.ErrManifestInvalid)
	status := svc.Status()
	assert.False(t, status.Ready)
	assert.NotEmpty(t, status.Error)
}

func TestGetIndexedBranches_Sorted(t *testing.T) {
	fetcher := &mockManifestFetcher{manifest: testManifest("release", "main", "develop")}
	loader := &mockModuleLoader{}
	svc := NewSearchService(testSettings(), fetcher, loader, &mockTreeSearcher{})

	branches, err := svc.GetIndexedBranches(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"develop", "main", "release"}, branches)
}

func TestPrefetchBranch_NotIndexed(t *testing.T) {
	fetcher := &mockManifestFetcher{manifest: testManifest("main")}
	loader := &mockModuleLoader{handler: &mockQueryHandler{}}
	svc := NewSearchService(testSettings(), fetcher, loader, &mockTreeSearcher{})

	ok, err := svc.PrefetchBranch(context.Background(), "feature/x")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int32(0), loader.loadCount.Load())
}

func TestPrefetchBranches_BestEffort(t *testing.T) {
	fetcher := &mockManifestFetcher{manifest: testManifest("main", "develop")}
	loader := &mockModuleLoader{handler: &mockQueryHandler{}}
	svc := NewSearchService(testSettings(), fetcher, loader, &mockTreeSearcher{})

	results := svc.PrefetchBranches(context.Background(), []string{"main", "develop", "missing"})

	assert.Equal(t, map[string]bool{
		"main":    true,
		"develop": true,
		"missing": false,
	}, results)
}

func TestInvalidateCache_ChainsToDependencies(t *testing.T) {
	fetcher := &mockManifestFetcher{manifest: testManifest("main")}
	loader := &mockModuleLoader{handler: &mockQueryHandler{}}
	svc := NewSearchService(testSettings(), fetcher, loader, &mockTreeSearcher{})
	require.NoError(t, svc.EnsureReady(context.Background()))

	svc.InvalidateCache()

	assert.True(t, fetcher.invalidated.Load())
	assert.True(t, loader.invalidated.Load())
	assert.False(t, svc.Status().Ready)
}
