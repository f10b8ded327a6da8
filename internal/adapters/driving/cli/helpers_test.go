package cli

import (
	"bytes"
	"context"
	"time"

	"github.com/gitseek/gitseek-cli/internal/core/domain"
	"github.com/gitseek/gitseek-cli/internal/core/ports/driving"
)

// stubSearchService replaces the wired search service in command tests.
type stubSearchService struct {
	response    *domain.SearchResponse
	searchErr   error
	branches    []string
	branchesErr error
	readyErr    error
	status      domain.IndexStatus
	lastFilters domain.SearchFilters
}

func (s *stubSearchService) IsEnabled() bool { return s.status.Enabled }

func (s *stubSearchService) EnsureReady(_ context.Context) error { return s.readyErr }

func (s *stubSearchService) GetIndexedBranches(_ context.Context) ([]string, error) {
	return s.branches, s.branchesErr
}

func (s *stubSearchService) Search(_ context.Context, filters domain.SearchFilters) (*domain.SearchResponse, error) {
	s.lastFilters = filters
	return s.response, s.searchErr
}

func (s *stubSearchService) PrefetchBranch(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (s *stubSearchService) PrefetchBranches(_ context.Context, _ []string) map[string]bool {
	return nil
}

func (s *stubSearchService) InvalidateCache() {}

func (s *stubSearchService) Status() domain.IndexStatus { return s.status }

// stubBuilder replaces the wired build service in command tests.
type stubBuilder struct {
	summary  *domain.BuildSummary
	buildErr error
}

func (b *stubBuilder) Build(_ context.Context) (*domain.BuildSummary, error) {
	return b.summary, b.buildErr
}

var (
	_ driving.SearchService     = (*stubSearchService)(nil)
	_ driving.BuildOrchestrator = (*stubBuilder)(nil)
)

// setupTestServices swaps stubs in for the package-level services so
// initServices becomes a no-op. Returns a cleanup function.
func setupTestServices(search driving.SearchService, build driving.BuildOrchestrator) func() {
	prevSearch, prevBuild := searchService, buildService
	if search == nil {
		search = &stubSearchService{}
	}
	if build == nil {
		build = &stubBuilder{summary: &domain.BuildSummary{}}
	}
	searchService = search
	buildService = build
	return func() {
		searchService = prevSearch
		buildService = prevBuild
	}
}

// executeCommand runs the root command with args and captures output.
func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

// sampleResponse is a small index-mode response for output tests.
func sampleResponse() *domain.SearchResponse {
	return &domain.SearchResponse{
		Items: []domain.SearchResultItem{
			{
				Branch:  "main",
				Path:    "docs/guide.md",
				Name:    "guide.md",
				Score:   140,
				Snippet: "a guide to the parser",
				HTMLURL: "https://github.com/acme/widgets/blob/main/docs/guide.md",
			},
			{
				Branch: "main",
				Path:   "internal/parser/parse.go",
				Name:   "parse.go",
				Score:  40,
			},
		},
		Mode: domain.SearchModeIndex,
		Took: 12 * time.Millisecond,
	}
}
