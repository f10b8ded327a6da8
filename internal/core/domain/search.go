package domain

import (
	"sort"
	"strings"
	"time"
)

// SearchMode identifies which path served a search request.
type SearchMode string

// Available search modes.
const (
	// SearchModeIndex serves results from a prebuilt branch index.
	SearchModeIndex SearchMode = "index"

	// SearchModeLive serves results from the remote tree-listing API.
	SearchModeLive SearchMode = "live"
)

// FallbackReason explains why a search was served by the live path
// instead of the index. It is surfaced to the caller for UI messaging
// and must never be silently swallowed.
type FallbackReason string

// Fallback reasons, in evaluation order.
const (
	// FallbackNone means the index was usable.
	FallbackNone FallbackReason = ""

	// FallbackDisabled means the feature flag is off.
	FallbackDisabled FallbackReason = "index-disabled"

	// FallbackIndexError means the last manifest fetch errored.
	FallbackIndexError FallbackReason = "index-error"

	// FallbackNotReady means the manifest has not been loaded yet.
	FallbackNotReady FallbackReason = "index-not-ready"

	// FallbackBranchNotIndexed means none of the requested branches
	// appear in the manifest.
	FallbackBranchNotIndexed FallbackReason = "branch-not-indexed"
)

// SearchFilters is the query-time input.
type SearchFilters struct {
	// Keyword is required. Empty after trimming short-circuits to an
	// empty result set, never an error.
	Keyword string

	// Branches to search. Defaults to the configured default branch
	// when empty.
	Branches []string

	// PathPrefix restricts results to paths with this prefix
	// (case-insensitive).
	PathPrefix string

	// Extensions restricts results to these extensions
	// (case-insensitive, leading dot stripped, deduplicated).
	Extensions []string

	// Limit caps the number of results. Zero means the default.
	Limit int
}

// Normalize trims the keyword and canonicalises the extension filter.
// It returns a copy; the receiver is not mutated.
func (f SearchFilters) Normalize(defaultBranch string) SearchFilters {
	out := f
	out.Keyword = strings.TrimSpace(f.Keyword)
	if len(out.Branches) == 0 && defaultBranch != "" {
		out.Branches = []string{defaultBranch}
	}

	seen := make(map[string]bool, len(f.Extensions))
	exts := make([]string, 0, len(f.Extensions))
	for _, ext := range f.Extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true
		exts = append(exts, ext)
	}
	out.Extensions = exts
	return out
}

// MatchesPath reports whether a repository path passes the path-prefix
// and extension filters.
func (f SearchFilters) MatchesPath(path, extension string) bool {
	if f.PathPrefix != "" &&
		!strings.HasPrefix(strings.ToLower(path), strings.ToLower(f.PathPrefix)) {
		return false
	}
	if len(f.Extensions) == 0 {
		return true
	}
	extension = strings.ToLower(extension)
	for _, ext := range f.Extensions {
		if ext == extension {
			return true
		}
	}
	return false
}

// SearchResultItem is a single search hit. The same path may appear
// once per branch; uniqueness is not enforced across branches.
type SearchResultItem struct {
	// Branch the hit came from.
	Branch string `json:"branch"`

	// Path within the repository.
	Path string `json:"path"`

	// Name is the file basename.
	Name string `json:"name"`

	// Extension without the leading dot, lower-cased.
	Extension string `json:"extension,omitempty"`

	// Size in bytes, when known.
	Size int64 `json:"size,omitempty"`

	// HTMLURL is the browse URL, when known.
	HTMLURL string `json:"htmlUrl,omitempty"`

	// DownloadURL is the raw-content URL, when known.
	DownloadURL string `json:"downloadUrl,omitempty"`

	// Score is the relevance score. Zero-score results are excluded.
	Score float64 `json:"score"`

	// Snippet is a context window around the earliest keyword hit.
	Snippet string `json:"snippet,omitempty"`
}

// SearchResponse carries results together with how they were produced.
type SearchResponse struct {
	// Items are the ranked results.
	Items []SearchResultItem `json:"items"`

	// Mode is the path that served the request.
	Mode SearchMode `json:"mode"`

	// FallbackReason is set when Mode is SearchModeLive.
	FallbackReason FallbackReason `json:"fallbackReason,omitempty"`

	// Took is the wall-clock duration of the search.
	Took time.Duration `json:"took"`
}

// SortResults orders results by descending score, tie-broken by
// ascending path then branch. Stable and deterministic, required for
// reproducible fixtures.
func SortResults(items []SearchResultItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		if items[i].Path != items[j].Path {
			return items[i].Path < items[j].Path
		}
		return items[i].Branch < items[j].Branch
	})
}

// IndexStatus is the client-side view of index availability.
// It transitions only via the manifest fetch cycle, never mutated
// directly by search calls.
type IndexStatus struct {
	// Enabled mirrors the feature flag.
	Enabled bool `json:"enabled"`

	// Ready is true once a manifest has been fetched and validated.
	Ready bool `json:"ready"`

	// Loading is true while a manifest fetch is in flight.
	Loading bool `json:"loading"`

	// Error holds the last manifest fetch error, if any.
	Error string `json:"error,omitempty"`

	// IndexedBranches lists branches present in the manifest, sorted.
	IndexedBranches []string `json:"indexedBranches,omitempty"`

	// LastUpdatedAt is the manifest's GeneratedAt.
	LastUpdatedAt time.Time `json:"lastUpdatedAt,omitzero"`
}
