package driven

import (
	"context"

	"github.com/gitseek/gitseek-cli/internal/core/domain"
)

// TreeEntry is one file from a remote tree listing.
type TreeEntry struct {
	// Path within the repository, POSIX form.
	Path string

	// Name is the file basename.
	Name string

	// Extension without the leading dot, lower-cased.
	Extension string

	// Size in bytes, when the API reports it.
	Size int64

	// HTMLURL is the browse URL for the file.
	HTMLURL string

	// DownloadURL is the raw-content URL for the file.
	DownloadURL string
}

// TreeSearcher lists a branch's file tree from the remote hosting API.
// It backs the live search fallback when no index is available.
type TreeSearcher interface {
	// ListTree returns the entries of one branch that pass the path and
	// extension filters. Keyword matching and scoring happen in core.
	ListTree(ctx context.Context, branch string, filters domain.SearchFilters) ([]TreeEntry, error)
}
