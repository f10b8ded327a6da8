package github

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/gitseek/gitseek-cli/internal/core/domain"
	"github.com/gitseek/gitseek-cli/internal/core/ports/driven"
	"github.com/gitseek/gitseek-cli/internal/logger"
)

// Ensure TreeSearcher implements the interface.
var _ driven.TreeSearcher = (*TreeSearcher)(nil)

// TreeSearcher backs the live search fallback with the GitHub tree
// listing API.
type TreeSearcher struct {
	client *Client
	owner  string
	repo   string
}

// NewTreeSearcher creates a tree searcher for one repository.
func NewTreeSearcher(client *Client, owner, repo string) *TreeSearcher {
	return &TreeSearcher{client: client, owner: owner, repo: repo}
}

// ListTree returns the blobs of one branch that pass the path and
// extension filters. Keyword matching and scoring happen in core.
func (t *TreeSearcher) ListTree(
	ctx context.Context, branch string, filters domain.SearchFilters,
) ([]driven.TreeEntry, error) {
	tree, err := t.client.GetTree(ctx, t.owner, t.repo, branch)
	if err != nil {
		return nil, fmt.Errorf("list tree for %s: %w", branch, err)
	}
	if tree.GetTruncated() {
		// The API clips very large trees; partial results still serve
		// the fallback, but note it.
		logger.Warn("Tree listing for %s truncated by the API", branch)
	}

	var entries []driven.TreeEntry
	for _, node := range tree.Entries {
		if node.GetType() != "blob" {
			continue
		}
		p := node.GetPath()
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
		if !filters.MatchesPath(p, ext) {
			continue
		}
		entries = append(entries, driven.TreeEntry{
			Path:        p,
			Name:        path.Base(p),
			Extension:   ext,
			Size:        int64(node.GetSize()),
			HTMLURL:     t.htmlURL(branch, p),
			DownloadURL: t.downloadURL(branch, p),
		})
	}

	logger.Debug("Branch %s: %d candidate blobs after filters", branch, len(entries))
	return entries, nil
}

func (t *TreeSearcher) htmlURL(branch, p string) string {
	return fmt.Sprintf("https://github.com/%s/%s/blob/%s/%s", t.owner, t.repo, branch, p)
}

func (t *TreeSearcher) downloadURL(branch, p string) string {
	return fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s", t.owner, t.repo, branch, p)
}
