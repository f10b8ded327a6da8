package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gitseek/gitseek-cli/internal/core/ports/driven"
	"github.com/gitseek/gitseek-cli/internal/logger"
)

// Ensure Snapshotter implements the interface.
var _ driven.Snapshotter = (*Snapshotter)(nil)

// Snapshotter checks out branches for indexing. When a local checkout
// is configured it resolves references there and skips the network
// entirely; otherwise it performs shallow single-branch fetches into a
// scratch repository, rotating token-bearing remote URLs on failure.
type Snapshotter struct {
	remote        string
	localCheckout string
	resolver      driven.CredentialResolver

	scratch string // lazily initialised scratch repository
}

// NewSnapshotter creates a snapshotter. remote is the unauthenticated
// https remote URL; localCheckout, when non-empty, points at an
// existing working copy and takes precedence over the remote.
func NewSnapshotter(remote, localCheckout string, resolver driven.CredentialResolver) *Snapshotter {
	return &Snapshotter{
		remote:        remote,
		localCheckout: localCheckout,
		resolver:      resolver,
	}
}

// Snapshot checks out the branch and enumerates its tracked files.
// Returns (nil, nil) when the branch cannot be obtained from any
// candidate; the caller skips the branch rather than aborting the run.
func (s *Snapshotter) Snapshot(ctx context.Context, branch string) (*driven.BranchSnapshot, error) {
	if s.localCheckout != "" {
		return s.snapshotLocal(ctx, branch)
	}
	return s.snapshotRemote(ctx, branch)
}

// snapshotLocal resolves the branch inside the configured checkout,
// trying the bare name, the local branch ref, then the remote-tracking
// ref. The first that verifies is used.
func (s *Snapshotter) snapshotLocal(ctx context.Context, branch string) (*driven.BranchSnapshot, error) {
	candidates := []string{
		branch,
		"refs/heads/" + branch,
		"refs/remotes/origin/" + branch,
	}

	var ref string
	for _, cand := range candidates {
		if _, err := s.git(ctx, s.localCheckout, "rev-parse", "--verify", "--quiet", cand+"^{commit}"); err == nil {
			ref = cand
			break
		}
	}
	if ref == "" {
		logger.Warn("Branch %s not resolvable in %s", branch, s.localCheckout)
		return nil, nil
	}
	logger.Debug("Branch %s resolved to %s in local checkout", branch, ref)

	// Detached forced checkout so no existing branch state is mutated.
	if _, err := s.git(ctx, s.localCheckout, "checkout", "--force", "--detach", ref); err != nil {
		return nil, fmt.Errorf("checkout %s: %w", ref, err)
	}

	files, err := s.listTracked(ctx, s.localCheckout)
	if err != nil {
		return nil, err
	}
	return &driven.BranchSnapshot{
		Branch: branch,
		Ref:    ref,
		Root:   s.localCheckout,
		Files:  files,
	}, nil
}

// snapshotRemote fetches the branch shallowly into the scratch
// repository, trying each candidate remote URL in order. All candidates
// failing means "skip this branch", not a fatal error.
func (s *Snapshotter) snapshotRemote(ctx context.Context, branch string) (*driven.BranchSnapshot, error) {
	if s.remote == "" {
		return nil, fmt.Errorf("no remote configured")
	}

	root, err := s.ensureScratch(ctx)
	if err != nil {
		return nil, err
	}

	urls, err := s.resolver.RemoteURLs(ctx, s.remote)
	if err != nil {
		return nil, fmt.Errorf("resolve remote urls: %w", err)
	}

	fetched := false
	for i, url := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_, err := s.git(ctx, root, "fetch", "--depth", "1", "--no-tags", url, branch)
		if err == nil {
			fetched = true
			break
		}
		logger.Debug("Fetch %s with candidate %d/%d failed: %v", branch, i+1, len(urls), err)
	}
	if !fetched {
		logger.Warn("Branch %s: all %d remote candidates failed", branch, len(urls))
		return nil, nil
	}

	if _, err := s.git(ctx, root, "checkout", "--force", "--detach", "FETCH_HEAD"); err != nil {
		return nil, fmt.Errorf("checkout FETCH_HEAD: %w", err)
	}

	files, err := s.listTracked(ctx, root)
	if err != nil {
		return nil, err
	}
	return &driven.BranchSnapshot{
		Branch: branch,
		Ref:    "FETCH_HEAD",
		Root:   root,
		Files:  files,
	}, nil
}

// ensureScratch initialises the scratch repository on first use.
func (s *Snapshotter) ensureScratch(ctx context.Context) (string, error) {
	if s.scratch != "" {
		return s.scratch, nil
	}
	dir, err := os.MkdirTemp("", "gitseek-snapshot-*")
	if err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	if _, err := s.git(ctx, dir, "init", "--quiet"); err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("init scratch repo: %w", err)
	}
	s.scratch = dir
	return dir, nil
}

// listTracked enumerates version-control-tracked files only; untracked
// files and build artifacts never enter the index.
func (s *Snapshotter) listTracked(ctx context.Context, root string) ([]string, error) {
	out, err := s.git(ctx, root, "ls-files", "-z")
	if err != nil {
		return nil, fmt.Errorf("ls-files: %w", err)
	}

	var files []string
	for _, f := range strings.Split(out, "\x00") {
		if f == "" {
			continue
		}
		files = append(files, filepath.ToSlash(f))
	}
	return files, nil
}

// Cleanup removes the scratch repository, if one was created.
func (s *Snapshotter) Cleanup() error {
	if s.scratch == "" {
		return nil
	}
	dir := s.scratch
	s.scratch = ""
	return os.RemoveAll(dir)
}

// git runs a git command in dir and returns its trimmed stdout.
func (s *Snapshotter) git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", args[0], msg)
	}
	return strings.TrimRight(stdout.String(), "\x00\n"), nil
}
