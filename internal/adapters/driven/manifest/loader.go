package manifest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gitseek/gitseek-cli/internal/core/domain"
	"github.com/gitseek/gitseek-cli/internal/core/ports/driven"
	"github.com/gitseek/gitseek-cli/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.ModuleLoader = (*Loader)(nil)

// hashPrefixLen is how much of the content hash keys a local module dir.
const hashPrefixLen = 16

// cachedModule is one loaded branch module.
type cachedModule struct {
	hash    string
	handler driven.QueryHandler
}

// Loader lazily loads per-branch query modules, keyed by (branch,
// hash). A cached entry is valid only while its hash equals the
// manifest's current hash for that branch; a hash change forces a
// reload. Concurrent callers for the same key share one in-flight load.
type Loader struct {
	artifactBase string
	cacheDir     string
	httpc        *http.Client

	group singleflight.Group

	mu      sync.Mutex
	modules map[string]cachedModule
}

// NewLoader creates a module loader. artifactBase is prepended to each
// manifest entry's ArtifactPath (http(s) URL or local directory);
// cacheDir is where downloaded modules are stored.
func NewLoader(artifactBase, cacheDir string) *Loader {
	return &Loader{
		artifactBase: strings.TrimRight(artifactBase, "/"),
		cacheDir:     cacheDir,
		httpc:        &http.Client{Timeout: 60 * time.Second},
		modules:      make(map[string]cachedModule),
	}
}

// Load returns the query handler for a branch.
func (l *Loader) Load(
	ctx context.Context, branch string, entry domain.BranchEntry,
) (driven.QueryHandler, error) {
	l.mu.Lock()
	if m, ok := l.modules[branch]; ok && m.hash == entry.Hash {
		l.mu.Unlock()
		return m.handler, nil
	}
	l.mu.Unlock()

	// Concurrent callers for the same branch and hash share one load;
	// the singleflight key carries the hash so a manifest update starts
	// a fresh load instead of joining a stale one.
	key := branch + "@" + entry.Hash
	v, err, _ := l.group.Do(key, func() (any, error) {
		return l.load(ctx, branch, entry)
	})
	if err != nil {
		// A failed load never populates the cache, so other branches
		// and later retries are unaffected.
		return nil, domain.CancelledOr(err)
	}

	handler := v.(driven.QueryHandler)
	l.mu.Lock()
	l.modules[branch] = cachedModule{hash: entry.Hash, handler: handler}
	l.mu.Unlock()
	return handler, nil
}

// Invalidate drops all cached modules.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	l.modules = make(map[string]cachedModule)
	l.mu.Unlock()
}

// load materialises the branch's query module and payload locally and
// wraps them in a subprocess query handler.
func (l *Loader) load(ctx context.Context, branch string, entry domain.BranchEntry) (driven.QueryHandler, error) {
	logger.Debug("Loading module for %s (hash %s)", branch, shortHash(entry.Hash))

	moduleSrc := l.artifactBase + "/" + strings.TrimLeft(entry.ArtifactPath, "/")
	payloadSrc := moduleSrc[:strings.LastIndex(moduleSrc, "/")+1] + domain.PayloadName

	if !isHTTP(moduleSrc) {
		// Locally served artifacts are used in place, no copy needed.
		modulePath := filepath.FromSlash(strings.TrimPrefix(moduleSrc, "file://"))
		payloadPath := filepath.FromSlash(strings.TrimPrefix(payloadSrc, "file://"))
		if _, err := os.Stat(modulePath); err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrIndexFileNotFound, modulePath)
		}
		if _, err := os.Stat(payloadPath); err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrIndexFileNotFound, payloadPath)
		}
		return NewModuleHandler(modulePath, payloadPath), nil
	}

	// The hash in the directory name doubles as cache busting: a new
	// build lands in a new directory.
	dir := filepath.Join(l.cacheDir, sanitizeBranch(branch)+"-"+shortHash(entry.Hash))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create module cache dir: %w", err)
	}

	modulePath := filepath.Join(dir, domain.QueryModuleName)
	payloadPath := filepath.Join(dir, domain.PayloadName)

	if err := l.download(ctx, moduleSrc, modulePath, 0o755); err != nil {
		return nil, err
	}
	if err := l.download(ctx, payloadSrc, payloadPath, 0o644); err != nil {
		return nil, err
	}
	return NewModuleHandler(modulePath, payloadPath), nil
}

// download fetches src to dest unless a complete copy already exists.
func (l *Loader) download(ctx context.Context, src, dest string, mode os.FileMode) error {
	if _, err := os.Stat(dest); err == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return fmt.Errorf("request %s: %w", src, err)
	}
	resp, err := l.httpc.Do(req)
	if err != nil {
		return domain.CancelledOr(fmt.Errorf("download %s: %w", src, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", domain.ErrIndexFileNotFound, src)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %d", src, resp.StatusCode)
	}

	// Write to a temp name then rename so a cancelled download never
	// leaves a partial file that would satisfy the existence check.
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".partial-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return domain.CancelledOr(fmt.Errorf("download %s: %w", src, err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", dest, err)
	}
	return nil
}

// sanitizeBranch makes a branch name safe as a directory component.
func sanitizeBranch(branch string) string {
	return strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(branch)
}

// shortHash abbreviates a content hash for directory names and logs.
func shortHash(hash string) string {
	if len(hash) <= hashPrefixLen {
		return hash
	}
	return hash[:hashPrefixLen]
}
