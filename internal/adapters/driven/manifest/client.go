// Package manifest implements the manifest client and the per-branch
// index module loader. Both caches are injectable services owned by the
// composition root, with explicit invalidation; there is no ambient
// package-level state.
package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gitseek/gitseek-cli/internal/core/domain"
	"github.com/gitseek/gitseek-cli/internal/core/ports/driven"
	"github.com/gitseek/gitseek-cli/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.ManifestFetcher = (*Client)(nil)

// maxManifestSize bounds how much of a manifest response is read.
const maxManifestSize = 4 << 20

// Client fetches and time-caches the manifest. A cache hit within the
// refresh interval returns the previous value without a network call.
type Client struct {
	enabled  bool
	location string
	interval time.Duration
	httpc    *http.Client

	// onInvalidate lets the composition root chain dependent caches
	// (the module loader) to Invalidate.
	onInvalidate func()

	mu        sync.Mutex
	cached    *domain.Manifest
	fetchedAt time.Time
}

// NewClient creates a manifest client. location may be an http(s) URL,
// a file:// URL, or a plain filesystem path.
func NewClient(enabled bool, location string, interval time.Duration) *Client {
	if interval <= 0 {
		interval = domain.DefaultRefreshInterval
	}
	return &Client{
		enabled:  enabled,
		location: location,
		interval: interval,
		httpc:    &http.Client{Timeout: 30 * time.Second},
	}
}

// OnInvalidate registers a hook run whenever the cache is invalidated.
func (c *Client) OnInvalidate(fn func()) {
	c.onInvalidate = fn
}

// Fetch returns the manifest, serving the cached copy while it is
// fresh. Error kinds: domain.ErrDisabled, domain.ErrManifestNotFound,
// domain.ErrManifestInvalid, domain.ErrCancelled.
func (c *Client) Fetch(ctx context.Context) (*domain.Manifest, error) {
	if !c.enabled {
		return nil, domain.ErrDisabled
	}

	c.mu.Lock()
	if c.cached != nil && time.Since(c.fetchedAt) < c.interval {
		m := c.cached
		c.mu.Unlock()
		return m, nil
	}
	c.mu.Unlock()

	data, err := c.read(ctx)
	if err != nil {
		return nil, err
	}

	var m domain.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrManifestInvalid, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cached = &m
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	logger.Debug("Manifest fetched: %d branches, generated %s",
		len(m.Branches), m.GeneratedAt.Format(time.RFC3339))
	return &m, nil
}

// Invalidate clears the cached manifest and all dependent module
// caches unconditionally.
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
	if c.onInvalidate != nil {
		c.onInvalidate()
	}
}

// read fetches the raw manifest bytes from the configured location.
func (c *Client) read(ctx context.Context) ([]byte, error) {
	if isHTTP(c.location) {
		return c.readHTTP(ctx, c.location)
	}
	return readLocal(strings.TrimPrefix(c.location, "file://"))
}

func (c *Client) readHTTP(ctx context.Context, loc string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrManifestInvalid, err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		if domain.IsCancelled(err) || errors.Is(err, context.Canceled) {
			return nil, domain.ErrCancelled
		}
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrManifestNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch manifest: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestSize))
	if err != nil {
		return nil, domain.CancelledOr(fmt.Errorf("read manifest: %w", err))
	}
	return data, nil
}

func readLocal(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrManifestNotFound
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return data, nil
}

// isHTTP reports whether a locator uses an http(s) scheme.
func isHTTP(loc string) bool {
	u, err := url.Parse(loc)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}
