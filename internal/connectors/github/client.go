package github

import (
	"context"
	"errors"
	"fmt"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/gitseek/gitseek-cli/internal/core/ports/driven"
	"github.com/gitseek/gitseek-cli/internal/logger"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// Client wraps the go-github client with token fallover. Tokens from
// the credential resolver are tried in order; an authorization failure
// rotates to the next candidate, with anonymous access last.
type Client struct {
	resolver    driven.CredentialResolver
	rateLimiter *RateLimiter
}

// NewClient creates a GitHub API client backed by a credential resolver.
func NewClient(resolver driven.CredentialResolver) *Client {
	return &Client{
		resolver:    resolver,
		rateLimiter: NewRateLimiter(),
	}
}

// RateLimiter returns the rate limiter for external inspection.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// candidates builds one API client per token, most specific first, and
// an anonymous client last.
func (c *Client) candidates(ctx context.Context) []*gh.Client {
	var tokens []string
	if c.resolver != nil {
		tokens = c.resolver.Tokens(ctx)
	}

	clients := make([]*gh.Client, 0, len(tokens)+1)
	for _, token := range tokens {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		tc := oauth2.NewClient(ctx, ts)
		tc.Timeout = DefaultTimeout
		clients = append(clients, gh.NewClient(tc))
	}
	clients = append(clients, gh.NewClient(nil))
	return clients
}

// GetTree fetches the recursive tree for a ref, rotating credentials on
// authorization failure.
func (c *Client) GetTree(ctx context.Context, owner, repo, ref string) (*gh.Tree, error) {
	var lastErr error
	for i, ghc := range c.candidates(ctx) {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		tree, resp, err := ghc.Git.GetTree(ctx, owner, repo, ref, true)
		c.updateRateLimitFromResponse(resp)
		if err == nil {
			return tree, nil
		}

		lastErr = c.wrapError(err, "get tree")
		if !IsUnauthorized(lastErr) {
			return nil, lastErr
		}
		logger.Debug("get tree: credential %d rejected, trying next", i+1)
	}
	return nil, lastErr
}

// updateRateLimitFromResponse updates the rate limiter from GitHub response headers.
func (c *Client) updateRateLimitFromResponse(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.rateLimiter.UpdateFromResponse(resp.Response)
}

// wrapError converts go-github errors to our error types.
func (c *Client) wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		url := ""
		if ghErr.Response.Request != nil && ghErr.Response.Request.URL != nil {
			url = ghErr.Response.Request.URL.String()
		}
		return &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
			URL:        url,
		}
	}

	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return &RateLimitError{
			ResetAt:   c.rateLimiter.ResetTime(),
			Remaining: c.rateLimiter.Remaining(),
		}
	}

	return fmt.Errorf("%s: %w", operation, err)
}
