// Package auth resolves access tokens and builds authenticated remote
// URLs for the snapshotter and the GitHub client.
package auth

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/gitseek/gitseek-cli/internal/core/ports/driven"
)

// Ensure Resolver implements the interface.
var _ driven.CredentialResolver = (*Resolver)(nil)

// Environment variables consulted for tokens, after configured ones.
var tokenEnvVars = []string{"GITSEEK_TOKEN", "GITHUB_TOKEN"}

// Resolver supplies tokens in priority order: explicitly configured
// tokens first (most specific), environment tokens after.
type Resolver struct {
	configured []string
}

// NewResolver creates a resolver with the configured tokens.
func NewResolver(configured []string) *Resolver {
	return &Resolver{configured: configured}
}

// Tokens returns the available access tokens, most specific first.
// May be empty for anonymous access.
func (r *Resolver) Tokens(_ context.Context) []string {
	tokens := make([]string, 0, len(r.configured)+len(tokenEnvVars))
	seen := make(map[string]bool)

	add := func(tok string) {
		if tok == "" || seen[tok] {
			return
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}

	for _, tok := range r.configured {
		add(tok)
	}
	for _, env := range tokenEnvVars {
		add(os.Getenv(env))
	}
	return tokens
}

// RemoteURLs returns candidate remote URLs for a repository: one
// token-bearing URL per token, most specific first, with the
// unauthenticated URL last.
func (r *Resolver) RemoteURLs(ctx context.Context, remote string) ([]string, error) {
	u, err := url.Parse(remote)
	if err != nil {
		return nil, fmt.Errorf("parse remote %q: %w", remote, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		// Non-HTTP remotes (ssh, file) carry their own auth.
		return []string{remote}, nil
	}

	tokens := r.Tokens(ctx)
	urls := make([]string, 0, len(tokens)+1)
	for _, tok := range tokens {
		authed := *u
		authed.User = url.UserPassword("x-access-token", tok)
		urls = append(urls, authed.String())
	}
	urls = append(urls, remote)
	return urls, nil
}
