package driven

import "context"

// CredentialResolver supplies access tokens and builds authenticated
// remote URLs. Candidates are tried in order, falling over on
// authorization failure.
type CredentialResolver interface {
	// Tokens returns the configured access tokens, most specific first.
	// May be empty for anonymous access.
	Tokens(ctx context.Context) []string

	// RemoteURLs returns candidate remote URLs for a repository:
	// one token-bearing URL per token, most specific first, with the
	// unauthenticated URL last.
	RemoteURLs(ctx context.Context, remote string) ([]string, error)
}
