// Package github talks to the GitHub API for the live search fallback.
//
// It wraps go-github with dual-strategy rate limiting (proactive token
// bucket plus reactive header tracking) and ordered credential
// fallover. Only the tree listing surface is used; file content is
// never fetched at query time.
package github
