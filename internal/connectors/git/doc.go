// Package git obtains branch working trees for the index builder.
//
// It shells out to the git binary rather than reimplementing the
// plumbing: shallow single-branch fetches into a scratch repository
// when building from a remote, or reference resolution against a
// pre-existing local checkout when one is configured.
package git
