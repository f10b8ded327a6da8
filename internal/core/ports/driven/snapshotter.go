package driven

import "context"

// BranchSnapshot is a checked-out working tree for one branch.
type BranchSnapshot struct {
	// Branch is the branch name as requested.
	Branch string

	// Ref is the resolved reference that was checked out.
	Ref string

	// Root is the working tree root on disk.
	Root string

	// Files are the version-control-tracked files, POSIX-normalized,
	// relative to Root. Untracked files never appear here.
	Files []string
}

// Snapshotter obtains a working tree for one branch, either from a
// pre-existing local checkout or via a shallow single-branch fetch.
type Snapshotter interface {
	// Snapshot checks out the branch and enumerates its tracked files.
	// Returns (nil, nil) when the branch cannot be obtained from any
	// candidate remote; callers must treat that as "skip this branch",
	// not a fatal build error.
	Snapshot(ctx context.Context, branch string) (*BranchSnapshot, error)

	// Cleanup removes any scratch state created by Snapshot.
	Cleanup() error
}
