package domain

import "time"

// BranchBuild is the per-branch outcome of a build run. A failed branch
// is recorded here and omitted from the manifest; it never aborts the
// run.
type BranchBuild struct {
	// Branch that was built.
	Branch string

	// Hash of the artifact payload, when the build succeeded.
	Hash string

	// DocumentCount is the number of documents extracted.
	DocumentCount int

	// Skipped counts files excluded during extraction (stat failures,
	// non-regular files).
	Skipped int

	// Err is the failure, nil on success.
	Err error
}

// Succeeded reports whether this branch produced an indexable artifact.
func (b *BranchBuild) Succeeded() bool {
	return b.Err == nil && b.Hash != ""
}

// BuildSummary describes one full build run across all configured
// branches.
type BuildSummary struct {
	// RunID uniquely identifies the run.
	RunID string

	// StartedAt and EndedAt bound the run.
	StartedAt time.Time
	EndedAt   time.Time

	// Branches holds the per-branch outcomes, in build order.
	Branches []BranchBuild

	// ManifestPath is where the manifest was written, empty when no
	// branch succeeded.
	ManifestPath string
}

// Built returns the number of branches that produced an artifact.
func (s *BuildSummary) Built() int {
	n := 0
	for i := range s.Branches {
		if s.Branches[i].Succeeded() {
			n++
		}
	}
	return n
}
