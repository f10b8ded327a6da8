package domain

import (
	"fmt"
	"time"
)

// ManifestSchemaVersion is the literal tag every manifest must carry.
// A mismatch is a hard parse failure, never silently coerced.
const ManifestSchemaVersion = "gitseek-index/v1"

// Artifact file names within a branch's output directory. The query
// module is what the manifest's ArtifactPath points at; the payload is
// the binary file the content hash is computed over.
const (
	QueryModuleName = "query-module"
	PayloadName     = "index.bin"
)

// Manifest is the versioned catalog mapping branch names to their
// current artifact. It is rewritten wholesale on every successful build
// run and read atomically as one document.
type Manifest struct {
	// SchemaVersion must equal ManifestSchemaVersion.
	SchemaVersion string `json:"schemaVersion"`

	// GeneratedAt is the timestamp of the last full rebuild.
	GeneratedAt time.Time `json:"generatedAt"`

	// Branches maps branch name to its searchable snapshot descriptor.
	Branches map[string]BranchEntry `json:"branches"`
}

// BranchEntry describes one branch's searchable snapshot.
type BranchEntry struct {
	// ArtifactPath locates the query module, relative to the artifact base.
	ArtifactPath string `json:"artifactPath"`

	// Hash is the content hash of the artifact's binary payload. It is
	// the sole cache key: a change invalidates any loaded module.
	Hash string `json:"hash"`

	// DocumentCount is metadata only, not correctness-critical.
	DocumentCount int `json:"documentCount"`

	// GeneratedAt is when this branch was last built.
	GeneratedAt time.Time `json:"generatedAt"`
}

// Validate checks the manifest against the expected schema.
// Any violation is reported as ErrManifestInvalid.
func (m *Manifest) Validate() error {
	if m.SchemaVersion != ManifestSchemaVersion {
		return fmt.Errorf("%w: schemaVersion %q, want %q",
			ErrManifestInvalid, m.SchemaVersion, ManifestSchemaVersion)
	}
	if m.Branches == nil {
		return fmt.Errorf("%w: missing branches map", ErrManifestInvalid)
	}
	for branch, entry := range m.Branches {
		if branch == "" {
			return fmt.Errorf("%w: empty branch name", ErrManifestInvalid)
		}
		if entry.ArtifactPath == "" {
			return fmt.Errorf("%w: branch %q has no artifactPath", ErrManifestInvalid, branch)
		}
		if entry.Hash == "" {
			return fmt.Errorf("%w: branch %q has no hash", ErrManifestInvalid, branch)
		}
	}
	return nil
}

// IndexedBranches returns the branch names present in the manifest.
// No ordering is guaranteed by the map; callers sort when they need
// deterministic output.
func (m *Manifest) IndexedBranches() []string {
	branches := make([]string, 0, len(m.Branches))
	for b := range m.Branches {
		branches = append(branches, b)
	}
	return branches
}

// HasBranch returns true if the branch has an entry in the manifest.
func (m *Manifest) HasBranch(branch string) bool {
	_, ok := m.Branches[branch]
	return ok
}

// Entry returns the branch's entry, or ErrBranchNotIndexed when the
// manifest carries no entry for it.
func (m *Manifest) Entry(branch string) (BranchEntry, error) {
	entry, ok := m.Branches[branch]
	if !ok {
		return BranchEntry{}, fmt.Errorf("%w: %s", ErrBranchNotIndexed, branch)
	}
	return entry, nil
}
