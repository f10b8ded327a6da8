package driven

import "context"

// ArtifactPaths locates the files the external indexer produced for one
// branch.
type ArtifactPaths struct {
	// ModulePath is the emitted query module.
	ModulePath string

	// PayloadPath is the binary index payload the hash is computed over.
	PayloadPath string
}

// IndexerRunner invokes the external indexing engine. The engine is an
// opaque black box with a file-in/directory-out contract; its ranking
// and tokenization are not modelled here.
type IndexerRunner interface {
	// Run invokes the indexer as `<binary> <documentsPath> <outputDir>`,
	// resolving and, if needed, downloading the platform binary first.
	// A non-zero exit is fatal for that branch only.
	Run(ctx context.Context, documentsPath, outputDir string) (*ArtifactPaths, error)
}
