package driving

import (
	"context"

	"github.com/gitseek/gitseek-cli/internal/core/domain"
)

// BuildOrchestrator runs index builds across the configured branches.
type BuildOrchestrator interface {
	// Build snapshots every configured branch, extracts documents,
	// invokes the external indexer, and writes a fresh manifest.
	// Branches are processed sequentially; one branch's failure never
	// aborts the run.
	Build(ctx context.Context) (*domain.BuildSummary, error)
}
