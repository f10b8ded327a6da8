package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gitseek/gitseek-cli/internal/core/domain"
	"github.com/gitseek/gitseek-cli/internal/core/ports/driven"
	"github.com/gitseek/gitseek-cli/internal/core/ports/driving"
	"github.com/gitseek/gitseek-cli/internal/logger"
)

// Ensure BuildService implements the interface.
var _ driving.BuildOrchestrator = (*BuildService)(nil)

// ManifestFileName is the manifest's file name within the output dir.
const ManifestFileName = "search-manifest.json"

// BuildService orchestrates the per-branch build pipeline:
// snapshot -> extract -> index -> hash, then one atomic manifest write.
// Branches are processed sequentially to bound the resource use of
// concurrent git fetches and indexer invocations.
type BuildService struct {
	settings    domain.Settings
	snapshotter driven.Snapshotter
	indexer     driven.IndexerRunner
	extractor   *Extractor

	building atomic.Bool
}

// NewBuildService creates a build orchestrator.
func NewBuildService(
	settings domain.Settings,
	snapshotter driven.Snapshotter,
	indexer driven.IndexerRunner,
) *BuildService {
	settings.ApplyDefaults()
	return &BuildService{
		settings:    settings,
		snapshotter: snapshotter,
		indexer:     indexer,
		extractor:   NewExtractor(settings),
	}
}

// Build runs the full pipeline for every configured branch and writes a
// fresh manifest for the branches that succeeded. A branch that fails
// to build is logged and omitted, never fatal for the run. At most one
// build runs at a time: runs share the snapshotter's scratch repo and
// the branch output directories, so a second concurrent caller gets
// ErrBuildInProgress.
func (s *BuildService) Build(ctx context.Context) (*domain.BuildSummary, error) {
	if !s.building.CompareAndSwap(false, true) {
		return nil, domain.ErrBuildInProgress
	}
	defer s.building.Store(false)

	if s.settings.Generation == domain.GenerationOff {
		return nil, fmt.Errorf("index generation: %w", domain.ErrDisabled)
	}
	if s.settings.OutputDir == "" {
		return nil, fmt.Errorf("%w: no output directory configured", domain.ErrInvalidInput)
	}

	summary := &domain.BuildSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}

	logger.Section("Index Build")
	logger.Info("Run %s: building %d branches", summary.RunID, len(s.settings.Branches))

	if err := os.MkdirAll(s.settings.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	entries := make(map[string]domain.BranchEntry)
	for _, branch := range s.settings.Branches {
		select {
		case <-ctx.Done():
			return nil, domain.CancelledOr(ctx.Err())
		default:
		}

		build := s.buildBranch(ctx, branch)
		summary.Branches = append(summary.Branches, *build)
		if !build.Succeeded() {
			if build.Err != nil {
				logger.Warn("Branch %s failed: %v", branch, build.Err)
			}
			continue
		}

		entries[branch] = domain.BranchEntry{
			ArtifactPath:  branch + "/" + domain.QueryModuleName,
			Hash:          build.Hash,
			DocumentCount: build.DocumentCount,
			GeneratedAt:   time.Now().UTC(),
		}
	}

	summary.EndedAt = time.Now()

	if len(entries) == 0 {
		logger.Warn("No branch produced an artifact, manifest not written")
		return summary, nil
	}

	manifestPath, err := s.writeManifest(entries)
	if err != nil {
		return nil, err
	}
	summary.ManifestPath = manifestPath

	logger.Info("Build complete: %d/%d branches, manifest at %s",
		summary.Built(), len(s.settings.Branches), manifestPath)
	return summary, nil
}

// buildBranch runs the pipeline for one branch. All failures are
// captured on the returned BranchBuild.
func (s *BuildService) buildBranch(ctx context.Context, branch string) *domain.BranchBuild {
	build := &domain.BranchBuild{Branch: branch}

	snap, err := s.snapshotter.Snapshot(ctx, branch)
	if err != nil {
		build.Err = fmt.Errorf("snapshot: %w", err)
		return build
	}
	if snap == nil {
		// Every remote candidate failed: skip the branch, not the run.
		build.Err = fmt.Errorf("snapshot %s: %w", branch, domain.ErrNotFound)
		return build
	}

	branchDir := filepath.Join(s.settings.OutputDir, branch)

	// Stale files from a previous schema or a removed document must not
	// linger: clear the branch output completely before rebuilding.
	if err := os.RemoveAll(branchDir); err != nil {
		build.Err = fmt.Errorf("clear output dir: %w", err)
		return build
	}
	if err := os.MkdirAll(branchDir, 0o755); err != nil {
		build.Err = fmt.Errorf("create output dir: %w", err)
		return build
	}

	docsPath := filepath.Join(branchDir, "documents.json")
	res, err := s.extractor.ExtractToFile(ctx, snap, docsPath)
	if err != nil {
		build.Err = fmt.Errorf("extract: %w", err)
		return build
	}
	build.DocumentCount = res.DocumentCount
	build.Skipped = res.Skipped

	if res.DocumentCount == 0 {
		build.Err = fmt.Errorf("branch %s: no documents, not indexable", branch)
		return build
	}

	artifacts, err := s.indexer.Run(ctx, docsPath, branchDir)
	if err != nil {
		build.Err = fmt.Errorf("indexer: %w", err)
		return build
	}

	hash, err := hashFile(artifacts.PayloadPath)
	if err != nil {
		build.Err = fmt.Errorf("hash payload: %w", err)
		return build
	}
	build.Hash = hash

	// The intermediate document file is build scratch, not an artifact.
	if err := os.Remove(docsPath); err != nil {
		logger.Debug("Could not remove %s: %v", docsPath, err)
	}

	logger.Info("Branch %s: %d documents, payload hash %s", branch, build.DocumentCount, hash[:12])
	return build
}

// writeManifest assembles and atomically writes the manifest: a temp
// file in the same directory, then a rename, so readers never observe
// a partially written document.
func (s *BuildService) writeManifest(entries map[string]domain.BranchEntry) (string, error) {
	manifest := domain.Manifest{
		SchemaVersion: domain.ManifestSchemaVersion,
		GeneratedAt:   time.Now().UTC(),
		Branches:      entries,
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}

	target := filepath.Join(s.settings.OutputDir, ManifestFileName)
	tmp, err := os.CreateTemp(s.settings.OutputDir, ManifestFileName+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp manifest: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close manifest: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("rename manifest: %w", err)
	}
	return target, nil
}

// hashFile computes the streaming SHA-256 digest of a file. Two builds
// with identical payload bytes hash identically regardless of build
// wall-clock time.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
