package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitseek/gitseek-cli/internal/core/domain"
)

// timeRounding keeps durations in command output readable.
const timeRounding = 10 * time.Millisecond

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build branch indexes and the manifest",
	Long: `Runs the full index build: snapshots each configured branch, extracts
documents, invokes the indexing engine, and writes a fresh manifest.
A branch that fails to build is skipped, never fatal for the run.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}
	if buildService == nil {
		return errors.New("build service not configured")
	}

	summary, err := buildService.Build(context.Background())
	if err != nil {
		if errors.Is(err, domain.ErrDisabled) {
			cmd.Println("Index generation is disabled (build.generation = off).")
			return nil
		}
		return fmt.Errorf("build failed: %w", err)
	}

	outputBuildSummary(cmd, summary)
	return nil
}

func outputBuildSummary(cmd *cobra.Command, summary *domain.BuildSummary) {
	cmd.Printf("Build %s finished in %s\n", summary.RunID, summary.EndedAt.Sub(summary.StartedAt).Round(timeRounding))
	for _, b := range summary.Branches {
		switch {
		case b.Succeeded():
			cmd.Printf("  %s: %d documents (hash %.12s)\n", b.Branch, b.DocumentCount, b.Hash)
		case errors.Is(b.Err, domain.ErrNotFound):
			cmd.Printf("  %s: skipped (no snapshot)\n", b.Branch)
		default:
			cmd.Printf("  %s: failed: %v\n", b.Branch, b.Err)
		}
	}
	if summary.ManifestPath != "" {
		cmd.Printf("Manifest written to %s\n", summary.ManifestPath)
	}
}
