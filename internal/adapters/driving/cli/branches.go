package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitseek/gitseek-cli/internal/core/domain"
)

var branchesCmd = &cobra.Command{
	Use:   "branches",
	Short: "List indexed branches",
	Args:  cobra.NoArgs,
	RunE:  runBranches,
}

func init() {
	rootCmd.AddCommand(branchesCmd)
}

func runBranches(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}
	if searchService == nil {
		return errors.New("search service not configured")
	}

	branches, err := searchService.GetIndexedBranches(context.Background())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDisabled):
			cmd.Println("Index-backed search is disabled.")
			return nil
		case errors.Is(err, domain.ErrManifestNotFound):
			cmd.Println("No manifest found; nothing has been built yet.")
			return nil
		}
		return fmt.Errorf("listing branches: %w", err)
	}

	if len(branches) == 0 {
		cmd.Println("No branches indexed.")
		return nil
	}
	for _, branch := range branches {
		cmd.Println(branch)
	}
	return nil
}
