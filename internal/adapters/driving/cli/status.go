package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitseek/gitseek-cli/internal/core/domain"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index availability",
	Long: `Refreshes the manifest and reports whether index-backed search is
ready, which branches are indexed, and the last error if any.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output status as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}
	if searchService == nil {
		return errors.New("search service not configured")
	}

	// Refresh best-effort; the resulting status carries any error.
	if err := searchService.EnsureReady(context.Background()); err != nil && !errors.Is(err, domain.ErrDisabled) {
		cmd.Printf("Manifest refresh failed: %v\n", err)
	}
	status := searchService.Status()

	if statusJSON {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Enabled: %t\n", status.Enabled)
	cmd.Printf("Ready:   %t\n", status.Ready)
	if status.Error != "" {
		cmd.Printf("Error:   %s\n", status.Error)
	}
	if len(status.IndexedBranches) > 0 {
		cmd.Printf("Indexed: %s\n", strings.Join(status.IndexedBranches, ", "))
	}
	if !status.LastUpdatedAt.IsZero() {
		cmd.Printf("Updated: %s\n", status.LastUpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
