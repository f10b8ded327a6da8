package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitseek/gitseek-cli/internal/core/domain"
)

var (
	searchBranches []string
	searchPath     string
	searchExts     []string
	searchLimit    int
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [keyword]",
	Short: "Search repository branches",
	Long: `Searches the configured repository for a keyword.
Uses the prebuilt branch index when one is available, otherwise falls
back to a live tree listing. The mode that served the request is shown
alongside the results.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringSliceVarP(&searchBranches, "branch", "b", nil, "branches to search (default: configured default branch)")
	searchCmd.Flags().StringVarP(&searchPath, "path", "p", "", "restrict results to paths with this prefix")
	searchCmd.Flags().StringSliceVarP(&searchExts, "ext", "e", nil, "restrict results to these extensions")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultSearchLimit, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := initServices(); err != nil {
		return err
	}
	if searchService == nil {
		return errors.New("search service not configured")
	}

	filters := domain.SearchFilters{
		Keyword:    args[0],
		Branches:   searchBranches,
		PathPrefix: searchPath,
		Extensions: searchExts,
		Limit:      searchLimit,
	}

	resp, err := searchService.Search(context.Background(), filters)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, resp)
	}
	return outputSearchTable(cmd, resp)
}

func outputSearchJSON(cmd *cobra.Command, resp *domain.SearchResponse) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, resp *domain.SearchResponse) error {
	if len(resp.Items) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("Results (%s mode", resp.Mode)
	if resp.FallbackReason != "" {
		cmd.Printf(", fallback: %s", resp.FallbackReason)
	}
	cmd.Println("):")
	cmd.Println()

	for i := range resp.Items {
		item := &resp.Items[i]
		cmd.Printf("  [%d] %s @ %s (%.1f)\n", i+1, item.Path, item.Branch, item.Score)
		if item.Snippet != "" {
			cmd.Printf("      %s\n", item.Snippet)
		}
		if item.HTMLURL != "" {
			cmd.Printf("      %s\n", item.HTMLURL)
		}
		cmd.Println()
	}
	return nil
}
