package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/erpl/erpl-adt/pkg/adt/codec"
)

func newSearchCmd() *cobra.Command {
	var maxResults int

	cmd := &cobra.Command{
		Use:   "search PATTERN",
		Short: "Search the ABAP repository",
		Example: `  erpl-adt search 'ZCL_*'
  erpl-adt search query 'ZIF_DEMO' --max-results 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], maxResults)
		},
	}
	cmd.PersistentFlags().IntVar(&maxResults, "max-results", 50, "Maximum number of hits")

	query := &cobra.Command{
		Use:   "query PATTERN",
		Short: "Search by object name pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], maxResults)
		},
	}
	cmd.AddCommand(query)
	return cmd
}

func runSearch(cmd *cobra.Command, pattern string, maxResults int) error {
	adtClient, err := newClient()
	if err != nil {
		return err
	}
	results, err := adtClient.Search(cmd.Context(), pattern, maxResults)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(map[string]any{"query": pattern, "results": results})
	}
	return renderSearchResults(results)
}

func renderSearchResults(results []codec.SearchResult) error {
	if len(results) == 0 {
		fmt.Println("No objects found.")
		return nil
	}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{r.Name, r.Type, r.Package, r.Description})
	}
	return renderTable([]string{"Name", "Type", "Package", "Description"}, rows)
}
