package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/semdex/internal/search"
)

// searchResult is one hit in the search command's JSON output.
type searchResult struct {
	DocID    string         `json:"doc_id"`
	Title    string         `json:"title,omitempty"`
	Snippet  string         `json:"snippet"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func newSearchCmd() *cobra.Command {
	var (
		collection string
		modeName   string
		k          int
		filterArgs []string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search a collection",
		Long: `Search a collection in vector, lexical, or hybrid mode. Hybrid
(the default) runs both and fuses the rankings.`,
		Example: `  semdex search "wireless headphones" -c products
  semdex search "wireless headphones" -c products --mode lexical --filter category=audio`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := search.ParseMode(modeName)
			if err != nil {
				return err
			}
			filters, err := parseFilters(filterArgs)
			if err != nil {
				return err
			}

			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			hits, err := a.retriever.Search(cmd.Context(), search.Request{
				Collection: collection,
				Query:      strings.Join(args, " "),
				Mode:       mode,
				K:          k,
				Filters:    filters,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				results := make([]searchResult, 0, len(hits))
				for _, h := range hits {
					results = append(results, searchResult{
						DocID:    h.DocID,
						Title:    h.Title,
						Snippet:  h.Snippet,
						Score:    h.Score,
						Metadata: h.Metadata,
					})
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}

			if len(hits) == 0 {
				fmt.Fprintln(out, "no results")
				return nil
			}
			for i, h := range hits {
				fmt.Fprintf(out, "%2d. %s (score %.4f)\n", i+1, h.DocID, h.Score)
				if h.Title != "" {
					fmt.Fprintf(out, "    %s\n", h.Title)
				}
				fmt.Fprintf(out, "    %s\n", h.Snippet)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&collection, "collection", "c", "", "Collection to search")
	cmd.Flags().StringVar(&modeName, "mode", "hybrid", "Search mode: vector, lexical, or hybrid")
	cmd.Flags().IntVarP(&k, "limit", "k", search.DefaultK, "Maximum results")
	cmd.Flags().StringArrayVar(&filterArgs, "filter", nil,
		"Exact-match metadata filter, key=value (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	_ = cmd.MarkFlagRequired("collection")

	return cmd
}

// parseFilters converts key=value flags into a filter map.
func parseFilters(args []string) (map[string]any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	filters := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q (want key=value)", arg)
		}
		filters[key] = value
	}
	return filters, nil
}
