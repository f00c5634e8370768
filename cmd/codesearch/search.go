package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"codesearch/internal/domain"
	"codesearch/internal/service"
)

var (
	searchRoot  string
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search a source tree once and print ranked files",
	Long: `Loads and indexes the source tree, runs a single query and prints
the best matching files with a preview of each.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchRoot, "root", "", "directory to index (default from config)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	root := cfg.Root
	if searchRoot != "" {
		root = searchRoot
	}

	emb, closeEmb, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	defer closeEmb()

	engine := service.NewEngine(newLoader(cfg, logger), emb, engineOptions(cfg, logger))
	ctx := cmd.Context()

	status, err := engine.Reload(ctx, root)
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}
	if !engine.Ready() {
		fmt.Fprintln(cmd.OutOrStdout(), status)
		return nil
	}

	results, err := engine.Search(ctx, args[0], searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	outputSearchTable(cmd, results)
	return nil
}

func outputSearchJSON(cmd *cobra.Command, results []domain.QueryResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.QueryResult) {
	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "No results found.")
		return
	}

	fmt.Fprintln(out, "Results:")
	fmt.Fprintln(out)
	for i, r := range results {
		// Format: [N] path (score) followed by the indented preview
		fmt.Fprintf(out, "  [%d] %s (%.3f)\n", i+1, r.Path, r.Score)
		for _, line := range strings.Split(r.Preview, "\n") {
			if line == "" {
				continue
			}
			fmt.Fprintf(out, "      %s\n", line)
		}
		fmt.Fprintln(out)
	}
}
