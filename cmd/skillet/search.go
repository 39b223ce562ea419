package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillet/pkg/marketplace"
	"github.com/jingkaihe/skillet/pkg/presenter"
)

type SearchConfig struct {
	Source string
	Page   int
	Limit  int
	SortBy string
}

func NewSearchConfig() *SearchConfig {
	return &SearchConfig{
		Source: "skillsmp",
		Page:   1,
		Limit:  20,
		SortBy: marketplace.SortByRecent,
	}
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the skill marketplace",
	Long: `Search a registered aggregator source for skills. Results are paginated;
use --page to walk through them.

Examples:
  skillet search "pdf forms"
  skillet search review --sort stars --limit 10`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getSearchConfigFromFlags(cmd)
		runSearchCommand(cmd, args[0], config)
	},
}

func init() {
	defaults := NewSearchConfig()
	searchCmd.Flags().String("source", defaults.Source, "Aggregator source id to search")
	searchCmd.Flags().Int("page", defaults.Page, "Result page to fetch")
	searchCmd.Flags().Int("limit", defaults.Limit, "Results per page")
	searchCmd.Flags().String("sort", defaults.SortBy, "Sort order (recent or stars)")
	rootCmd.AddCommand(searchCmd)
}

func getSearchConfigFromFlags(cmd *cobra.Command) *SearchConfig {
	config := NewSearchConfig()
	if source, err := cmd.Flags().GetString("source"); err == nil {
		config.Source = source
	}
	if page, err := cmd.Flags().GetInt("page"); err == nil {
		config.Page = page
	}
	if limit, err := cmd.Flags().GetInt("limit"); err == nil {
		config.Limit = limit
	}
	if sortBy, err := cmd.Flags().GetString("sort"); err == nil {
		config.SortBy = sortBy
	}
	return config
}

func runSearchCommand(cmd *cobra.Command, query string, config *SearchConfig) {
	ctx := cmd.Context()

	store, resolver, _, err := newMarketplace(ctx)
	if err != nil {
		presenter.Error(err, "failed to initialize marketplace")
		os.Exit(1)
	}

	cfg, err := store.Load(ctx)
	if err != nil {
		presenter.Error(err, "failed to load marketplace config")
		os.Exit(1)
	}

	source := cfg.FindSource(config.Source)
	if source == nil {
		presenter.Error(errors.Errorf("source %q is not registered", config.Source), "unknown source")
		os.Exit(1)
	}

	result, err := resolver.Search(ctx, *source, marketplace.SearchQuery{
		Search: query,
		Page:   config.Page,
		Limit:  config.Limit,
		SortBy: config.SortBy,
	})
	if err != nil {
		presenter.Error(err, "search failed")
		os.Exit(1)
	}

	if len(result.Skills) == 0 {
		presenter.Info("No skills matched")
		return
	}

	rows := make([][]string, 0, len(result.Skills))
	for _, skill := range result.Skills {
		rows = append(rows, []string{
			skill.Name,
			skill.Description,
			skill.Author,
			skill.Version,
			strconv.Itoa(skill.Stars),
		})
	}
	presenter.Table([]string{"NAME", "DESCRIPTION", "AUTHOR", "VERSION", "STARS"}, rows)

	p := result.Pagination
	presenter.Info(fmt.Sprintf("Page %d of %d (%d total)", p.Page, p.TotalPages, p.Total))
}
