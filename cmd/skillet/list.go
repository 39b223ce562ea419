package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillet/pkg/presenter"
	"github.com/jingkaihe/skillet/pkg/skills"
)

type ListConfig struct {
	Paths []string
}

func NewListConfig() *ListConfig {
	return &ListConfig{}
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List local skills",
	Long: `List all skills discovered below the search roots (./.skillet/skills first,
then ~/.skillet/skills). A skill name found in an earlier root shadows the
same name in a later one.`,
	Run: func(cmd *cobra.Command, _ []string) {
		config := getListConfigFromFlags(cmd)
		runListCommand(cmd, config)
	},
}

func init() {
	defaults := NewListConfig()
	listCmd.Flags().StringSlice("path", defaults.Paths, "Search roots to scan instead of the defaults")
	rootCmd.AddCommand(listCmd)
}

func getListConfigFromFlags(cmd *cobra.Command) *ListConfig {
	config := NewListConfig()
	if paths, err := cmd.Flags().GetStringSlice("path"); err == nil {
		config.Paths = paths
	}
	return config
}

func newSkillStore(config *ListConfig) (*skills.Store, error) {
	if len(config.Paths) > 0 {
		return skills.NewStore(skills.WithSearchPaths(config.Paths...))
	}
	return skills.NewStore()
}

func runListCommand(cmd *cobra.Command, config *ListConfig) {
	ctx := cmd.Context()

	store, err := newSkillStore(config)
	if err != nil {
		presenter.Error(err, "failed to initialize skill store")
		os.Exit(1)
	}

	refs, err := store.Discover(ctx)
	if err != nil {
		presenter.Error(err, "failed to discover skills")
		os.Exit(1)
	}

	if len(refs) == 0 {
		presenter.Info("No skills found")
		return
	}

	rows := make([][]string, 0, len(refs))
	for _, ref := range refs {
		rows = append(rows, []string{ref.Name, ref.Description, ref.Directory})
	}
	presenter.Table([]string{"NAME", "DESCRIPTION", "DIRECTORY"}, rows)
}
