package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillet/pkg/history"
	"github.com/jingkaihe/skillet/pkg/presenter"
)

type HistoryConfig struct {
	Skill string
	Limit int
}

func NewHistoryConfig() *HistoryConfig {
	return &HistoryConfig{
		Limit: 50,
	}
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the skill install/uninstall audit log",
	Run: func(cmd *cobra.Command, _ []string) {
		config := getHistoryConfigFromFlags(cmd)
		runHistoryCommand(cmd, config)
	},
}

func init() {
	defaults := NewHistoryConfig()
	historyCmd.Flags().String("skill", defaults.Skill, "Only show events for one skill")
	historyCmd.Flags().Int("limit", defaults.Limit, "Maximum number of events to show")
	rootCmd.AddCommand(historyCmd)
}

func getHistoryConfigFromFlags(cmd *cobra.Command) *HistoryConfig {
	config := NewHistoryConfig()
	if skill, err := cmd.Flags().GetString("skill"); err == nil {
		config.Skill = skill
	}
	if limit, err := cmd.Flags().GetInt("limit"); err == nil {
		config.Limit = limit
	}
	return config
}

func runHistoryCommand(cmd *cobra.Command, config *HistoryConfig) {
	ctx := cmd.Context()

	store, err := history.Open(ctx, "")
	if err != nil {
		presenter.Error(err, "failed to open history log")
		os.Exit(1)
	}
	defer store.Close()

	events, err := store.List(ctx, history.ListOptions{Skill: config.Skill, Limit: config.Limit})
	if err != nil {
		presenter.Error(err, "failed to list events")
		os.Exit(1)
	}

	if len(events) == 0 {
		presenter.Info("No recorded events")
		return
	}

	rows := make([][]string, 0, len(events))
	for _, event := range events {
		rows = append(rows, []string{
			event.CreatedAt.Local().Format(time.RFC3339),
			event.Action,
			event.Skill,
			event.Source,
			event.Version,
		})
	}
	presenter.Table([]string{"WHEN", "ACTION", "SKILL", "SOURCE", "VERSION"}, rows)
}
