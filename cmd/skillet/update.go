package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillet/pkg/presenter"
)

type UpdateConfig struct {
	Diff string
}

func NewUpdateConfig() *UpdateConfig {
	return &UpdateConfig{}
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check installed skills for newer remote versions",
	Long: `Compare each installed skill against its source's current listing. A skill
has an update when the remote reports a version string different from the
installed one; a remote without a version never signals an update.

Use --diff <skill-name> to print the document changes for one skill instead
of the summary table.`,
	Run: func(cmd *cobra.Command, _ []string) {
		config := getUpdateConfigFromFlags(cmd)
		runUpdateCommand(cmd, config)
	},
}

func init() {
	defaults := NewUpdateConfig()
	updateCmd.Flags().String("diff", defaults.Diff, "Show a unified diff of the named skill against its remote document")
	rootCmd.AddCommand(updateCmd)
}

func getUpdateConfigFromFlags(cmd *cobra.Command) *UpdateConfig {
	config := NewUpdateConfig()
	if diff, err := cmd.Flags().GetString("diff"); err == nil {
		config.Diff = diff
	}
	return config
}

func runUpdateCommand(cmd *cobra.Command, config *UpdateConfig) {
	ctx := cmd.Context()

	installer, cleanup, err := newInstaller(ctx)
	if err != nil {
		presenter.Error(err, "failed to initialize installer")
		os.Exit(1)
	}
	defer cleanup()

	if config.Diff != "" {
		diff, err := installer.Diff(ctx, config.Diff)
		if err != nil {
			presenter.Error(err, fmt.Sprintf("failed to diff %q", config.Diff))
			os.Exit(1)
		}
		if diff == "" {
			presenter.Info(fmt.Sprintf("%q matches its remote document", config.Diff))
			return
		}
		fmt.Print(diff)
		return
	}

	statuses, err := installer.CheckUpdates(ctx)
	if err != nil {
		presenter.Error(err, "update check failed")
		os.Exit(1)
	}

	if len(statuses) == 0 {
		presenter.Info("No installed skills track a source")
		return
	}

	rows := make([][]string, 0, len(statuses))
	updates := 0
	for _, status := range statuses {
		marker := ""
		if status.HasUpdate {
			marker = "update available"
			updates++
		}
		rows = append(rows, []string{status.Name, status.Source, status.CurrentVersion, status.LatestVersion, marker})
	}
	presenter.Table([]string{"NAME", "SOURCE", "INSTALLED", "LATEST", ""}, rows)

	if updates == 0 {
		presenter.Success("All skills are up to date")
	} else {
		presenter.Info(fmt.Sprintf("%d skill(s) have updates; reinstall with: skillet uninstall <name> && skillet install <name>", updates))
	}
}
