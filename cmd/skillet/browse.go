package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillet/pkg/presenter"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "List the skills available from all registered repository sources",
	Run: func(cmd *cobra.Command, _ []string) {
		runBrowseCommand(cmd)
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowseCommand(cmd *cobra.Command) {
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

	candidates, err := resolver.ListAll(ctx, cfg.Sources)
	if err != nil {
		presenter.Warning("Some sources could not be reached; listing is partial")
	}

	if len(candidates) == 0 {
		presenter.Info("No skills available")
		return
	}

	rows := make([][]string, 0, len(candidates))
	for _, candidate := range candidates {
		installed := ""
		if cfg.FindInstalled(candidate.CandidateName()) != nil {
			installed = "yes"
		}
		rows = append(rows, []string{
			candidate.CandidateName(),
			candidate.CandidateDescription(),
			candidate.CandidateVersion(),
			candidate.SourceID(),
			installed,
		})
	}
	presenter.Table([]string{"NAME", "DESCRIPTION", "VERSION", "SOURCE", "INSTALLED"}, rows)
}
