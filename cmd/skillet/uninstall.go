package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillet/pkg/presenter"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <skill-name>",
	Short: "Remove an installed skill",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runUninstallCommand(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}

func runUninstallCommand(cmd *cobra.Command, name string) {
	ctx := cmd.Context()

	installer, cleanup, err := newInstaller(ctx)
	if err != nil {
		presenter.Error(err, "failed to initialize installer")
		os.Exit(1)
	}
	defer cleanup()

	if err := installer.Uninstall(ctx, name); err != nil {
		presenter.Error(err, fmt.Sprintf("failed to uninstall %q", name))
		os.Exit(1)
	}

	presenter.Success(fmt.Sprintf("Uninstalled %q", name))
}
