package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillet/pkg/marketplace"
	"github.com/jingkaihe/skillet/pkg/presenter"
)

type InstallConfig struct {
	Source string
}

func NewInstallConfig() *InstallConfig {
	return &InstallConfig{}
}

var installCmd = &cobra.Command{
	Use:   "install <skill-name>",
	Short: "Install a skill from a registered source",
	Long: `Install a skill by name. All registered sources are searched unless
--source scopes the lookup. The skill is staged, validated and promoted into
the install directory atomically: a failed install leaves nothing behind.

Examples:
  skillet install pdf-form-filler
  skillet install code-review --source anthropics-skills`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getInstallConfigFromFlags(cmd)
		runInstallCommand(cmd, args[0], config)
	},
}

func init() {
	defaults := NewInstallConfig()
	installCmd.Flags().StringP("source", "s", defaults.Source, "Restrict resolution to one source id")
	rootCmd.AddCommand(installCmd)
}

func getInstallConfigFromFlags(cmd *cobra.Command) *InstallConfig {
	config := NewInstallConfig()
	if source, err := cmd.Flags().GetString("source"); err == nil {
		config.Source = source
	}
	return config
}

func runInstallCommand(cmd *cobra.Command, name string, config *InstallConfig) {
	ctx := cmd.Context()

	installer, cleanup, err := newInstaller(ctx)
	if err != nil {
		presenter.Error(err, "failed to initialize installer")
		os.Exit(1)
	}
	defer cleanup()

	entry, err := installer.Install(ctx, name, marketplace.InstallOptions{SourceID: config.Source})
	if err != nil {
		presenter.Error(err, fmt.Sprintf("failed to install %q", name))
		os.Exit(1)
	}

	presenter.Success(fmt.Sprintf("Installed %q from %s into %s", entry.Name, entry.Source, entry.LocalPath))
}
