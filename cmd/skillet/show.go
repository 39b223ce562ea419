package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillet/pkg/presenter"
)

var showCmd = &cobra.Command{
	Use:   "show <skill-name>",
	Short: "Show a skill's metadata, body and bundled resources",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runShowCommand(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShowCommand(cmd *cobra.Command, name string) {
	ctx := cmd.Context()

	store, err := newSkillStore(NewListConfig())
	if err != nil {
		presenter.Error(err, "failed to initialize skill store")
		os.Exit(1)
	}

	skill, err := store.Find(ctx, name)
	if err != nil {
		presenter.Error(err, "failed to load skill")
		os.Exit(1)
	}
	if skill == nil {
		presenter.Error(fmt.Errorf("skill %q not found", name), "not found")
		os.Exit(1)
	}

	presenter.Section(skill.Name)
	presenter.Info(skill.Description)
	if skill.License != "" {
		presenter.Info("License: " + skill.License)
	}
	if skill.Compatibility != "" {
		presenter.Info("Compatibility: " + skill.Compatibility)
	}
	if skill.AllowedTools != "" {
		presenter.Info("Allowed tools: " + skill.AllowedTools)
	}
	presenter.Info("Directory: " + skill.Directory)

	resources, err := store.ListResources(skill.Directory)
	if err == nil {
		if len(resources.Scripts) > 0 {
			presenter.Info("Scripts: " + strings.Join(resources.Scripts, ", "))
		}
		if len(resources.References) > 0 {
			presenter.Info("References: " + strings.Join(resources.References, ", "))
		}
		if len(resources.Assets) > 0 {
			presenter.Info("Assets: " + strings.Join(resources.Assets, ", "))
		}
	}

	presenter.Separator()
	fmt.Println(skill.Content)
}
