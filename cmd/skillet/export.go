package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillet/pkg/export"
	"github.com/jingkaihe/skillet/pkg/presenter"
)

type ExportConfig struct {
	Targets []string
	All     bool
	Watch   bool
}

func NewExportConfig() *ExportConfig {
	return &ExportConfig{}
}

var exportCmd = &cobra.Command{
	Use:   "export [skill-name...]",
	Short: "Export skills into other agents' skill directories",
	Long: `Export local skills into the directory layouts of other coding agents.
Targets are explicit: name them with --target, or pass --all for every known
target. Without skill names every discovered skill is exported.

With --watch, skillet keeps running and re-exports a skill whenever its
SKILL.md changes on disk.

Examples:
  skillet export code-review --target claude
  skillet export --all
  skillet export --target claude --target cursor --watch`,
	Run: func(cmd *cobra.Command, args []string) {
		config := getExportConfigFromFlags(cmd)
		runExportCommand(cmd, args, config)
	},
}

func init() {
	defaults := NewExportConfig()
	exportCmd.Flags().StringSliceP("target", "t", defaults.Targets, fmt.Sprintf("Export targets %v", export.TargetNames()))
	exportCmd.Flags().Bool("all", defaults.All, "Export to every known target")
	exportCmd.Flags().Bool("watch", defaults.Watch, "Keep running and re-export on changes")
	rootCmd.AddCommand(exportCmd)
}

func getExportConfigFromFlags(cmd *cobra.Command) *ExportConfig {
	config := NewExportConfig()
	if targets, err := cmd.Flags().GetStringSlice("target"); err == nil {
		config.Targets = targets
	}
	if all, err := cmd.Flags().GetBool("all"); err == nil {
		config.All = all
	}
	if watch, err := cmd.Flags().GetBool("watch"); err == nil {
		config.Watch = watch
	}
	return config
}

func runExportCommand(cmd *cobra.Command, names []string, config *ExportConfig) {
	ctx := cmd.Context()

	var targets []export.Target
	if config.All {
		targets = export.AllTargets()
	} else {
		resolved, err := export.ResolveTargets(config.Targets...)
		if err != nil {
			presenter.Error(err, "invalid export target")
			os.Exit(1)
		}
		targets = resolved
	}
	if len(targets) == 0 {
		presenter.Error(errors.New("no export targets given"), "name targets with --target or pass --all")
		os.Exit(1)
	}

	store, err := newSkillStore(NewListConfig())
	if err != nil {
		presenter.Error(err, "failed to initialize skill store")
		os.Exit(1)
	}

	refs, err := store.Discover(ctx)
	if err != nil {
		presenter.Error(err, "failed to discover skills")
		os.Exit(1)
	}

	selected := refs
	if len(names) > 0 {
		wanted := make(map[string]bool, len(names))
		for _, name := range names {
			wanted[name] = true
		}
		selected = selected[:0]
		for _, ref := range refs {
			if wanted[ref.Name] {
				selected = append(selected, ref)
				delete(wanted, ref.Name)
			}
		}
		for name := range wanted {
			presenter.Error(errors.Errorf("skill %q not found", name), "unknown skill")
			os.Exit(1)
		}
	}

	exported := 0
	for _, ref := range selected {
		skill, err := store.Load(ctx, ref.Directory)
		if err != nil || skill == nil {
			presenter.Warning(fmt.Sprintf("Skipping %q: failed to load", ref.Name))
			continue
		}
		if err := export.Export(ctx, skill, targets); err != nil {
			presenter.Error(err, fmt.Sprintf("failed to export %q", skill.Name))
			os.Exit(1)
		}
		exported++
	}
	presenter.Success(fmt.Sprintf("Exported %d skill(s) to %d target(s)", exported, len(targets)))

	if config.Watch {
		presenter.Info("Watching for changes, press Ctrl+C to stop")
		if err := export.Watch(ctx, store, targets, 0); err != nil {
			presenter.Error(err, "watcher failed")
			os.Exit(1)
		}
	}
}
