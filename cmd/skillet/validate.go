package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillet/pkg/presenter"
	"github.com/jingkaihe/skillet/pkg/skills"
)

var validateCmd = &cobra.Command{
	Use:   "validate <dir>",
	Short: "Validate a skill directory",
	Long: `Validate the SKILL.md document of a skill directory: naming and length
rules are errors, body size checks are warnings. Exits non-zero when the
skill is invalid.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runValidateCommand(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidateCommand(cmd *cobra.Command, dir string) {
	ctx := cmd.Context()

	store, err := skills.NewStore(skills.WithSearchPaths(dir))
	if err != nil {
		presenter.Error(err, "failed to initialize skill store")
		os.Exit(1)
	}

	skill, err := store.Load(ctx, dir)
	if err != nil {
		presenter.Error(err, "skill document failed to load")
		os.Exit(1)
	}
	if skill == nil {
		presenter.Error(errors.Errorf("no %s found in %s", skills.SkillFileName, dir), "not a skill directory")
		os.Exit(1)
	}

	metaResult := skills.ValidateMetadata(skill.Metadata)
	contentResult := skills.ValidateContent(skill.Content)

	for _, warning := range append(metaResult.Warnings, contentResult.Warnings...) {
		presenter.Warning(warning)
	}

	if !metaResult.Valid {
		for _, validationErr := range metaResult.Errors {
			presenter.Error(errors.New(validationErr), "validation error")
		}
		os.Exit(1)
	}

	presenter.Success(fmt.Sprintf("Skill %q is valid", skill.Name))
}
