package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillet/pkg/marketplace"
	"github.com/jingkaihe/skillet/pkg/presenter"
)

type SourceAddConfig struct {
	ID         string
	Name       string
	Branch     string
	SkillsPath string
}

func NewSourceAddConfig() *SourceAddConfig {
	return &SourceAddConfig{
		Branch:     "main",
		SkillsPath: "skills",
	}
}

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Manage skill sources",
	Long:  `Add, remove and list the remote sources skills are installed from.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var sourceAddCmd = &cobra.Command{
	Use:   "add <owner/repo>",
	Short: "Register a GitHub repository as a skill source",
	Long: `Register a GitHub repository as a skill source. The repository should hold
skill directories (each with a SKILL.md) below its skills path.

Examples:
  skillet source add myorg/skills
  skillet source add myorg/skills --branch develop --skills-path library`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getSourceAddConfigFromFlags(cmd)
		runSourceAddCommand(cmd, args[0], config)
	},
}

var sourceRemoveCmd = &cobra.Command{
	Use:   "remove <source-id>",
	Short: "Remove a registered source",
	Long:  `Remove a registered source by id. Built-in verified sources cannot be removed.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runSourceRemoveCommand(cmd, args[0])
	},
}

var sourceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered sources",
	Run: func(cmd *cobra.Command, _ []string) {
		runSourceListCommand(cmd)
	},
}

type SourceIndexConfig struct {
	SkillsPath string
}

func NewSourceIndexConfig() *SourceIndexConfig {
	return &SourceIndexConfig{
		SkillsPath: "skills",
	}
}

var sourceIndexCmd = &cobra.Command{
	Use:   "index <repo-dir>",
	Short: "Generate a skills-index.json for a source repository checkout",
	Long: `Scan a local checkout of a source repository and write the precomputed
skills-index.json below its skills path. Publishing the index lets consumers
list the source with a single network call instead of one fetch per skill.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getSourceIndexConfigFromFlags(cmd)
		runSourceIndexCommand(cmd, args[0], config)
	},
}

func init() {
	addDefaults := NewSourceAddConfig()
	sourceAddCmd.Flags().String("id", addDefaults.ID, "Source id (defaults to owner-repo)")
	sourceAddCmd.Flags().String("name", addDefaults.Name, "Human-readable source name")
	sourceAddCmd.Flags().String("branch", addDefaults.Branch, "Branch to list skills from")
	sourceAddCmd.Flags().String("skills-path", addDefaults.SkillsPath, "Repository path holding the skill directories")

	indexDefaults := NewSourceIndexConfig()
	sourceIndexCmd.Flags().String("skills-path", indexDefaults.SkillsPath, "Repository path holding the skill directories")

	sourceCmd.AddCommand(sourceAddCmd)
	sourceCmd.AddCommand(sourceRemoveCmd)
	sourceCmd.AddCommand(sourceListCmd)
	sourceCmd.AddCommand(sourceIndexCmd)
	rootCmd.AddCommand(sourceCmd)
}

func getSourceAddConfigFromFlags(cmd *cobra.Command) *SourceAddConfig {
	config := NewSourceAddConfig()
	if id, err := cmd.Flags().GetString("id"); err == nil {
		config.ID = id
	}
	if name, err := cmd.Flags().GetString("name"); err == nil {
		config.Name = name
	}
	if branch, err := cmd.Flags().GetString("branch"); err == nil {
		config.Branch = branch
	}
	if skillsPath, err := cmd.Flags().GetString("skills-path"); err == nil {
		config.SkillsPath = skillsPath
	}
	return config
}

func getSourceIndexConfigFromFlags(cmd *cobra.Command) *SourceIndexConfig {
	config := NewSourceIndexConfig()
	if skillsPath, err := cmd.Flags().GetString("skills-path"); err == nil {
		config.SkillsPath = skillsPath
	}
	return config
}

func runSourceAddCommand(cmd *cobra.Command, repo string, config *SourceAddConfig) {
	ctx := cmd.Context()

	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		presenter.Error(errors.Errorf("invalid repository %q, expected owner/repo", repo), "invalid argument")
		os.Exit(1)
	}

	id := config.ID
	if id == "" {
		id = parts[0] + "-" + parts[1]
	}
	name := config.Name
	if name == "" {
		name = repo
	}

	store, err := marketplace.NewConfigStore("")
	if err != nil {
		presenter.Error(err, "failed to initialize marketplace")
		os.Exit(1)
	}

	err = store.AddSource(ctx, marketplace.Source{
		ID:         id,
		Name:       name,
		Kind:       marketplace.SourceGitHub,
		Owner:      parts[0],
		Repo:       parts[1],
		Branch:     config.Branch,
		SkillsPath: config.SkillsPath,
	})
	if err != nil {
		presenter.Error(err, fmt.Sprintf("failed to add source %q", id))
		os.Exit(1)
	}

	presenter.Success(fmt.Sprintf("Added source %q (%s)", id, repo))
}

func runSourceRemoveCommand(cmd *cobra.Command, id string) {
	ctx := cmd.Context()

	store, err := marketplace.NewConfigStore("")
	if err != nil {
		presenter.Error(err, "failed to initialize marketplace")
		os.Exit(1)
	}

	if err := store.RemoveSource(ctx, id); err != nil {
		presenter.Error(err, fmt.Sprintf("failed to remove source %q", id))
		os.Exit(1)
	}

	presenter.Success(fmt.Sprintf("Removed source %q", id))
}

func runSourceListCommand(cmd *cobra.Command) {
	ctx := cmd.Context()

	store, err := marketplace.NewConfigStore("")
	if err != nil {
		presenter.Error(err, "failed to initialize marketplace")
		os.Exit(1)
	}

	cfg, err := store.Load(ctx)
	if err != nil {
		presenter.Error(err, "failed to load marketplace config")
		os.Exit(1)
	}

	rows := make([][]string, 0, len(cfg.Sources))
	for _, source := range cfg.Sources {
		location := source.Endpoint
		if source.Kind == marketplace.SourceGitHub {
			location = source.Owner + "/" + source.Repo
		}
		verified := ""
		if source.Verified {
			verified = "verified"
		}
		rows = append(rows, []string{source.ID, string(source.Kind), location, verified})
	}
	presenter.Table([]string{"ID", "KIND", "LOCATION", ""}, rows)
}

func runSourceIndexCommand(cmd *cobra.Command, repoDir string, config *SourceIndexConfig) {
	ctx := cmd.Context()

	index, err := marketplace.GenerateIndex(ctx, repoDir, config.SkillsPath)
	if err != nil {
		presenter.Error(err, "failed to generate index")
		os.Exit(1)
	}

	indexPath, err := marketplace.WriteIndex(repoDir, config.SkillsPath, index)
	if err != nil {
		presenter.Error(err, "failed to write index")
		os.Exit(1)
	}

	presenter.Success(fmt.Sprintf("Wrote %s with %d skill(s)", indexPath, len(index.Skills)))
}
