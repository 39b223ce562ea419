// Package export writes installed skills into the directory layouts of
// other coding agents. Every target shares the same document convention
// (frontmatter header + body under <dir>/<name>/SKILL.md); targets differ
// only in where that directory lives.
package export

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillet/pkg/frontmatter"
	"github.com/jingkaihe/skillet/pkg/logger"
	"github.com/jingkaihe/skillet/pkg/skills"
)

// resourceDirs are the bundled subdirectories carried along with the document
var resourceDirs = []string{"scripts", "references", "assets"}

// Target is one agent integration skills can be exported to
type Target interface {
	// Name is the identifier used on the command line
	Name() string
	// Dir resolves the target's skills directory
	Dir() (string, error)
}

// homeTarget roots its skills directory in the user home
type homeTarget struct {
	name     string
	segments []string
}

func (t homeTarget) Name() string { return t.name }

func (t homeTarget) Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user home directory")
	}
	return filepath.Join(append([]string{homeDir}, t.segments...)...), nil
}

// knownTargets in the order they are presented to users
var knownTargets = []Target{
	homeTarget{name: "claude", segments: []string{".claude", "skills"}},
	homeTarget{name: "codex", segments: []string{".codex", "skills"}},
	homeTarget{name: "cursor", segments: []string{".cursor", "skills"}},
	homeTarget{name: "copilot", segments: []string{".github", "copilot", "skills"}},
	homeTarget{name: "skillet", segments: []string{".skillet", "skills"}},
}

// AllTargets returns every known target
func AllTargets() []Target {
	targets := make([]Target, len(knownTargets))
	copy(targets, knownTargets)
	return targets
}

// TargetNames returns the known target names in presentation order
func TargetNames() []string {
	names := make([]string, 0, len(knownTargets))
	for _, target := range knownTargets {
		names = append(names, target.Name())
	}
	return names
}

// ResolveTargets maps names to targets, failing on the first unknown name
func ResolveTargets(names ...string) ([]Target, error) {
	targets := make([]Target, 0, len(names))
	for _, name := range names {
		found := false
		for _, target := range knownTargets {
			if target.Name() == name {
				targets = append(targets, target)
				found = true
				break
			}
		}
		if !found {
			return nil, errors.Errorf("unknown export target %q, known targets: %v", name, TargetNames())
		}
	}
	return targets, nil
}

// Export writes the skill into each target's layout: the composed document
// at <dir>/<name>/SKILL.md plus any bundled resource subdirectories.
// Failures are aggregated per target so one broken target does not stop the
// others.
func Export(ctx context.Context, skill *skills.Skill, targets []Target) error {
	doc, err := frontmatter.Compose(skill.Metadata, skill.Content)
	if err != nil {
		return errors.Wrapf(err, "failed to compose document for %q", skill.Name)
	}

	var merr *multierror.Error
	for _, target := range targets {
		if err := exportTo(ctx, skill, doc, target); err != nil {
			logger.G(ctx).WithError(err).WithField("target", target.Name()).Warn("export failed")
			merr = multierror.Append(merr, errors.Wrapf(err, "target %s", target.Name()))
		}
	}
	return merr.ErrorOrNil()
}

func exportTo(ctx context.Context, skill *skills.Skill, doc []byte, target Target) error {
	baseDir, err := target.Dir()
	if err != nil {
		return err
	}

	skillDir := filepath.Join(baseDir, skill.Name)
	if sameDir(skillDir, skill.Directory) {
		logger.G(ctx).WithField("skill", skill.Name).WithField("target", target.Name()).Debug("skill already lives in target directory, skipping")
		return nil
	}

	if err := os.MkdirAll(skillDir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create target directory")
	}
	if err := os.WriteFile(filepath.Join(skillDir, skills.SkillFileName), doc, 0o644); err != nil {
		return errors.Wrap(err, "failed to write skill document")
	}

	for _, resource := range resourceDirs {
		src := filepath.Join(skill.Directory, resource)
		if info, err := os.Stat(src); err != nil || !info.IsDir() {
			continue
		}
		if err := copyTree(src, filepath.Join(skillDir, resource)); err != nil {
			return errors.Wrapf(err, "failed to copy %s", resource)
		}
	}
	return nil
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return absA == absB
}

func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode())
		}

		srcFile, err := os.Open(path)
		if err != nil {
			return err
		}
		defer srcFile.Close()

		dstFile, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
		if err != nil {
			return err
		}
		defer dstFile.Close()

		_, err = io.Copy(dstFile, srcFile)
		return err
	})
}
