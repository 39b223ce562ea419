package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillet/pkg/frontmatter"
	"github.com/jingkaihe/skillet/pkg/skills"
)

// dirTarget exports into a fixed directory, used instead of home-rooted
// targets in tests.
type dirTarget struct {
	name string
	dir  string
}

func (t dirTarget) Name() string         { return t.name }
func (t dirTarget) Dir() (string, error) { return t.dir, nil }

type brokenTarget struct{}

func (brokenTarget) Name() string         { return "broken" }
func (brokenTarget) Dir() (string, error) { return "", errors.New("no home") }

func testSkill(t *testing.T) *skills.Skill {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "code-review")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scripts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scripts", "run.sh"), []byte("#!/bin/sh\n"), 0o755))

	return &skills.Skill{
		Metadata: skills.Metadata{
			Name:        "code-review",
			Description: "Reviews pull requests for style problems, missing tests, and risky changes before they merge.",
			License:     "MIT",
		},
		Directory: dir,
		Content:   "# Code Review\n\nCheck the diff against the team style guide.\n",
	}
}

func TestExportWritesDocumentAndResources(t *testing.T) {
	skill := testSkill(t)
	target := dirTarget{name: "claude", dir: t.TempDir()}

	require.NoError(t, Export(context.Background(), skill, []Target{target}))

	exported := filepath.Join(target.dir, "code-review", skills.SkillFileName)
	content, err := os.ReadFile(exported)
	require.NoError(t, err)

	// the written document round-trips through the frontmatter parser
	doc, err := frontmatter.Parse(content)
	require.NoError(t, err)
	require.NotNil(t, doc)

	var meta skills.Metadata
	require.NoError(t, frontmatter.Decode(doc.Meta, &meta))
	assert.Equal(t, skill.Name, meta.Name)
	assert.Equal(t, skill.Description, meta.Description)
	assert.Equal(t, "MIT", meta.License)
	assert.Equal(t, skill.Content, doc.Body)

	assert.FileExists(t, filepath.Join(target.dir, "code-review", "scripts", "run.sh"))
}

func TestExportMultipleTargets(t *testing.T) {
	skill := testSkill(t)
	first := dirTarget{name: "claude", dir: t.TempDir()}
	second := dirTarget{name: "codex", dir: t.TempDir()}

	require.NoError(t, Export(context.Background(), skill, []Target{first, second}))
	assert.FileExists(t, filepath.Join(first.dir, "code-review", skills.SkillFileName))
	assert.FileExists(t, filepath.Join(second.dir, "code-review", skills.SkillFileName))
}

func TestExportIsolatesTargetFailures(t *testing.T) {
	skill := testSkill(t)
	healthy := dirTarget{name: "claude", dir: t.TempDir()}

	err := Export(context.Background(), skill, []Target{brokenTarget{}, healthy})
	assert.Error(t, err, "the broken target is reported")
	assert.FileExists(t, filepath.Join(healthy.dir, "code-review", skills.SkillFileName),
		"healthy targets still receive the export")
}

func TestExportSkipsOwnDirectory(t *testing.T) {
	skill := testSkill(t)
	// target resolves to the directory the skill already lives in
	target := dirTarget{name: "skillet", dir: filepath.Dir(skill.Directory)}

	require.NoError(t, Export(context.Background(), skill, []Target{target}))
}

func TestResolveTargets(t *testing.T) {
	targets, err := ResolveTargets("claude", "cursor")
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "claude", targets[0].Name())
	assert.Equal(t, "cursor", targets[1].Name())

	_, err = ResolveTargets("claude", "emacs")
	assert.Error(t, err)
}

func TestAllTargets(t *testing.T) {
	assert.Equal(t, []string{"claude", "codex", "cursor", "copilot", "skillet"}, TargetNames())
	assert.Len(t, AllTargets(), 5)
}

func TestWatchReExportsOnChange(t *testing.T) {
	root := t.TempDir()
	skillDir := filepath.Join(root, "code-review")
	require.NoError(t, os.MkdirAll(skillDir, 0o755))

	doc := `---
name: code-review
description: Reviews pull requests for style problems, missing tests, and risky changes before they merge.
---

# Code Review
`
	require.NoError(t, os.WriteFile(filepath.Join(skillDir, skills.SkillFileName), []byte(doc), 0o644))

	store, err := skills.NewStore(skills.WithSearchPaths(root))
	require.NoError(t, err)

	target := dirTarget{name: "claude", dir: t.TempDir()}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		Watch(ctx, store, []Target{target}, 50*time.Millisecond)
	}()

	// give the watcher time to register before touching the file
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(skillDir, skills.SkillFileName), []byte(doc+"\nMore guidance.\n"), 0o644))

	exported := filepath.Join(target.dir, "code-review", skills.SkillFileName)
	require.Eventually(t, func() bool {
		_, err := os.Stat(exported)
		return err == nil
	}, 5*time.Second, 50*time.Millisecond, "changed skill should be re-exported")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancellation")
	}
}
