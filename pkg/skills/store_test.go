package skills

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSkill(t *testing.T, root, dirName, name, description string) string {
	t.Helper()
	dir := filepath.Join(root, dirName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := `---
name: ` + name + `
description: ` + description + `
---

# ` + name + `

Instructions for ` + name + `.
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, SkillFileName), []byte(content), 0o644))
	return dir
}

func TestNewStore(t *testing.T) {
	t.Run("with default paths", func(t *testing.T) {
		store, err := NewStore()
		require.NoError(t, err)
		assert.Len(t, store.searchPaths, 2)
		assert.Equal(t, DefaultMaxDepth, store.maxDepth)
	})

	t.Run("with custom paths", func(t *testing.T) {
		store, err := NewStore(WithSearchPaths("/tmp/a", "/tmp/b"))
		require.NoError(t, err)
		assert.Equal(t, []string{"/tmp/a", "/tmp/b"}, store.searchPaths)
	})

	t.Run("rejects zero depth", func(t *testing.T) {
		_, err := NewStore(WithSearchPaths("/tmp/a"), WithMaxDepth(0))
		assert.Error(t, err)
	})
}

func TestDiscover(t *testing.T) {
	ctx := context.Background()

	t.Run("finds skills across roots", func(t *testing.T) {
		root := t.TempDir()
		writeSkill(t, root, "pdf-tools", "pdf-tools", "Extract text and tables from PDF documents")
		writeSkill(t, root, "web-scraper", "web-scraper", "Scrape structured data from web pages politely")

		store, err := NewStore(WithSearchPaths(root))
		require.NoError(t, err)

		refs, err := store.Discover(ctx)
		require.NoError(t, err)
		assert.Len(t, refs, 2)

		names := []string{refs[0].Name, refs[1].Name}
		assert.Contains(t, names, "pdf-tools")
		assert.Contains(t, names, "web-scraper")
	})

	t.Run("missing root is not an error", func(t *testing.T) {
		store, err := NewStore(WithSearchPaths("/non/existent/path"))
		require.NoError(t, err)

		refs, err := store.Discover(ctx)
		require.NoError(t, err)
		assert.Empty(t, refs)
	})

	t.Run("empty root returns empty", func(t *testing.T) {
		store, err := NewStore(WithSearchPaths(t.TempDir()))
		require.NoError(t, err)

		refs, err := store.Discover(ctx)
		require.NoError(t, err)
		assert.Empty(t, refs)
	})

	t.Run("invalid documents are skipped", func(t *testing.T) {
		root := t.TempDir()
		writeSkill(t, root, "good", "good", "A perfectly reasonable skill with a description")

		badDir := filepath.Join(root, "bad")
		require.NoError(t, os.MkdirAll(badDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(badDir, SkillFileName), []byte("# no frontmatter\n"), 0o644))

		store, err := NewStore(WithSearchPaths(root))
		require.NoError(t, err)

		refs, err := store.Discover(ctx)
		require.NoError(t, err)
		require.Len(t, refs, 1)
		assert.Equal(t, "good", refs[0].Name)
	})

	t.Run("first root wins on duplicate names", func(t *testing.T) {
		root1 := t.TempDir()
		root2 := t.TempDir()
		writeSkill(t, root1, "shared", "shared", "From the first search root, which takes precedence")
		writeSkill(t, root2, "shared", "shared", "From the second search root, which is shadowed")

		store, err := NewStore(WithSearchPaths(root1, root2))
		require.NoError(t, err)

		refs, err := store.Discover(ctx)
		require.NoError(t, err)
		require.Len(t, refs, 1)
		assert.Contains(t, refs[0].Description, "first search root")
	})

	t.Run("depth bound is respected", func(t *testing.T) {
		root := t.TempDir()
		writeSkill(t, root, "shallow", "shallow", "Lives directly below the search root as usual")
		writeSkill(t, root, filepath.Join("a", "b", "c", "deep"), "deep", "Buried four levels down, beyond the default bound")

		store, err := NewStore(WithSearchPaths(root))
		require.NoError(t, err)

		refs, err := store.Discover(ctx)
		require.NoError(t, err)
		require.Len(t, refs, 1)
		assert.Equal(t, "shallow", refs[0].Name)
	})

	t.Run("ignore globs skip directories", func(t *testing.T) {
		root := t.TempDir()
		writeSkill(t, root, "kept", "kept", "A skill outside the ignored directories entirely")
		writeSkill(t, root, filepath.Join("node_modules", "dropped"), "dropped", "Hidden inside an ignored vendor directory")

		store, err := NewStore(WithSearchPaths(root), WithIgnoreGlobs("node_modules"))
		require.NoError(t, err)

		refs, err := store.Discover(ctx)
		require.NoError(t, err)
		require.Len(t, refs, 1)
		assert.Equal(t, "kept", refs[0].Name)
	})
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip with discover", func(t *testing.T) {
		root := t.TempDir()
		writeSkill(t, root, "pdf-tools", "pdf-tools", "Extract text and tables from PDF documents")

		store, err := NewStore(WithSearchPaths(root))
		require.NoError(t, err)

		refs, err := store.Discover(ctx)
		require.NoError(t, err)
		require.Len(t, refs, 1)

		skill, err := store.Load(ctx, refs[0].Directory)
		require.NoError(t, err)
		require.NotNil(t, skill)
		assert.Equal(t, refs[0].Name, skill.Name)
		assert.Equal(t, refs[0].Description, skill.Description)
		assert.Contains(t, skill.Content, "Instructions for pdf-tools")
	})

	t.Run("absent document returns nil", func(t *testing.T) {
		store, err := NewStore(WithSearchPaths(t.TempDir()))
		require.NoError(t, err)

		skill, err := store.Load(ctx, filepath.Join(t.TempDir(), "nothing-here"))
		require.NoError(t, err)
		assert.Nil(t, skill)
	})

	t.Run("missing required fields fail with ErrInvalidSkill", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, SkillFileName), []byte("---\nname: lonely\n---\n\nBody.\n"), 0o644))

		store, err := NewStore(WithSearchPaths(dir))
		require.NoError(t, err)

		skill, err := store.Load(ctx, dir)
		assert.Nil(t, skill)
		assert.ErrorIs(t, err, ErrInvalidSkill)
	})

	t.Run("optional fields survive", func(t *testing.T) {
		dir := t.TempDir()
		content := `---
name: fancy
description: Loaded with every optional field populated for the test
license: Apache-2.0
compatibility: Requires network access
allowed-tools: bash, file_read
metadata:
  author: jane
  version: "2.1"
---

Body text.
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, SkillFileName), []byte(content), 0o644))

		store, err := NewStore(WithSearchPaths(dir))
		require.NoError(t, err)

		skill, err := store.Load(ctx, dir)
		require.NoError(t, err)
		require.NotNil(t, skill)
		assert.Equal(t, "Apache-2.0", skill.License)
		assert.Equal(t, "Requires network access", skill.Compatibility)
		assert.Equal(t, "bash, file_read", skill.AllowedTools)
		assert.Equal(t, "jane", skill.Metadata.Metadata["author"])
		assert.Equal(t, "2.1", skill.Metadata.Metadata["version"])
	})
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeSkill(t, root, "pdf-tools", "pdf-tools", "Extract text and tables from PDF documents")

	store, err := NewStore(WithSearchPaths(root))
	require.NoError(t, err)

	t.Run("existing", func(t *testing.T) {
		skill, err := store.Find(ctx, "pdf-tools")
		require.NoError(t, err)
		require.NotNil(t, skill)
		assert.Equal(t, "pdf-tools", skill.Name)
	})

	t.Run("absent", func(t *testing.T) {
		skill, err := store.Find(ctx, "unknown")
		require.NoError(t, err)
		assert.Nil(t, skill)
	})
}

func TestListResources(t *testing.T) {
	root := t.TempDir()
	dir := writeSkill(t, root, "bundled", "bundled", "A skill with scripts and references bundled in")

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scripts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scripts", "run.sh"), []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "references"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "references", "api.md"), []byte("# API\n"), 0o644))

	store, err := NewStore(WithSearchPaths(root))
	require.NoError(t, err)

	resources, err := store.ListResources(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"run.sh"}, resources.Scripts)
	assert.Equal(t, []string{"api.md"}, resources.References)
	assert.Empty(t, resources.Assets, "missing assets directory yields an empty list")
}
