package marketplace

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(filepath.Join(t.TempDir(), "marketplace.json"))
	require.NoError(t, err)
	return store
}

func TestConfigStoreLoadDefaults(t *testing.T) {
	store := newTestStore(t)

	cfg, err := store.Load(context.Background())
	require.NoError(t, err)

	assert.NotNil(t, cfg.FindSource("anthropics-skills"))
	assert.NotNil(t, cfg.FindSource("skillsmp"))
	assert.NotEmpty(t, cfg.InstallDir)
	assert.Empty(t, cfg.Installed)
}

func TestConfigStoreLoadCorruptFallsBackToDefaults(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o755))
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o644))

	cfg, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, cfg.FindSource("anthropics-skills"))
}

func TestConfigStoreHealsStaleManifest(t *testing.T) {
	store := newTestStore(t)
	stale := &Config{
		Sources: []Source{
			{ID: "obra-superpowers", Kind: SourceGitHub, Owner: "obra", Repo: "superpowers"},
			{ID: "my-source", Kind: SourceGitHub, Owner: "me", Repo: "skills"},
		},
		InstallDir: t.TempDir(),
	}
	require.NoError(t, store.Save(context.Background(), stale))

	cfg, err := store.Load(context.Background())
	require.NoError(t, err)

	assert.Nil(t, cfg.FindSource("obra-superpowers"), "deprecated source should be stripped")
	assert.NotNil(t, cfg.FindSource("my-source"), "user source should survive")
	assert.NotNil(t, cfg.FindSource("anthropics-skills"), "builtin should be re-injected")
	assert.NotNil(t, cfg.FindSource("skillsmp"))
}

func TestConfigStoreSaveRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cfg, err := store.Load(ctx)
	require.NoError(t, err)
	cfg.Installed = append(cfg.Installed, InstalledSkill{Name: "code-review", Source: "anthropics-skills", Version: "1"})
	require.NoError(t, store.Save(ctx, cfg))

	// no stray temp files left next to the manifest
	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "marketplace.json", entries[0].Name())

	reloaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, reloaded.FindInstalled("code-review"))
	assert.Equal(t, "1", reloaded.FindInstalled("code-review").Version)

	// on-disk document is valid standalone JSON
	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
}

func TestConfigStoreAddSource(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	src := Source{ID: "my-source", Name: "Mine", Kind: SourceGitHub, Owner: "me", Repo: "skills", Branch: "main", SkillsPath: "skills"}
	require.NoError(t, store.AddSource(ctx, src))

	err := store.AddSource(ctx, src)
	assert.ErrorIs(t, err, ErrDuplicateSource)

	cfg, err := store.Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, cfg.FindSource("my-source"))
}

func TestConfigStoreRemoveSource(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddSource(ctx, Source{ID: "my-source", Kind: SourceGitHub, Owner: "me", Repo: "skills"}))
	require.NoError(t, store.RemoveSource(ctx, "my-source"))

	cfg, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, cfg.FindSource("my-source"))

	err = store.RemoveSource(ctx, "my-source")
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.RemoveSource(ctx, "anthropics-skills")
	assert.ErrorIs(t, err, ErrProtectedSource, "verified sources cannot be removed")
}
