package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "storage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, "install", "code-review", "anthropics-skills", "1"))
	require.NoError(t, store.Record(ctx, "install", "doc-formatter", "anthropics-skills", ""))
	require.NoError(t, store.Record(ctx, "uninstall", "code-review", "anthropics-skills", "1"))

	events, err := store.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, events, 3)

	for _, event := range events {
		assert.NotEmpty(t, event.ID)
		assert.False(t, event.CreatedAt.IsZero())
	}
}

func TestListFiltersBySkill(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, "install", "code-review", "anthropics-skills", "1"))
	require.NoError(t, store.Record(ctx, "install", "doc-formatter", "anthropics-skills", ""))

	events, err := store.List(ctx, ListOptions{Skill: "code-review"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "code-review", events[0].Skill)
	assert.Equal(t, "install", events[0].Action)
}

func TestListLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, "install", "code-review", "anthropics-skills", "1"))
	}

	events, err := store.List(ctx, ListOptions{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestOpenIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "storage.db")
	ctx := context.Background()

	store, err := Open(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, "install", "code-review", "", ""))
	require.NoError(t, store.Close())

	// reopening runs migrations again without error and keeps the data
	store, err = Open(ctx, dbPath)
	require.NoError(t, err)
	defer store.Close()

	events, err := store.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
