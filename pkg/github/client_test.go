package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(context.Background(), "",
		WithRawHost(server.URL),
		WithAPIBaseURL(server.URL),
	)
}

func TestRawURL(t *testing.T) {
	client := NewClient(context.Background(), "")
	url := client.RawURL("anthropics", "skills", "main", "skills/pdf/SKILL.md")
	assert.Equal(t, "https://raw.githubusercontent.com/anthropics/skills/main/skills/pdf/SKILL.md", url)

	// leading slashes in the path do not double up
	url = client.RawURL("anthropics", "skills", "main", "/skills/pdf/SKILL.md")
	assert.Equal(t, "https://raw.githubusercontent.com/anthropics/skills/main/skills/pdf/SKILL.md", url)
}

func TestFetchRaw(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/anthropics/skills/main/skills/pdf/SKILL.md", r.URL.Path)
		w.Write([]byte("document body"))
	}))

	content, err := client.FetchRaw(context.Background(), "anthropics", "skills", "main", "skills/pdf/SKILL.md")
	require.NoError(t, err)
	assert.Equal(t, "document body", string(content))
}

func TestFetchRawNotFoundDoesNotRetry(t *testing.T) {
	var hits atomic.Int64
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))

	_, err := client.FetchRaw(context.Background(), "anthropics", "skills", "main", "missing.md")
	require.Error(t, err)
	assert.Equal(t, int64(1), hits.Load(), "a missing file is definite, not transient")
}

func TestFetchRawRetriesTransientFailures(t *testing.T) {
	var hits atomic.Int64
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		w.Write([]byte("eventually"))
	}))

	content, err := client.FetchRaw(context.Background(), "anthropics", "skills", "main", "flaky.md")
	require.NoError(t, err)
	assert.Equal(t, "eventually", string(content))
	assert.Equal(t, int64(3), hits.Load())
}

func TestListDirectory(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/anthropics/skills/contents/skills", r.URL.Path)
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"name":"pdf","path":"skills/pdf","type":"dir"},
			{"name":"README.md","path":"skills/README.md","type":"file"}
		]`))
	}))

	entries, err := client.ListDirectory(context.Background(), "anthropics", "skills", "skills", "main")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Name: "pdf", Path: "skills/pdf", Type: "dir"}, entries[0])
	assert.Equal(t, "file", entries[1].Type)
}

func TestDownloadTree(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/anthropics/skills/contents/skills/pdf":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[
				{"name":"SKILL.md","path":"skills/pdf/SKILL.md","type":"file"},
				{"name":"scripts","path":"skills/pdf/scripts","type":"dir"}
			]`))
		case "/repos/anthropics/skills/contents/skills/pdf/scripts":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[{"name":"fill.py","path":"skills/pdf/scripts/fill.py","type":"file"}]`))
		case "/anthropics/skills/main/skills/pdf/SKILL.md":
			w.Write([]byte("doc"))
		case "/anthropics/skills/main/skills/pdf/scripts/fill.py":
			w.Write([]byte("print('hi')"))
		default:
			http.NotFound(w, r)
		}
	}))

	dest := filepath.Join(t.TempDir(), "pdf")
	require.NoError(t, client.DownloadTree(context.Background(), "anthropics", "skills", "main", "skills/pdf", dest))

	doc, err := os.ReadFile(filepath.Join(dest, "SKILL.md"))
	require.NoError(t, err)
	assert.Equal(t, "doc", string(doc))
	assert.FileExists(t, filepath.Join(dest, "scripts", "fill.py"))
}

func TestSkillDocPath(t *testing.T) {
	assert.Equal(t, "skills/pdf/SKILL.md", SkillDocPath("skills", "pdf", "SKILL.md"))
}
