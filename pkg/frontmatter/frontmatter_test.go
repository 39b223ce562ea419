package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("header and body", func(t *testing.T) {
		content := []byte(`---
name: pdf-tools
description: Work with PDF files
license: MIT
---

# PDF Tools

Instructions here.
`)
		doc, err := Parse(content)
		require.NoError(t, err)
		require.NotNil(t, doc)
		assert.Equal(t, "pdf-tools", doc.Meta["name"])
		assert.Equal(t, "Work with PDF files", doc.Meta["description"])
		assert.Equal(t, "MIT", doc.Meta["license"])
		assert.Contains(t, doc.Body, "# PDF Tools")
		assert.Contains(t, doc.Body, "Instructions here.")
	})

	t.Run("no frontmatter returns nil", func(t *testing.T) {
		doc, err := Parse([]byte("# Just a document\n\nNo header here.\n"))
		require.NoError(t, err)
		assert.Nil(t, doc)
	})

	t.Run("empty document returns nil", func(t *testing.T) {
		doc, err := Parse([]byte(""))
		require.NoError(t, err)
		assert.Nil(t, doc)
	})

	t.Run("quoted values are unwrapped", func(t *testing.T) {
		content := []byte(`---
name: "quoted-skill"
description: 'single quoted'
---

Body.
`)
		doc, err := Parse(content)
		require.NoError(t, err)
		require.NotNil(t, doc)
		assert.Equal(t, "quoted-skill", doc.Meta["name"])
		assert.Equal(t, "single quoted", doc.Meta["description"])
	})

	t.Run("nested metadata map", func(t *testing.T) {
		content := []byte(`---
name: nested-skill
description: Has a nested map
metadata:
  author: jane
  category: docs
---

Body.
`)
		doc, err := Parse(content)
		require.NoError(t, err)
		require.NotNil(t, doc)

		nested, ok := doc.Meta["metadata"].(map[interface{}]interface{})
		require.True(t, ok, "metadata should decode as a map")
		assert.Equal(t, "jane", nested["author"])
		assert.Equal(t, "docs", nested["category"])
	})

	t.Run("malformed nesting is an error", func(t *testing.T) {
		content := []byte("---\nname: broken\n  bad: [unclosed\n---\n\nBody.\n")
		doc, err := Parse(content)
		assert.Error(t, err)
		assert.Nil(t, doc)
	})
}

func TestDecode(t *testing.T) {
	type target struct {
		Name        string            `yaml:"name"`
		Description string            `yaml:"description"`
		Metadata    map[string]string `yaml:"metadata"`
	}

	t.Run("decodes into struct", func(t *testing.T) {
		metaData := map[string]interface{}{
			"name":        "demo",
			"description": "a demo",
			"metadata":    map[interface{}]interface{}{"author": "jane"},
		}

		var out target
		require.NoError(t, Decode(metaData, &out))
		assert.Equal(t, "demo", out.Name)
		assert.Equal(t, "a demo", out.Description)
		assert.Equal(t, "jane", out.Metadata["author"])
	})

	t.Run("ignores unknown keys", func(t *testing.T) {
		metaData := map[string]interface{}{
			"name":       "demo",
			"unexpected": "value",
		}

		var out target
		require.NoError(t, Decode(metaData, &out))
		assert.Equal(t, "demo", out.Name)
	})
}

func TestCompose(t *testing.T) {
	metaData := map[string]string{
		"name":        "demo",
		"description": "a demo skill",
	}

	out, err := Compose(metaData, "# Demo\n\nBody text.")
	require.NoError(t, err)

	doc, err := Parse(out)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "demo", doc.Meta["name"])
	assert.Equal(t, "a demo skill", doc.Meta["description"])
	assert.Contains(t, doc.Body, "# Demo")
}
