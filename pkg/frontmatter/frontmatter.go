// Package frontmatter parses and composes the YAML header block of skill
// documents. A document starts with a `---` marker line, carries `key: value`
// pairs (nested maps are allowed one level down, used for the open metadata
// map), and closes with a second marker line followed by the body.
package frontmatter

import (
	"bytes"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
	"gopkg.in/yaml.v3"
)

const marker = "---"

// Document is the result of splitting a skill file into its header and body.
type Document struct {
	// Meta holds the decoded header values. Scalar values are strings with
	// surrounding quotes already unwrapped by the YAML layer.
	Meta map[string]interface{}
	// Body is the instruction text following the closing marker, with
	// leading blank lines trimmed.
	Body string
}

// Parse splits raw document text into header and body. It returns (nil, nil)
// when the document has no opening marker: an unparsed document has no
// metadata, it is not an error. Malformed YAML nesting inside the header
// yields an explicit error.
func Parse(content []byte) (*Document, error) {
	if !bytes.HasPrefix(content, []byte(marker)) {
		return nil, nil
	}

	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()

	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return nil, errors.Wrap(err, "failed to parse document")
	}

	metaData, err := meta.TryGet(pctx)
	if err != nil {
		return nil, errors.Wrap(err, "malformed frontmatter")
	}
	if metaData == nil {
		return nil, nil
	}

	return &Document{
		Meta: metaData,
		Body: extractBody(string(content)),
	}, nil
}

// Decode maps the raw header values onto a typed struct using mapstructure
// field tags. Unknown keys are ignored, mismatched value types are an error.
func Decode(metaData map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "yaml",
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(metaData); err != nil {
		return errors.Wrap(err, "failed to decode frontmatter")
	}
	return nil
}

// Compose is the inverse of Parse: it renders a header block from the given
// values and appends the body. Used when exporting skills into agent layouts
// and when generating index entries.
func Compose(metaData interface{}, body string) ([]byte, error) {
	encoded, err := yaml.Marshal(metaData)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode frontmatter")
	}

	var buf bytes.Buffer
	buf.WriteString(marker + "\n")
	buf.Write(encoded)
	buf.WriteString(marker + "\n\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// extractBody strips the header block and returns the remaining text
func extractBody(content string) string {
	lines := strings.Split(content, "\n")
	end := -1

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == marker {
			end = i
			break
		}
	}

	if end == -1 {
		return content
	}

	return strings.TrimLeft(strings.Join(lines[end+1:], "\n"), "\n")
}
