package skills

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillet/pkg/frontmatter"
	"github.com/jingkaihe/skillet/pkg/logger"
)

// SkillFileName is the fixed document name that marks a skill directory
const SkillFileName = "SKILL.md"

// DefaultMaxDepth bounds how deep discovery walks below each search root
const DefaultMaxDepth = 3

// ErrInvalidSkill indicates a document whose required metadata fields are
// missing or malformed.
var ErrInvalidSkill = errors.New("invalid skill")

// Store enumerates and loads skill documents from configured search roots
type Store struct {
	searchPaths []string
	maxDepth    int
	ignoreGlobs []string
}

// Option is a function that configures a Store
type Option func(*Store) error

// WithSearchPaths sets custom search roots
func WithSearchPaths(paths ...string) Option {
	return func(s *Store) error {
		s.searchPaths = paths
		return nil
	}
}

// WithMaxDepth bounds the discovery walk below each search root
func WithMaxDepth(depth int) Option {
	return func(s *Store) error {
		if depth < 1 {
			return errors.New("max depth must be at least 1")
		}
		s.maxDepth = depth
		return nil
	}
}

// WithIgnoreGlobs skips directories whose root-relative path matches any of
// the given doublestar patterns
func WithIgnoreGlobs(globs ...string) Option {
	return func(s *Store) error {
		s.ignoreGlobs = globs
		return nil
	}
}

// WithDefaultPaths initializes with the default search roots: the repo-local
// directory first (highest precedence), then the user-global one.
func WithDefaultPaths() Option {
	return func(s *Store) error {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "failed to get user home directory")
		}
		s.searchPaths = []string{
			"./.skillet/skills",
			filepath.Join(homeDir, ".skillet", "skills"),
		}
		return nil
	}
}

// NewStore creates a skill store. Without options it searches the default
// directories with the default depth bound.
func NewStore(opts ...Option) (*Store, error) {
	s := &Store{maxDepth: DefaultMaxDepth}

	if len(opts) == 0 {
		if err := WithDefaultPaths()(s); err != nil {
			return nil, err
		}
		return s, nil
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if len(s.searchPaths) == 0 {
		if err := WithDefaultPaths()(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// SearchPaths returns the configured search roots in precedence order
func (s *Store) SearchPaths() []string {
	return s.searchPaths
}

// Discover finds all skill documents below the search roots and returns
// level-1 references in path-encounter order. Bodies are not read. Documents
// that fail validation are skipped with a warning; a missing search root is
// skipped silently since an agent with no skills yet is not an error.
func (s *Store) Discover(ctx context.Context) ([]Ref, error) {
	var refs []Ref
	seen := make(map[string]bool)

	for _, root := range s.searchPaths {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		s.discoverFromRoot(ctx, root, seen, &refs)
	}

	return refs, nil
}

func (s *Store) discoverFromRoot(ctx context.Context, root string, seen map[string]bool, refs *[]Ref) {
	log := logger.G(ctx)

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if depth(rel) > s.maxDepth {
				return fs.SkipDir
			}
			for _, glob := range s.ignoreGlobs {
				if ok, _ := doublestar.Match(glob, filepath.ToSlash(rel)); ok {
					return fs.SkipDir
				}
			}
			return nil
		}

		if d.Name() != SkillFileName {
			return nil
		}

		ref, refErr := s.loadRef(path)
		if refErr != nil {
			log.WithError(refErr).WithField("path", path).Warn("skipping invalid skill document")
			return nil
		}

		// first root wins on duplicate names
		if !seen[ref.Name] {
			seen[ref.Name] = true
			*refs = append(*refs, *ref)
		}
		return nil
	})
}

// depth counts directory levels below the root, so "a/b" is depth 2
func depth(rel string) int {
	return strings.Count(filepath.ToSlash(rel), "/") + 1
}

// loadRef reads only the frontmatter of a skill document
func (s *Store) loadRef(path string) (*Ref, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skill file")
	}

	metaData, err := parseMetadata(content)
	if err != nil {
		return nil, err
	}

	if result := ValidateMetadata(*metaData); !result.Valid {
		return nil, errors.Wrapf(ErrInvalidSkill, "%v", result.Errors)
	}

	return &Ref{
		Name:        metaData.Name,
		Description: metaData.Description,
		Directory:   filepath.Dir(path),
	}, nil
}

// Load is level 2: it re-reads the full document including the body.
// It returns (nil, nil) when the directory holds no skill document, since
// absence is a valid outcome for optional lookups.
func (s *Store) Load(_ context.Context, dir string) (*Skill, error) {
	content, err := os.ReadFile(filepath.Join(dir, SkillFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read skill file")
	}

	doc, err := frontmatter.Parse(content)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidSkill, "%v", err)
	}
	if doc == nil {
		return nil, errors.Wrap(ErrInvalidSkill, "missing frontmatter")
	}

	var metaData Metadata
	if err := frontmatter.Decode(doc.Meta, &metaData); err != nil {
		return nil, errors.Wrapf(ErrInvalidSkill, "%v", err)
	}

	if metaData.Name == "" {
		return nil, errors.Wrap(ErrInvalidSkill, "name is required in frontmatter")
	}
	if metaData.Description == "" {
		return nil, errors.Wrap(ErrInvalidSkill, "description is required in frontmatter")
	}

	return &Skill{
		Metadata:  metaData,
		Directory: dir,
		Content:   doc.Body,
	}, nil
}

// Find discovers skills and loads the one with the given name, or (nil, nil)
// when no skill carries that name.
func (s *Store) Find(ctx context.Context, name string) (*Skill, error) {
	refs, err := s.Discover(ctx)
	if err != nil {
		return nil, err
	}

	for _, ref := range refs {
		if ref.Name == name {
			return s.Load(ctx, ref.Directory)
		}
	}
	return nil, nil
}

// ListResources enumerates the scripts/, references/ and assets/
// subdirectories of a skill, non-recursively. A missing subdirectory yields
// an empty list, never an error.
func (s *Store) ListResources(dir string) (Resources, error) {
	return Resources{
		Scripts:    listDir(filepath.Join(dir, "scripts")),
		References: listDir(filepath.Join(dir, "references")),
		Assets:     listDir(filepath.Join(dir, "assets")),
	}, nil
}

func listDir(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names
}

// parseMetadata extracts and decodes frontmatter without keeping the body
func parseMetadata(content []byte) (*Metadata, error) {
	doc, err := frontmatter.Parse(content)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("missing frontmatter")
	}

	var metaData Metadata
	if err := frontmatter.Decode(doc.Meta, &metaData); err != nil {
		return nil, err
	}
	return &metaData, nil
}
