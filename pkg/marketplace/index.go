package marketplace

import (
	"context"
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/jingkaihe/skillet/pkg/frontmatter"
	"github.com/jingkaihe/skillet/pkg/logger"
	"github.com/jingkaihe/skillet/pkg/skills"
)

// GenerateIndex scans a local checkout of a source repository and produces
// the skills-index.json manifest that lets consumers list the source in a
// single network call. root is the repository root on disk, skillsPath the
// repository-relative directory holding skill subdirectories. Entries are
// sorted by name so regeneration is deterministic.
func GenerateIndex(ctx context.Context, root, skillsPath string) (*Index, error) {
	skillsDir := filepath.Join(root, filepath.FromSlash(skillsPath))

	entries, err := os.ReadDir(skillsDir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read skills directory %s", skillsDir)
	}

	index := &Index{Skills: []IndexEntry{}}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		log := logger.G(ctx).WithField("dir", entry.Name())

		content, err := os.ReadFile(filepath.Join(skillsDir, entry.Name(), skills.SkillFileName))
		if err != nil {
			log.Debug("no skill document, skipping")
			continue
		}

		doc, err := frontmatter.Parse(content)
		if err != nil || doc == nil {
			log.Warn("skill document has no parseable frontmatter, skipping")
			continue
		}

		var meta skills.Metadata
		if err := frontmatter.Decode(doc.Meta, &meta); err != nil {
			log.WithError(err).Warn("failed to decode skill frontmatter, skipping")
			continue
		}
		if meta.Name == "" || meta.Description == "" {
			log.Warn("skill document is missing required fields, skipping")
			continue
		}

		index.Skills = append(index.Skills, IndexEntry{
			Name:        meta.Name,
			Description: meta.Description,
			Path:        path.Join(skillsPath, entry.Name()),
			License:     meta.License,
			Author:      meta.Metadata["author"],
			Version:     meta.Metadata["version"],
		})
	}

	sort.Slice(index.Skills, func(i, j int) bool {
		return index.Skills[i].Name < index.Skills[j].Name
	})
	return index, nil
}

// WriteIndex persists the index at its conventional location below the
// skills path.
func WriteIndex(root, skillsPath string, index *Index) (string, error) {
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to encode index")
	}
	data = append(data, '\n')

	indexPath := filepath.Join(root, filepath.FromSlash(skillsPath), IndexFileName)
	if err := os.WriteFile(indexPath, data, 0o644); err != nil {
		return "", errors.Wrap(err, "failed to write index")
	}
	return indexPath, nil
}
