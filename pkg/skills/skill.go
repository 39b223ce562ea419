// Package skills implements the local skill model: typed metadata, the
// naming/length validation rules, and a store that discovers and loads
// SKILL.md documents from configured search roots. Skills are packaged as
// directories containing a SKILL.md file with YAML frontmatter plus optional
// scripts/, references/ and assets/ subdirectories.
package skills

// Metadata represents the YAML frontmatter of a SKILL.md file. Name and
// description are always present once a document is considered a valid
// skill; everything else is optional.
type Metadata struct {
	Name          string            `yaml:"name" json:"name"`
	Description   string            `yaml:"description" json:"description"`
	License       string            `yaml:"license,omitempty" json:"license,omitempty"`
	Compatibility string            `yaml:"compatibility,omitempty" json:"compatibility,omitempty"`
	AllowedTools  string            `yaml:"allowed-tools,omitempty" json:"allowedTools,omitempty"`
	Metadata      map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Skill is a fully loaded skill: metadata plus the instruction body. The
// body is immutable once loaded; reloading re-reads from the file.
type Skill struct {
	Metadata
	// Directory is the full path to the directory owning the SKILL.md
	Directory string `json:"directory"`
	// Content is the body of SKILL.md with the frontmatter stripped
	Content string `json:"content"`
}

// Ref is a lightweight reference produced during discovery, before the body
// is read. Loading is two-level: discovery yields refs, activation loads the
// full skill, so bodies that are never used are never read.
type Ref struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Directory   string `json:"directory"`
}

// Resources lists the bundled resource files of a skill directory.
type Resources struct {
	Scripts    []string `json:"scripts"`
	References []string `json:"references"`
	Assets     []string `json:"assets"`
}
