// Package marketplace implements the synchronization and install pipeline
// for remote skill sources: listing skills from GitHub repositories and the
// search aggregator, caching listings, resolving names to remote artifacts,
// staging and validating installs, and keeping the persisted manifest
// consistent with what is on disk.
package marketplace

import "time"

// SourceKind distinguishes repository sources from the paginated search
// aggregator. The two must never be conflated: a repository listing is
// exhaustive, an aggregator page is not.
type SourceKind string

const (
	// SourceGitHub is a plain GitHub repository holding skill directories
	SourceGitHub SourceKind = "github"
	// SourceAggregator is the paginated search API
	SourceAggregator SourceKind = "aggregator"
)

// Source is a registered remote location skills can be listed from. ID is
// the join key for caching and manifest lookups and must stay stable for
// the source's lifetime.
type Source struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Kind       SourceKind `json:"kind"`
	Owner      string     `json:"owner,omitempty"`
	Repo       string     `json:"repo,omitempty"`
	Branch     string     `json:"branch,omitempty"`
	SkillsPath string     `json:"skillsPath,omitempty"`
	// Endpoint is the search URL for aggregator sources
	Endpoint string `json:"endpoint,omitempty"`
	// Verified sources ship built in and cannot be removed
	Verified bool `json:"verified"`
}

// CacheKey identifies a source's listing in the marketplace cache
func (s Source) CacheKey() string {
	if s.Kind == SourceAggregator {
		return "aggregator:" + s.ID
	}
	return s.Owner + "/" + s.Repo
}

// Candidate is a remote skill that has not been materialized locally.
// Each retrieval strategy produces its own variant carrying exactly the
// fields that strategy can supply.
type Candidate interface {
	// CandidateName is the unique skill name used for resolution
	CandidateName() string
	// CandidateDescription is the human-readable summary
	CandidateDescription() string
	// CandidateVersion is the remote version string, empty when the
	// source does not report one
	CandidateVersion() string
	// SourceID is the id of the source that listed this candidate
	SourceID() string
}

// IndexedCandidate came from a source's precomputed skills-index.json and
// is accepted verbatim.
type IndexedCandidate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// Path is the skill directory relative to the repository root
	Path    string `json:"path"`
	License string `json:"license,omitempty"`
	Author  string `json:"author,omitempty"`
	Version string `json:"version,omitempty"`
	Source  string `json:"source"`
}

func (c IndexedCandidate) CandidateName() string        { return c.Name }
func (c IndexedCandidate) CandidateDescription() string { return c.Description }
func (c IndexedCandidate) CandidateVersion() string     { return c.Version }
func (c IndexedCandidate) SourceID() string             { return c.Source }

// ListedCandidate came from a contents-API directory listing with its
// frontmatter fetched individually.
type ListedCandidate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Path        string `json:"path"`
	License     string `json:"license,omitempty"`
	Version     string `json:"version,omitempty"`
	Source      string `json:"source"`
}

func (c ListedCandidate) CandidateName() string        { return c.Name }
func (c ListedCandidate) CandidateDescription() string { return c.Description }
func (c ListedCandidate) CandidateVersion() string     { return c.Version }
func (c ListedCandidate) SourceID() string             { return c.Source }

// SearchCandidate came from an aggregator search page and carries the
// canonical content URL its document is fetched from.
type SearchCandidate struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ContentURL  string   `json:"contentUrl"`
	Author      string   `json:"author,omitempty"`
	Version     string   `json:"version,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Stars       int      `json:"stars,omitempty"`
	Source      string   `json:"source"`
}

func (c SearchCandidate) CandidateName() string        { return c.Name }
func (c SearchCandidate) CandidateDescription() string { return c.Description }
func (c SearchCandidate) CandidateVersion() string     { return c.Version }
func (c SearchCandidate) SourceID() string             { return c.Source }

// InstalledSkill is the manifest record of one installed skill. Name is
// unique within the manifest.
type InstalledSkill struct {
	Name        string    `json:"name"`
	LocalPath   string    `json:"localPath"`
	Source      string    `json:"source"`
	RemotePath  string    `json:"remotePath,omitempty"`
	Version     string    `json:"version,omitempty"`
	InstalledAt time.Time `json:"installedAt"`
	LastChecked time.Time `json:"lastChecked,omitempty"`
}

// Config is the single persisted marketplace document: registered sources,
// installed skills and the install directory. The ConfigStore owns its
// on-disk representation; everyone else mutates a loaded copy and routes it
// back through Save.
type Config struct {
	Sources    []Source         `json:"sources"`
	Installed  []InstalledSkill `json:"installed"`
	InstallDir string           `json:"installDir"`
}

// FindSource returns the source with the given id, or nil
func (c *Config) FindSource(id string) *Source {
	for i := range c.Sources {
		if c.Sources[i].ID == id {
			return &c.Sources[i]
		}
	}
	return nil
}

// FindInstalled returns the installed entry with the given name, or nil
func (c *Config) FindInstalled(name string) *InstalledSkill {
	for i := range c.Installed {
		if c.Installed[i].Name == name {
			return &c.Installed[i]
		}
	}
	return nil
}

// UpdateStatus is the result of comparing one installed skill against its
// source's current listing.
type UpdateStatus struct {
	Name           string `json:"name"`
	Source         string `json:"source"`
	CurrentVersion string `json:"currentVersion"`
	LatestVersion  string `json:"latestVersion"`
	HasUpdate      bool   `json:"hasUpdate"`
}
