package marketplace

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/jingkaihe/skillet/pkg/logger"
)

// DefaultSearchEndpoint is the built-in aggregator search URL
const DefaultSearchEndpoint = "https://skillsmp.com/api/v1/skills/search"

// builtinSources ship with skillet, are re-injected on every load and can
// never be removed.
func builtinSources() []Source {
	return []Source{
		{
			ID:         "anthropics-skills",
			Name:       "Anthropic Skills",
			Kind:       SourceGitHub,
			Owner:      "anthropics",
			Repo:       "skills",
			Branch:     "main",
			SkillsPath: "skills",
			Verified:   true,
		},
		{
			ID:       "skillsmp",
			Name:     "SkillsMP Search",
			Kind:     SourceAggregator,
			Endpoint: DefaultSearchEndpoint,
			Verified: true,
		},
	}
}

// deprecatedSourceIDs are stripped from persisted configs on load
var deprecatedSourceIDs = []string{"obra-superpowers"}

// ConfigStore owns the on-disk marketplace manifest. Every mutating
// operation reads, modifies and writes the whole document; there is no
// partial-field update.
type ConfigStore struct {
	path string
}

// DefaultConfigPath returns the per-user manifest location
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user home directory")
	}
	return filepath.Join(homeDir, ".skillet", "marketplace.json"), nil
}

// DefaultInstallDir returns the directory installs promote into
func DefaultInstallDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user home directory")
	}
	return filepath.Join(homeDir, ".skillet", "skills"), nil
}

// NewConfigStore creates a store persisting at the given path. An empty
// path falls back to the default per-user location.
func NewConfigStore(path string) (*ConfigStore, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}
	return &ConfigStore{path: path}, nil
}

// Path returns the manifest location
func (s *ConfigStore) Path() string {
	return s.path
}

// Load reads the manifest, lazily creating defaults when it is absent and
// degrading to defaults when it fails to parse. Built-in sources missing
// from the persisted list are re-injected and deprecated sources stripped,
// so a stale manifest heals itself on every load.
func (s *ConfigStore) Load(ctx context.Context) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(s.path)
	switch {
	case os.IsNotExist(err):
		// first run
	case err != nil:
		return nil, errors.Wrap(err, "failed to read marketplace config")
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			logger.G(ctx).WithError(err).WithField("path", s.path).Warn("marketplace config is corrupt, falling back to defaults")
			cfg = &Config{}
		}
	}

	s.heal(cfg)

	if cfg.InstallDir == "" {
		installDir, err := DefaultInstallDir()
		if err != nil {
			return nil, err
		}
		cfg.InstallDir = installDir
	}

	return cfg, nil
}

func (s *ConfigStore) heal(cfg *Config) {
	kept := cfg.Sources[:0]
	for _, src := range cfg.Sources {
		if !isDeprecated(src.ID) {
			kept = append(kept, src)
		}
	}
	cfg.Sources = kept

	for _, builtin := range builtinSources() {
		if cfg.FindSource(builtin.ID) == nil {
			cfg.Sources = append(cfg.Sources, builtin)
		}
	}
}

func isDeprecated(id string) bool {
	for _, deprecated := range deprecatedSourceIDs {
		if id == deprecated {
			return true
		}
	}
	return false
}

// Save atomically replaces the manifest with the full config, creating
// parent directories as needed.
func (s *ConfigStore) Save(_ context.Context, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode marketplace config")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".marketplace-*.json")
	if err != nil {
		return errors.Wrap(err, "failed to create temp config file")
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "failed to write marketplace config")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "failed to close temp config file")
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "failed to replace marketplace config")
	}
	return nil
}

// AddSource registers a user source and persists the manifest. The id must
// not collide with an existing source.
func (s *ConfigStore) AddSource(ctx context.Context, src Source) error {
	cfg, err := s.Load(ctx)
	if err != nil {
		return err
	}

	if cfg.FindSource(src.ID) != nil {
		return errors.Wrapf(ErrDuplicateSource, "source %q", src.ID)
	}

	cfg.Sources = append(cfg.Sources, src)
	return s.Save(ctx, cfg)
}

// RemoveSource drops a user source and persists the manifest. Verified
// sources are protected.
func (s *ConfigStore) RemoveSource(ctx context.Context, id string) error {
	cfg, err := s.Load(ctx)
	if err != nil {
		return err
	}

	src := cfg.FindSource(id)
	if src == nil {
		return errors.Wrapf(ErrNotFound, "source %q", id)
	}
	if src.Verified {
		return errors.Wrapf(ErrProtectedSource, "source %q is verified and cannot be removed", id)
	}

	kept := cfg.Sources[:0]
	for _, existing := range cfg.Sources {
		if existing.ID != id {
			kept = append(kept, existing)
		}
	}
	cfg.Sources = kept
	return s.Save(ctx, cfg)
}
