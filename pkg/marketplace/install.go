package marketplace

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aymanbagabas/go-udiff"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jingkaihe/skillet/pkg/frontmatter"
	"github.com/jingkaihe/skillet/pkg/github"
	"github.com/jingkaihe/skillet/pkg/logger"
	"github.com/jingkaihe/skillet/pkg/skills"
	"github.com/jingkaihe/skillet/pkg/telemetry"
)

// EventRecorder receives install lifecycle events for the audit log.
// Recording failures are logged and never fail the primary operation.
type EventRecorder interface {
	Record(ctx context.Context, action, skill, source, version string) error
}

// Installer drives the install state machine: resolve, conflict check,
// stage, promote, validate, record, cleanup. Terminal on success or the
// first unrecoverable error, with nothing partially installed left behind.
type Installer struct {
	store    *ConfigStore
	resolver *Resolver
	fetcher  SubtreeFetcher
	gh       *github.Client
	history  EventRecorder
}

// InstallerOption configures an Installer
type InstallerOption func(*Installer)

// WithEventRecorder attaches an audit log
func WithEventRecorder(recorder EventRecorder) InstallerOption {
	return func(i *Installer) {
		i.history = recorder
	}
}

// WithSubtreeFetcher overrides the staging mechanism, used by tests
func WithSubtreeFetcher(fetcher SubtreeFetcher) InstallerOption {
	return func(i *Installer) {
		i.fetcher = fetcher
	}
}

// NewInstaller wires the orchestrator
func NewInstaller(store *ConfigStore, resolver *Resolver, gh *github.Client, opts ...InstallerOption) *Installer {
	installer := &Installer{
		store:    store,
		resolver: resolver,
		gh:       gh,
	}
	for _, opt := range opts {
		opt(installer)
	}
	if installer.fetcher == nil {
		installer.fetcher = NewSubtreeFetcher(gh)
	}
	return installer
}

// InstallOptions scopes an install request
type InstallOptions struct {
	// SourceID restricts resolution to one source; empty searches all
	SourceID string
}

// Install resolves a skill name to one remote artifact, stages it, validates
// it and promotes it into the install directory, updating the manifest.
func (i *Installer) Install(ctx context.Context, name string, opts InstallOptions) (*InstalledSkill, error) {
	var installed *InstalledSkill

	err := telemetry.WithSpan(ctx, "marketplace.install", func(ctx context.Context) error {
		result, err := i.install(ctx, name, opts)
		installed = result
		return err
	}, attribute.String("skill", name))

	return installed, err
}

func (i *Installer) install(ctx context.Context, name string, opts InstallOptions) (*InstalledSkill, error) {
	log := logger.G(ctx).WithField("skill", name)

	cfg, err := i.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	// conflict check before any network traffic; installs are not upgrades
	if cfg.FindInstalled(name) != nil {
		return nil, errors.Wrapf(ErrAlreadyInstalled, "skill %q", name)
	}

	candidate, source, err := i.resolve(ctx, cfg, name, opts)
	if err != nil {
		return nil, err
	}

	stagingRoot, err := os.MkdirTemp("", "skillet-install-*")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create staging directory")
	}
	// cleanup is unconditional and best-effort: a cleanup failure must not
	// mask the primary result
	defer func() {
		if err := os.RemoveAll(stagingRoot); err != nil {
			log.WithError(err).Warn("failed to clean up staging directory")
		}
	}()

	staged, err := i.stage(ctx, source, candidate, filepath.Join(stagingRoot, uuid.NewString()))
	if err != nil {
		return nil, err
	}

	installDir := filepath.Join(cfg.InstallDir, name)
	if err := copyDir(staged, installDir); err != nil {
		return nil, errors.Wrap(err, "failed to promote staged skill")
	}

	if err := i.validatePromoted(ctx, installDir); err != nil {
		// roll back the filesystem change before surfacing the error
		if rmErr := os.RemoveAll(installDir); rmErr != nil {
			log.WithError(rmErr).Warn("failed to roll back invalid install")
		}
		return nil, err
	}

	entry := InstalledSkill{
		Name:        name,
		LocalPath:   installDir,
		Source:      candidate.SourceID(),
		RemotePath:  remotePathOf(candidate),
		Version:     candidate.CandidateVersion(),
		InstalledAt: time.Now().UTC(),
	}
	cfg.Installed = append(cfg.Installed, entry)
	if err := i.store.Save(ctx, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to persist manifest")
	}

	i.record(ctx, "install", name, entry.Source, entry.Version)
	log.WithField("dir", installDir).Info("installed skill")
	return &entry, nil
}

// resolve finds exactly one candidate whose name matches
func (i *Installer) resolve(ctx context.Context, cfg *Config, name string, opts InstallOptions) (Candidate, *Source, error) {
	sources := cfg.Sources
	if opts.SourceID != "" {
		src := cfg.FindSource(opts.SourceID)
		if src == nil {
			return nil, nil, errors.Wrapf(ErrNotFound, "source %q", opts.SourceID)
		}
		sources = []Source{*src}
	}

	for _, source := range sources {
		var candidates []Candidate
		switch source.Kind {
		case SourceGitHub:
			listed, err := i.resolver.List(ctx, source)
			if err != nil {
				logger.G(ctx).WithError(err).WithField("source", source.ID).Warn("skipping unreachable source")
				continue
			}
			candidates = listed
		case SourceAggregator:
			result, err := i.resolver.Search(ctx, source, SearchQuery{Search: name, Limit: 50})
			if err != nil {
				logger.G(ctx).WithError(err).WithField("source", source.ID).Warn("skipping unreachable source")
				continue
			}
			for _, sc := range result.Skills {
				candidates = append(candidates, sc)
			}
		}

		for _, candidate := range candidates {
			if candidate.CandidateName() == name {
				src := source
				return candidate, &src, nil
			}
		}
	}

	return nil, nil, errors.Wrapf(ErrNotFound, "skill %q not found in any registered source", name)
}

// stage materializes the candidate below dest and returns the directory
// holding its SKILL.md.
func (i *Installer) stage(ctx context.Context, source *Source, candidate Candidate, dest string) (string, error) {
	switch c := candidate.(type) {
	case IndexedCandidate:
		if err := i.fetcher.FetchSubtree(ctx, *source, c.Path, dest); err != nil {
			return "", err
		}
		return filepath.Join(dest, filepath.FromSlash(c.Path)), nil
	case ListedCandidate:
		if err := i.fetcher.FetchSubtree(ctx, *source, c.Path, dest); err != nil {
			return "", err
		}
		return filepath.Join(dest, filepath.FromSlash(c.Path)), nil
	case SearchCandidate:
		// aggregator results carry a canonical content URL for the
		// document itself; there is no subtree to fetch
		content, err := i.gh.FetchURL(ctx, c.ContentURL)
		if err != nil {
			return "", errors.Wrapf(ErrRemoteUnavailable, "failed to fetch %s: %v", c.ContentURL, err)
		}
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return "", errors.Wrap(err, "failed to create staging directory")
		}
		docPath := filepath.Join(dest, skills.SkillFileName)
		if err := os.WriteFile(docPath, content, 0o644); err != nil {
			return "", errors.Wrap(err, "failed to write staged document")
		}
		return dest, nil
	default:
		return "", errors.Errorf("unsupported candidate type %T", candidate)
	}
}

// validatePromoted re-runs metadata validation against the promoted copy
func (i *Installer) validatePromoted(ctx context.Context, dir string) error {
	content, err := os.ReadFile(filepath.Join(dir, skills.SkillFileName))
	if err != nil {
		return errors.Wrapf(ErrInvalidInstall, "promoted skill has no %s: %v", skills.SkillFileName, err)
	}

	doc, err := frontmatter.Parse(content)
	if err != nil || doc == nil {
		return errors.Wrap(ErrInvalidInstall, "promoted skill has no parseable frontmatter")
	}

	var meta skills.Metadata
	if err := frontmatter.Decode(doc.Meta, &meta); err != nil {
		return errors.Wrapf(ErrInvalidInstall, "%v", err)
	}

	if result := skills.ValidateMetadata(meta); !result.Valid {
		return errors.Wrapf(ErrInvalidInstall, "%v", result.Errors)
	}

	for _, warning := range skills.ValidateContent(doc.Body).Warnings {
		logger.G(ctx).WithField("dir", dir).Warn(warning)
	}
	return nil
}

// Uninstall removes the install directory (idempotent if already absent),
// drops the manifest entry and persists.
func (i *Installer) Uninstall(ctx context.Context, name string) error {
	cfg, err := i.store.Load(ctx)
	if err != nil {
		return err
	}

	entry := cfg.FindInstalled(name)
	if entry == nil {
		return errors.Wrapf(ErrNotInstalled, "skill %q", name)
	}

	if err := os.RemoveAll(entry.LocalPath); err != nil {
		return errors.Wrapf(err, "failed to remove %s", entry.LocalPath)
	}

	kept := cfg.Installed[:0]
	for _, existing := range cfg.Installed {
		if existing.Name != name {
			kept = append(kept, existing)
		}
	}
	cfg.Installed = kept

	if err := i.store.Save(ctx, cfg); err != nil {
		return errors.Wrap(err, "failed to persist manifest")
	}

	i.record(ctx, "uninstall", name, entry.Source, entry.Version)
	return nil
}

// CheckUpdates re-resolves each installed skill's source and compares
// version strings. A remote without a version is never an update signal;
// unreachable sources are skipped per entry, not fatal to the scan.
func (i *Installer) CheckUpdates(ctx context.Context) ([]UpdateStatus, error) {
	cfg, err := i.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	var statuses []UpdateStatus
	now := time.Now().UTC()

	for idx := range cfg.Installed {
		entry := &cfg.Installed[idx]
		if entry.Source == "" {
			continue
		}

		source := cfg.FindSource(entry.Source)
		if source == nil {
			logger.G(ctx).WithField("skill", entry.Name).WithField("source", entry.Source).Warn("installed skill references an unregistered source")
			continue
		}

		candidate, err := i.lookupRemote(ctx, *source, entry.Name)
		if err != nil {
			logger.G(ctx).WithError(err).WithField("source", source.ID).Warn("skipping unreachable source during update check")
			continue
		}
		if candidate == nil {
			continue
		}

		latest := candidate.CandidateVersion()
		statuses = append(statuses, UpdateStatus{
			Name:           entry.Name,
			Source:         entry.Source,
			CurrentVersion: entry.Version,
			LatestVersion:  latest,
			HasUpdate:      latest != "" && latest != entry.Version,
		})
		entry.LastChecked = now
	}

	if err := i.store.Save(ctx, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to persist manifest")
	}
	return statuses, nil
}

func (i *Installer) lookupRemote(ctx context.Context, source Source, name string) (Candidate, error) {
	switch source.Kind {
	case SourceAggregator:
		result, err := i.resolver.Search(ctx, source, SearchQuery{Search: name, Limit: 50})
		if err != nil {
			return nil, err
		}
		for _, sc := range result.Skills {
			if sc.Name == name {
				return sc, nil
			}
		}
	default:
		candidates, err := i.resolver.List(ctx, source)
		if err != nil {
			return nil, err
		}
		for _, candidate := range candidates {
			if candidate.CandidateName() == name {
				return candidate, nil
			}
		}
	}
	return nil, nil
}

// Diff fetches the remote document of an installed skill and returns a
// unified diff against the local copy. An empty string means no drift.
func (i *Installer) Diff(ctx context.Context, name string) (string, error) {
	cfg, err := i.store.Load(ctx)
	if err != nil {
		return "", err
	}

	entry := cfg.FindInstalled(name)
	if entry == nil {
		return "", errors.Wrapf(ErrNotInstalled, "skill %q", name)
	}

	local, err := os.ReadFile(filepath.Join(entry.LocalPath, skills.SkillFileName))
	if err != nil {
		return "", errors.Wrapf(err, "failed to read installed skill %q", name)
	}

	source := cfg.FindSource(entry.Source)
	if source == nil {
		return "", errors.Wrapf(ErrNotFound, "source %q", entry.Source)
	}

	remote, err := i.gh.FetchRaw(ctx, source.Owner, source.Repo, source.Branch, entry.RemotePath+"/"+skills.SkillFileName)
	if err != nil {
		return "", errors.Wrapf(ErrRemoteUnavailable, "failed to fetch remote document: %v", err)
	}

	return udiff.Unified("installed/"+name, entry.Source+"/"+name, string(local), string(remote)), nil
}

func (i *Installer) record(ctx context.Context, action, skill, source, version string) {
	if i.history == nil {
		return
	}
	if err := i.history.Record(ctx, action, skill, source, version); err != nil {
		logger.G(ctx).WithError(err).Warn("failed to record history event")
	}
}

// remotePathOf extracts the repository-relative path a candidate was listed
// under; search results have none.
func remotePathOf(candidate Candidate) string {
	switch c := candidate.(type) {
	case IndexedCandidate:
		return c.Path
	case ListedCandidate:
		return c.Path
	default:
		return ""
	}
}

// copyDir replicates a directory tree, preserving file modes
func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		destPath := filepath.Join(dst, relPath)
		if info.IsDir() {
			return os.MkdirAll(destPath, info.Mode())
		}
		return copyFile(path, destPath)
	})
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode())
	if err != nil {
		return err
	}
	defer dstFile.Close()

	_, err = io.Copy(dstFile, srcFile)
	return err
}
