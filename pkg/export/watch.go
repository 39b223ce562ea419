package export

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillet/pkg/logger"
	"github.com/jingkaihe/skillet/pkg/skills"
)

// DefaultDebounce coalesces bursts of filesystem events per save
const DefaultDebounce = 500 * time.Millisecond

// Watch re-exports skills when their documents change on disk. It watches
// every search root and every discovered skill directory, debounces event
// bursts, and runs until the context is cancelled. A skill that fails to
// re-export is logged and retried on its next change, never fatal.
func Watch(ctx context.Context, store *skills.Store, targets []Target, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create watcher")
	}
	defer watcher.Close()

	log := logger.G(ctx)

	addWatches := func() {
		for _, root := range store.SearchPaths() {
			if err := watcher.Add(root); err != nil {
				log.WithError(err).WithField("root", root).Debug("cannot watch search root")
			}
		}
		refs, err := store.Discover(ctx)
		if err != nil {
			log.WithError(err).Warn("discovery failed while adding watches")
			return
		}
		for _, ref := range refs {
			if err := watcher.Add(ref.Directory); err != nil {
				log.WithError(err).WithField("dir", ref.Directory).Debug("cannot watch skill directory")
			}
		}
	}
	addWatches()

	dirty := make(map[string]struct{})
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != skills.SkillFileName {
				// a new skill directory may have appeared
				if event.Op&fsnotify.Create != 0 {
					addWatches()
				}
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			dirty[filepath.Dir(event.Name)] = struct{}{}
			timer.Reset(debounce)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(watchErr).Warn("watcher error")

		case <-timer.C:
			for dir := range dirty {
				exportDir(ctx, store, dir, targets)
			}
			dirty = make(map[string]struct{})
		}
	}
}

func exportDir(ctx context.Context, store *skills.Store, dir string, targets []Target) {
	log := logger.G(ctx).WithField("dir", dir)

	skill, err := store.Load(ctx, dir)
	if err != nil {
		log.WithError(err).Warn("changed skill failed to load, skipping export")
		return
	}
	if skill == nil {
		return
	}

	if err := Export(ctx, skill, targets); err != nil {
		log.WithError(err).WithField("skill", skill.Name).Warn("re-export failed")
		return
	}
	log.WithField("skill", skill.Name).Info("re-exported skill")
}
