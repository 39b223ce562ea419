package main

import (
	"context"
	"time"

	"github.com/jingkaihe/skillet/pkg/github"
	"github.com/jingkaihe/skillet/pkg/history"
	"github.com/jingkaihe/skillet/pkg/logger"
	"github.com/jingkaihe/skillet/pkg/marketplace"
)

// newMarketplace wires the shared marketplace dependencies for a command
// invocation.
func newMarketplace(ctx context.Context) (*marketplace.ConfigStore, *marketplace.Resolver, *github.Client, error) {
	store, err := marketplace.NewConfigStore("")
	if err != nil {
		return nil, nil, nil, err
	}

	gh := github.NewClient(ctx, githubToken())
	resolver := marketplace.NewResolver(gh, nil, marketplace.NewCache(5*time.Minute))
	return store, resolver, gh, nil
}

// newInstaller builds the install orchestrator, attaching the history log
// when it opens. A failed history open degrades to no audit logging.
func newInstaller(ctx context.Context) (*marketplace.Installer, func(), error) {
	store, resolver, gh, err := newMarketplace(ctx)
	if err != nil {
		return nil, nil, err
	}

	opts := []marketplace.InstallerOption{}
	cleanup := func() {}

	if events, err := history.Open(ctx, ""); err != nil {
		logger.G(ctx).WithError(err).Warn("history log unavailable, events will not be recorded")
	} else {
		opts = append(opts, marketplace.WithEventRecorder(events))
		cleanup = func() { events.Close() }
	}

	return marketplace.NewInstaller(store, resolver, gh, opts...), cleanup, nil
}
