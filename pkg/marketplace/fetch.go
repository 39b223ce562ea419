package marketplace

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/pkg/errors"

	"github.com/jingkaihe/skillet/pkg/github"
	"github.com/jingkaihe/skillet/pkg/logger"
)

// SubtreeFetcher materializes one skill subtree of a remote repository into
// a local directory. Cost must be proportional to the subtree, never to the
// repository: implementations restrict retrieval to the given path and the
// latest revision of the branch.
type SubtreeFetcher interface {
	FetchSubtree(ctx context.Context, source Source, subPath, dest string) error
}

// NewSubtreeFetcher picks the cheapest available implementation: sparse git
// fetches when a git binary is on PATH, the contents API otherwise.
func NewSubtreeFetcher(gh *github.Client) SubtreeFetcher {
	if _, err := exec.LookPath("git"); err == nil {
		return &GitFetcher{api: &APIFetcher{gh: gh}}
	}
	return &APIFetcher{gh: gh}
}

// GitFetcher stages a subtree with a sparse, depth-1 git fetch: an empty
// repository is initialized at dest, pointed at the remote, restricted to
// the skill's path, and only the tip of the target branch is downloaded.
type GitFetcher struct {
	// api handles sources the git path cannot, kept as fallback
	api *APIFetcher
}

// FetchSubtree implements SubtreeFetcher
func (f *GitFetcher) FetchSubtree(ctx context.Context, source Source, subPath, dest string) error {
	log := logger.G(ctx).WithField("source", source.ID).WithField("path", subPath)

	remote := fmt.Sprintf("https://github.com/%s/%s.git", source.Owner, source.Repo)
	branch := source.Branch
	if branch == "" {
		branch = "main"
	}

	steps := [][]string{
		{"init", "--quiet", dest},
		{"-C", dest, "remote", "add", "origin", remote},
		{"-C", dest, "sparse-checkout", "init", "--cone"},
		{"-C", dest, "sparse-checkout", "set", subPath},
		{"-C", dest, "fetch", "--quiet", "--depth", "1", "origin", branch},
		{"-C", dest, "checkout", "--quiet", "FETCH_HEAD"},
	}

	for _, args := range steps {
		cmd := exec.CommandContext(ctx, "git", args...)
		if output, err := cmd.CombinedOutput(); err != nil {
			log.WithError(err).WithField("args", args).Debug("git sparse fetch failed, falling back to contents API")
			if f.api != nil {
				return f.api.FetchSubtree(ctx, source, subPath, dest)
			}
			return errors.Wrapf(err, "git %v failed: %s", args, string(output))
		}
	}
	return nil
}

// APIFetcher stages a subtree by walking the contents API file by file
type APIFetcher struct {
	gh *github.Client
}

// FetchSubtree implements SubtreeFetcher
func (f *APIFetcher) FetchSubtree(ctx context.Context, source Source, subPath, dest string) error {
	branch := source.Branch
	if branch == "" {
		branch = "main"
	}

	// mirror the repository layout below dest so both fetchers land the
	// subtree at dest/subPath
	target := dest + "/" + subPath
	if err := f.gh.DownloadTree(ctx, source.Owner, source.Repo, branch, subPath, target); err != nil {
		return errors.Wrapf(ErrRemoteUnavailable, "failed to download %s from %s/%s: %v", subPath, source.Owner, source.Repo, err)
	}
	return nil
}
