// Package github wraps the GitHub API and raw-content conventions used by
// skill sources: directory listings through the contents API, direct
// document fetches through the raw host, and subtree downloads used for
// staging installs.
package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	gogithub "github.com/google/go-github/v57/github"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/jingkaihe/skillet/pkg/logger"
)

const (
	defaultRawHost = "https://raw.githubusercontent.com"

	requestTimeout = 30 * time.Second
	fetchAttempts  = 3
)

// Entry is one item of a contents API directory listing
type Entry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
}

// Client wraps the GitHub API client with raw-content fetching
type Client struct {
	api        *gogithub.Client
	httpClient *http.Client
	rawHost    string
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithRawHost overrides the raw-content host, used by tests
func WithRawHost(host string) ClientOption {
	return func(c *Client) {
		c.rawHost = strings.TrimRight(host, "/")
	}
}

// WithAPIBaseURL overrides the API base URL, used by tests
func WithAPIBaseURL(base string) ClientOption {
	return func(c *Client) {
		if u, err := url.Parse(strings.TrimRight(base, "/") + "/"); err == nil {
			c.api.BaseURL = u
		}
	}
}

// NewClient creates a GitHub client. An empty token falls back to
// unauthenticated access with restricted rate limits.
func NewClient(ctx context.Context, token string, opts ...ClientOption) *Client {
	log := logger.G(ctx)

	httpClient := &http.Client{Timeout: requestTimeout}

	var apiHTTP *http.Client
	if token == "" {
		log.Debug("no GitHub token provided, API rate limits will be restricted")
	} else {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		apiHTTP = oauth2.NewClient(ctx, ts)
		apiHTTP.Timeout = requestTimeout
	}

	c := &Client{
		api:        gogithub.NewClient(apiHTTP),
		httpClient: httpClient,
		rawHost:    defaultRawHost,
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListDirectory lists the entries below a repository path at the given ref
// via the contents API.
func (c *Client) ListDirectory(ctx context.Context, owner, repo, dirPath, ref string) ([]Entry, error) {
	_, dirContent, _, err := c.api.Repositories.GetContents(ctx, owner, repo, dirPath, &gogithub.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list %s/%s/%s", owner, repo, dirPath)
	}

	entries := make([]Entry, 0, len(dirContent))
	for _, item := range dirContent {
		entries = append(entries, Entry{
			Name: item.GetName(),
			Path: item.GetPath(),
			Type: item.GetType(),
		})
	}
	return entries, nil
}

// RawURL returns the raw-content URL for a file within a repository
func (c *Client) RawURL(owner, repo, branch, filePath string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", c.rawHost, owner, repo, branch, strings.TrimLeft(filePath, "/"))
}

// FetchRaw downloads one file through the raw host. Transient failures are
// retried a bounded number of times; a missing file is a definite error, not
// a retry.
func (c *Client) FetchRaw(ctx context.Context, owner, repo, branch, filePath string) ([]byte, error) {
	rawURL := c.RawURL(owner, repo, branch, filePath)
	return c.FetchURL(ctx, rawURL)
}

// FetchURL downloads the content behind an absolute URL with the same retry
// discipline as FetchRaw. Used for aggregator results that carry their own
// canonical content location.
func (c *Client) FetchURL(ctx context.Context, rawURL string) ([]byte, error) {
	var body []byte

	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if err != nil {
				return retry.Unrecoverable(errors.Wrap(err, "failed to build request"))
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return errors.Wrap(err, "request failed")
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusNotFound {
				return retry.Unrecoverable(errors.Errorf("not found: %s", rawURL))
			}
			if resp.StatusCode != http.StatusOK {
				return errors.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
			}

			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return errors.Wrap(err, "failed to read response body")
			}
			return nil
		},
		retry.Attempts(fetchAttempts),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.G(ctx).WithError(err).WithField("attempt", n+1).WithField("url", rawURL).Warn("retrying fetch")
		}),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// DownloadTree materializes a repository subtree into dest via the contents
// API, one file at a time. Cost is proportional to the subtree, not the
// repository.
func (c *Client) DownloadTree(ctx context.Context, owner, repo, branch, treePath, dest string) error {
	entries, err := c.ListDirectory(ctx, owner, repo, treePath, branch)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return errors.Wrap(err, "failed to create destination directory")
	}

	for _, entry := range entries {
		target := filepath.Join(dest, entry.Name)
		switch entry.Type {
		case "dir":
			if err := c.DownloadTree(ctx, owner, repo, branch, entry.Path, target); err != nil {
				return err
			}
		case "file":
			content, err := c.FetchRaw(ctx, owner, repo, branch, entry.Path)
			if err != nil {
				return err
			}
			if err := os.WriteFile(target, content, 0o644); err != nil {
				return errors.Wrapf(err, "failed to write %s", target)
			}
		default:
			// submodules and symlinks are not part of skill bundles
			logger.G(ctx).WithField("path", entry.Path).WithField("type", entry.Type).Debug("skipping unsupported entry")
		}
	}
	return nil
}

// SkillDocPath joins a source's skills path, a skill name and the document
// name into a repository-relative path.
func SkillDocPath(skillsPath, name, docName string) string {
	return path.Join(skillsPath, name, docName)
}
