package marketplace

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillet/pkg/frontmatter"
	"github.com/jingkaihe/skillet/pkg/github"
	"github.com/jingkaihe/skillet/pkg/logger"
	"github.com/jingkaihe/skillet/pkg/skills"
)

// IndexFileName is the conventional precomputed manifest within a source.
// Fetching it is one network call regardless of skill count, so it is the
// mandatory fast path for large sources.
const IndexFileName = "skills-index.json"

// listingBatchSize bounds concurrent per-skill fetches during the
// directory-listing fallback
const listingBatchSize = 10

// Index is the schema of a source's skills-index.json
type Index struct {
	Skills []IndexEntry `json:"skills"`
}

// IndexEntry describes one skill in a source index
type IndexEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Path        string `json:"path"`
	License     string `json:"license,omitempty"`
	Author      string `json:"author,omitempty"`
	Version     string `json:"version,omitempty"`
}

// Resolver lists candidate skills from registered sources, index-first with
// a per-item fallback, through a TTL cache.
type Resolver struct {
	gh     *github.Client
	search *SearchClient
	cache  *Cache
}

// NewResolver creates a resolver. A nil cache disables memoization.
func NewResolver(gh *github.Client, search *SearchClient, cache *Cache) *Resolver {
	return &Resolver{gh: gh, search: search, cache: cache}
}

// List produces the candidates of one GitHub-backed source. Results are
// served from the cache within its TTL.
func (r *Resolver) List(ctx context.Context, source Source) ([]Candidate, error) {
	if source.Kind == SourceAggregator {
		return nil, errors.Errorf("source %q is a search aggregator, use Search", source.ID)
	}

	key := source.CacheKey()
	if r.cache != nil {
		if cached, ok := r.cache.Get(key); ok {
			if candidates, ok := cached.([]Candidate); ok {
				return candidates, nil
			}
		}
	}

	candidates, err := r.listFromGitHub(ctx, source)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		r.cache.Put(key, candidates)
	}
	return candidates, nil
}

func (r *Resolver) listFromGitHub(ctx context.Context, source Source) ([]Candidate, error) {
	log := logger.G(ctx).WithField("source", source.ID)

	if candidates, err := r.listFromIndex(ctx, source); err == nil {
		log.WithField("skills", len(candidates)).Debug("listed source via index")
		return candidates, nil
	} else {
		log.WithError(err).Debug("no usable index, falling back to directory listing")
	}

	candidates, err := r.listFromContents(ctx, source)
	if err != nil {
		return nil, errors.Wrapf(ErrRemoteUnavailable, "source %s: %v", source.ID, err)
	}
	return candidates, nil
}

// listFromIndex fetches the precomputed index and accepts every entry
// verbatim.
func (r *Resolver) listFromIndex(ctx context.Context, source Source) ([]Candidate, error) {
	data, err := r.gh.FetchRaw(ctx, source.Owner, source.Repo, source.Branch, source.SkillsPath+"/"+IndexFileName)
	if err != nil {
		return nil, err
	}

	var index Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, errors.Wrap(err, "index does not match expected schema")
	}
	if len(index.Skills) == 0 {
		return nil, errors.New("index lists no skills")
	}

	candidates := make([]Candidate, 0, len(index.Skills))
	for _, entry := range index.Skills {
		candidates = append(candidates, IndexedCandidate{
			Name:        entry.Name,
			Description: entry.Description,
			Path:        entry.Path,
			License:     entry.License,
			Author:      entry.Author,
			Version:     entry.Version,
			Source:      source.ID,
		})
	}
	return candidates, nil
}

// listFromContents lists directory entries of the skills path and fetches
// each entry's SKILL.md to extract frontmatter. Fetches run in batches of
// listingBatchSize; a document that fails to fetch or parse is dropped from
// the result set, never fatal for the whole source.
func (r *Resolver) listFromContents(ctx context.Context, source Source) ([]Candidate, error) {
	entries, err := r.gh.ListDirectory(ctx, source.Owner, source.Repo, source.SkillsPath, source.Branch)
	if err != nil {
		return nil, err
	}

	var dirs []github.Entry
	for _, entry := range entries {
		if entry.Type == "dir" {
			dirs = append(dirs, entry)
		}
	}

	results := make([]Candidate, len(dirs))
	for start := 0; start < len(dirs); start += listingBatchSize {
		end := start + listingBatchSize
		if end > len(dirs) {
			end = len(dirs)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				if candidate := r.fetchCandidate(ctx, source, dirs[idx]); candidate != nil {
					results[idx] = candidate
				}
			}(i)
		}
		wg.Wait()
	}

	candidates := make([]Candidate, 0, len(results))
	for _, candidate := range results {
		if candidate != nil {
			candidates = append(candidates, candidate)
		}
	}
	return candidates, nil
}

// fetchCandidate loads one skill's frontmatter; nil on any failure
func (r *Resolver) fetchCandidate(ctx context.Context, source Source, entry github.Entry) Candidate {
	log := logger.G(ctx).WithField("source", source.ID).WithField("skill", entry.Name)

	content, err := r.gh.FetchRaw(ctx, source.Owner, source.Repo, source.Branch, entry.Path+"/"+skills.SkillFileName)
	if err != nil {
		log.WithError(err).Warn("failed to fetch skill document, dropping from listing")
		return nil
	}

	doc, err := frontmatter.Parse(content)
	if err != nil || doc == nil {
		log.Warn("skill document has no parseable frontmatter, dropping from listing")
		return nil
	}

	var meta skills.Metadata
	if err := frontmatter.Decode(doc.Meta, &meta); err != nil {
		log.WithError(err).Warn("failed to decode skill frontmatter, dropping from listing")
		return nil
	}
	if meta.Name == "" || meta.Description == "" {
		log.Warn("skill document is missing required fields, dropping from listing")
		return nil
	}

	return ListedCandidate{
		Name:        meta.Name,
		Description: meta.Description,
		Path:        entry.Path,
		License:     meta.License,
		Version:     meta.Metadata["version"],
		Source:      source.ID,
	}
}

// ListAll fans out across every GitHub-backed source, isolating failures
// per source: one unreachable source never suppresses results from the
// others. The returned error aggregates the per-source failures and is
// non-nil only when at least one source failed.
func (r *Resolver) ListAll(ctx context.Context, sources []Source) ([]Candidate, error) {
	var all []Candidate
	var merr *multierror.Error

	for _, source := range sources {
		if source.Kind != SourceGitHub {
			continue
		}
		candidates, err := r.List(ctx, source)
		if err != nil {
			logger.G(ctx).WithError(err).WithField("source", source.ID).Warn("skipping unreachable source")
			merr = multierror.Append(merr, err)
			continue
		}
		all = append(all, candidates...)
	}

	return all, merr.ErrorOrNil()
}

// Search requests one aggregator page, cached per query
func (r *Resolver) Search(ctx context.Context, source Source, query SearchQuery) (*SearchResult, error) {
	if source.Kind != SourceAggregator {
		return nil, errors.Errorf("source %q is not a search aggregator", source.ID)
	}

	client := r.search
	if client == nil || source.Endpoint != "" {
		client = NewSearchClient(source.Endpoint)
	}

	key := query.CacheKey(source.ID)
	if r.cache != nil {
		if cached, ok := r.cache.Get(key); ok {
			if result, ok := cached.(*SearchResult); ok {
				return result, nil
			}
		}
	}

	result, err := client.Search(ctx, source.ID, query)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		r.cache.Put(key, result)
	}
	return result, nil
}
