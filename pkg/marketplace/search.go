package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// SortBy values accepted by the aggregator
const (
	SortByRecent = "recent"
	SortByStars  = "stars"
)

// SearchQuery parameterizes one aggregator page request
type SearchQuery struct {
	Search string
	Page   int
	Limit  int
	SortBy string
}

// CacheKey folds the query parameters into the cache key so distinct
// queries do not collide.
func (q SearchQuery) CacheKey(sourceID string) string {
	return fmt.Sprintf("search:%s:%s:%d:%d:%s", sourceID, q.Search, q.Page, q.Limit, q.SortBy)
}

// Pagination describes the page window the aggregator returned
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// SearchResult is one aggregator page. This is a paginated, not exhaustive,
// listing.
type SearchResult struct {
	Skills     []SearchCandidate `json:"skills"`
	Pagination Pagination        `json:"pagination"`
}

// SearchClient talks to the aggregator search API
type SearchClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewSearchClient creates a client for the given search endpoint; empty
// falls back to the built-in one.
func NewSearchClient(endpoint string) *SearchClient {
	if endpoint == "" {
		endpoint = DefaultSearchEndpoint
	}
	return &SearchClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// wire format of the aggregator response
type searchResponse struct {
	Skills []struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Author      string   `json:"author"`
		Version     string   `json:"version"`
		Tags        []string `json:"tags"`
		Stars       int      `json:"stars"`
		ContentURL  string   `json:"contentUrl"`
	} `json:"skills"`
	Pagination Pagination `json:"pagination"`
}

// Search requests one page of results. Defaults: page 1, limit 20, sort by
// recency.
func (c *SearchClient) Search(ctx context.Context, sourceID string, query SearchQuery) (*SearchResult, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit < 1 {
		query.Limit = 20
	}
	if query.SortBy == "" {
		query.SortBy = SortByRecent
	}
	if query.SortBy != SortByRecent && query.SortBy != SortByStars {
		return nil, errors.Errorf("invalid sortBy %q, must be %q or %q", query.SortBy, SortByRecent, SortByStars)
	}

	params := url.Values{
		"search": {query.Search},
		"page":   {strconv.Itoa(query.Page)},
		"limit":  {strconv.Itoa(query.Limit)},
		"sortBy": {query.SortBy},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build search request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(ErrRemoteUnavailable, "search request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrRemoteUnavailable, "search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read search response")
	}

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, errors.Wrap(err, "failed to decode search response")
	}

	result := &SearchResult{Pagination: decoded.Pagination}
	for _, item := range decoded.Skills {
		result.Skills = append(result.Skills, SearchCandidate{
			Name:        item.Name,
			Description: item.Description,
			ContentURL:  item.ContentURL,
			Author:      item.Author,
			Version:     item.Version,
			Tags:        item.Tags,
			Stars:       item.Stars,
			Source:      sourceID,
		})
	}
	return result, nil
}
