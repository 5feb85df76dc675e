package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/campushub/campushub-backend/internal/config"
)

// Result is one web search hit. Results are ephemeral; they are surfaced to
// the caller and spliced into the completion context but never persisted.
type Result struct {
	Title     string  `json:"title"`
	Snippet   string  `json:"snippet"`
	Source    string  `json:"source"`
	Link      string  `json:"link"`
	Relevance float64 `json:"relevance"`
}

// Options bound a single search call
type Options struct {
	MaxResults   int
	MinRelevance float64
	UseCache     bool
}

// Client calls the external web search API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      *resultCache
	log        *logrus.Entry
}

// NewClient creates a new search client
func NewClient(cfg config.SearchConfig) *Client {
	ttl := time.Duration(cfg.CacheTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      newResultCache(ttl),
		log:        logrus.WithField("component", "search"),
	}
}

type searchResponse struct {
	Results []Result `json:"results"`
}

// Search queries the web search API. Results below the relevance threshold
// are dropped and the remainder is capped at MaxResults.
func (c *Client) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("search API is not configured")
	}

	cacheKey := strings.ToLower(strings.TrimSpace(query))
	if opts.UseCache {
		if results, ok := c.cache.Get(cacheKey); ok {
			return results, nil
		}
	}

	params := url.Values{}
	params.Set("q", query)
	if opts.MaxResults > 0 {
		params.Set("limit", strconv.Itoa(opts.MaxResults))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned status %d", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := filterResults(payload.Results, opts)

	if opts.UseCache {
		c.cache.Set(cacheKey, results)
	}

	c.log.WithFields(logrus.Fields{
		"query":   query,
		"results": len(results),
	}).Debug("search completed")

	return results, nil
}

func filterResults(results []Result, opts Options) []Result {
	filtered := make([]Result, 0, len(results))
	for _, r := range results {
		if r.Relevance < opts.MinRelevance {
			continue
		}
		filtered = append(filtered, r)
		if opts.MaxResults > 0 && len(filtered) == opts.MaxResults {
			break
		}
	}
	return filtered
}
