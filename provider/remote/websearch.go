package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/poiesic/retrievit/provider"
)

// WebSearcher implements provider.WebSearcher against a SearxNG-style
// JSON search API (GET /search?q=...&format=json).
type WebSearcher struct {
	host   string
	client *http.Client
	logger *slog.Logger
}

// newWebSearcher is an internal constructor that returns the concrete type.
func newWebSearcher(config *provider.Config) (*WebSearcher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &WebSearcher{
		host:   config.SearchHost,
		client: &http.Client{Timeout: config.SearchTimeout},
		logger: slog.Default().With("component", "remote-websearch"),
	}, nil
}

// NewWebSearcher creates a new web searcher using the provided configuration.
//
// Returns provider.WebSearcher interface to enforce abstraction.
func NewWebSearcher(config *provider.Config) (provider.WebSearcher, error) {
	return newWebSearcher(config)
}

// searchResponse mirrors the SearxNG JSON result envelope.
type searchResponse struct {
	Results []struct {
		Title         string `json:"title"`
		URL           string `json:"url"`
		Content       string `json:"content"`
		PublishedDate string `json:"publishedDate"`
	} `json:"results"`
}

// Search returns up to limit hits for the query, in provider ranking order.
// A non-positive limit returns no hits without contacting the provider.
func (s *WebSearcher) Search(ctx context.Context, query string, limit int) ([]provider.WebHit, error) {
	if limit <= 0 {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/search?q=%s&format=json", s.host, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	s.logger.Debug("querying web search provider", "query", query, "limit", limit)
	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("web search request failed", "err", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search provider returned status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		s.logger.Error("failed to decode web search response", "err", err)
		return nil, err
	}

	hits := make([]provider.WebHit, 0, limit)
	for i, result := range body.Results {
		if limit > 0 && len(hits) >= limit {
			break
		}
		hits = append(hits, provider.WebHit{
			Title:       result.Title,
			URL:         result.URL,
			Snippet:     result.Content,
			Rank:        i,
			Domain:      hostOf(result.URL),
			PublishedAt: parsePublishedDate(result.PublishedDate),
		})
	}

	return hits, nil
}

// hostOf extracts the hostname from a result URL; empty on parse failure.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// parsePublishedDate tolerates the date formats SearxNG engines emit.
// Returns the zero time when the date is absent or unparseable.
func parsePublishedDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	return time.Time{}
}
