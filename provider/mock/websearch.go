package mock

import (
	"context"
	"fmt"

	"github.com/poiesic/retrievit/provider"
)

// MockWebSearcher is a test double for provider.WebSearcher.
// It allows custom behavior injection via function fields.
type MockWebSearcher struct {
	// SearchFunc is called by Search if set.
	// If nil, uses default deterministic behavior.
	SearchFunc func(ctx context.Context, query string, limit int) ([]provider.WebHit, error)

	callCount int
}

// NewMockWebSearcher creates a mock web searcher with default deterministic behavior.
func NewMockWebSearcher() *MockWebSearcher {
	return &MockWebSearcher{}
}

// Search returns canned hits derived from the query, up to limit.
func (m *MockWebSearcher) Search(ctx context.Context, query string, limit int) ([]provider.WebHit, error) {
	m.callCount++

	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, limit)
	}

	hits := make([]provider.WebHit, 0, limit)
	for i := 0; i < limit; i++ {
		hits = append(hits, provider.WebHit{
			Title:   fmt.Sprintf("%s result %d", query, i+1),
			URL:     fmt.Sprintf("https://example.com/%s/%d", query, i+1),
			Snippet: fmt.Sprintf("Snippet %d about %s.", i+1, query),
			Rank:    i,
			Domain:  "example.com",
		})
	}
	return hits, nil
}

// CallCount returns the number of times Search was called.
func (m *MockWebSearcher) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockWebSearcher) Reset() {
	m.callCount = 0
	m.SearchFunc = nil
}
