package provider

import (
	"context"
	"time"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// WebHit is a single hit returned by the web search provider, in the
// provider's ranking order.
type WebHit struct {
	// Title is the page title as returned by the provider.
	Title string

	// URL is the canonical result URL.
	URL string

	// Snippet is the provider's result excerpt.
	Snippet string

	// Rank is the zero-based position in the provider's ranking.
	Rank int

	// Domain is the registrable domain of the result URL.
	Domain string

	// PublishedAt is the publication date when the provider reports one;
	// zero otherwise.
	PublishedAt time.Time
}

// WebSearcher queries the external web search provider.
// Implementations must be thread-safe for concurrent use, and may fail with
// provider errors (timeouts, upstream failures) that callers must tolerate.
type WebSearcher interface {
	// Search returns up to limit hits for the query, in provider ranking order.
	Search(ctx context.Context, query string, limit int) ([]WebHit, error)
}

// Provider aggregates retrieval services for convenient initialization and
// lifecycle management. A provider creates and manages Embedder and
// WebSearcher instances, ensuring they share configuration appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// WebSearcher returns the web search service.
	// The returned WebSearcher is safe for concurrent use.
	WebSearcher() WebSearcher

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
