package index

import (
	"context"

	"github.com/poiesic/retrievit/core"
)

// DocumentRepository provides operations for managing indexed documents.
// Implementations must be thread-safe and support concurrent access.
type DocumentRepository interface {
	// AddDocuments adds one or more documents to the index.
	// For documents with ID=0, derives a content-based ID from the URL
	// (or the content when no URL is set).
	// Sets InsertedAt/UpdatedAt timestamps.
	// Returns the documents with IDs and timestamps populated.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// UpdateDocuments updates existing documents.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any document doesn't exist.
	UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// DeleteDocuments removes documents by their IDs.
	// Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, ids ...core.ID) error

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing documents).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// FindSimilar finds the k documents nearest to the given vector by
	// cosine similarity. Documents without embeddings are skipped. When
	// filters is non-empty, only documents whose metadata contains all of
	// the given key/value pairs are considered.
	// Results are ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, k int, filters map[string]string) ([]*core.DocumentMatch, error)

	// Close closes the index backend and releases resources.
	Close() error
}
