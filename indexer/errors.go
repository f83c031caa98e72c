package indexer

import "errors"

var (
	// ErrRepositoryRequired indicates no document repository was provided.
	ErrRepositoryRequired = errors.New("document repository is required")

	// ErrEmbedderRequired indicates no embedder was provided.
	ErrEmbedderRequired = errors.New("embedder is required")
)
