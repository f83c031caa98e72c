package indexer

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/index"
	"github.com/poiesic/retrievit/provider"
)

// Pipeline orchestrates document indexing. Documents are added to the
// repository synchronously and embedded asynchronously.
type Pipeline struct {
	documents index.DocumentRepository
	embedder  provider.Embedder
	pool      *ants.Pool
	pending   sync.WaitGroup
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new indexing pipeline.
func NewPipeline(
	documents index.DocumentRepository,
	embedder provider.Embedder,
	opts ...Option,
) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		documents: documents,
		embedder:  embedder,
		pool:      pool,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	p.logger = p.logger.With("component", "indexer")
	return p, nil
}

// Index validates and stores documents, then schedules their embedding.
// Errors during async embedding are logged but do not fail the indexing;
// un-embedded documents are simply skipped by vector retrieval.
func (p *Pipeline) Index(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	for _, doc := range docs {
		if err := core.ValidateDocument(doc); err != nil {
			return nil, err
		}
	}

	added, err := p.documents.AddDocuments(ctx, docs...)
	if err != nil {
		return nil, err
	}
	if len(added) == 0 {
		return added, nil
	}

	ids := make([]core.ID, len(added))
	for i, doc := range added {
		ids[i] = doc.Id
	}

	p.pending.Add(1)
	submitErr := p.pool.Submit(func() {
		defer p.pending.Done()
		if embedErr := p.embed(context.Background(), ids...); embedErr != nil {
			p.logger.Error("error embedding documents", "err", embedErr)
		}
	})
	if submitErr != nil {
		p.pending.Done()
		p.logger.Error("error scheduling embedding pass", "err", submitErr)
	}

	return added, nil
}

// embed generates embeddings for the given documents and writes them back.
func (p *Pipeline) embed(ctx context.Context, ids ...core.ID) error {
	docs, err := p.documents.GetDocuments(ctx, ids...)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return err
	}

	for i, doc := range docs {
		if i < len(vectors) {
			doc.Vector = vectors[i]
		}
	}

	_, err = p.documents.UpdateDocuments(ctx, docs...)
	if err != nil {
		return err
	}

	p.logger.Debug("documents embedded", "count", len(docs))
	return nil
}

// Flush blocks until all scheduled embedding passes have finished.
func (p *Pipeline) Flush() {
	p.pending.Wait()
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
