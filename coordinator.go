// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package retrievit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/index"
	"github.com/poiesic/retrievit/index/badger"
	"github.com/poiesic/retrievit/indexer"
	"github.com/poiesic/retrievit/provider"
	"github.com/poiesic/retrievit/provider/remote"
	"github.com/poiesic/retrievit/scheduler"
	"github.com/poiesic/retrievit/worker"
)

// Coordinator is the composition root: it wires the vector index, the
// retrieval provider, the indexing pipeline, the scheduler, and a pool of
// search workers behind a single construct/shutdown lifecycle.
type Coordinator struct {
	backend   *badger.Backend
	documents index.DocumentRepository
	provider  provider.Provider
	pipeline  *indexer.Pipeline
	scheduler *scheduler.Scheduler
	logger    *slog.Logger
}

var _ worker.StatusMonitor = (*Coordinator)(nil)

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*coordinatorOptions)

type coordinatorOptions struct {
	indexPath        string
	provider         provider.Provider
	providerConfig   *provider.Config
	workers          int
	dispatchInterval time.Duration
	execTimeout      time.Duration
	logger           *slog.Logger
}

// WithIndexPath stores the vector index at the given path. Default is an
// in-memory index that is lost on Close.
func WithIndexPath(path string) CoordinatorOption {
	return func(o *coordinatorOptions) {
		o.indexPath = path
	}
}

// WithProvider supplies a pre-built retrieval provider instead of the
// default remote one. Useful for tests and embedded setups.
func WithProvider(p provider.Provider) CoordinatorOption {
	return func(o *coordinatorOptions) {
		o.provider = p
	}
}

// WithProviderConfig configures the default remote provider.
// Ignored when WithProvider is used.
func WithProviderConfig(config *provider.Config) CoordinatorOption {
	return func(o *coordinatorOptions) {
		o.providerConfig = config
	}
}

// WithWorkers sets the number of search workers registered at startup.
// Default is 2, with a minimum of 1.
func WithWorkers(n int) CoordinatorOption {
	return func(o *coordinatorOptions) {
		if n < 1 {
			n = 1
		}
		o.workers = n
	}
}

// WithDispatchInterval sets the scheduler's dispatch tick period.
func WithDispatchInterval(interval time.Duration) CoordinatorOption {
	return func(o *coordinatorOptions) {
		o.dispatchInterval = interval
	}
}

// WithExecTimeout bounds the duration of a single task execution.
func WithExecTimeout(timeout time.Duration) CoordinatorOption {
	return func(o *coordinatorOptions) {
		o.execTimeout = timeout
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) CoordinatorOption {
	return func(o *coordinatorOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewCoordinator builds and starts a retrieval coordinator.
func NewCoordinator(opts ...CoordinatorOption) (*Coordinator, error) {
	options := &coordinatorOptions{
		workers: 2,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(options.indexPath, options.indexPath == "")
	if err != nil {
		return nil, err
	}

	documents, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	prov := options.provider
	if prov == nil {
		config := options.providerConfig
		if config == nil {
			config = provider.DefaultConfig()
		}
		prov, err = remote.NewProvider(config)
		if err != nil {
			documents.Close()
			backend.Close()
			return nil, err
		}
	}

	pipeline, err := indexer.NewPipeline(documents, prov.Embedder(),
		indexer.WithLogger(options.logger))
	if err != nil {
		prov.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	schedOpts := []scheduler.Option{scheduler.WithLogger(options.logger)}
	if options.dispatchInterval > 0 {
		schedOpts = append(schedOpts, scheduler.WithDispatchInterval(options.dispatchInterval))
	}
	if options.execTimeout > 0 {
		schedOpts = append(schedOpts, scheduler.WithExecTimeout(options.execTimeout))
	}
	sched, err := scheduler.NewScheduler(schedOpts...)
	if err != nil {
		pipeline.Release()
		prov.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	c := &Coordinator{
		backend:   backend,
		documents: documents,
		provider:  prov,
		pipeline:  pipeline,
		scheduler: sched,
		logger:    options.logger.With("component", "coordinator"),
	}

	for i := 0; i < options.workers; i++ {
		w, err := worker.NewSearchWorker(
			fmt.Sprintf("search-worker-%d", i+1),
			prov.Embedder(),
			prov.WebSearcher(),
			documents,
			worker.WithLogger(options.logger),
			worker.WithMonitor(c),
		)
		if err == nil {
			err = sched.RegisterWorker(context.Background(), w)
		}
		if err != nil {
			c.Close()
			return nil, err
		}
	}

	return c, nil
}

// SubmitTask validates the payload and enqueues a new retrieval task.
// Returns a snapshot of the accepted task; callers poll GetTask with the
// task's ID to observe progress and read the result.
func (c *Coordinator) SubmitTask(taskType core.TaskType, payload core.SearchPayload, priority core.Priority) (*core.Task, error) {
	task := &core.Task{
		Id:        uuid.NewString(),
		Type:      taskType,
		Payload:   payload,
		Priority:  priority,
		Status:    core.TaskStatusPending,
		CreatedAt: time.Now().UTC(),
	}

	if err := c.scheduler.Submit(task); err != nil {
		return nil, err
	}
	return task.Clone(), nil
}

// GetTask returns a snapshot of a task by ID.
func (c *Coordinator) GetTask(id string) (*core.Task, error) {
	return c.scheduler.GetTask(id)
}

// ListTasks returns snapshots of tasks matching the filter.
func (c *Coordinator) ListTasks(filter scheduler.TaskFilter) []*core.Task {
	return c.scheduler.ListTasks(filter)
}

// CancelTask removes a still-pending task.
func (c *Coordinator) CancelTask(id string) error {
	return c.scheduler.CancelTask(id)
}

// RegisterWorker initializes and registers an additional worker.
func (c *Coordinator) RegisterWorker(ctx context.Context, w worker.Worker) error {
	return c.scheduler.RegisterWorker(ctx, w)
}

// UnregisterWorker removes an idle worker and shuts it down.
func (c *Coordinator) UnregisterWorker(ctx context.Context, id string) error {
	return c.scheduler.UnregisterWorker(ctx, id)
}

// Stats returns a snapshot of task and worker counts.
func (c *Coordinator) Stats() scheduler.Stats {
	return c.scheduler.Stats()
}

// IndexDocuments stores documents in the vector index and schedules their
// embedding. Documents become visible to vector retrieval once embedded.
func (c *Coordinator) IndexDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	return c.pipeline.Index(ctx, docs...)
}

// FlushIndex blocks until all scheduled embedding passes have finished.
func (c *Coordinator) FlushIndex() {
	c.pipeline.Flush()
}

// Documents exposes the underlying document repository.
func (c *Coordinator) Documents() index.DocumentRepository {
	return c.documents
}

// WorkerStatusChanged logs worker lifecycle transitions.
func (c *Coordinator) WorkerStatusChanged(workerID string, from, to worker.Status) {
	c.logger.Debug("worker status changed", "worker", workerID, "from", from, "to", to)
}

// Close shuts down the scheduler and its workers, drains the indexing
// pipeline, and releases the provider and the index backend.
func (c *Coordinator) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.scheduler.Close(ctx); err != nil {
		c.logger.Error("error closing scheduler", "err", err)
	}

	c.pipeline.Flush()
	c.pipeline.Release()

	if err := c.provider.Close(); err != nil {
		c.logger.Error("error closing provider", "err", err)
	}

	if err := c.documents.Close(); err != nil {
		c.logger.Error("error closing document repository", "err", err)
		return err
	}

	if err := c.backend.Close(); err != nil {
		c.logger.Error("error closing index backend", "err", err)
		return err
	}
	return nil
}
