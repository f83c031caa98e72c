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


package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/metrics"
	"github.com/poiesic/retrievit/worker"
)

const (
	// DefaultDispatchInterval is the dispatch loop's tick period. The loop
	// also wakes immediately on submissions and completions.
	DefaultDispatchInterval = 100 * time.Millisecond

	// DefaultExecTimeout bounds a single task execution.
	DefaultExecTimeout = 30 * time.Second
)

// Scheduler holds pending tasks in priority order and dispatches them to
// idle capable workers. A single mutex guards the queue, the task store,
// and the worker registry; execution itself runs on a shared pool.
type Scheduler struct {
	mu       sync.Mutex
	queue    *taskQueue
	registry *registry
	tasks    map[string]*core.Task
	closed   bool

	execPool         *ants.Pool
	execTimeout      time.Duration
	dispatchInterval time.Duration
	logger           *slog.Logger

	wake   chan struct{}
	done   chan struct{}
	wg     sync.WaitGroup
	execWG sync.WaitGroup
}

// Stats is a point-in-time snapshot of scheduler state.
type Stats struct {
	TasksTotal      int
	TasksPending    int
	TasksAssigned   int
	TasksInProgress int
	TasksCompleted  int
	TasksFailed     int
	WorkersTotal    int
	WorkersIdle     int
	WorkersBusy     int
}

// Option configures a Scheduler.
type Option func(*Scheduler) error

// WithPoolSize sets the execution pool size.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(s *Scheduler) error {
		if size < 1 {
			size = 1
		}
		if s.execPool != nil {
			s.execPool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		s.execPool = pool
		return nil
	}
}

// WithDispatchInterval sets the dispatch loop's tick period.
// Default is DefaultDispatchInterval.
func WithDispatchInterval(interval time.Duration) Option {
	return func(s *Scheduler) error {
		if interval <= 0 {
			return fmt.Errorf("dispatch interval must be positive, got %v", interval)
		}
		s.dispatchInterval = interval
		return nil
	}
}

// WithExecTimeout bounds the duration of a single task execution.
// Default is DefaultExecTimeout.
func WithExecTimeout(timeout time.Duration) Option {
	return func(s *Scheduler) error {
		if timeout <= 0 {
			return fmt.Errorf("exec timeout must be positive, got %v", timeout)
		}
		s.execTimeout = timeout
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewScheduler creates a scheduler and starts its dispatch loop.
func NewScheduler(opts ...Option) (*Scheduler, error) {
	poolSize := runtime.NumCPU()
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		queue:            newTaskQueue(),
		registry:         newRegistry(),
		tasks:            make(map[string]*core.Task),
		execPool:         pool,
		execTimeout:      DefaultExecTimeout,
		dispatchInterval: DefaultDispatchInterval,
		logger:           slog.Default(),
		wake:             make(chan struct{}, 1),
		done:             make(chan struct{}),
	}

	for _, opt := range opts {
		if optErr := opt(s); optErr != nil {
			s.execPool.Release()
			return nil, optErr
		}
	}

	s.logger = s.logger.With("component", "scheduler")

	s.wg.Add(1)
	go s.loop()

	return s, nil
}

// Submit accepts a validated pending task into the queue.
func (s *Scheduler) Submit(task *core.Task) error {
	if err := core.ValidateTask(task); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSchedulerClosed
	}
	if _, exists := s.tasks[task.Id]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: duplicate task id %s", core.ErrInvalidTask, task.Id)
	}

	task.Status = core.TaskStatusPending
	s.tasks[task.Id] = task
	s.queue.Push(task)
	s.mu.Unlock()

	metrics.TasksSubmittedTotal.WithLabelValues(string(task.Type), task.Priority.String()).Inc()
	s.logger.Debug("task submitted", "task", task.Id, "type", task.Type, "priority", task.Priority)

	s.signal()
	return nil
}

// GetTask returns a snapshot of a task by ID.
func (s *Scheduler) GetTask(id string) (*core.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return task.Clone(), nil
}

// TaskFilter selects tasks in ListTasks. Zero-value fields match everything.
type TaskFilter struct {
	Status   core.TaskStatus
	Type     core.TaskType
	WorkerID string
}

func (f TaskFilter) matches(task *core.Task) bool {
	if f.Status != "" && task.Status != f.Status {
		return false
	}
	if f.Type != "" && task.Type != f.Type {
		return false
	}
	if f.WorkerID != "" && task.AssignedWorker != f.WorkerID {
		return false
	}
	return true
}

// ListTasks returns snapshots of tasks matching the filter, ordered by
// priority descending, then creation time ascending.
func (s *Scheduler) ListTasks(filter TaskFilter) []*core.Task {
	s.mu.Lock()
	tasks := make([]*core.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		if !filter.matches(task) {
			continue
		}
		tasks = append(tasks, task.Clone())
	}
	s.mu.Unlock()

	slices.SortFunc(tasks, func(a, b *core.Task) int {
		if a.Priority != b.Priority {
			return int(b.Priority) - int(a.Priority)
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return tasks
}

// CancelTask removes a still-pending task from the queue and the task store.
// Tasks already dispatched or finished cannot be cancelled.
func (s *Scheduler) CancelTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	if task.Status != core.TaskStatusPending {
		return fmt.Errorf("%w: task %s is %s", ErrTaskNotPending, id, task.Status)
	}

	s.queue.Remove(id)
	delete(s.tasks, id)
	return nil
}

// RegisterWorker initializes a worker and adds it to the registry. A worker
// that fails initialization is never registered; the error surfaces to the
// caller.
func (s *Scheduler) RegisterWorker(ctx context.Context, w worker.Worker) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSchedulerClosed
	}
	if _, exists := s.registry.workers[w.ID()]; exists {
		s.mu.Unlock()
		return ErrWorkerExists
	}
	s.mu.Unlock()

	// Initialize outside the lock; provider setup may block.
	if err := w.Initialize(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	err := s.registry.Add(w)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.logger.Info("worker registered", "worker", w.ID(), "type", w.Type(), "capabilities", w.Capabilities())
	s.signal()
	return nil
}

// UnregisterWorker removes an idle worker from the registry and shuts it
// down. Returns ErrWorkerBusy while the worker is executing a task.
func (s *Scheduler) UnregisterWorker(ctx context.Context, id string) error {
	s.mu.Lock()
	w, err := s.registry.Remove(id)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.logger.Info("worker unregistered", "worker", id)
	return w.Shutdown(ctx)
}

// Stats returns a snapshot of task and worker counts.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats Stats
	for _, task := range s.tasks {
		switch task.Status {
		case core.TaskStatusPending:
			stats.TasksPending++
		case core.TaskStatusAssigned:
			stats.TasksAssigned++
		case core.TaskStatusInProgress:
			stats.TasksInProgress++
		case core.TaskStatusCompleted:
			stats.TasksCompleted++
		case core.TaskStatusFailed:
			stats.TasksFailed++
		}
	}
	stats.TasksTotal = len(s.tasks)
	stats.WorkersIdle, stats.WorkersBusy = s.registry.Counts()
	stats.WorkersTotal = stats.WorkersIdle + stats.WorkersBusy
	return stats
}

// Close stops the dispatch loop, shuts down registered workers, and
// releases the execution pool. In-flight executions are allowed to finish.
func (s *Scheduler) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)
	s.wg.Wait()
	s.execWG.Wait()

	s.mu.Lock()
	workers := s.registry.All()
	s.mu.Unlock()

	var firstErr error
	for _, w := range workers {
		if err := w.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	s.execPool.Release()
	s.logger.Info("scheduler closed")
	return firstErr
}

// signal wakes the dispatch loop without blocking.
func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// loop runs dispatch on every tick and on every wake signal.
func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.dispatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.dispatch()
		case <-s.wake:
			s.dispatch()
		}
	}
}

// dispatch repeatedly pops the highest-priority pending task and hands it
// to an idle capable worker. A popped task with no idle capable worker is
// requeued at the lowest priority tier.
func (s *Scheduler) dispatch() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	// Each queued task is considered at most once per dispatch pass.
	for passes := s.queue.Len(); passes > 0; passes-- {
		if idle, _ := s.registry.Counts(); idle == 0 {
			return
		}

		task := s.queue.Pop()
		if task == nil {
			return
		}

		w := s.registry.FindIdle(task.Type)
		if w == nil {
			s.demote(task)
			continue
		}

		s.assign(task, w)
	}
}

// demote requeues an unassignable task at the lowest priority tier.
func (s *Scheduler) demote(task *core.Task) {
	if task.Priority != core.PriorityLow {
		s.logger.Debug("no idle capable worker, demoting task",
			"task", task.Id, "type", task.Type, "from", task.Priority)
		task.Priority = core.PriorityLow
		metrics.TaskDemotionsTotal.Inc()
	}
	s.queue.Push(task)
}

// assign reserves the worker and hands execution to the pool. The task is
// stamped only after the pool accepts the job, so a rejection leaves it
// pending and untouched. Caller holds s.mu; the submitted job blocks on the
// same mutex until the assignment fields are written.
func (s *Scheduler) assign(task *core.Task, w worker.Worker) {
	s.execWG.Add(1)
	err := s.execPool.Submit(func() {
		defer s.execWG.Done()
		s.run(task.Id, w)
	})
	if err != nil {
		s.execWG.Done()
		s.logger.Error("execution pool rejected task", "task", task.Id, "err", err)
		s.queue.Push(task)
		return
	}

	task.Status = core.TaskStatusAssigned
	task.AssignedWorker = w.ID()
	task.StartedAt = time.Now().UTC()
	s.registry.Reserve(w.ID(), task.Id)
	metrics.WorkersBusy.Inc()

	s.logger.Debug("task assigned", "task", task.Id, "worker", w.ID())
}

// run executes an assigned task on the pool and finalizes it.
func (s *Scheduler) run(taskID string, w worker.Worker) {
	s.mu.Lock()
	task, ok := s.tasks[taskID]
	if !ok {
		s.registry.Release(w.ID())
		metrics.WorkersBusy.Dec()
		s.mu.Unlock()
		return
	}
	task.Status = core.TaskStatusInProgress
	snapshot := task.Clone()
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.execTimeout)
	result, execErr := w.Execute(ctx, snapshot)
	cancel()

	s.finalize(taskID, w, result, execErr)
	s.signal()
}

// finalize writes the execution outcome back to the task and releases the
// worker's reservation.
func (s *Scheduler) finalize(taskID string, w worker.Worker, result *core.TaskResult, execErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.registry.Release(w.ID())
	metrics.WorkersBusy.Dec()

	task, ok := s.tasks[taskID]
	if !ok {
		return
	}

	task.CompletedAt = time.Now().UTC()
	if execErr != nil {
		task.Status = core.TaskStatusFailed
		task.Error = execErr.Error()
		s.logger.Warn("task failed", "task", task.Id, "worker", w.ID(), "err", execErr)
	} else {
		task.Status = core.TaskStatusCompleted
		task.Result = result
		s.logger.Debug("task completed", "task", task.Id, "worker", w.ID(),
			"results", len(result.Results), "confidence", result.Confidence)
	}

	metrics.TasksCompletedTotal.WithLabelValues(string(task.Type), string(task.Status)).Inc()
	metrics.TaskExecutionSeconds.WithLabelValues(string(task.Type), string(task.Status)).
		Observe(task.CompletedAt.Sub(task.StartedAt).Seconds())
}
