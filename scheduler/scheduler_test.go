package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/worker"
)

// fakeWorker is a controllable worker.Worker for scheduler tests.
type fakeWorker struct {
	id      string
	caps    []core.TaskType
	initErr error

	// ExecuteFunc overrides the default successful execution.
	ExecuteFunc func(ctx context.Context, task *core.Task) (*core.TaskResult, error)

	mu       sync.Mutex
	status   worker.Status
	executed []string
}

var _ worker.Worker = (*fakeWorker)(nil)

func newFakeWorker(id string, caps ...core.TaskType) *fakeWorker {
	if len(caps) == 0 {
		caps = []core.TaskType{
			core.TaskTypeWebSearch,
			core.TaskTypeVectorSearch,
			core.TaskTypeHybridSearch,
		}
	}
	return &fakeWorker{id: id, caps: caps}
}

func (f *fakeWorker) ID() string                     { return f.id }
func (f *fakeWorker) Type() string                   { return "fake" }
func (f *fakeWorker) Capabilities() []core.TaskType  { return f.caps }
func (f *fakeWorker) Shutdown(context.Context) error { return nil }

func (f *fakeWorker) Status() worker.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeWorker) Initialize(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.initErr != nil {
		f.status = worker.StatusError
		return f.initErr
	}
	f.status = worker.StatusIdle
	return nil
}

func (f *fakeWorker) Execute(ctx context.Context, task *core.Task) (*core.TaskResult, error) {
	f.mu.Lock()
	f.executed = append(f.executed, task.Id)
	f.mu.Unlock()

	if f.ExecuteFunc != nil {
		return f.ExecuteFunc(ctx, task)
	}
	return &core.TaskResult{
		Results:    []core.SearchResult{{Id: 1, Title: "hit", RelevanceScore: 0.8}},
		Confidence: 0.71,
		Found:      true,
	}, nil
}

func (f *fakeWorker) executionOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	order := make([]string, len(f.executed))
	copy(order, f.executed)
	return order
}

func newTestScheduler(t *testing.T, opts ...Option) *Scheduler {
	t.Helper()

	opts = append([]Option{WithDispatchInterval(5 * time.Millisecond)}, opts...)
	s, err := NewScheduler(opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close(context.Background())
	})
	return s
}

func pendingTask(id string, taskType core.TaskType, priority core.Priority) *core.Task {
	return &core.Task{
		Id:        id,
		Type:      taskType,
		Payload:   core.SearchPayload{Query: "test query"},
		Priority:  priority,
		Status:    core.TaskStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

func waitForStatus(t *testing.T, s *Scheduler, taskID string, status core.TaskStatus) *core.Task {
	t.Helper()

	var task *core.Task
	require.Eventually(t, func() bool {
		got, err := s.GetTask(taskID)
		if err != nil {
			return false
		}
		task = got
		return got.Status == status
	}, 2*time.Second, 2*time.Millisecond)
	return task
}

func TestSchedulerSubmit(t *testing.T) {
	t.Run("rejects invalid tasks synchronously", func(t *testing.T) {
		s := newTestScheduler(t)

		task := pendingTask("t1", core.TaskTypeWebSearch, core.PriorityMedium)
		task.Payload.Query = "   "

		err := s.Submit(task)
		assert.ErrorIs(t, err, core.ErrInvalidTask)

		_, err = s.GetTask("t1")
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})

	t.Run("rejects duplicate task ids", func(t *testing.T) {
		s := newTestScheduler(t)

		require.NoError(t, s.Submit(pendingTask("dup", core.TaskTypeWebSearch, core.PriorityMedium)))
		err := s.Submit(pendingTask("dup", core.TaskTypeWebSearch, core.PriorityMedium))
		assert.ErrorIs(t, err, core.ErrInvalidTask)
	})

	t.Run("rejects submissions after close", func(t *testing.T) {
		s, err := NewScheduler(WithDispatchInterval(5 * time.Millisecond))
		require.NoError(t, err)
		require.NoError(t, s.Close(context.Background()))

		err = s.Submit(pendingTask("t1", core.TaskTypeWebSearch, core.PriorityMedium))
		assert.ErrorIs(t, err, ErrSchedulerClosed)
	})
}

func TestSchedulerDispatch(t *testing.T) {
	t.Run("executes a task end to end", func(t *testing.T) {
		s := newTestScheduler(t)
		w := newFakeWorker("w1")
		require.NoError(t, s.RegisterWorker(context.Background(), w))

		require.NoError(t, s.Submit(pendingTask("t1", core.TaskTypeWebSearch, core.PriorityMedium)))

		task := waitForStatus(t, s, "t1", core.TaskStatusCompleted)
		assert.Equal(t, "w1", task.AssignedWorker)
		assert.False(t, task.StartedAt.IsZero())
		assert.False(t, task.CompletedAt.IsZero())
		require.NotNil(t, task.Result)
		assert.True(t, task.Result.Found)
		assert.InDelta(t, 0.71, task.Result.Confidence, 1e-9)
	})

	t.Run("dispatches by priority with one worker", func(t *testing.T) {
		s := newTestScheduler(t)

		// Queue before any worker exists so all three tasks are pending.
		require.NoError(t, s.Submit(pendingTask("low", core.TaskTypeWebSearch, core.PriorityLow)))
		require.NoError(t, s.Submit(pendingTask("high", core.TaskTypeWebSearch, core.PriorityHigh)))
		require.NoError(t, s.Submit(pendingTask("critical", core.TaskTypeWebSearch, core.PriorityCritical)))

		w := newFakeWorker("w1")
		require.NoError(t, s.RegisterWorker(context.Background(), w))

		waitForStatus(t, s, "low", core.TaskStatusCompleted)
		waitForStatus(t, s, "high", core.TaskStatusCompleted)
		waitForStatus(t, s, "critical", core.TaskStatusCompleted)

		assert.Equal(t, []string{"critical", "high", "low"}, w.executionOrder())
	})

	t.Run("records execution failure on the task", func(t *testing.T) {
		s := newTestScheduler(t)
		w := newFakeWorker("w1")
		w.ExecuteFunc = func(ctx context.Context, task *core.Task) (*core.TaskResult, error) {
			return nil, errors.New("provider exploded")
		}
		require.NoError(t, s.RegisterWorker(context.Background(), w))

		require.NoError(t, s.Submit(pendingTask("t1", core.TaskTypeWebSearch, core.PriorityMedium)))

		task := waitForStatus(t, s, "t1", core.TaskStatusFailed)
		assert.Contains(t, task.Error, "provider exploded")
		assert.Nil(t, task.Result)
	})

	t.Run("demotes a task no registered worker can handle", func(t *testing.T) {
		s := newTestScheduler(t)
		w := newFakeWorker("web-only", core.TaskTypeWebSearch)
		require.NoError(t, s.RegisterWorker(context.Background(), w))

		require.NoError(t, s.Submit(pendingTask("stranded", core.TaskTypeVectorSearch, core.PriorityCritical)))

		require.Eventually(t, func() bool {
			task, err := s.GetTask("stranded")
			return err == nil && task.Priority == core.PriorityLow
		}, 2*time.Second, 2*time.Millisecond)

		task, err := s.GetTask("stranded")
		require.NoError(t, err)
		assert.Equal(t, core.TaskStatusPending, task.Status)
	})

	t.Run("routes tasks to capable workers", func(t *testing.T) {
		s := newTestScheduler(t)
		webWorker := newFakeWorker("web-only", core.TaskTypeWebSearch)
		vecWorker := newFakeWorker("vector-only", core.TaskTypeVectorSearch)
		require.NoError(t, s.RegisterWorker(context.Background(), webWorker))
		require.NoError(t, s.RegisterWorker(context.Background(), vecWorker))

		require.NoError(t, s.Submit(pendingTask("web-task", core.TaskTypeWebSearch, core.PriorityMedium)))
		require.NoError(t, s.Submit(pendingTask("vec-task", core.TaskTypeVectorSearch, core.PriorityMedium)))

		webTask := waitForStatus(t, s, "web-task", core.TaskStatusCompleted)
		vecTask := waitForStatus(t, s, "vec-task", core.TaskStatusCompleted)

		assert.Equal(t, "web-only", webTask.AssignedWorker)
		assert.Equal(t, "vector-only", vecTask.AssignedWorker)
	})
}

func TestSchedulerCancelTask(t *testing.T) {
	t.Run("removes a pending task", func(t *testing.T) {
		s := newTestScheduler(t)

		// No worker registered, so the task stays pending.
		require.NoError(t, s.Submit(pendingTask("t1", core.TaskTypeWebSearch, core.PriorityMedium)))
		require.NoError(t, s.CancelTask("t1"))

		_, err := s.GetTask("t1")
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})

	t.Run("rejects unknown task ids", func(t *testing.T) {
		s := newTestScheduler(t)
		assert.ErrorIs(t, s.CancelTask("missing"), ErrTaskNotFound)
	})

	t.Run("rejects tasks already dispatched", func(t *testing.T) {
		s := newTestScheduler(t)

		release := make(chan struct{})
		w := newFakeWorker("w1")
		w.ExecuteFunc = func(ctx context.Context, task *core.Task) (*core.TaskResult, error) {
			<-release
			return &core.TaskResult{Found: true}, nil
		}
		require.NoError(t, s.RegisterWorker(context.Background(), w))
		require.NoError(t, s.Submit(pendingTask("t1", core.TaskTypeWebSearch, core.PriorityMedium)))

		waitForStatus(t, s, "t1", core.TaskStatusInProgress)
		assert.ErrorIs(t, s.CancelTask("t1"), ErrTaskNotPending)

		close(release)
		waitForStatus(t, s, "t1", core.TaskStatusCompleted)
	})
}

func TestSchedulerWorkers(t *testing.T) {
	t.Run("registration failure keeps the worker out", func(t *testing.T) {
		s := newTestScheduler(t)
		w := newFakeWorker("broken")
		w.initErr = errors.New("no provider")

		err := s.RegisterWorker(context.Background(), w)
		assert.ErrorContains(t, err, "no provider")

		stats := s.Stats()
		assert.Zero(t, stats.WorkersIdle)
		assert.Zero(t, stats.WorkersBusy)
	})

	t.Run("rejects duplicate worker ids", func(t *testing.T) {
		s := newTestScheduler(t)
		require.NoError(t, s.RegisterWorker(context.Background(), newFakeWorker("w1")))
		assert.ErrorIs(t, s.RegisterWorker(context.Background(), newFakeWorker("w1")), ErrWorkerExists)
	})

	t.Run("unregisters an idle worker", func(t *testing.T) {
		s := newTestScheduler(t)
		require.NoError(t, s.RegisterWorker(context.Background(), newFakeWorker("w1")))
		require.NoError(t, s.UnregisterWorker(context.Background(), "w1"))

		assert.ErrorIs(t, s.UnregisterWorker(context.Background(), "w1"), ErrWorkerNotFound)
	})

	t.Run("refuses to unregister a busy worker", func(t *testing.T) {
		s := newTestScheduler(t)

		release := make(chan struct{})
		w := newFakeWorker("w1")
		w.ExecuteFunc = func(ctx context.Context, task *core.Task) (*core.TaskResult, error) {
			<-release
			return &core.TaskResult{Found: true}, nil
		}
		require.NoError(t, s.RegisterWorker(context.Background(), w))
		require.NoError(t, s.Submit(pendingTask("t1", core.TaskTypeWebSearch, core.PriorityMedium)))

		waitForStatus(t, s, "t1", core.TaskStatusInProgress)
		assert.ErrorIs(t, s.UnregisterWorker(context.Background(), "w1"), ErrWorkerBusy)

		close(release)
		waitForStatus(t, s, "t1", core.TaskStatusCompleted)
		assert.NoError(t, s.UnregisterWorker(context.Background(), "w1"))
	})
}

func TestSchedulerListTasks(t *testing.T) {
	s := newTestScheduler(t)

	// No workers, so everything stays pending.
	require.NoError(t, s.Submit(pendingTask("medium", core.TaskTypeWebSearch, core.PriorityMedium)))
	require.NoError(t, s.Submit(pendingTask("critical", core.TaskTypeWebSearch, core.PriorityCritical)))
	require.NoError(t, s.Submit(pendingTask("low", core.TaskTypeWebSearch, core.PriorityLow)))

	t.Run("orders by priority then age", func(t *testing.T) {
		tasks := s.ListTasks(TaskFilter{})
		require.Len(t, tasks, 3)
		assert.Equal(t, "critical", tasks[0].Id)
		assert.Equal(t, "medium", tasks[1].Id)
		assert.Equal(t, "low", tasks[2].Id)
	})

	t.Run("filters by status", func(t *testing.T) {
		assert.Len(t, s.ListTasks(TaskFilter{Status: core.TaskStatusPending}), 3)
		assert.Empty(t, s.ListTasks(TaskFilter{Status: core.TaskStatusCompleted}))
	})

	t.Run("filters by type", func(t *testing.T) {
		assert.Len(t, s.ListTasks(TaskFilter{Type: core.TaskTypeWebSearch}), 3)
		assert.Empty(t, s.ListTasks(TaskFilter{Type: core.TaskTypeVectorSearch}))
	})

	t.Run("returns snapshots not live tasks", func(t *testing.T) {
		tasks := s.ListTasks(TaskFilter{})
		tasks[0].Priority = core.PriorityLow

		again := s.ListTasks(TaskFilter{})
		assert.Equal(t, core.PriorityCritical, again[0].Priority)
	})
}

func TestSchedulerStats(t *testing.T) {
	s := newTestScheduler(t)

	release := make(chan struct{})
	w := newFakeWorker("w1")
	w.ExecuteFunc = func(ctx context.Context, task *core.Task) (*core.TaskResult, error) {
		<-release
		return &core.TaskResult{Found: true}, nil
	}
	require.NoError(t, s.RegisterWorker(context.Background(), w))

	stats := s.Stats()
	assert.Equal(t, 1, stats.WorkersTotal)
	assert.Equal(t, 1, stats.WorkersIdle)
	assert.Zero(t, stats.WorkersBusy)
	assert.Zero(t, stats.TasksTotal)

	require.NoError(t, s.Submit(pendingTask("running", core.TaskTypeWebSearch, core.PriorityHigh)))
	require.NoError(t, s.Submit(pendingTask("queued", core.TaskTypeWebSearch, core.PriorityLow)))

	waitForStatus(t, s, "running", core.TaskStatusInProgress)

	stats = s.Stats()
	assert.Equal(t, 2, stats.TasksTotal)
	assert.Equal(t, 1, stats.TasksPending)
	assert.Equal(t, 1, stats.TasksInProgress)
	assert.Equal(t, 1, stats.WorkersTotal)
	assert.Equal(t, 1, stats.WorkersBusy)
	assert.Zero(t, stats.WorkersIdle)

	close(release)
	waitForStatus(t, s, "queued", core.TaskStatusCompleted)

	stats = s.Stats()
	assert.Equal(t, 2, stats.TasksTotal)
	assert.Equal(t, 2, stats.TasksCompleted)
	assert.Zero(t, stats.TasksPending)
	assert.Equal(t, 1, stats.WorkersIdle)
}

func TestSchedulerClose(t *testing.T) {
	t.Run("close is idempotent", func(t *testing.T) {
		s, err := NewScheduler(WithDispatchInterval(5 * time.Millisecond))
		require.NoError(t, err)

		require.NoError(t, s.Close(context.Background()))
		require.NoError(t, s.Close(context.Background()))
	})

	t.Run("in-flight tasks finish before close returns worker shutdown", func(t *testing.T) {
		s, err := NewScheduler(WithDispatchInterval(5 * time.Millisecond))
		require.NoError(t, err)

		w := newFakeWorker("w1")
		require.NoError(t, s.RegisterWorker(context.Background(), w))

		for i := 0; i < 5; i++ {
			require.NoError(t, s.Submit(pendingTask(fmt.Sprintf("t%d", i), core.TaskTypeWebSearch, core.PriorityMedium)))
		}

		require.Eventually(t, func() bool {
			return s.Stats().TasksCompleted == 5
		}, 2*time.Second, 2*time.Millisecond)

		require.NoError(t, s.Close(context.Background()))
	})

	t.Run("close blocks until an in-flight execution finalizes", func(t *testing.T) {
		s, err := NewScheduler(WithDispatchInterval(5 * time.Millisecond))
		require.NoError(t, err)

		release := make(chan struct{})
		w := newFakeWorker("w1")
		w.ExecuteFunc = func(ctx context.Context, task *core.Task) (*core.TaskResult, error) {
			<-release
			return &core.TaskResult{Found: true}, nil
		}
		require.NoError(t, s.RegisterWorker(context.Background(), w))
		require.NoError(t, s.Submit(pendingTask("t1", core.TaskTypeWebSearch, core.PriorityMedium)))
		waitForStatus(t, s, "t1", core.TaskStatusInProgress)

		closed := make(chan error, 1)
		go func() { closed <- s.Close(context.Background()) }()

		select {
		case <-closed:
			t.Fatal("Close returned while a task was still executing")
		case <-time.After(50 * time.Millisecond):
		}

		close(release)
		require.NoError(t, <-closed)

		task, err := s.GetTask("t1")
		require.NoError(t, err)
		assert.Equal(t, core.TaskStatusCompleted, task.Status)
	})
}

func TestSchedulerPoolRejection(t *testing.T) {
	s, err := NewScheduler(WithDispatchInterval(5 * time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	require.NoError(t, s.RegisterWorker(context.Background(), newFakeWorker("w1")))

	// Force every pool submission to fail.
	s.execPool.Release()

	require.NoError(t, s.Submit(pendingTask("t1", core.TaskTypeWebSearch, core.PriorityMedium)))

	// Give the dispatch loop a few passes at the task.
	time.Sleep(30 * time.Millisecond)

	task, err := s.GetTask("t1")
	require.NoError(t, err)
	assert.Equal(t, core.TaskStatusPending, task.Status)
	assert.Empty(t, task.AssignedWorker)
	assert.True(t, task.StartedAt.IsZero())

	stats := s.Stats()
	assert.Zero(t, stats.WorkersBusy)
	assert.Equal(t, 1, stats.WorkersIdle)
}
