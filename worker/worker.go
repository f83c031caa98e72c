package worker

import (
	"context"
	"sync"

	"github.com/poiesic/retrievit/core"
)

// Status is the lifecycle state of a worker.
type Status int

const (
	// StatusIdle means the worker is initialized and available for work.
	StatusIdle Status = iota + 1
	// StatusBusy means the worker is executing a task.
	StatusBusy
	// StatusError means the worker failed to initialize or hit an
	// unrecoverable fault; it must not receive tasks.
	StatusError
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusBusy:
		return "busy"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Worker is a capability-bearing executor of retrieval tasks.
// A worker processes at most one task at a time.
type Worker interface {
	// ID returns the worker's unique identifier.
	ID() string

	// Type returns the worker specialization name.
	Type() string

	// Capabilities returns the task types this worker can execute.
	Capabilities() []core.TaskType

	// Status returns the worker's current lifecycle state.
	Status() Status

	// Initialize performs provider setup. On failure the worker enters
	// StatusError and must not be registered as available.
	Initialize(ctx context.Context) error

	// Execute runs the task's retrieval and returns the fused result.
	// The worker reads the task's type and payload; it never mutates the task.
	Execute(ctx context.Context, task *core.Task) (*core.TaskResult, error)

	// Shutdown releases provider handles. Idempotent.
	Shutdown(ctx context.Context) error
}

// StatusMonitor receives worker lifecycle notifications.
// Implement this interface to observe workers going idle, busy, or into
// error state. Notifications are a side channel for logging and metrics,
// not part of the execution contract.
type StatusMonitor interface {
	WorkerStatusChanged(workerID string, from, to Status)
}

// noopMonitor is a no-op implementation of StatusMonitor
type noopMonitor struct{}

var _ StatusMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) WorkerStatusChanged(_ string, _, _ Status) {}

// base carries the identity, capability set, and observable status shared
// by worker implementations.
type base struct {
	id         string
	workerType string
	caps       []core.TaskType
	monitor    StatusMonitor

	mu     sync.Mutex
	status Status
}

func (b *base) ID() string {
	return b.id
}

func (b *base) Type() string {
	return b.workerType
}

func (b *base) Capabilities() []core.TaskType {
	caps := make([]core.TaskType, len(b.caps))
	copy(caps, b.caps)
	return caps
}

func (b *base) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// setStatus records the new status and notifies the monitor on change.
func (b *base) setStatus(next Status) {
	b.mu.Lock()
	from := b.status
	b.status = next
	b.mu.Unlock()

	if from != next {
		b.monitor.WorkerStatusChanged(b.id, from, next)
	}
}

// CanHandle reports whether the worker's capability set contains taskType.
func (b *base) CanHandle(taskType core.TaskType) bool {
	for _, c := range b.caps {
		if c == taskType {
			return true
		}
	}
	return false
}
