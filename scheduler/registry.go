package scheduler

import (
	"slices"

	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/worker"
)

// registry tracks registered workers and their current task reservations.
// Reservations are held here rather than read back from worker status so
// that dispatch decisions stay consistent under the scheduler's mutex.
type registry struct {
	workers  map[string]worker.Worker
	assigned map[string]string // worker ID -> task ID
}

func newRegistry() *registry {
	return &registry{
		workers:  make(map[string]worker.Worker),
		assigned: make(map[string]string),
	}
}

// Add registers a worker. The worker must already be initialized.
func (r *registry) Add(w worker.Worker) error {
	if _, exists := r.workers[w.ID()]; exists {
		return ErrWorkerExists
	}
	r.workers[w.ID()] = w
	return nil
}

// Remove unregisters a worker. Fails when the worker holds a reservation.
func (r *registry) Remove(id string) (worker.Worker, error) {
	w, ok := r.workers[id]
	if !ok {
		return nil, ErrWorkerNotFound
	}
	if _, busy := r.assigned[id]; busy {
		return nil, ErrWorkerBusy
	}
	delete(r.workers, id)
	return w, nil
}

// FindIdle returns an unreserved worker capable of the task type, or nil.
// Workers are scanned in ID order so assignment is deterministic.
func (r *registry) FindIdle(taskType core.TaskType) worker.Worker {
	ids := make([]string, 0, len(r.workers))
	for id := range r.workers {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		if _, busy := r.assigned[id]; busy {
			continue
		}
		w := r.workers[id]
		if w.Status() == worker.StatusError {
			continue
		}
		if capableOf(w, taskType) {
			return w
		}
	}
	return nil
}

// HasCapable reports whether any registered worker, busy or not, can
// execute the task type. Used to decide between waiting and demoting.
func (r *registry) HasCapable(taskType core.TaskType) bool {
	for _, w := range r.workers {
		if w.Status() == worker.StatusError {
			continue
		}
		if capableOf(w, taskType) {
			return true
		}
	}
	return false
}

// Reserve marks a worker as executing a task.
func (r *registry) Reserve(workerID, taskID string) {
	r.assigned[workerID] = taskID
}

// Release clears a worker's reservation.
func (r *registry) Release(workerID string) {
	delete(r.assigned, workerID)
}

// Counts returns the number of idle and reserved workers.
func (r *registry) Counts() (idle, busy int) {
	for id, w := range r.workers {
		if _, reserved := r.assigned[id]; reserved {
			busy++
			continue
		}
		if w.Status() != worker.StatusError {
			idle++
		}
	}
	return idle, busy
}

// All returns the registered workers in ID order.
func (r *registry) All() []worker.Worker {
	ids := make([]string, 0, len(r.workers))
	for id := range r.workers {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	workers := make([]worker.Worker, 0, len(ids))
	for _, id := range ids {
		workers = append(workers, r.workers[id])
	}
	return workers
}

func capableOf(w worker.Worker, taskType core.TaskType) bool {
	for _, c := range w.Capabilities() {
		if c == taskType {
			return true
		}
	}
	return false
}
