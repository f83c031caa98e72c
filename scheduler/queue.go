package scheduler

import (
	"container/heap"

	"github.com/poiesic/retrievit/core"
)

// queueItem wraps a task with the bookkeeping the heap needs. seq breaks
// ties between tasks created in the same instant so ordering stays FIFO
// within a priority tier.
type queueItem struct {
	task  *core.Task
	seq   uint64
	index int
}

// taskHeap orders items by priority descending, then CreatedAt ascending,
// then submission sequence ascending. Not safe for concurrent use; the
// scheduler's mutex guards it.
type taskHeap []*queueItem

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.task.Priority != b.task.Priority {
		return a.task.Priority > b.task.Priority
	}
	if !a.task.CreatedAt.Equal(b.task.CreatedAt) {
		return a.task.CreatedAt.Before(b.task.CreatedAt)
	}
	return a.seq < b.seq
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	item := x.(*queueItem)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// taskQueue is the scheduler's pending-task priority queue.
type taskQueue struct {
	heap  taskHeap
	items map[string]*queueItem
	seq   uint64
}

func newTaskQueue() *taskQueue {
	return &taskQueue{items: make(map[string]*queueItem)}
}

func (q *taskQueue) Len() int {
	return q.heap.Len()
}

// Push enqueues a task, preserving FIFO order within its priority tier.
func (q *taskQueue) Push(task *core.Task) {
	q.seq++
	item := &queueItem{task: task, seq: q.seq}
	q.items[task.Id] = item
	heap.Push(&q.heap, item)
}

// Pop removes and returns the highest-priority task, or nil when empty.
func (q *taskQueue) Pop() *core.Task {
	if q.heap.Len() == 0 {
		return nil
	}
	item := heap.Pop(&q.heap).(*queueItem)
	delete(q.items, item.task.Id)
	return item.task
}

// Remove deletes a queued task by ID. Returns false if the task is not queued.
func (q *taskQueue) Remove(id string) bool {
	item, ok := q.items[id]
	if !ok {
		return false
	}
	heap.Remove(&q.heap, item.index)
	delete(q.items, id)
	return true
}

// Contains reports whether a task with the given ID is queued.
func (q *taskQueue) Contains(id string) bool {
	_, ok := q.items[id]
	return ok
}
