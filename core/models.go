package core

import (
	"encoding/binary"
	"maps"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for retrieved documents and search results.
// It is generated using content-based hashing so that the same document
// reached through different retrieval modes resolves to the same ID.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// TaskType selects the worker capability required to execute a task.
type TaskType string

const (
	// TaskTypeWebSearch retrieves results from the external web search provider.
	TaskTypeWebSearch TaskType = "web-search"
	// TaskTypeVectorSearch retrieves results from the vector index.
	TaskTypeVectorSearch TaskType = "vector-search"
	// TaskTypeHybridSearch runs web and vector retrieval concurrently and fuses the results.
	TaskTypeHybridSearch TaskType = "hybrid-search"
)

// Priority orders tasks in the scheduler queue. Higher values dispatch first.
type Priority int

const (
	// PriorityLow is the lowest scheduling tier. Tasks that cannot be
	// assigned are requeued at this tier.
	PriorityLow Priority = iota + 1
	// PriorityMedium is the default scheduling tier.
	PriorityMedium
	// PriorityHigh dispatches before medium and low tasks.
	PriorityHigh
	// PriorityCritical dispatches before all other tiers.
	PriorityCritical
)

// String returns the lowercase name of the priority tier.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	}
	return "unknown"
}

// ParsePriority converts a tier name into a Priority.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	case "critical":
		return PriorityCritical, nil
	}
	return 0, ErrInvalidPriority
}

// TaskStatus tracks a task through its lifecycle.
// Valid transitions: pending -> assigned -> in_progress -> {completed, failed}.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusAssigned   TaskStatus = "assigned"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Terminal reports whether the status is a final state.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// CanTransition reports whether a transition from s to next is legal.
// Transitions never skip a step and never reverse.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	switch s {
	case TaskStatusPending:
		return next == TaskStatusAssigned
	case TaskStatusAssigned:
		return next == TaskStatusInProgress
	case TaskStatusInProgress:
		return next == TaskStatusCompleted || next == TaskStatusFailed
	}
	return false
}

// SearchPayload is the typed payload carried by every retrieval task.
// The task's Type field acts as the variant tag selecting the retrieval mode.
type SearchPayload struct {
	// Query is the retrieval query text. Must not be empty.
	Query string
	// MaxResults bounds the fused result set. Zero means DefaultMaxResults.
	MaxResults int
	// Filters restrict vector retrieval to documents whose metadata
	// contains all of the given key/value pairs. Ignored by web retrieval.
	Filters map[string]string
}

// DefaultMaxResults is applied when a payload does not bound its result set.
const DefaultMaxResults = 10

// SourceType identifies which retrieval mode produced a search result.
type SourceType string

const (
	// SourceWeb marks results returned by the web search provider.
	SourceWeb SourceType = "web"
	// SourceVector marks results returned by the vector index.
	SourceVector SourceType = "vector"
)

// SearchResult is a single ranked retrieval hit.
type SearchResult struct {
	Id             ID
	Title          string
	URL            string
	Snippet        string
	RelevanceScore float64 // always within [0, 1]
	SourceType     SourceType
	Metadata       map[string]string
}

// TaskResult is the fused, scored answer set produced by a completed task.
type TaskResult struct {
	Results []SearchResult
	// Confidence summarizes answer quality from result count and average
	// relevance. Always within [0, 0.95]; fixed at 0.2 when Found is false.
	Confidence float64
	// Found is false when retrieval succeeded but produced no results.
	Found bool
	// Message carries the explicit no-information-found marker when Found is false.
	Message string
}

// Task is a unit of retrieval work submitted to the scheduler.
type Task struct {
	Id             string
	Type           TaskType
	Payload        SearchPayload
	Priority       Priority
	Status         TaskStatus
	AssignedWorker string
	CreatedAt      time.Time
	StartedAt      time.Time
	CompletedAt    time.Time
	Result         *TaskResult
	Error          string
}

// Clone returns a deep copy of the task, safe to hand to callers while the
// scheduler keeps mutating the original.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.Payload.Filters = maps.Clone(t.Payload.Filters)
	if t.Result != nil {
		r := *t.Result
		r.Results = make([]SearchResult, len(t.Result.Results))
		copy(r.Results, t.Result.Results)
		for i := range r.Results {
			r.Results[i].Metadata = maps.Clone(r.Results[i].Metadata)
		}
		c.Result = &r
	}
	return &c
}

// Document is an indexed record served by the vector index.
type Document struct {
	Id         ID
	Title      string
	URL        string
	Content    string
	Vector     []float32 // Embedding vector for similarity search (populated by the indexer)
	Metadata   map[string]string
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// DocumentMatch is a document returned by vector similarity search.
type DocumentMatch struct {
	Document *Document
	Score    float32
}
