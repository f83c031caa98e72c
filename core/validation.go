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


package core

import (
	"fmt"
	"strings"
)

// ValidateTaskType validates that a task type is one of the known variants.
func ValidateTaskType(t TaskType) error {
	switch t {
	case TaskTypeWebSearch, TaskTypeVectorSearch, TaskTypeHybridSearch:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownTaskType, t)
}

// ValidatePriority validates that a priority is a known tier.
func ValidatePriority(p Priority) error {
	if p < PriorityLow || p > PriorityCritical {
		return fmt.Errorf("%w: value %d", ErrInvalidPriority, p)
	}
	return nil
}

// ValidateSearchPayload validates a payload according to domain rules.
//
// Validation rules:
//   - Query must not be empty or whitespace-only
//   - MaxResults must not be negative (zero means DefaultMaxResults)
func ValidateSearchPayload(payload SearchPayload) error {
	if strings.TrimSpace(payload.Query) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTask, ErrEmptyQuery)
	}
	if payload.MaxResults < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidTask, ErrInvalidMaxResults)
	}
	return nil
}

// ValidateTask validates a task at the submission boundary.
// Tasks that fail validation are rejected before they reach the queue,
// a provider, or a worker.
func ValidateTask(task *Task) error {
	if task == nil {
		return fmt.Errorf("%w: task is nil", ErrInvalidTask)
	}
	if err := ValidateTaskType(task.Type); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTask, err)
	}
	if err := ValidatePriority(task.Priority); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTask, err)
	}
	return ValidateSearchPayload(task.Payload)
}

// ValidateDocument validates a document before it enters the index.
//
// NOT validated (populated by the indexer):
//   - Vector (can be empty until the embedding pass runs)
//   - ID (derived from URL or content when zero)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if doc.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContent)
	}
	return nil
}
