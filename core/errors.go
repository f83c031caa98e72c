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

import "errors"

// Domain validation errors
var (
	// ErrInvalidTask indicates a Task failed validation.
	ErrInvalidTask = errors.New("invalid task")

	// ErrEmptyQuery indicates the payload query is empty.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrUnknownTaskType indicates an unrecognized task type tag.
	ErrUnknownTaskType = errors.New("unknown task type")

	// ErrInvalidPriority indicates an invalid Priority value.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrInvalidMaxResults indicates a negative result bound.
	ErrInvalidMaxResults = errors.New("max results cannot be negative")

	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyContent indicates the document Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")
)
