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

import "errors"

var (
	// ErrTaskNotFound indicates the task ID is unknown to the scheduler.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskNotPending indicates an operation that requires a pending
	// task was attempted on a task already dispatched or finished.
	ErrTaskNotPending = errors.New("task is not pending")

	// ErrWorkerExists indicates a worker with the same ID is already registered.
	ErrWorkerExists = errors.New("worker already registered")

	// ErrWorkerNotFound indicates the worker ID is not registered.
	ErrWorkerNotFound = errors.New("worker not found")

	// ErrWorkerBusy indicates the worker is executing a task and cannot
	// be unregistered.
	ErrWorkerBusy = errors.New("worker is busy")

	// ErrSchedulerClosed indicates the scheduler has been shut down.
	ErrSchedulerClosed = errors.New("scheduler is closed")
)
