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


package worker

import (
	"errors"
	"fmt"
)

var (
	// ErrInitialization indicates a worker failed to initialize.
	// A worker that fails initialization never enters the registry.
	ErrInitialization = errors.New("worker initialization failed")

	// ErrUnsupportedTaskType indicates the worker was handed a task
	// outside its capability set.
	ErrUnsupportedTaskType = errors.New("unsupported task type")

	// ErrAllModesFailed indicates every sub-call of a hybrid task failed.
	ErrAllModesFailed = errors.New("all retrieval modes failed")
)

// ProviderError wraps a failure from an external retrieval service.
// In single-mode execution it fails the task; in hybrid mode a single
// provider failure is tolerated and the surviving mode's results are used.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
