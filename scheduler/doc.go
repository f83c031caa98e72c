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


// Package scheduler implements the priority task queue, the worker
// registry, and the dispatch loop that connects them.
//
// Pending tasks are ordered by priority, then arrival time. The dispatch
// loop pops the head task and hands it to an idle worker whose capability
// set contains the task's type; when no such worker exists the task is
// requeued at the lowest priority tier. Execution runs asynchronously on
// a shared pool, so the loop never blocks on a task's completion.
package scheduler
