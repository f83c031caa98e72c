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


// Package worker defines the capability-bearing execution units dispatched
// by the scheduler.
//
// SearchWorker implements three retrieval modes:
//   - web: keyword retrieval against the external web search provider
//   - vector: embedding similarity retrieval against the vector index
//   - hybrid: both modes concurrently, tolerating single-mode failure
//
// Results from all modes are fused: deduplicated by content ID, ranked by
// relevance score, truncated to the requested budget, and summarized by a
// deterministic confidence score.
package worker
