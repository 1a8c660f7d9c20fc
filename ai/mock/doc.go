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


// Package mock provides a test double for the ai.Embedder interface.
//
// The mock embedder produces deterministic vectors from an FNV hash of the
// input, records the exact (post-truncation) payloads it receives, and
// supports behavior injection through function fields. It is used by tests
// across the module to exercise the pipeline and the search engine without a
// running embedding service.
package mock
