// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingest

import "errors"

var (
	// ErrInvalidMaxAttempts indicates a retry policy with a non-positive attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than zero")

	// ErrIngestionFailed indicates the unrecovered write loss exceeded the
	// configured failure threshold, or no content could be extracted at all.
	ErrIngestionFailed = errors.New("ingestion failed")

	// ErrNoRecords indicates an upsert invocation with an empty record set.
	ErrNoRecords = errors.New("no records to upsert")

	// ErrEmbeddingFailed indicates the embedding service could not be reached
	// after retries.
	ErrEmbeddingFailed = errors.New("embedding failed")
)
