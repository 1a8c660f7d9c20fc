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

package storage

import (
	"context"

	"github.com/poiesic/docvault/core"
)

// StatusUpdate carries the fields written at a document's terminal
// transition. Attempted and stored counts keep partial upsert loss visible
// on the record itself.
type StatusUpdate struct {
	Error          string
	ChunkCount     int
	AttemptedCount int
	StoredCount    int
}

// DocumentStore persists document records. Implementations must enforce the
// one-shot status lifecycle: processing transitions at most once, to
// completed or failed, and terminal records reject further updates.
type DocumentStore interface {
	// Create inserts a new record. The document must validate and its id
	// must be unused.
	Create(ctx context.Context, doc *core.Document) error

	// Get returns the record for id, or ErrDocumentNotFound.
	Get(ctx context.Context, id string) (*core.Document, error)

	// List returns all records, newest first.
	List(ctx context.Context) ([]core.Document, error)

	// UpdateStatus performs the terminal transition for id, stamping
	// ProcessedAt and applying the update fields. Rejects transitions out
	// of a terminal state with core.ErrStatusFinal.
	UpdateStatus(ctx context.Context, id string, status core.DocumentStatus, update StatusUpdate) error

	// Delete removes the record for id. Deleting a missing id is a no-op.
	Delete(ctx context.Context, id string) error
}

// ChunkStore persists chunk records keyed by chunk id.
type ChunkStore interface {
	// PutBatch writes chunks, overwriting records with matching ids.
	PutBatch(ctx context.Context, chunks []core.Chunk) error

	// GetByIDs returns the found chunks keyed by id. Missing ids are
	// simply absent from the result, not an error.
	GetByIDs(ctx context.Context, ids []string) (map[string]core.Chunk, error)

	// ListByDoc returns a document's chunks in sequence order.
	ListByDoc(ctx context.Context, docID string) ([]core.Chunk, error)

	// DeleteByDoc removes every chunk of a document, returning the count.
	DeleteByDoc(ctx context.Context, docID string) (int, error)

	// CountByDoc returns the number of stored chunks for a document.
	CountByDoc(ctx context.Context, docID string) (int, error)
}
