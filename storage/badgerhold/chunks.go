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

package badgerhold

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	bh "github.com/timshannon/badgerhold/v4"

	"github.com/poiesic/docvault/core"
)

type chunkStore struct {
	db     *bh.Store
	logger *slog.Logger
}

func (s *chunkStore) PutBatch(ctx context.Context, chunks []core.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := time.Now()
	for i := range chunks {
		chunk := &chunks[i]
		if err := core.ValidateChunk(chunk); err != nil {
			return err
		}
		if chunk.CreatedAt.IsZero() {
			chunk.CreatedAt = now
		}
		if err := s.db.Upsert(chunk.ID, chunk); err != nil {
			return fmt.Errorf("storing chunk %s: %w", chunk.ID, err)
		}
	}
	s.logger.Debug("chunks stored", "count", len(chunks))
	return nil
}

func (s *chunkStore) GetByIDs(ctx context.Context, ids []string) (map[string]core.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	found := make(map[string]core.Chunk, len(ids))
	for _, id := range ids {
		var chunk core.Chunk
		if err := s.db.Get(id, &chunk); err != nil {
			if err == bh.ErrNotFound {
				continue
			}
			return nil, fmt.Errorf("getting chunk %s: %w", id, err)
		}
		found[id] = chunk
	}
	return found, nil
}

func (s *chunkStore) ListByDoc(ctx context.Context, docID string) ([]core.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var chunks []core.Chunk
	err := s.db.Find(&chunks, bh.Where("DocID").Eq(docID).SortBy("Index"))
	if err != nil {
		return nil, fmt.Errorf("listing chunks for %s: %w", docID, err)
	}
	return chunks, nil
}

func (s *chunkStore) DeleteByDoc(ctx context.Context, docID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	count, err := s.CountByDoc(ctx, docID)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}
	if err := s.db.DeleteMatching(&core.Chunk{}, bh.Where("DocID").Eq(docID)); err != nil {
		return 0, fmt.Errorf("deleting chunks for %s: %w", docID, err)
	}
	s.logger.Debug("chunks deleted", "docID", docID, "count", count)
	return count, nil
}

func (s *chunkStore) CountByDoc(ctx context.Context, docID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var chunks []core.Chunk
	if err := s.db.Find(&chunks, bh.Where("DocID").Eq(docID)); err != nil {
		return 0, fmt.Errorf("counting chunks for %s: %w", docID, err)
	}
	return len(chunks), nil
}
