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
	"errors"
	"fmt"
	"log/slog"
	"time"

	bh "github.com/timshannon/badgerhold/v4"

	"github.com/poiesic/docvault/core"
	"github.com/poiesic/docvault/storage"
)

type documentStore struct {
	db     *bh.Store
	logger *slog.Logger
}

func (s *documentStore) Create(ctx context.Context, doc *core.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := core.ValidateDocument(doc); err != nil {
		return err
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	if err := s.db.Insert(doc.ID, doc); err != nil {
		if errors.Is(err, bh.ErrKeyExists) {
			return fmt.Errorf("%w: %s", storage.ErrDocumentExists, doc.ID)
		}
		return fmt.Errorf("creating document %s: %w", doc.ID, err)
	}
	s.logger.Debug("document created", "docID", doc.ID, "filename", doc.Filename)
	return nil
}

func (s *documentStore) Get(ctx context.Context, id string) (*core.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var doc core.Document
	if err := s.db.Get(id, &doc); err != nil {
		if errors.Is(err, bh.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", storage.ErrDocumentNotFound, id)
		}
		return nil, fmt.Errorf("getting document %s: %w", id, err)
	}
	return &doc, nil
}

func (s *documentStore) List(ctx context.Context) ([]core.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var docs []core.Document
	if err := s.db.Find(&docs, (&bh.Query{}).SortBy("CreatedAt").Reverse()); err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return docs, nil
}

// UpdateStatus applies the terminal transition. The one-shot lifecycle is
// enforced here so no caller can flip a completed document back.
func (s *documentStore) UpdateStatus(ctx context.Context, id string, status core.DocumentStatus, update storage.StatusUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := core.ValidateTransition(doc.Status, status); err != nil {
		return fmt.Errorf("document %s: %w", id, err)
	}

	doc.Status = status
	doc.Error = update.Error
	doc.ChunkCount = update.ChunkCount
	doc.AttemptedCount = update.AttemptedCount
	doc.StoredCount = update.StoredCount
	doc.ProcessedAt = time.Now()

	if err := s.db.Update(id, doc); err != nil {
		return fmt.Errorf("updating document %s: %w", id, err)
	}
	s.logger.Info("document status updated",
		"docID", id, "status", status,
		"chunks", update.ChunkCount, "stored", update.StoredCount)
	return nil
}

func (s *documentStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.Delete(id, &core.Document{}); err != nil {
		if errors.Is(err, bh.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("deleting document %s: %w", id, err)
	}
	return nil
}
