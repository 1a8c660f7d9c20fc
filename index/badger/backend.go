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

// Package badger implements the vector index on an embedded BadgerDB:
// records serialized with MUS, similarity queries as a brute-force cosine
// scan. Suited to single-node corpora; swap in a managed ANN service behind
// index.Index for anything larger.
package badger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/poiesic/docvault/core"
	"github.com/poiesic/docvault/index"
)

const vectorRecordPrefix = "vec:"

// Backend wraps a BadgerDB instance holding vector records.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

var _ index.Index = (*Backend)(nil)

// badgerLoggerAdapter adapts slog.Logger to the badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a vector index at the specified path, creating the
// directory if needed. An in-memory index keeps nothing on disk.
func OpenBackend(filePath string, inMemory bool, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	logger = logger.With("component", "vector-index")
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Backend{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// withTx executes fn within a transaction. A write transaction must be
// committed by fn; the transaction is discarded on error.
func (b *Backend) withTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

func recordKey(id string) []byte {
	return []byte(vectorRecordPrefix + id)
}

// Upsert writes every record, overwriting any record with the same id.
func (b *Backend) Upsert(ctx context.Context, records []core.VectorRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.db.IsClosed() {
		return index.ErrClosed
	}
	for _, r := range records {
		if r.ID == "" || len(r.Vector) == 0 {
			return fmt.Errorf("%w: id=%q vectorLen=%d", index.ErrInvalidRecord, r.ID, len(r.Vector))
		}
	}

	return b.withTx(func(tx *badger.Txn) error {
		for _, r := range records {
			if err := tx.Set(recordKey(r.ID), marshalVectorRecord(r)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Query scans every stored record, scores it by cosine similarity against
// vector, and returns the topK best matches passing the filter, highest
// score first.
func (b *Backend) Query(ctx context.Context, vector []float32, topK int, filter index.Filter) ([]index.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.db.IsClosed() {
		return nil, index.ErrClosed
	}
	if len(vector) == 0 {
		return nil, index.ErrInvalidVector
	}

	var matches []index.Match
	err := b.withTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(vectorRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record core.VectorRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = unmarshalVectorRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if len(record.Vector) == 0 {
				continue
			}
			if !filter.Matches(record.Metadata) {
				continue
			}

			matches = append(matches, index.Match{
				ID:       record.ID,
				Score:    cosineSimilarity(vector, record.Vector),
				Metadata: record.Metadata,
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(matches, func(a, c index.Match) int {
		if a.Score > c.Score {
			return -1
		}
		if a.Score < c.Score {
			return 1
		}
		return 0
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Delete removes the records with the given ids. Missing ids are ignored.
func (b *Backend) Delete(ctx context.Context, ids ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.db.IsClosed() {
		return index.ErrClosed
	}

	return b.withTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := tx.Delete(recordKey(id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// DeleteMatching removes every record whose metadata satisfies filter and
// reports how many were removed.
func (b *Backend) DeleteMatching(ctx context.Context, filter index.Filter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if b.db.IsClosed() {
		return 0, index.ErrClosed
	}

	var ids []string
	err := b.withTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(vectorRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record core.VectorRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = unmarshalVectorRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if filter.Matches(record.Metadata) {
				ids = append(ids, record.ID)
			}
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := b.Delete(ctx, ids...); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// cosineSimilarity scores two vectors in [-1, 1] regardless of magnitude.
func cosineSimilarity(a, b []float32) float32 {
	n := min(len(a), len(b))
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
