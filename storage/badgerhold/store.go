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

// Package badgerhold implements the metadata store on an embedded
// badgerhold database: documents and chunks as typed records with
// field-level queries.
package badgerhold

import (
	"fmt"
	"log/slog"
	"os"

	bh "github.com/timshannon/badgerhold/v4"

	"github.com/poiesic/docvault/storage"
)

// Store owns the badgerhold database and hands out the typed record stores.
type Store struct {
	db     *bh.Store
	logger *slog.Logger
}

// Open opens (or creates) the metadata database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating metadata directory: %w", err)
	}

	options := bh.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil

	db, err := bh.Open(options)
	if err != nil {
		return nil, fmt.Errorf("opening metadata store at %s: %w", path, err)
	}

	logger = logger.With("component", "metadata-store")
	logger.Debug("metadata store opened", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Documents returns the document record store.
func (s *Store) Documents() storage.DocumentStore {
	return &documentStore{db: s.db, logger: s.logger}
}

// Chunks returns the chunk record store.
func (s *Store) Chunks() storage.ChunkStore {
	return &chunkStore{db: s.db, logger: s.logger}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
