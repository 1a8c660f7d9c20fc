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

package docvault

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/docvault/ai"
	"github.com/poiesic/docvault/ai/openai"
	"github.com/poiesic/docvault/core"
	"github.com/poiesic/docvault/index"
	indexbadger "github.com/poiesic/docvault/index/badger"
	"github.com/poiesic/docvault/ingest"
	"github.com/poiesic/docvault/parser"
	"github.com/poiesic/docvault/search"
	storagebh "github.com/poiesic/docvault/storage/badgerhold"
)

const defaultWorkers = 4

// taskPool is the slice of the ants pool API the service uses. Satisfied by
// *ants.Pool.
type taskPool interface {
	Submit(task func()) error
	Release()
}

// Service owns every pipeline collaborator: metadata store, vector index,
// embedder, parser resolver, upsert engine, searcher, and a worker pool for
// concurrent ingestion of independent documents. All dependencies are
// injected at construction; there are no process globals.
type Service struct {
	store    *storagebh.Store
	index    index.Index
	embedder ai.Embedder
	resolver *parser.Resolver
	pipeline *ingest.Pipeline
	searcher *search.Searcher
	pool     taskPool
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	aiConfig *ai.Config
	upsert   ingest.UpsertConfig
	logger   *slog.Logger
	workers  int
	embedder ai.Embedder
	backends []parser.Backend
}

// WithAIConfig sets the embedding service configuration.
func WithAIConfig(cfg *ai.Config) Option {
	return func(o *serviceOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithUpsertConfig overrides the batch upsert engine tuning.
func WithUpsertConfig(cfg ingest.UpsertConfig) Option {
	return func(o *serviceOptions) { o.upsert = cfg }
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithWorkers sets the async ingestion pool size.
func WithWorkers(n int) Option {
	return func(o *serviceOptions) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithEmbedder injects an embedder, bypassing the OpenAI-compatible client.
func WithEmbedder(e ai.Embedder) Option {
	return func(o *serviceOptions) { o.embedder = e }
}

// WithParserBackends overrides the default backend chain.
func WithParserBackends(backends ...parser.Backend) Option {
	return func(o *serviceOptions) { o.backends = backends }
}

// New opens a service rooted at dataDir: the metadata store under
// dataDir/metadata, the vector index under dataDir/vectors.
func New(dataDir string, opts ...Option) (*Service, error) {
	options := &serviceOptions{
		aiConfig: ai.DefaultConfig(),
		upsert:   ingest.DefaultUpsertConfig(),
		logger:   slog.Default(),
		workers:  defaultWorkers,
	}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger

	store, err := storagebh.Open(filepath.Join(dataDir, "metadata"), logger)
	if err != nil {
		return nil, err
	}

	backend, err := indexbadger.OpenBackend(filepath.Join(dataDir, "vectors"), false, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			backend.Close()
			store.Close()
			return nil, err
		}
	}

	var resolver *parser.Resolver
	if len(options.backends) > 0 {
		resolver = parser.NewResolver(logger, options.backends...)
	} else {
		resolver = parser.NewDefaultResolver(logger)
	}

	pool, err := ants.NewPool(options.workers)
	if err != nil {
		backend.Close()
		store.Close()
		return nil, err
	}

	engine := ingest.NewEngine(backend, options.upsert, logger)
	pipeline := ingest.NewPipeline(resolver, embedder, engine, store.Documents(), store.Chunks(), logger)

	searcher, err := search.NewSearcher(embedder, backend, store.Chunks(), search.WithLogger(logger))
	if err != nil {
		pool.Release()
		backend.Close()
		store.Close()
		return nil, err
	}

	return &Service{
		store:    store,
		index:    backend,
		embedder: embedder,
		resolver: resolver,
		pipeline: pipeline,
		searcher: searcher,
		pool:     pool,
		logger:   logger,
	}, nil
}

// Ingest processes one file end to end and returns its terminal document
// record.
func (s *Service) Ingest(ctx context.Context, path string) (*core.Document, error) {
	return s.pipeline.Ingest(ctx, path)
}

// IngestAsync submits a file to the worker pool. The callback receives the
// terminal document (or nil) and the pipeline error once the run finishes.
// Documents are independent, so concurrent runs are safe.
func (s *Service) IngestAsync(ctx context.Context, path string, callback func(*core.Document, error)) error {
	return s.pool.Submit(func() {
		doc, err := s.pipeline.Ingest(ctx, path)
		if callback != nil {
			callback(doc, err)
		}
	})
}

// DirReport summarizes a directory ingestion run.
type DirReport struct {
	Ingested int
	Failed   int
	Skipped  int
}

// IngestDir walks dir recursively and ingests every supported file through
// the worker pool, reporting progress to progressOut when non-nil.
// Unsupported files are counted and skipped. Individual document failures
// do not stop the walk.
func (s *Service) IngestDir(ctx context.Context, dir string, progressOut io.Writer) (DirReport, error) {
	var report DirReport

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, err := core.FileTypeForPath(path); err != nil {
			report.Skipped++
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("walking %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return report, nil
	}

	var tracker *ingest.ProgressTracker
	if progressOut != nil {
		tracker = ingest.NewProgressTracker(progressOut, len(paths), 1)
		tracker.Start()
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, path := range paths {
		path := path
		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()
			_, err := s.pipeline.Ingest(ctx, path)

			mu.Lock()
			if err != nil {
				report.Failed++
				s.logger.Error("directory ingestion: document failed", "path", path, "error", err)
			} else {
				report.Ingested++
			}
			mu.Unlock()
			if tracker != nil {
				tracker.Increment(1)
			}
		})
		if submitErr != nil {
			wg.Done()
			// Earlier submissions are still running and mutating report.
			wg.Wait()
			if tracker != nil {
				tracker.Finish()
			}
			return report, submitErr
		}
	}
	wg.Wait()

	if tracker != nil {
		tracker.Finish()
	}
	return report, nil
}

// Search runs a semantic query over the indexed corpus.
func (s *Service) Search(ctx context.Context, query string, opts search.Options) ([]search.Result, error) {
	return s.searcher.Search(ctx, query, opts)
}

// SearchWithMonitor runs a semantic query with observability hooks.
func (s *Service) SearchWithMonitor(ctx context.Context, query string, opts search.Options, monitor search.Monitor) ([]search.Result, error) {
	return s.searcher.SearchWithMonitor(ctx, query, opts, monitor)
}

// Documents lists every document record, newest first.
func (s *Service) Documents(ctx context.Context) ([]core.Document, error) {
	return s.store.Documents().List(ctx)
}

// Document returns one document record by id.
func (s *Service) Document(ctx context.Context, id string) (*core.Document, error) {
	return s.store.Documents().Get(ctx, id)
}

// Chunks returns a document's stored chunks in sequence order.
func (s *Service) Chunks(ctx context.Context, docID string) ([]core.Chunk, error) {
	return s.store.Chunks().ListByDoc(ctx, docID)
}

// DeleteDocument removes a document record, its chunks, and its vector
// records. Vectors are matched in the index itself by document id, so
// records a partially failed ingestion left behind are removed even when no
// chunk record exists for them. Vectors go first so a failure part way
// leaves orphaned metadata rather than orphaned vectors surfacing in search
// results.
func (s *Service) DeleteDocument(ctx context.Context, id string) error {
	removed, err := s.index.DeleteMatching(ctx, index.Filter{DocID: id})
	if err != nil {
		return fmt.Errorf("deleting vectors for %s: %w", id, err)
	}
	if _, err := s.store.Chunks().DeleteByDoc(ctx, id); err != nil {
		return err
	}
	if err := s.store.Documents().Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("document deleted", "docID", id, "vectors", removed)
	return nil
}

// Backends reports every parser backend with its cached availability.
func (s *Service) Backends() []parser.Availability {
	return s.resolver.Availability()
}

// Close releases the worker pool and closes the index and metadata store.
func (s *Service) Close() error {
	s.pool.Release()

	var firstErr error
	if err := s.index.Close(); err != nil {
		s.logger.Error("error closing vector index", "err", err)
		firstErr = err
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing metadata store", "err", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
