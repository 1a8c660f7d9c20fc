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

package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/docvault/ai"
	"github.com/poiesic/docvault/core"
	"github.com/poiesic/docvault/index"
	"github.com/poiesic/docvault/ingest"
	"github.com/poiesic/docvault/storage"
)

const (
	// MaxTopK is the service-wide result cap; requested topK values clamp to it.
	MaxTopK = 50

	// DefaultTopK applies when the caller does not specify a limit.
	DefaultTopK = 10
)

// Options tune one search invocation.
type Options struct {
	TopK    int
	Filter  index.Filter
	Hydrate bool // fetch full chunk content from the metadata store
}

// Result is one ranked hit. Chunk is populated only when hydration was
// requested and the metadata store still holds the record.
type Result struct {
	ID       string
	Score    float32
	Metadata map[string]string
	Chunk    *core.Chunk
}

// Searcher is the read path: embed the query, rank against the vector
// index, optionally hydrate chunk content.
type Searcher struct {
	embedder ai.Embedder
	index    index.Index
	chunks   storage.ChunkStore
	logger   *slog.Logger
	retry    ingest.Policy
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "search")
		return nil
	}
}

// NewSearcher creates a new searcher over the given collaborators.
func NewSearcher(embedder ai.Embedder, idx index.Index, chunks storage.ChunkStore, opts ...Option) (*Searcher, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if chunks == nil {
		return nil, ErrChunkStoreRequired
	}

	s := &Searcher{
		embedder: embedder,
		index:    idx,
		chunks:   chunks,
		logger:   slog.Default().With("component", "search"),
		// Short fixed backoff: MaxDelay == BaseDelay pins every retry gap.
		retry: ingest.Policy{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    time.Second,
			Classify:    ingest.ClassifyFault,
		},
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Search returns ranked results for the query.
func (s *Searcher) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	return s.SearchWithMonitor(ctx, query, opts, nil)
}

// SearchWithMonitor returns ranked results, reporting each stage to the
// monitor. Zero matches is a valid, non-error result. When retries against
// the embedding service or the index are exhausted, the search degrades to
// an empty result set; the outage is logged and reported through the
// monitor's Degraded hook rather than propagated.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, opts Options, monitor Monitor) ([]Result, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(query)

	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	var vector []float32
	err := s.retry.Do(ctx, func() error {
		var err error
		vector, err = s.embedder.EmbedText(ctx, query)
		return err
	})
	if err != nil {
		return s.degrade(ctx, monitor, "embedding query failed after retries", err)
	}
	monitor.AfterEmbedding(vector)

	var matches []index.Match
	err = s.retry.Do(ctx, func() error {
		var err error
		matches, err = s.index.Query(ctx, vector, topK, opts.Filter)
		return err
	})
	if err != nil {
		return s.degrade(ctx, monitor, "index query failed after retries", err)
	}
	monitor.AfterIndexQuery(matches)

	results, err := s.assemble(ctx, matches, opts.Hydrate)
	if err != nil {
		return nil, err
	}
	monitor.Finish(results)
	return results, nil
}

// assemble converts matches into results, preserving the index's rank order
// through hydration. The metadata store's natural order never leaks out.
func (s *Searcher) assemble(ctx context.Context, matches []index.Match, hydrate bool) ([]Result, error) {
	results := make([]Result, len(matches))
	for i, m := range matches {
		results[i] = Result{ID: m.ID, Score: m.Score, Metadata: m.Metadata}
	}
	if !hydrate || len(matches) == 0 {
		return results, nil
	}

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	found, err := s.chunks.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range results {
		if chunk, ok := found[results[i].ID]; ok {
			chunk := chunk
			results[i].Chunk = &chunk
		}
	}
	return results, nil
}

// degrade is the deliberate read-path availability trade-off: exhausted
// retries yield an empty result set, not an error. Context cancellation is
// the caller's own doing and still propagates.
func (s *Searcher) degrade(ctx context.Context, monitor Monitor, msg string, err error) ([]Result, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	s.logger.Error("search degraded to empty result", "reason", msg, "error", err)
	monitor.Degraded(err)
	return []Result{}, nil
}
