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

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/poiesic/docvault/ai"
	"github.com/poiesic/docvault/core"
	"github.com/poiesic/docvault/storage"
)

// Parser is the extraction boundary consumed by the pipeline.
type Parser interface {
	Parse(ctx context.Context, path string) ([]core.ContentBlock, error)
}

// Pipeline runs one document through parse, normalize, embed, upsert and the
// terminal status update. Sequential per document; safe for concurrent
// documents because chunk ids are namespaced by document id and the injected
// clients hold no per-call state.
type Pipeline struct {
	parser     Parser
	embedder   ai.Embedder
	engine     *Engine
	docs       storage.DocumentStore
	chunks     storage.ChunkStore
	logger     *slog.Logger
	embedRetry Policy
}

// NewPipeline wires a pipeline from its collaborators.
func NewPipeline(p Parser, embedder ai.Embedder, engine *Engine, docs storage.DocumentStore, chunks storage.ChunkStore, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		parser:   p,
		embedder: embedder,
		engine:   engine,
		docs:     docs,
		chunks:   chunks,
		logger:   logger.With("component", "pipeline"),
		embedRetry: Policy{
			MaxAttempts: 3,
			BaseDelay:   500 * time.Millisecond,
			MaxDelay:    30 * time.Second,
			Classify:    ClassifyFault,
		},
	}
}

// Ingest processes the file at path end to end. The returned document
// reflects the terminal state; a non-nil error always corresponds to a
// document marked failed (when a record could be created at all).
//
// A crash or cancellation mid-flight leaves the document in processing.
// That inconsistency is resolved only by an external re-run.
func (p *Pipeline) Ingest(ctx context.Context, path string) (*core.Document, error) {
	fileType, err := core.FileTypeForPath(path)
	if err != nil {
		return nil, err
	}
	checksum, err := core.ChecksumFile(path)
	if err != nil {
		return nil, fmt.Errorf("checksumming %s: %w", path, err)
	}

	doc := &core.Document{
		ID:        uuid.NewString(),
		Filename:  filepath.Base(path),
		FileType:  fileType,
		Checksum:  checksum,
		Status:    core.StatusProcessing,
		CreatedAt: time.Now(),
	}
	if err := p.docs.Create(ctx, doc); err != nil {
		return nil, err
	}
	p.logger.Info("ingestion started", "docID", doc.ID, "filename", doc.Filename, "fileType", fileType)

	blocks, err := p.parser.Parse(ctx, path)
	if err != nil {
		return p.fail(ctx, doc, Report{}, fmt.Errorf("%w: parsing %s: %v", ErrIngestionFailed, doc.Filename, err))
	}
	if len(blocks) == 0 {
		return p.fail(ctx, doc, Report{}, fmt.Errorf("%w: no content extracted from %s", ErrIngestionFailed, doc.Filename))
	}

	chunks, texts := p.buildChunks(doc.ID, blocks)
	if len(chunks) == 0 {
		return p.fail(ctx, doc, Report{}, fmt.Errorf("%w: no indexable content in %s", ErrIngestionFailed, doc.Filename))
	}

	vectors, err := p.embed(ctx, texts)
	if err != nil {
		return p.fail(ctx, doc, Report{}, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err))
	}

	records := buildRecords(doc, chunks, vectors)
	report, err := p.engine.Upsert(ctx, records)
	if err != nil {
		return p.fail(ctx, doc, report, err)
	}

	if err := p.chunks.PutBatch(ctx, chunks); err != nil {
		return p.fail(ctx, doc, report, fmt.Errorf("storing chunks: %w", err))
	}

	update := storage.StatusUpdate{
		ChunkCount:     len(chunks),
		AttemptedCount: report.Attempted,
		StoredCount:    report.Stored,
	}
	if err := p.docs.UpdateStatus(ctx, doc.ID, core.StatusCompleted, update); err != nil {
		return nil, err
	}
	p.logger.Info("ingestion completed",
		"docID", doc.ID, "chunks", len(chunks),
		"attempted", report.Attempted, "stored", report.Stored)
	return p.docs.Get(ctx, doc.ID)
}

// buildChunks normalizes blocks into chunks, dropping any block whose
// normalized text is empty. The drop applies uniformly to every content
// path. Chunk ids reuse the parser's sequence index, keeping them
// deterministic across re-runs.
func (p *Pipeline) buildChunks(docID string, blocks []core.ContentBlock) ([]core.Chunk, []string) {
	chunks := make([]core.Chunk, 0, len(blocks))
	texts := make([]string, 0, len(blocks))
	dropped := 0

	for _, block := range blocks {
		text := BuildEmbeddingText(block)
		if text == "" {
			dropped++
			continue
		}
		page := block.Page
		if block.Slide > 0 {
			page = block.Slide
		}
		chunks = append(chunks, core.Chunk{
			ID:     core.ChunkID(docID, block.Index),
			DocID:  docID,
			Index:  block.Index,
			Text:   text,
			Type:   block.Type,
			Page:   page,
			Source: block.Source,
		})
		texts = append(texts, text)
	}
	if dropped > 0 {
		p.logger.Debug("dropped empty blocks", "docID", docID, "dropped", dropped)
	}
	return chunks, texts
}

// embed converts texts to vectors with the shared retry policy. The
// embedding client itself never retries.
func (p *Pipeline) embed(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32
	err := p.embedRetry.Do(ctx, func() error {
		var err error
		vectors, err = p.embedder.EmbedTexts(ctx, texts)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}

func buildRecords(doc *core.Document, chunks []core.Chunk, vectors [][]float32) []core.VectorRecord {
	records := make([]core.VectorRecord, len(chunks))
	for i, chunk := range chunks {
		records[i] = core.VectorRecord{
			ID:     chunk.ID,
			Vector: vectors[i],
			Metadata: map[string]string{
				core.MetaDocID:       doc.ID,
				core.MetaFilename:    doc.Filename,
				core.MetaFileType:    string(doc.FileType),
				core.MetaContentType: string(chunk.Type),
				core.MetaPage:        strconv.Itoa(chunk.Page),
				core.MetaText:        chunk.Text,
			},
		}
	}
	return records
}

// fail performs the terminal failed transition, keeping whatever counts the
// upsert engine managed before giving up.
func (p *Pipeline) fail(ctx context.Context, doc *core.Document, report Report, cause error) (*core.Document, error) {
	p.logger.Error("ingestion failed", "docID", doc.ID, "error", cause)

	update := storage.StatusUpdate{
		Error:          cause.Error(),
		AttemptedCount: report.Attempted,
		StoredCount:    report.Stored,
	}
	if err := p.docs.UpdateStatus(ctx, doc.ID, core.StatusFailed, update); err != nil {
		p.logger.Error("failed to mark document failed", "docID", doc.ID, "error", err)
	}
	if refreshed, err := p.docs.Get(ctx, doc.ID); err == nil {
		return refreshed, cause
	}
	return doc, cause
}
