package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docvault/ai/mock"
	"github.com/poiesic/docvault/core"
	"github.com/poiesic/docvault/storage"
)

type memDocs struct {
	mu   sync.Mutex
	docs map[string]core.Document
}

func newMemDocs() *memDocs { return &memDocs{docs: make(map[string]core.Document)} }

func (m *memDocs) Create(_ context.Context, doc *core.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[doc.ID]; ok {
		return storage.ErrDocumentExists
	}
	m.docs[doc.ID] = *doc
	return nil
}

func (m *memDocs) Get(_ context.Context, id string) (*core.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, storage.ErrDocumentNotFound
	}
	return &doc, nil
}

func (m *memDocs) List(_ context.Context) ([]core.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Document, 0, len(m.docs))
	for _, d := range m.docs {
		out = append(out, d)
	}
	return out, nil
}

func (m *memDocs) UpdateStatus(_ context.Context, id string, status core.DocumentStatus, update storage.StatusUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return storage.ErrDocumentNotFound
	}
	if err := core.ValidateTransition(doc.Status, status); err != nil {
		return err
	}
	doc.Status = status
	doc.Error = update.Error
	doc.ChunkCount = update.ChunkCount
	doc.AttemptedCount = update.AttemptedCount
	doc.StoredCount = update.StoredCount
	doc.ProcessedAt = time.Now()
	m.docs[id] = doc
	return nil
}

func (m *memDocs) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

type memChunks struct {
	mu     sync.Mutex
	chunks map[string]core.Chunk
}

func newMemChunks() *memChunks { return &memChunks{chunks: make(map[string]core.Chunk)} }

func (m *memChunks) PutBatch(_ context.Context, chunks []core.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range chunks {
		m.chunks[c.ID] = c
	}
	return nil
}

func (m *memChunks) GetByIDs(_ context.Context, ids []string) (map[string]core.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := make(map[string]core.Chunk)
	for _, id := range ids {
		if c, ok := m.chunks[id]; ok {
			found[id] = c
		}
	}
	return found, nil
}

func (m *memChunks) ListByDoc(_ context.Context, docID string) ([]core.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Chunk
	for _, c := range m.chunks {
		if c.DocID == docID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func (m *memChunks) DeleteByDoc(_ context.Context, docID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, c := range m.chunks {
		if c.DocID == docID {
			delete(m.chunks, id)
			n++
		}
	}
	return n, nil
}

func (m *memChunks) CountByDoc(_ context.Context, docID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.chunks {
		if c.DocID == docID {
			n++
		}
	}
	return n, nil
}

type stubParser struct {
	blocks []core.ContentBlock
	err    error
}

func (s *stubParser) Parse(_ context.Context, _ string) ([]core.ContentBlock, error) {
	return s.blocks, s.err
}

func textBlocks(texts ...string) []core.ContentBlock {
	blocks := make([]core.ContentBlock, len(texts))
	for i, text := range texts {
		blocks[i] = core.ContentBlock{
			Type:   core.BlockTypeText,
			Text:   text,
			Page:   1,
			Source: "native",
			Index:  i,
		}
	}
	return blocks
}

func tempFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("Hello world"), 0o644))
	return path
}

func newTestPipeline(p Parser, writer VectorWriter, docs storage.DocumentStore, chunks storage.ChunkStore) *Pipeline {
	engine := NewEngine(writer, testConfig(100), nil)
	pl := NewPipeline(p, mock.NewEmbedder(), engine, docs, chunks, nil)
	pl.embedRetry.BaseDelay = time.Microsecond
	return pl
}

func TestPipelineHappyPath(t *testing.T) {
	docs := newMemDocs()
	chunks := newMemChunks()
	writer := newScriptedWriter()
	parser := &stubParser{blocks: textBlocks("Hello world", "Second paragraph")}

	pl := newTestPipeline(parser, writer, docs, chunks)
	doc, err := pl.Ingest(context.Background(), tempFile(t))
	require.NoError(t, err)

	assert.Equal(t, core.StatusCompleted, doc.Status)
	assert.Equal(t, 2, doc.ChunkCount)
	assert.Equal(t, 2, doc.AttemptedCount)
	assert.Equal(t, 2, doc.StoredCount)
	assert.NotZero(t, doc.Checksum)
	assert.False(t, doc.ProcessedAt.IsZero())

	stored, err := chunks.ListByDoc(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, core.ChunkID(doc.ID, 0), stored[0].ID)
	assert.Equal(t, "native", stored[0].Source)

	record, ok := writer.stored[stored[0].ID]
	require.True(t, ok, "vector record mirrors the chunk")
	assert.Equal(t, doc.ID, record.Metadata[core.MetaDocID])
	assert.Equal(t, "text", record.Metadata[core.MetaContentType])
	assert.Equal(t, "1", record.Metadata[core.MetaPage])
}

func TestPipelineParserFailureMarksFailed(t *testing.T) {
	docs := newMemDocs()
	parser := &stubParser{err: errors.New("all backends exhausted")}

	pl := newTestPipeline(parser, newScriptedWriter(), docs, newMemChunks())
	doc, err := pl.Ingest(context.Background(), tempFile(t))
	require.ErrorIs(t, err, ErrIngestionFailed)

	require.NotNil(t, doc)
	assert.Equal(t, core.StatusFailed, doc.Status)
	assert.Contains(t, doc.Error, "all backends exhausted")
	assert.False(t, doc.ProcessedAt.IsZero(), "failure is timestamped")
}

func TestPipelineZeroBlocksMarksFailed(t *testing.T) {
	pl := newTestPipeline(&stubParser{}, newScriptedWriter(), newMemDocs(), newMemChunks())

	doc, err := pl.Ingest(context.Background(), tempFile(t))
	require.ErrorIs(t, err, ErrIngestionFailed)
	assert.Equal(t, core.StatusFailed, doc.Status)
	assert.Contains(t, doc.Error, "no content extracted")
}

func TestPipelineDropsEmptyBlocks(t *testing.T) {
	blocks := textBlocks("kept", "", "also kept")
	chunks := newMemChunks()

	pl := newTestPipeline(&stubParser{blocks: blocks}, newScriptedWriter(), newMemDocs(), chunks)
	doc, err := pl.Ingest(context.Background(), tempFile(t))
	require.NoError(t, err)

	assert.Equal(t, 2, doc.ChunkCount)
	stored, _ := chunks.ListByDoc(context.Background(), doc.ID)
	require.Len(t, stored, 2)
	// Chunk ids keep the original sequence indexes, so drops leave gaps.
	assert.Equal(t, 0, stored[0].Index)
	assert.Equal(t, 2, stored[1].Index)
}

func TestPipelineAllBlocksEmptyMarksFailed(t *testing.T) {
	pl := newTestPipeline(&stubParser{blocks: textBlocks("", "")}, newScriptedWriter(), newMemDocs(), newMemChunks())

	doc, err := pl.Ingest(context.Background(), tempFile(t))
	require.ErrorIs(t, err, ErrIngestionFailed)
	assert.Equal(t, core.StatusFailed, doc.Status)
	assert.Contains(t, doc.Error, "no indexable content")
}

func TestPipelineEmbeddingFailureMarksFailed(t *testing.T) {
	embedder := mock.NewEmbedder()
	embedder.EmbedTextsFunc = func(_ context.Context, _ []string) ([][]float32, error) {
		return nil, errors.New("embedding service down")
	}

	engine := NewEngine(newScriptedWriter(), testConfig(100), nil)
	pl := NewPipeline(&stubParser{blocks: textBlocks("hi")}, embedder, engine, newMemDocs(), newMemChunks(), nil)
	pl.embedRetry.BaseDelay = time.Microsecond

	doc, err := pl.Ingest(context.Background(), tempFile(t))
	require.ErrorIs(t, err, ErrEmbeddingFailed)
	assert.Equal(t, core.StatusFailed, doc.Status)
}

func TestPipelineUpsertThresholdFailure(t *testing.T) {
	blocks := textBlocks("a", "b", "c", "d")
	// Every write fails: 100% loss, far above the threshold.
	failing := &flakyWriter{failures: 1 << 30}

	pl := newTestPipeline(&stubParser{blocks: blocks}, failing, newMemDocs(), newMemChunks())
	doc, err := pl.Ingest(context.Background(), tempFile(t))
	require.ErrorIs(t, err, ErrIngestionFailed)

	assert.Equal(t, core.StatusFailed, doc.Status)
	assert.Equal(t, 4, doc.AttemptedCount)
	assert.Equal(t, 0, doc.StoredCount)
}

func TestPipelineUnsupportedFileType(t *testing.T) {
	pl := newTestPipeline(&stubParser{}, newScriptedWriter(), newMemDocs(), newMemChunks())
	_, err := pl.Ingest(context.Background(), "binary.exe")
	require.ErrorIs(t, err, core.ErrUnsupportedFileType)
}
