package docvault

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docvault/ai/mock"
	"github.com/poiesic/docvault/core"
	"github.com/poiesic/docvault/search"
	"github.com/poiesic/docvault/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := New(t.TempDir(), WithEmbedder(mock.NewEmbedder()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEndToEndIngestSearchDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "hello.txt", "Hello world")

	doc, err := svc.Ingest(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, doc.Status)
	assert.Equal(t, 1, doc.ChunkCount)
	assert.Equal(t, 1, doc.StoredCount)

	chunks, err := svc.Chunks(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, core.BlockTypeText, chunks[0].Type)
	assert.Contains(t, chunks[0].Text, "Hello world")

	results, err := svc.Search(ctx, "Hello world", search.Options{TopK: 5, Hydrate: true})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, chunks[0].ID, results[0].ID)
	assert.Greater(t, results[0].Score, float32(0))
	assert.Equal(t, "text", results[0].Metadata[core.MetaContentType])
	assert.Equal(t, "1", results[0].Metadata[core.MetaPage])
	require.NotNil(t, results[0].Chunk)
	assert.Contains(t, results[0].Chunk.Text, "Hello world")

	require.NoError(t, svc.DeleteDocument(ctx, doc.ID))

	_, err = svc.Document(ctx, doc.ID)
	assert.ErrorIs(t, err, storage.ErrDocumentNotFound)
	chunks, err = svc.Chunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	results, err = svc.Search(ctx, "Hello world", search.Options{TopK: 5})
	require.NoError(t, err)
	assert.Empty(t, results, "vectors removed with the document")
}

func TestDocumentsListing(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	dir := t.TempDir()

	_, err := svc.Ingest(ctx, writeFile(t, dir, "a.txt", "First document."))
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, writeFile(t, dir, "b.txt", "Second document."))
	require.NoError(t, err)

	docs, err := svc.Documents(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	for _, d := range docs {
		assert.Equal(t, core.StatusCompleted, d.Status)
		assert.NotZero(t, d.Checksum)
	}
}

func TestIngestAsync(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "async.txt", "Asynchronous content.")

	var wg sync.WaitGroup
	wg.Add(1)
	var got *core.Document
	var gotErr error
	err := svc.IngestAsync(ctx, path, func(doc *core.Document, err error) {
		defer wg.Done()
		got, gotErr = doc, err
	})
	require.NoError(t, err)
	wg.Wait()

	require.NoError(t, gotErr)
	assert.Equal(t, core.StatusCompleted, got.Status)
}

func TestIngestDir(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	dir := t.TempDir()

	writeFile(t, dir, "one.txt", "Document one.")
	writeFile(t, dir, "two.md", "# Document two")
	writeFile(t, dir, "ignored.exe", "binary")

	report, err := svc.IngestDir(ctx, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Ingested)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 1, report.Skipped)

	docs, err := svc.Documents(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

// gatedPool runs submitted tasks on goroutines held behind a gate and fails
// the submission after a scripted number of calls, releasing the gate so the
// earlier tasks finish while the caller is meant to be waiting for them.
type gatedPool struct {
	gate      chan struct{}
	failAfter int
	err       error
	calls     int
}

func (p *gatedPool) Submit(task func()) error {
	p.calls++
	if p.calls > p.failAfter {
		close(p.gate)
		return p.err
	}
	go func() {
		<-p.gate
		task()
	}()
	return nil
}

func (p *gatedPool) Release() {}

func TestIngestDirWaitsForWorkersOnSubmitFailure(t *testing.T) {
	svc := newTestService(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "First document.")
	writeFile(t, dir, "b.txt", "Second document.")

	poolErr := errors.New("pool saturated")
	svc.pool.Release()
	svc.pool = &gatedPool{gate: make(chan struct{}), failAfter: 1, err: poolErr}

	report, err := svc.IngestDir(context.Background(), dir, nil)
	require.ErrorIs(t, err, poolErr)
	assert.Equal(t, 1, report.Ingested, "in-flight document counted before returning")
}

func TestDeleteDocumentRemovesVectorsWithoutChunkRecords(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "orphan.txt", "Orphaned vector content.")

	doc, err := svc.Ingest(ctx, path)
	require.NoError(t, err)

	// Drop the chunk records while the vectors stay behind, the state a
	// threshold-failed ingestion leaves.
	_, err = svc.store.Chunks().DeleteByDoc(ctx, doc.ID)
	require.NoError(t, err)

	results, err := svc.Search(ctx, "Orphaned vector content.", search.Options{TopK: 5})
	require.NoError(t, err)
	require.NotEmpty(t, results, "vectors still indexed without chunk records")

	require.NoError(t, svc.DeleteDocument(ctx, doc.ID))

	results, err = svc.Search(ctx, "Orphaned vector content.", search.Options{TopK: 5})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBackendsAvailability(t *testing.T) {
	svc := newTestService(t)

	backends := svc.Backends()
	require.NotEmpty(t, backends)
	assert.Equal(t, "native", backends[0].Name)
	assert.True(t, backends[0].Available, "native extraction is always available")
}

func TestDeleteMissingDocumentIsNoOp(t *testing.T) {
	svc := newTestService(t)
	assert.NoError(t, svc.DeleteDocument(context.Background(), "never-existed"))
}
