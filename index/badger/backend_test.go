package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docvault/core"
	"github.com/poiesic/docvault/index"
)

func openTestBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := OpenBackend("", true, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func record(id string, vector []float32, meta map[string]string) core.VectorRecord {
	return core.VectorRecord{ID: id, Vector: vector, Metadata: meta}
}

func TestUpsertAndQuery(t *testing.T) {
	b := openTestBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Upsert(ctx, []core.VectorRecord{
		record("a_0", []float32{1, 0, 0}, map[string]string{core.MetaContentType: "text"}),
		record("a_1", []float32{0, 1, 0}, map[string]string{core.MetaContentType: "table"}),
	}))

	matches, err := b.Query(ctx, []float32{1, 0.1, 0}, 10, index.Filter{})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a_0", matches[0].ID, "closest vector ranks first")
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestUpsertIsIdempotent(t *testing.T) {
	b := openTestBackend(t)
	ctx := context.Background()

	batch := []core.VectorRecord{
		record("a_0", []float32{1, 0}, nil),
		record("a_1", []float32{0, 1}, nil),
	}
	require.NoError(t, b.Upsert(ctx, batch))
	require.NoError(t, b.Upsert(ctx, batch))

	matches, err := b.Query(ctx, []float32{1, 1}, 100, index.Filter{})
	require.NoError(t, err)
	assert.Len(t, matches, 2, "re-upserting an identical batch adds no records")
}

func TestUpsertOverwritesByID(t *testing.T) {
	b := openTestBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Upsert(ctx, []core.VectorRecord{
		record("a_0", []float32{1, 0}, map[string]string{"v": "old"}),
	}))
	require.NoError(t, b.Upsert(ctx, []core.VectorRecord{
		record("a_0", []float32{0, 1}, map[string]string{"v": "new"}),
	}))

	matches, err := b.Query(ctx, []float32{0, 1}, 10, index.Filter{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "new", matches[0].Metadata["v"])
}

func TestUpsertRejectsInvalidRecords(t *testing.T) {
	b := openTestBackend(t)
	ctx := context.Background()

	err := b.Upsert(ctx, []core.VectorRecord{record("", []float32{1}, nil)})
	assert.ErrorIs(t, err, index.ErrInvalidRecord)

	err = b.Upsert(ctx, []core.VectorRecord{record("a_0", nil, nil)})
	assert.ErrorIs(t, err, index.ErrInvalidRecord)
}

func TestQueryTopKLimit(t *testing.T) {
	b := openTestBackend(t)
	ctx := context.Background()

	var records []core.VectorRecord
	for i := 0; i < 20; i++ {
		records = append(records, record(core.ChunkID("doc", i), []float32{float32(i), 1}, nil))
	}
	require.NoError(t, b.Upsert(ctx, records))

	matches, err := b.Query(ctx, []float32{1, 1}, 5, index.Filter{})
	require.NoError(t, err)
	assert.Len(t, matches, 5)
}

func TestQueryFilters(t *testing.T) {
	b := openTestBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Upsert(ctx, []core.VectorRecord{
		record("a_0", []float32{1, 0}, map[string]string{
			core.MetaDocID: "docA", core.MetaContentType: "text", core.MetaFileType: "document",
		}),
		record("b_0", []float32{1, 0}, map[string]string{
			core.MetaDocID: "docB", core.MetaContentType: "table", core.MetaFileType: "document",
		}),
	}))

	matches, err := b.Query(ctx, []float32{1, 0}, 10, index.Filter{DocID: "docA"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a_0", matches[0].ID)

	matches, err = b.Query(ctx, []float32{1, 0}, 10, index.Filter{
		ContentTypes: []core.BlockType{core.BlockTypeTable},
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "b_0", matches[0].ID)
}

func TestDeleteMatchingByDocID(t *testing.T) {
	b := openTestBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Upsert(ctx, []core.VectorRecord{
		record("a_0", []float32{1, 0}, map[string]string{core.MetaDocID: "docA"}),
		record("a_1", []float32{0, 1}, map[string]string{core.MetaDocID: "docA"}),
		record("b_0", []float32{1, 1}, map[string]string{core.MetaDocID: "docB"}),
	}))

	removed, err := b.DeleteMatching(ctx, index.Filter{DocID: "docA"})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	matches, err := b.Query(ctx, []float32{1, 1}, 10, index.Filter{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "b_0", matches[0].ID)

	removed, err = b.DeleteMatching(ctx, index.Filter{DocID: "missing"})
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestQueryInvalidVector(t *testing.T) {
	b := openTestBackend(t)
	_, err := b.Query(context.Background(), nil, 10, index.Filter{})
	assert.ErrorIs(t, err, index.ErrInvalidVector)
}

func TestDelete(t *testing.T) {
	b := openTestBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Upsert(ctx, []core.VectorRecord{
		record("a_0", []float32{1, 0}, nil),
		record("a_1", []float32{0, 1}, nil),
	}))
	require.NoError(t, b.Delete(ctx, "a_0", "missing"))

	matches, err := b.Query(ctx, []float32{1, 1}, 10, index.Filter{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a_1", matches[0].ID)
}

func TestVectorRecordRoundTrip(t *testing.T) {
	original := record("doc_3", []float32{0.5, -1.25, 3}, map[string]string{
		core.MetaDocID: "doc",
		core.MetaText:  "hello world",
	})

	decoded, err := unmarshalVectorRecord(marshalVectorRecord(original))
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestVectorRecordDeterministicBytes(t *testing.T) {
	r := record("doc_0", []float32{1, 2}, map[string]string{
		"b": "2", "a": "1", "c": "3",
	})
	assert.Equal(t, marshalVectorRecord(r), marshalVectorRecord(r),
		"sorted metadata keys keep encoding stable")
}
