package search

import "errors"

var (
	// ErrEmbedderRequired indicates a searcher constructed without an embedder.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrIndexRequired indicates a searcher constructed without a vector index.
	ErrIndexRequired = errors.New("vector index is required")

	// ErrChunkStoreRequired indicates a searcher constructed without a chunk store.
	ErrChunkStoreRequired = errors.New("chunk store is required")
)
