package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
//
// Implementations truncate oversized input to the configured limit before
// the remote call (see TruncateInput) and perform no internal retries; retry
// policy belongs to the caller so it can be tested in isolation.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input
	// texts and always has the same length on success. A batch fails
	// atomically: a single remote error fails the whole call.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
