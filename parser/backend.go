package parser

import (
	"context"

	"github.com/poiesic/docvault/core"
)

// Backend is one content extraction engine. Implementations wrap either a
// native Go extractor or an external CLI tool; the resolver treats them
// uniformly and never branches on a concrete backend.
type Backend interface {
	// Name identifies the backend. Produced blocks are tagged with it.
	Name() string

	// Probe reports whether the backend is usable in this process.
	// Called once at resolver construction; the result is cached for the
	// process lifetime.
	Probe() bool

	// Supports reports whether the backend can handle the given file type.
	Supports(fileType core.FileType) bool

	// Parse extracts content blocks from the file at path.
	// Returned blocks need not set Source or Index; the resolver assigns
	// both. An error here is absorbed by the resolver's fallback chain.
	Parse(ctx context.Context, path string) ([]core.ContentBlock, error)
}
