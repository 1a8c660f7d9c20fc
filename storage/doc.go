// Package storage defines the metadata store boundary: document records
// (one per ingested source file) and chunk records (one per content block).
//
// The metadata store and the vector index are independently consistent.
// They converge on the same chunk-id set for a completed document but no
// transaction spans the two; the document record's attempted and stored
// counts expose any residual gap.
package storage
