// Package index defines the vector index boundary: idempotent batched
// upsert of {id, vector, metadata} records and ranked similarity queries
// with optional metadata filtering.
//
// The badger subpackage provides an embedded implementation suitable for
// single-node deployments; a managed ANN service slots in behind the same
// interface.
package index
