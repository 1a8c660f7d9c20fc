// Package ingest implements the write path: content normalization, the
// unified retry policy, the resilient batch upsert engine, and the pipeline
// that drives one document from file to indexed vectors.
//
// The upsert engine is the heart of the package. The vector index is a
// remote, occasionally flaky dependency, so the engine trades strict
// completeness for availability within a tunable bound: batches retry with
// exponential backoff (steeper for transport and TLS faults), small
// residues of failed batches are recovered record by record, and only loss
// above the failure threshold fails the ingestion. The attempted and stored
// counts on the document record keep any accepted loss visible.
package ingest
