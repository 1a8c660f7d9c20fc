// Package search implements the read path: a query is embedded with the
// same client the ingestion pipeline uses, ranked against the vector index
// with optional metadata filtering, and optionally hydrated with full chunk
// content from the metadata store, preserving the index's rank order.
//
// Transient failures are retried with a short fixed backoff; exhaustion
// degrades to an empty result set rather than an error, observable through
// the Monitor's Degraded hook.
package search
