package index

import "errors"

var (
	// ErrInvalidRecord indicates a record with no id or empty vector.
	ErrInvalidRecord = errors.New("invalid vector record")

	// ErrInvalidVector indicates a query vector of zero length.
	ErrInvalidVector = errors.New("invalid query vector")

	// ErrClosed indicates an operation on a closed index.
	ErrClosed = errors.New("index is closed")
)
