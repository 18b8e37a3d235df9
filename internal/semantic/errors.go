package semantic

import "errors"

// Sentinel errors for callers to match with errors.Is.
var (
	// ErrUnavailable means the embedding provider has no credentials
	// configured. Retrying will not help; configuration is required.
	ErrUnavailable = errors.New("embedding service is not configured")

	// ErrNotFound means the requested expectation or its embedding does not
	// exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput means the request was malformed (empty query,
	// mismatched vector lengths) and was rejected before any work.
	ErrInvalidInput = errors.New("invalid input")
)
