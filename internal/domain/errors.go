package domain

import "errors"

var (
	// ErrEmbeddingUnavailable is returned when the embedding provider was
	// never configured. Dependent operations fail fast on it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrEmbeddingFailed is returned after the retry budget for a transient
	// embedding failure is exhausted.
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)
