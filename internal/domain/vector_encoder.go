package domain

import "context"

// VectorEncoder defines the interface for generating embeddings.
type VectorEncoder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Version() string
}
