package domain

import "context"

// BlobStore lists and downloads source documents for the ingest job.
type BlobStore interface {
	List(ctx context.Context) ([]string, error)
	Download(ctx context.Context, name string) ([]byte, error)
}
