package domain

import "context"

// SearchHit is a single document returned by the vector index.
type SearchHit struct {
	ID       string
	Content  string
	Metadata string
	Score    float64
}

// SearchIndex is the managed vector/keyword index. VectorSearch serves
// retrieval; TextSearch exists for health probes only.
type SearchIndex interface {
	VectorSearch(ctx context.Context, vector []float32, k int) ([]SearchHit, error)
	TextSearch(ctx context.Context, query string, top int) (int, error)
}

// IndexableDocument is one chunk uploaded to the index by the ingest job.
type IndexableDocument struct {
	ID            string
	Content       string
	Metadata      string
	ContentVector []float32
}

// DocumentIndexer is the write side of the index, used only by ingestion.
type DocumentIndexer interface {
	EnsureIndex(ctx context.Context, dimensions int) error
	UploadDocuments(ctx context.Context, docs []IndexableDocument) error
}
