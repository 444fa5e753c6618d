package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"bullpen-rag/internal/domain"
	"bullpen-rag/internal/infra/retry"
)

const (
	// EmbeddingDimensions matches the text-embedding-ada-002 family.
	EmbeddingDimensions = 1536

	uploadBatchSize   = 100
	embedConcurrency  = 4
	embedRatePerSec   = 8
	ingestMaxAttempts = 3
	ingestBaseDelay   = 500 * time.Millisecond
)

// chunkIDNamespace keeps chunk IDs stable across re-runs: the same blob name
// and ordinal always produce the same document ID, so re-ingesting merges
// instead of duplicating.
var chunkIDNamespace = uuid.MustParse("7a3d58a2-9c41-4a7e-8a2e-4f1b6d9c2e10")

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	BlobsSeen     int
	BlobsSkipped  int
	ChunksIndexed int
	Elapsed       time.Duration
}

// IngestDocumentsUsecase pulls source documents from blob storage, chunks
// and embeds them, and uploads the result to the search index.
type IngestDocumentsUsecase struct {
	store   domain.BlobStore
	chunker domain.Chunker
	encoder domain.VectorEncoder
	indexer domain.DocumentIndexer
	limiter *rate.Limiter
	policy  retry.Policy
	logger  *slog.Logger
}

func NewIngestDocumentsUsecase(
	store domain.BlobStore,
	chunker domain.Chunker,
	encoder domain.VectorEncoder,
	indexer domain.DocumentIndexer,
	logger *slog.Logger,
) *IngestDocumentsUsecase {
	return &IngestDocumentsUsecase{
		store:   store,
		chunker: chunker,
		encoder: encoder,
		indexer: indexer,
		limiter: rate.NewLimiter(rate.Limit(embedRatePerSec), 1),
		policy:  retry.Policy{MaxAttempts: ingestMaxAttempts, BaseDelay: ingestBaseDelay},
		logger:  logger,
	}
}

// Execute runs a full ingestion pass. Blobs without a supported text
// extension are skipped with a warning; any other failure aborts the run.
func (u *IngestDocumentsUsecase) Execute(ctx context.Context) (IngestReport, error) {
	started := time.Now()
	report := IngestReport{}

	if err := u.indexer.EnsureIndex(ctx, EmbeddingDimensions); err != nil {
		return report, fmt.Errorf("ensure index: %w", err)
	}

	names, err := u.store.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list blobs: %w", err)
	}
	report.BlobsSeen = len(names)

	var (
		mu      sync.Mutex
		pending []domain.IndexableDocument
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(embedConcurrency)

	for _, name := range names {
		if !isTextDocument(name) {
			u.logger.Warn("blob_skipped_unsupported_type", slog.String("blob", name))
			report.BlobsSkipped++
			continue
		}

		group.Go(func() error {
			docs, err := u.ingestBlob(groupCtx, name)
			if err != nil {
				return err
			}
			mu.Lock()
			pending = append(pending, docs...)
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return report, err
	}

	for start := 0; start < len(pending); start += uploadBatchSize {
		end := min(start+uploadBatchSize, len(pending))
		if err := u.indexer.UploadDocuments(ctx, pending[start:end]); err != nil {
			return report, fmt.Errorf("upload batch at %d: %w", start, err)
		}
	}

	report.ChunksIndexed = len(pending)
	report.Elapsed = time.Since(started)
	u.logger.Info("ingestion_completed",
		slog.Int("blobs_seen", report.BlobsSeen),
		slog.Int("blobs_skipped", report.BlobsSkipped),
		slog.Int("chunks_indexed", report.ChunksIndexed),
		slog.Duration("elapsed", report.Elapsed))
	return report, nil
}

func (u *IngestDocumentsUsecase) ingestBlob(ctx context.Context, name string) ([]domain.IndexableDocument, error) {
	content, err := u.store.Download(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("download %q: %w", name, err)
	}

	chunks, err := u.chunker.Chunk(string(content))
	if err != nil {
		return nil, fmt.Errorf("chunk %q: %w", name, err)
	}
	if len(chunks) == 0 {
		u.logger.Warn("blob_produced_no_chunks", slog.String("blob", name))
		return nil, nil
	}

	metadata, err := json.Marshal(map[string]string{"source": name})
	if err != nil {
		return nil, fmt.Errorf("marshal metadata for %q: %w", name, err)
	}

	docs := make([]domain.IndexableDocument, 0, len(chunks))
	for _, chunk := range chunks {
		if err := u.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var vector []float32
		err := u.policy.Do(ctx, func() error {
			embedded, embedErr := u.encoder.Embed(ctx, chunk.Content)
			if embedErr != nil {
				return embedErr
			}
			vector = embedded
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("embed chunk %d of %q: %w", chunk.Ordinal, name, err)
		}

		docs = append(docs, domain.IndexableDocument{
			ID:            chunkID(name, chunk.Ordinal),
			Content:       chunk.Content,
			Metadata:      string(metadata),
			ContentVector: vector,
		})
	}

	u.logger.Info("blob_ingested", slog.String("blob", name), slog.Int("chunks", len(docs)))
	return docs, nil
}

func chunkID(blobName string, ordinal int) string {
	return uuid.NewSHA1(chunkIDNamespace, fmt.Appendf(nil, "%s#%d", blobName, ordinal)).String()
}

func isTextDocument(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".txt") || strings.HasSuffix(lower, ".md")
}
