package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"bullpen-rag/internal/adapter/blobstore"
	"bullpen-rag/internal/domain"
	"bullpen-rag/internal/infra/retry"
)

const (
	// DefaultSearchTopK is the vector-search result budget per query.
	DefaultSearchTopK = 5

	unknownDocumentTitle = "Unknown Document"

	embedMaxAttempts = 3
	embedBaseDelay   = 500 * time.Millisecond
)

// InternalSearchUsecase retrieves internal evidence for a query. It degrades
// gracefully: any failure is logged and surfaces as an empty result, never as
// an error, so the orchestrator can report "no internal evidence found."
type InternalSearchUsecase interface {
	Execute(ctx context.Context, query string, k int) []domain.EvidenceDocument
}

type internalSearchUsecase struct {
	encoder       domain.VectorEncoder
	index         domain.SearchIndex
	embedCache    *expirable.LRU[string, []float32]
	retryPolicy   retry.Policy
	blobAccount   string
	blobContainer string
	logger        *slog.Logger
}

// NewInternalSearchUsecase wires the retriever. blobConnStr may be empty, in
// which case hit URLs fall back to same-document anchors. Repeated queries
// within the cache TTL reuse their embedding vector.
func NewInternalSearchUsecase(
	encoder domain.VectorEncoder,
	index domain.SearchIndex,
	blobConnStr, blobContainer string,
	cacheSize int, cacheTTL time.Duration,
	logger *slog.Logger,
) InternalSearchUsecase {
	account := ""
	if blobConnStr != "" && blobContainer != "" {
		if parsed, _, err := blobstore.ParseConnectionString(blobConnStr); err == nil {
			account = parsed
		} else {
			logger.Warn("blob_connection_string_unparseable", slog.String("error", err.Error()))
		}
	}
	if cacheSize <= 0 {
		cacheSize = 256
	}
	return &internalSearchUsecase{
		encoder:       encoder,
		index:         index,
		embedCache:    expirable.NewLRU[string, []float32](cacheSize, nil, cacheTTL),
		retryPolicy:   retry.Policy{MaxAttempts: embedMaxAttempts, BaseDelay: embedBaseDelay},
		blobAccount:   account,
		blobContainer: blobContainer,
		logger:        logger,
	}
}

func (u *internalSearchUsecase) Execute(ctx context.Context, query string, k int) []domain.EvidenceDocument {
	if k <= 0 {
		k = DefaultSearchTopK
	}
	docs, err := u.search(ctx, query, k)
	if err != nil {
		u.logger.Error("internal_search_failed", slog.String("error", err.Error()))
		return nil
	}
	return docs
}

func (u *internalSearchUsecase) search(ctx context.Context, query string, k int) ([]domain.EvidenceDocument, error) {
	vector, err := u.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := u.index.VectorSearch(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	docs := make([]domain.EvidenceDocument, 0, len(hits))
	for _, hit := range hits {
		sourcePath := resolveSourcePath(hit.Metadata)
		cleaned := domain.NormalizeText(hit.Content)
		docs = append(docs, domain.EvidenceDocument{
			Title:          sourcePath,
			FullContent:    hit.Content,
			Snippet:        domain.ExtractSnippet(cleaned, query, domain.DefaultSnippetWindow),
			URL:            u.resolveURL(hit.ID, sourcePath),
			RelevanceScore: hit.Score,
			SourceID:       hit.ID,
		})
	}

	u.logger.Info("internal_search_completed", slog.Int("documents", len(docs)))
	return docs, nil
}

func (u *internalSearchUsecase) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if u.encoder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if vector, ok := u.embedCache.Get(query); ok {
		return vector, nil
	}

	var vector []float32
	attempt := 0
	err := u.retryPolicy.Do(ctx, func() error {
		attempt++
		embedded, embedErr := u.encoder.Embed(ctx, query)
		if embedErr != nil {
			u.logger.Warn("embedding_attempt_failed",
				slog.Int("attempt", attempt),
				slog.String("error", embedErr.Error()))
			return embedErr
		}
		vector = embedded
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingFailed, err)
	}

	u.embedCache.Add(query, vector)
	return vector, nil
}

// resolveSourcePath extracts the display source from a hit's metadata: the
// "source" key when the metadata parses as JSON, otherwise the raw value.
func resolveSourcePath(metadata string) string {
	if metadata == "" {
		return unknownDocumentTitle
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(metadata), &parsed); err == nil {
		if source, ok := parsed["source"].(string); ok && source != "" {
			return source
		}
	}
	return metadata
}

func (u *internalSearchUsecase) resolveURL(id, sourcePath string) string {
	if u.blobAccount != "" && u.blobContainer != "" {
		return blobstore.BlobURL(u.blobAccount, u.blobContainer, sourcePath)
	}
	return "#" + id
}
