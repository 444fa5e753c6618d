package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"bullpen-rag/internal/adapter/azopenai"
	"bullpen-rag/internal/adapter/azsearch"
	"bullpen-rag/internal/adapter/blobstore"
	"bullpen-rag/internal/domain"
	"bullpen-rag/internal/infra/config"
	"bullpen-rag/internal/infra/httpclient"
	"bullpen-rag/internal/infra/logger"
	"bullpen-rag/internal/usecase"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Index source documents from blob storage into the search index",
		Long: `Reads every text document from the configured blob container, splits it
into chunks, embeds each chunk, and uploads the result to the vector
search index. Safe to re-run: chunk IDs are stable, so existing entries
are merged instead of duplicated.`,
		RunE: runIngest,
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runIngest(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	log := logger.New()
	slog.SetDefault(log)

	if err := cfg.ValidateIngest(); err != nil {
		return err
	}

	apiClient := httpclient.NewPooledClient(60 * time.Second)
	embedder := azopenai.NewEmbedder(cfg.OpenAIEndpoint, cfg.OpenAIKey, cfg.EmbedDeployment, cfg.OpenAIAPIVersion, apiClient)
	searchClient := azsearch.NewClient(cfg.SearchEndpoint, cfg.SearchKey, cfg.SearchIndex, apiClient)
	store, err := blobstore.NewClient(cfg.BlobConnStr, cfg.BlobContainer, "", apiClient)
	if err != nil {
		return fmt.Errorf("blob store: %w", err)
	}

	ingest := usecase.NewIngestDocumentsUsecase(store, domain.NewChunker(), embedder, searchClient, log)

	report, err := ingest.Execute(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Ingestion finished: %d blobs seen, %d skipped, %d chunks indexed in %s\n",
		report.BlobsSeen, report.BlobsSkipped, report.ChunksIndexed, report.Elapsed.Round(time.Millisecond))
	return nil
}
