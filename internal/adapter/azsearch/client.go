package azsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bullpen-rag/internal/domain"
)

const apiVersion = "2023-11-01"

// vectorField is the index field holding content embeddings.
const vectorField = "content_vector"

// Client talks to an Azure AI Search index over REST. It serves both the
// read path (vector and keyword search) and the ingest write path.
type Client struct {
	endpoint string
	apiKey   string
	index    string
	client   *http.Client
}

func NewClient(endpoint, apiKey, index string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		index:    index,
		client:   client,
	}
}

type vectorQuery struct {
	Kind   string    `json:"kind"`
	Vector []float32 `json:"vector"`
	K      int       `json:"k"`
	Fields string    `json:"fields"`
}

type searchRequest struct {
	Search        string        `json:"search,omitempty"`
	Select        string        `json:"select,omitempty"`
	Top           int           `json:"top,omitempty"`
	Count         bool          `json:"count,omitempty"`
	VectorQueries []vectorQuery `json:"vectorQueries,omitempty"`
}

type searchResponse struct {
	Count float64     `json:"@odata.count"`
	Value []searchHit `json:"value"`
}

type searchHit struct {
	Score    float64 `json:"@search.score"`
	ID       string  `json:"id"`
	Content  string  `json:"content"`
	Metadata string  `json:"metadata"`
}

// VectorSearch runs a nearest-neighbor query for the top k documents and
// returns them in the index's relevance order.
func (c *Client) VectorSearch(ctx context.Context, vector []float32, k int) ([]domain.SearchHit, error) {
	reqBody := searchRequest{
		Select: "id,content,metadata",
		VectorQueries: []vectorQuery{{
			Kind:   "vector",
			Vector: vector,
			K:      k,
			Fields: vectorField,
		}},
	}

	var respBody searchResponse
	if err := c.post(ctx, c.docsURL("search"), reqBody, &respBody); err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	hits := make([]domain.SearchHit, 0, len(respBody.Value))
	for _, hit := range respBody.Value {
		hits = append(hits, domain.SearchHit{
			ID:       hit.ID,
			Content:  hit.Content,
			Metadata: hit.Metadata,
			Score:    hit.Score,
		})
	}
	return hits, nil
}

// TextSearch runs a keyword query and returns the hit count. Used by health
// probes to confirm the index is reachable.
func (c *Client) TextSearch(ctx context.Context, query string, top int) (int, error) {
	reqBody := searchRequest{
		Search: query,
		Top:    top,
		Count:  true,
	}

	var respBody searchResponse
	if err := c.post(ctx, c.docsURL("search"), reqBody, &respBody); err != nil {
		return 0, fmt.Errorf("text search failed: %w", err)
	}
	if respBody.Count > 0 {
		return int(respBody.Count), nil
	}
	return len(respBody.Value), nil
}

type indexDefinition struct {
	Name         string       `json:"name"`
	Fields       []indexField `json:"fields"`
	VectorSearch vectorSearch `json:"vectorSearch"`
}

type indexField struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Key        bool   `json:"key,omitempty"`
	Searchable bool   `json:"searchable,omitempty"`
	Dimensions int    `json:"dimensions,omitempty"`
	Profile    string `json:"vectorSearchProfile,omitempty"`
}

type vectorSearch struct {
	Algorithms []vectorAlgorithm `json:"algorithms"`
	Profiles   []vectorProfile   `json:"profiles"`
}

type vectorAlgorithm struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type vectorProfile struct {
	Name      string `json:"name"`
	Algorithm string `json:"algorithm"`
}

// EnsureIndex creates or updates the vector-enabled index definition.
func (c *Client) EnsureIndex(ctx context.Context, dimensions int) error {
	def := indexDefinition{
		Name: c.index,
		Fields: []indexField{
			{Name: "id", Type: "Edm.String", Key: true},
			{Name: "content", Type: "Edm.String", Searchable: true},
			{Name: "metadata", Type: "Edm.String", Searchable: true},
			{
				Name:       vectorField,
				Type:       "Collection(Edm.Single)",
				Searchable: true,
				Dimensions: dimensions,
				Profile:    "hnsw-profile",
			},
		},
		VectorSearch: vectorSearch{
			Algorithms: []vectorAlgorithm{{Name: "hnsw-config", Kind: "hnsw"}},
			Profiles:   []vectorProfile{{Name: "hnsw-profile", Algorithm: "hnsw-config"}},
		},
	}

	url := fmt.Sprintf("%s/indexes/%s?api-version=%s", c.endpoint, c.index, apiVersion)
	payload, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to marshal index definition: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create index request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call index endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("index endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	slog.Info("search_index_ensured", slog.String("index", c.index), slog.Int("dimensions", dimensions))
	return nil
}

type uploadDocument struct {
	Action        string    `json:"@search.action"`
	ID            string    `json:"id"`
	Content       string    `json:"content"`
	Metadata      string    `json:"metadata"`
	ContentVector []float32 `json:"content_vector"`
}

type uploadRequest struct {
	Value []uploadDocument `json:"value"`
}

// UploadDocuments merges-or-uploads a batch of chunk documents.
func (c *Client) UploadDocuments(ctx context.Context, docs []domain.IndexableDocument) error {
	if len(docs) == 0 {
		return nil
	}

	reqBody := uploadRequest{Value: make([]uploadDocument, 0, len(docs))}
	for _, doc := range docs {
		reqBody.Value = append(reqBody.Value, uploadDocument{
			Action:        "mergeOrUpload",
			ID:            doc.ID,
			Content:       doc.Content,
			Metadata:      doc.Metadata,
			ContentVector: doc.ContentVector,
		})
	}

	var respBody json.RawMessage
	if err := c.post(ctx, c.docsURL("index"), reqBody, &respBody); err != nil {
		return fmt.Errorf("document upload failed: %w", err)
	}
	return nil
}

func (c *Client) docsURL(operation string) string {
	return fmt.Sprintf("%s/indexes/%s/docs/%s?api-version=%s", c.endpoint, c.index, operation, apiVersion)
}

func (c *Client) post(ctx context.Context, url string, reqBody, respBody any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("search service returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

var (
	_ domain.SearchIndex     = (*Client)(nil)
	_ domain.DocumentIndexer = (*Client)(nil)
)
