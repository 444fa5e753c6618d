package websearch

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

const (
	// DefaultBaseURL is the Perplexity API endpoint.
	DefaultBaseURL = "https://api.perplexity.ai"

	sourceLabel    = "Perplexity AI"
	webSearchModel = "llama-3.1-sonar-small-128k-online"
	systemPrompt   = "You are a helpful assistant providing accurate, up-to-date information. Always cite your sources."
)

// PerplexityClient issues web searches through the Perplexity chat API. Every
// failure path produces an Error-labeled ExternalEvidence value so callers can
// continue with partial results.
type PerplexityClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewPerplexityClient(baseURL, apiKey string, timeout time.Duration) *PerplexityClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PerplexityClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type webSearchMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type webSearchRequest struct {
	Model    string             `json:"model"`
	Messages []webSearchMessage `json:"messages"`
}

type webSearchResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *PerplexityClient) SearchWeb(ctx context.Context, query string) domain.ExternalEvidence {
	reqBody := webSearchRequest{
		Model: webSearchModel,
		Messages: []webSearchMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: query},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return c.failure(query, fmt.Sprintf("Web search failed: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return c.failure(query, fmt.Sprintf("Web search failed: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		slog.Error("web_search_failed", slog.String("error", err.Error()))
		return c.failure(query, fmt.Sprintf("Web search failed: %v", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		slog.Error("web_search_bad_status",
			slog.Int("status", resp.StatusCode),
			slog.String("body", truncate(string(body), 500)),
		)
		return c.failure(query, "Unable to fetch web results")
	}

	var respBody webSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return c.failure(query, fmt.Sprintf("Web search failed: %v", err))
	}
	if len(respBody.Choices) == 0 {
		return c.failure(query, "Unable to fetch web results")
	}

	slog.Info("web_search_succeeded", slog.String("query", truncate(query, 100)))
	return domain.ExternalEvidence{
		Content:     respBody.Choices[0].Message.Content,
		SourceLabel: sourceLabel,
		Query:       query,
	}
}

func (c *PerplexityClient) failure(query, message string) domain.ExternalEvidence {
	return domain.ExternalEvidence{
		Content:     message,
		SourceLabel: domain.ErrorSourceLabel,
		Query:       query,
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

var _ domain.WebSearcher = (*PerplexityClient)(nil)
