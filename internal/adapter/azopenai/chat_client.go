package azopenai

import (
	"bufio"
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

// ChatClient sends chat completions to an Azure OpenAI deployment, either as
// a single response or as a server-sent stream of content deltas.
type ChatClient struct {
	endpoint   string
	apiKey     string
	deployment string
	apiVersion string
	client     *http.Client
}

func NewChatClient(endpoint, apiKey, deployment, apiVersion string, client *http.Client) *ChatClient {
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return &ChatClient{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		deployment: deployment,
		apiVersion: apiVersion,
		client:     client,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Messages         []chatMessage `json:"messages"`
	Stream           bool          `json:"stream,omitempty"`
	MaxTokens        int           `json:"max_tokens,omitempty"`
	Temperature      *float64      `json:"temperature,omitempty"`
	FrequencyPenalty *float64      `json:"frequency_penalty,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Complete sends one non-streaming completion call and returns the assistant
// message content.
func (c *ChatClient) Complete(ctx context.Context, messages []domain.Message, opts domain.CompletionOptions) (string, error) {
	resp, err := c.post(ctx, messages, opts, false)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var respBody chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if respBody.Error != nil {
		return "", fmt.Errorf("completion endpoint error: %s", respBody.Error.Message)
	}
	if len(respBody.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}
	return respBody.Choices[0].Message.Content, nil
}

// CompleteStream opens a streaming completion call. Content deltas arrive on
// the first channel in order; a read failure mid-stream arrives on the second.
// Both channels close when the stream ends.
func (c *ChatClient) CompleteStream(ctx context.Context, messages []domain.Message, opts domain.CompletionOptions) (<-chan string, <-chan error, error) {
	resp, err := c.post(ctx, messages, opts, true)
	if err != nil {
		return nil, nil, err
	}

	deltas := make(chan string, 8)
	errs := make(chan error, 1)

	go func() {
		defer close(deltas)
		defer close(errs)
		defer func() { _ = resp.Body.Close() }()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "[DONE]" {
				return
			}

			var chunk chatStreamChunk
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				slog.Debug("skipping unparseable stream chunk", slog.String("payload", payload))
				continue
			}
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}

			select {
			case deltas <- chunk.Choices[0].Delta.Content:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errs <- fmt.Errorf("reading completion stream: %w", err)
		}
	}()

	return deltas, errs, nil
}

func (c *ChatClient) post(ctx context.Context, messages []domain.Message, opts domain.CompletionOptions, stream bool) (*http.Response, error) {
	reqBody := chatCompletionRequest{
		Messages:  make([]chatMessage, 0, len(messages)),
		Stream:    stream,
		MaxTokens: opts.MaxTokens,
	}
	for _, m := range messages {
		reqBody.Messages = append(reqBody.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	if opts.Temperature > 0 {
		reqBody.Temperature = &opts.Temperature
	}
	if opts.FrequencyPenalty > 0 {
		reqBody.FrequencyPenalty = &opts.FrequencyPenalty
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal completion request: %w", err)
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.endpoint, c.deployment, c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call completion endpoint: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("completion endpoint returned %d: %s", resp.StatusCode, string(body))
	}
	return resp, nil
}

func (c *ChatClient) Version() string {
	return c.deployment
}

var _ domain.LLMClient = (*ChatClient)(nil)
var _ domain.VectorEncoder = (*Embedder)(nil)
