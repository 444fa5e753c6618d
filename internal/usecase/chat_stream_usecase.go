package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"bullpen-rag/internal/domain"
)

// EventKind discriminates the records on a chat stream.
type EventKind string

const (
	EventStatus  EventKind = "status"
	EventSources EventKind = "sources"
	EventContent EventKind = "content"
	EventError   EventKind = "error"
	// EventDone is internal to the stream channel; the transport renders it
	// as the [DONE] sentinel instead of a JSON record.
	EventDone EventKind = "done"
)

// StreamEvent is one record on the chat response stream.
type StreamEvent struct {
	Kind    EventKind
	Content string
	Sources []SourceSummary
}

// SourceSummary is the citation card shown to the user before the answer.
type SourceSummary struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// ChatStreamInput carries one user turn. History is accepted for API
// compatibility; the answer is grounded on retrieved evidence only.
type ChatStreamInput struct {
	Message string
	History []domain.ChatMessage
}

const (
	statusReceived          = "Confirming receipt, working on it now."
	statusSearchingWeb      = "Searching the web for current information..."
	statusSearchingInternal = "Searching internal documents..."
	statusSearchingMarket   = "Searching the web for market data..."
	statusGenerating        = "Generating response..."

	noExternalResultsMessage = "I couldn't find current information about your query. Please try rephrasing your question."
	noHybridResultsMessage   = "I couldn't find relevant information in our documents or current market data."
	noInternalResultsMessage = "I couldn't find any relevant information in our internal documents to answer your question."

	maxSourceCards = 3

	defaultAnswerMaxTokens = 300
	answerTemperature      = 0.2
	answerFrequencyPenalty = 0.2

	streamBufferSize = 16
)

// ChatStreamUsecase runs the full retrieve-then-answer pipeline for one user
// turn and streams the result.
type ChatStreamUsecase interface {
	Stream(ctx context.Context, input ChatStreamInput) <-chan StreamEvent
}

type chatStreamUsecase struct {
	classifier     QueryClassifier
	internalSearch InternalSearchUsecase
	webSearcher    domain.WebSearcher
	llm            domain.LLMClient

	hybridWebQueryPrefix string
	searchTopK           int
	answerMaxTokens      int
	chatDeployment       string
	apiVersion           string

	logger *slog.Logger
}

func NewChatStreamUsecase(
	classifier QueryClassifier,
	internalSearch InternalSearchUsecase,
	webSearcher domain.WebSearcher,
	llm domain.LLMClient,
	hybridWebQueryPrefix string,
	searchTopK int,
	answerMaxTokens int,
	chatDeployment, apiVersion string,
	logger *slog.Logger,
) ChatStreamUsecase {
	if searchTopK <= 0 {
		searchTopK = DefaultSearchTopK
	}
	if answerMaxTokens <= 0 {
		answerMaxTokens = defaultAnswerMaxTokens
	}
	return &chatStreamUsecase{
		classifier:           classifier,
		internalSearch:       internalSearch,
		webSearcher:          webSearcher,
		llm:                  llm,
		hybridWebQueryPrefix: hybridWebQueryPrefix,
		searchTopK:           searchTopK,
		answerMaxTokens:      answerMaxTokens,
		chatDeployment:       chatDeployment,
		apiVersion:           apiVersion,
		logger:               logger,
	}
}

// Stream starts the pipeline and returns the event channel. The channel is
// always closed after a terminal EventDone; panics inside the pipeline
// surface as an EventError before it.
func (u *chatStreamUsecase) Stream(ctx context.Context, input ChatStreamInput) <-chan StreamEvent {
	events := make(chan StreamEvent, streamBufferSize)

	go func() {
		defer close(events)
		defer u.emitTerminal(ctx, events, StreamEvent{Kind: EventDone})
		defer func() {
			if r := recover(); r != nil {
				u.logger.Error("chat_stream_panic", slog.Any("panic", r))
				u.emitTerminal(ctx, events, StreamEvent{
					Kind:    EventError,
					Content: fmt.Sprintf("An unexpected error occurred: %v", r),
				})
			}
		}()
		u.run(ctx, input, events)
	}()

	return events
}

// emitTerminal delivers the terminal events. The send blocks until the
// consumer drains the buffer, so a slow-but-connected consumer always
// receives the sentinel; only a disconnected caller forfeits it.
func (u *chatStreamUsecase) emitTerminal(ctx context.Context, events chan<- StreamEvent, event StreamEvent) {
	select {
	case events <- event:
	case <-ctx.Done():
	}
}

// send delivers a pipeline event, honoring consumer cancellation. A false
// return means the client disconnected and the pipeline should stop.
func (u *chatStreamUsecase) send(ctx context.Context, events chan<- StreamEvent, event StreamEvent) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

func (u *chatStreamUsecase) run(ctx context.Context, input ChatStreamInput, events chan<- StreamEvent) {
	if !u.send(ctx, events, StreamEvent{Kind: EventStatus, Content: statusReceived}) {
		return
	}

	intent := u.classifier.Classify(ctx, input.Message)

	var (
		internal []domain.EvidenceDocument
		external *domain.ExternalEvidence
	)

	switch intent {
	case domain.IntentExternal:
		if !u.send(ctx, events, StreamEvent{Kind: EventStatus, Content: statusSearchingWeb}) {
			return
		}
		evidence := u.webSearcher.SearchWeb(ctx, input.Message)
		if evidence.IsError() {
			u.send(ctx, events, StreamEvent{Kind: EventContent, Content: noExternalResultsMessage})
			return
		}
		external = &evidence

	case domain.IntentHybrid:
		if !u.send(ctx, events, StreamEvent{Kind: EventStatus, Content: statusSearchingInternal}) {
			return
		}
		internal = u.internalSearch.Execute(ctx, input.Message, u.searchTopK)

		if !u.send(ctx, events, StreamEvent{Kind: EventStatus, Content: statusSearchingMarket}) {
			return
		}
		webQuery := strings.TrimSpace(u.hybridWebQueryPrefix + " " + input.Message)
		evidence := u.webSearcher.SearchWeb(ctx, webQuery)
		if !evidence.IsError() {
			external = &evidence
		}

		if len(internal) == 0 && external == nil {
			u.send(ctx, events, StreamEvent{Kind: EventContent, Content: noHybridResultsMessage})
			return
		}

	default:
		if !u.send(ctx, events, StreamEvent{Kind: EventStatus, Content: statusSearchingInternal}) {
			return
		}
		internal = u.internalSearch.Execute(ctx, input.Message, u.searchTopK)
		if len(internal) == 0 {
			u.send(ctx, events, StreamEvent{Kind: EventContent, Content: noInternalResultsMessage})
			return
		}
	}

	if len(internal) > 0 {
		if !u.send(ctx, events, StreamEvent{Kind: EventSources, Sources: sourceCards(internal)}) {
			return
		}
	}

	prompt := BuildAnswerPrompt(intent, input.Message, internal, external)

	if !u.send(ctx, events, StreamEvent{Kind: EventStatus, Content: statusGenerating}) {
		return
	}

	u.streamAnswer(ctx, input.Message, prompt, internal, external, events)
}

func (u *chatStreamUsecase) streamAnswer(
	ctx context.Context,
	question, prompt string,
	internal []domain.EvidenceDocument,
	external *domain.ExternalEvidence,
	events chan<- StreamEvent,
) {
	messages := []domain.Message{
		{Role: "system", Content: prompt},
		{Role: "user", Content: question},
	}
	opts := domain.CompletionOptions{
		MaxTokens:        u.answerMaxTokens,
		Temperature:      answerTemperature,
		FrequencyPenalty: answerFrequencyPenalty,
	}

	deltas, errs, err := u.llm.CompleteStream(ctx, messages, opts)
	if err != nil {
		u.logger.Error("chat_completion_failed", slog.String("error", err.Error()))
		u.send(ctx, events, StreamEvent{
			Kind:    EventContent,
			Content: u.completionFailureMessage(err, internal, external),
		})
		return
	}

	for deltas != nil || errs != nil {
		select {
		case delta, ok := <-deltas:
			if !ok {
				deltas = nil
				continue
			}
			// A ready delta can win the select race against a canceled
			// context; never forward content once the client is gone.
			if ctx.Err() != nil {
				u.logger.Warn("client_disconnected_mid_stream")
				return
			}
			if delta == "" {
				continue
			}
			if !u.send(ctx, events, StreamEvent{Kind: EventContent, Content: delta}) {
				u.logger.Warn("client_disconnected_mid_stream")
				return
			}
		case streamErr, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			u.logger.Error("chat_completion_stream_failed", slog.String("error", streamErr.Error()))
			u.send(ctx, events, StreamEvent{
				Kind:    EventContent,
				Content: u.completionFailureMessage(streamErr, internal, external),
			})
			return
		case <-ctx.Done():
			u.logger.Warn("client_disconnected_mid_stream")
			return
		}
	}
}

func sourceCards(docs []domain.EvidenceDocument) []SourceSummary {
	limit := min(len(docs), maxSourceCards)
	cards := make([]SourceSummary, 0, limit)
	for _, doc := range docs[:limit] {
		cards = append(cards, SourceSummary{
			Title:   doc.Title,
			Content: doc.Snippet,
			Score:   doc.RelevanceScore,
		})
	}
	return cards
}

// completionFailureMessage turns a completion error into the graceful
// degraded answer, classified by known failure signatures and carrying
// whatever evidence was retrieved before the error.
func (u *chatStreamUsecase) completionFailureMessage(err error, internal []domain.EvidenceDocument, external *domain.ExternalEvidence) string {
	evidenceContext := "No specific information was retrieved before the error."
	if len(internal) > 0 {
		limit := min(len(internal), maxSourceCards)
		titles := make([]string, 0, limit)
		for _, doc := range internal[:limit] {
			titles = append(titles, "- "+doc.Title)
		}
		evidenceContext = "Based on our internal documents, I found:\n" + strings.Join(titles, "\n")
	} else if external != nil && !external.IsError() {
		evidenceContext = "Based on web search, I found some initial information."
	}

	errorMessage := err.Error()
	switch {
	case strings.Contains(errorMessage, "DeploymentNotFound"):
		return fmt.Sprintf(`I apologize, but I'm having trouble accessing our AI model right now. Here's what I found that might help:

%s

**Technical Details:** The AI model deployment '%s' was not found. Please verify:
- The deployment name is correct in your .env file
- The deployment is active in your Azure OpenAI resource
- You're using the correct Azure OpenAI endpoint

(Note: Our team has been notified and is working to restore full functionality.)`, evidenceContext, u.chatDeployment)

	case strings.Contains(errorMessage, "BadRequest") && strings.Contains(strings.ToLower(errorMessage), "api versions"):
		return fmt.Sprintf(`I encountered a technical issue, but let me share what I found that might help:

%s

**Technical Details:** API version mismatch. Current version: %s
Please ensure this version is supported by your Azure OpenAI deployment.

(Note: Our team has been notified about the configuration issue.)`, evidenceContext, u.apiVersion)

	case strings.Contains(errorMessage, "Unauthorized") || strings.Contains(errorMessage, "401"):
		return fmt.Sprintf(`Authentication failed with Azure OpenAI. Here's what I found before the error:

%s

**Technical Details:** Please verify your AZURE_OPENAI_KEY is correct and has proper permissions.`, evidenceContext)

	default:
		if len(errorMessage) > 200 {
			errorMessage = errorMessage[:200]
		}
		return fmt.Sprintf(`I apologize for the technical difficulty. While our team investigates, here's what I found in our documents:

%s

**Error:** %s...`, evidenceContext, errorMessage)
	}
}

var _ ChatStreamUsecase = (*chatStreamUsecase)(nil)
