package chat_http

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"bullpen-rag/internal/domain"
	"bullpen-rag/internal/usecase"
)

// doneSentinel closes every chat stream, success or failure.
const doneSentinel = "[DONE]"

type Handler struct {
	chatUsecase usecase.ChatStreamUsecase
	index       domain.SearchIndex
	encoder     domain.VectorEncoder
}

func NewHandler(chatUsecase usecase.ChatStreamUsecase, index domain.SearchIndex, encoder domain.VectorEncoder) *Handler {
	return &Handler{
		chatUsecase: chatUsecase,
		index:       index,
		encoder:     encoder,
	}
}

// RegisterRoutes attaches every route to the echo instance.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/health", h.Health)
	e.GET("/healthz", h.Healthz)
	e.POST("/chat", h.Chat)
}

type chatRequest struct {
	Message string               `json:"message"`
	History []domain.ChatMessage `json:"conversation_history"`
}

type streamRecord struct {
	Type    string                  `json:"type"`
	Content string                  `json:"content,omitempty"`
	Sources []usecase.SourceSummary `json:"sources,omitempty"`
}

// Chat streams the retrieve-then-answer pipeline as newline-delimited JSON
// records terminated by the [DONE] sentinel.
// (POST /chat)
func (h *Handler) Chat(ctx echo.Context) error {
	var req chatRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Message == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "message is required"})
	}

	resp := ctx.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	events := h.chatUsecase.Stream(ctx.Request().Context(), usecase.ChatStreamInput{
		Message: req.Message,
		History: req.History,
	})

	sentinelWritten := false
	for event := range events {
		if err := writeRecord(resp, event); err != nil {
			// Client went away; drain so the pipeline can finish its teardown.
			for range events {
			}
			return nil
		}
		if event.Kind == usecase.EventDone {
			sentinelWritten = true
		}
		resp.Flush()
	}
	// The sentinel is the transport's promise, not the pipeline's: a stream
	// that closed without one still gets terminated for the client.
	if !sentinelWritten {
		if _, err := resp.Write([]byte(doneSentinel + "\n\n")); err == nil {
			resp.Flush()
		}
	}
	return nil
}

func writeRecord(resp *echo.Response, event usecase.StreamEvent) error {
	if event.Kind == usecase.EventDone {
		_, err := resp.Write([]byte(doneSentinel + "\n\n"))
		return err
	}

	record := streamRecord{Type: string(event.Kind), Content: event.Content, Sources: event.Sources}
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	_, err = resp.Write(append(payload, '\n', '\n'))
	return err
}

// Root is a liveness banner for load balancers and curl checks.
// (GET /)
func (h *Handler) Root(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"message": "Deal Diligence RAG API is running"})
}

// Health is the shallow probe: a single keyword query against the index.
// (GET /health)
func (h *Handler) Health(ctx echo.Context) error {
	if _, err := h.index.TextSearch(ctx.Request().Context(), "test", 1); err != nil {
		return ctx.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

type healthzResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// Healthz is the deep probe: the search index and the embedding deployment
// are checked independently so a partial outage reads as degraded.
// (GET /healthz)
func (h *Handler) Healthz(ctx echo.Context) error {
	resp := healthzResponse{Status: "ok", Services: map[string]string{}}

	if _, err := h.index.TextSearch(ctx.Request().Context(), "test", 1); err != nil {
		resp.Status = "degraded"
		resp.Services["search_index"] = "error: " + err.Error()
	} else {
		resp.Services["search_index"] = "ok"
	}

	if _, err := h.encoder.Embed(ctx.Request().Context(), "test"); err != nil {
		resp.Status = "degraded"
		resp.Services["embeddings"] = "error: " + err.Error()
	} else {
		resp.Services["embeddings"] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	return ctx.JSON(status, resp)
}
