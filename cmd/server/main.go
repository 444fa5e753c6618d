package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"bullpen-rag/internal/adapter/azopenai"
	"bullpen-rag/internal/adapter/azsearch"
	"bullpen-rag/internal/adapter/chat_http"
	"bullpen-rag/internal/adapter/websearch"
	"bullpen-rag/internal/infra/config"
	"bullpen-rag/internal/infra/httpclient"
	"bullpen-rag/internal/infra/logger"
	"bullpen-rag/internal/usecase"
)

func main() {
	// 1. Load Config
	cfg := config.Load()

	// 2. Initialize Logger
	log := logger.New()
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// 3. Initialize Adapters
	apiClient := httpclient.NewPooledClient(60 * time.Second)
	embedder := azopenai.NewEmbedder(cfg.OpenAIEndpoint, cfg.OpenAIKey, cfg.EmbedDeployment, cfg.OpenAIAPIVersion, apiClient)
	chatClient := azopenai.NewChatClient(cfg.OpenAIEndpoint, cfg.OpenAIKey, cfg.ChatDeployment, cfg.OpenAIAPIVersion, httpclient.NewPooledClient(120*time.Second))
	searchClient := azsearch.NewClient(cfg.SearchEndpoint, cfg.SearchKey, cfg.SearchIndex, apiClient)
	webSearcher := websearch.NewPerplexityClient(websearch.DefaultBaseURL, cfg.PerplexityAPIKey, time.Duration(cfg.WebSearchTimeout)*time.Second)

	// 4. Initialize Usecases
	classifier := usecase.NewQueryClassifier(chatClient, log)
	internalSearch := usecase.NewInternalSearchUsecase(
		embedder,
		searchClient,
		cfg.BlobConnStr,
		cfg.BlobContainer,
		cfg.EmbedCacheSize,
		time.Duration(cfg.EmbedCacheTTL)*time.Minute,
		log,
	)
	chatStream := usecase.NewChatStreamUsecase(
		classifier,
		internalSearch,
		webSearcher,
		chatClient,
		cfg.HybridWebQueryPrefix,
		cfg.SearchTopK,
		cfg.AnswerMaxTokens,
		cfg.ChatDeployment,
		cfg.OpenAIAPIVersion,
		log,
	)

	// 5. Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("request_id", v.RequestID),
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			)
			return nil
		},
	}))

	// 6. Register Handlers
	handler := chat_http.NewHandler(chatStream, searchClient, embedder)
	handler.RegisterRoutes(e)

	// 7. Start Server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Info("Starting server", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server")
		}
	}()

	// 8. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
}
