package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/randomtoy/arcana-go/internal/adapters/decks"
	httpadapter "github.com/randomtoy/arcana-go/internal/adapters/http"
	"github.com/randomtoy/arcana-go/internal/adapters/llm/anthropic"
	"github.com/randomtoy/arcana-go/internal/adapters/llm/openrouter"
	"github.com/randomtoy/arcana-go/internal/adapters/passages"
	"github.com/randomtoy/arcana-go/internal/adapters/spreads"
	"github.com/randomtoy/arcana-go/internal/app"
	"github.com/randomtoy/arcana-go/internal/config"
	"github.com/randomtoy/arcana-go/internal/crisis"
	"github.com/randomtoy/arcana-go/internal/ports"
	"github.com/randomtoy/arcana-go/internal/retrieval"
	"github.com/randomtoy/arcana-go/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	scanner, err := crisis.Default()
	if err != nil {
		logger.Error("failed to load crisis patterns", "error", err)
		os.Exit(1)
	}

	deckStore := decks.NewEmbeddedStore()
	spreadReg := spreads.NewRegistry()

	corpus, err := passages.Open(cfg.CorpusDBPath)
	if err != nil {
		logger.Error("failed to open passage corpus", "error", err)
		os.Exit(1)
	}
	defer corpus.Close()

	httpClient := &http.Client{Timeout: cfg.AttemptTimeout}
	orClient := openrouter.NewClient(httpClient, cfg.OpenRouterAPIKey, cfg.OpenRouterBaseURL, logger)

	var embedder ports.Embedder
	if cfg.EmbedModel != "" {
		embedder = openrouter.NewEmbedder(orClient, cfg.EmbedModel)
	}
	retriever := retrieval.New(corpus, embedder, logger)

	backends := []ports.GenerationBackend{
		openrouter.NewBackend(orClient, "primary", cfg.PrimaryModel, 0),
		openrouter.NewBackend(orClient, "secondary", cfg.SecondaryModel, 0),
	}
	if cfg.AnthropicAPIKey != "" {
		backends = append(backends,
			anthropic.NewBackend(httpClient, cfg.AnthropicAPIKey, "", "anthropic", cfg.AnthropicModel, 0))
	}

	gate := app.NewGate(openrouter.NewScorer(orClient, cfg.ScorerModel), cfg.GateTimeout, logger)

	var sink telemetry.Sink
	if cfg.TelemetryDBPath != "" {
		sqlSink, err := telemetry.OpenSQLiteSink(cfg.TelemetryDBPath)
		if err != nil {
			logger.Error("failed to open telemetry db", "error", err)
			os.Exit(1)
		}
		defer sqlSink.Close()
		sink = sqlSink
	}
	collector := telemetry.NewCollector(logger, sink, cfg.PersistText)

	svc := app.NewReadingService(spreadReg, deckStore, retriever, backends, scanner, gate, collector, app.Options{
		TokenBudget:    cfg.TokenBudget,
		PassageLimit:   cfg.PassageLimit,
		AttemptTimeout: cfg.AttemptTimeout,
		GateTimeout:    cfg.GateTimeout,
		GateAsync:      cfg.GateAsync,
	}, logger)
	defer svc.Close()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(httpadapter.RequestIDMiddleware())
	e.Use(httpadapter.LoggingMiddleware(logger))

	handler := httpadapter.NewHandler(svc, spreadReg)
	handler.Register(e)

	// Graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		logger.Info("starting server", "addr", cfg.HTTPAddr)
		if err := e.Start(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
