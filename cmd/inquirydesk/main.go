package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/inquirydesk/internal/bootstrap"
	"github.com/kailas-cloud/inquirydesk/internal/config"
	logpkg "github.com/kailas-cloud/inquirydesk/internal/logger"
	"github.com/kailas-cloud/inquirydesk/internal/metrics"
	chiTransport "github.com/kailas-cloud/inquirydesk/internal/transport/chi"
	"github.com/kailas-cloud/inquirydesk/internal/transport/langchain"
	generationuc "github.com/kailas-cloud/inquirydesk/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/inquirydesk/internal/usecase/health"
	inquiryuc "github.com/kailas-cloud/inquirydesk/internal/usecase/inquiry"
	"github.com/kailas-cloud/inquirydesk/internal/usecase/pipeline"
	retrievaluc "github.com/kailas-cloud/inquirydesk/internal/usecase/retrieval"
	"github.com/kailas-cloud/inquirydesk/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting inquirydesk API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("vector_index_driver", cfg.VectorIndex.Driver),
	)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	res, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open databases: %w", err)
	}
	defer res.Close()

	if err := res.EnsureRecordSchema(ctx); err != nil {
		return err
	}

	// explicit registration, no init()
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterLLMMetrics()
	metrics.RegisterPipelineMetrics()

	index, err := res.KnowledgeIndex()
	if err != nil {
		return fmt.Errorf("knowledge index: %w", err)
	}
	if ok, err := index.Exists(ctx); err != nil || !ok {
		logger.Warn("Knowledge index not available, inquiries will be answered without context",
			zap.String("index", cfg.VectorIndex.Name),
			zap.Error(err),
		)
	}

	queryEmbedder := res.Embedder(cfg.Embedding.QueryInstruction, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cache", cfg.Embedding.CacheEnabled() && res.Valkey != nil),
	)

	model, err := langchain.New(langchain.Config{
		Provider:    cfg.LLM.Provider,
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("language model: %w", err)
	}
	logger.Info("Language model created",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
	)

	retriever := retrievaluc.New(queryEmbedder, index, logger)
	generator := generationuc.New(model, logger)
	pipe := pipeline.New(retriever, generator,
		pipeline.WithTopK(cfg.VectorIndex.TopK),
		pipeline.WithLogger(logger),
	)

	inquirySvc := inquiryuc.New(res.InquiryRepository(), pipe).
		WithTimeout(time.Duration(cfg.Pipeline.TimeoutSec)*time.Second).
		WithPagination(cfg.Inquiries.DefaultPageSize, cfg.Inquiries.MaxPageSize)

	healthSvc := healthuc.New(res.RecordPinger(), index, queryEmbedder)

	server := chiTransport.NewServer(inquirySvc, healthSvc, logger).WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes)
	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		APIPrefix:        cfg.App.APIPrefix,
		APIKeys:          cfg.Auth.APIKeys,
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowCredentials: cfg.CORS.Credentials(),
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr), zap.String("api_prefix", cfg.App.APIPrefix))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-quit:
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
