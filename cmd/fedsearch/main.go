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

	"github.com/kailas-cloud/fedsearch/internal/config"
	logpkg "github.com/kailas-cloud/fedsearch/internal/logger"
	"github.com/kailas-cloud/fedsearch/internal/metrics"
	"github.com/kailas-cloud/fedsearch/internal/registry"
	"github.com/kailas-cloud/fedsearch/internal/repository/redissearch"
	chiTransport "github.com/kailas-cloud/fedsearch/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/fedsearch/internal/transport/openai"
	"github.com/kailas-cloud/fedsearch/internal/usecase/federated"
	healthuc "github.com/kailas-cloud/fedsearch/internal/usecase/health"
	"github.com/kailas-cloud/fedsearch/internal/version"
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

	logger.Info("Starting fedsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Int("stores", len(cfg.Stores)),
		zap.Duration("default_timeout", cfg.Federation.DefaultTimeout()),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterFederationMetrics()
	metrics.RegisterEmbeddingMetrics()

	// Pass nil interfaces (not typed nil pointers) when embedding is off.
	var (
		embedder        redissearch.Embedder
		embeddingHealth healthuc.EmbeddingChecker
	)
	if cfg.Embedding.Enabled() {
		e := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   cfg.Embedding.Provider,
			Logger:     logger,
		})
		embedder, embeddingHealth = e, e
		logger.Info("Embedder created",
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
		)
	}

	ctx := context.Background()
	reg, err := registry.Open(ctx, cfg.Stores, registry.Deps{Embedder: embedder, Logger: logger}, nil)
	if err != nil {
		logger.Fatal("Failed to open stores", zap.Error(err))
	}
	defer func() {
		if err := reg.Close(); err != nil {
			logger.Error("Error closing stores", zap.Error(err))
		}
	}()

	searchSvc := federated.New(reg.Backends(),
		federated.WithDefaultTimeout(cfg.Federation.DefaultTimeout()),
		federated.WithMaxTimeout(cfg.Federation.MaxTimeout()),
		federated.WithMaxQueryLength(cfg.Federation.MaxQueryLength),
		federated.WithLogger(logger),
	)
	healthSvc := healthuc.New(reg.Probes(), embeddingHealth)

	server := chiTransport.NewServer(searchSvc, healthSvc, logger)
	handler := chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
