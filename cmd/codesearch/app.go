package main

import (
	"fmt"
	"log/slog"
	"time"

	"codesearch/internal/config"
	"codesearch/internal/corpus"
	"codesearch/internal/embedding"
	"codesearch/internal/embedding/openai"
	"codesearch/internal/embedding/tfidf"
	"codesearch/internal/service"
)

// newEmbedder builds the configured embedding provider. The returned func
// releases its resources.
func newEmbedder(cfg *config.AppConfig) (embedding.Embedder, func(), error) {
	switch cfg.Embedder.Type {
	case config.EmbedderTFIDF, "":
		return tfidf.NewEmbedder(), func() {}, nil
	case config.EmbedderOpenAI:
		o := cfg.Embedder.OpenAI
		client, err := openai.NewClient(openai.Config{
			BaseURL:           o.BaseURL,
			APIKeyEnv:         o.APIKeyEnv,
			Model:             o.Model,
			Timeout:           time.Duration(o.TimeoutSecs) * time.Second,
			BatchSize:         o.BatchSize,
			Workers:           o.Workers,
			RequestsPerSecond: o.RequestsPerSecond,
			MaxRetries:        o.MaxRetries,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
}

func newLoader(cfg *config.AppConfig, logger *slog.Logger) *corpus.Loader {
	return corpus.NewLoader(corpus.Options{
		Extensions:  cfg.Extensions,
		ExcludeDirs: cfg.ExcludeDirs,
		ReportEvery: cfg.Loader.ReportEvery,
		Logger:      logger,
	})
}

func engineOptions(cfg *config.AppConfig, logger *slog.Logger) service.Options {
	return service.Options{
		TopK:         cfg.Search.TopK,
		PreviewLines: cfg.Search.PreviewLines,
		Logger:       logger,
	}
}
