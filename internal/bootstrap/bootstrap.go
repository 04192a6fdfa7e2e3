// Package bootstrap builds the providers named by configuration. Every binary goes through
// here so the chat API, the MCP server and the ingestion job agree on how clients are made.
package bootstrap

import (
	"context"
	"net/http"

	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/customHttpClient"
	"github.com/akolanti/pdfrag/internal/domain/ragErrors"
	"github.com/akolanti/pdfrag/internal/rag"
	"github.com/akolanti/pdfrag/internal/rag/embedding"
	"github.com/akolanti/pdfrag/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/pdfrag/internal/rag/embedding/teiEmbedding"
	"github.com/akolanti/pdfrag/internal/rag/llm"
	"github.com/akolanti/pdfrag/internal/rag/llm/gemini"
	"github.com/akolanti/pdfrag/internal/rag/llm/openaiLLM"
	"github.com/akolanti/pdfrag/internal/rag/vectorDB"
	"github.com/akolanti/pdfrag/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/pdfrag/pkg/logger_i"
)

func NewEmbedder(ctx context.Context, cfg config.EmbeddingConfig, httpClient *http.Client) (embedding.Embedder, error) {
	switch cfg.Provider {
	case "tei":
		return teiEmbedding.NewClient(cfg.URL, httpClient, cfg.Dimension, cfg.BatchSize, cfg.Concurrency), nil
	case "gemini":
		return googleEmbedding.NewGoogleEmbedder(ctx, cfg.Model, cfg.APIKey, cfg.Dimension, cfg.BatchSize, cfg.Concurrency)
	}
	return nil, ragErrors.NewConfigurationError("EMBEDDING_PROVIDER", "unknown provider %q", cfg.Provider)
}

func NewProvider(ctx context.Context, cfg config.GenerationConfig, httpClient *http.Client) (llm.Provider, error) {
	params := llm.Params{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
	switch cfg.Provider {
	case "openai":
		return openaiLLM.NewClient(cfg.URL, cfg.APIKey, httpClient, params), nil
	case "gemini":
		return gemini.NewGeminiClient(ctx, cfg.APIKey, params)
	}
	return nil, ragErrors.NewConfigurationError("GENERATION_PROVIDER", "unknown provider %q", cfg.Provider)
}

// VerifyCollection refuses to serve against a collection whose vectors cannot match the embedder.
// An absent collection only warns, ingestion creates it. An unreachable Qdrant also only warns
// so the API can come up before the database does.
func VerifyCollection(ctx context.Context, store vectorDB.Store, cfg config.QdrantConfig, dimension int) error {
	logger := logger_i.NewLogger("bootstrap").With("collection", cfg.Collection)
	ctx, cancel := context.WithTimeout(ctx, config.CollectionCheckTimeout)
	defer cancel()

	exists, err := store.CheckCollection(ctx, vectorDB.CollectionSpec{
		Name:      cfg.Collection,
		Dimension: dimension,
		Distance:  cfg.Distance,
	})
	switch {
	case ragErrors.IsConfiguration(err) || ragErrors.IsValidation(err):
		return err
	case err != nil:
		logger.Warn("Could not verify collection", "error", err)
	case !exists:
		logger.Warn("Collection does not exist yet, run the ingestion first")
	}
	return nil
}

// NewRAGService constructs the query pipeline. closeFn releases the Qdrant pool and idle HTTP connections.
func NewRAGService(ctx context.Context, cfg *config.ChatAPIConfig) (service rag.Service, closeFn func(), err error) {
	logger := logger_i.NewLogger("bootstrap")
	httpClient := customHttpClient.NewPooledClient(cfg.HTTPTimeout)

	embedder, err := NewEmbedder(ctx, cfg.Embedding, httpClient)
	if err != nil {
		return nil, nil, err
	}
	provider, err := NewProvider(ctx, cfg.Generation, httpClient)
	if err != nil {
		return nil, nil, err
	}
	store, err := qdrantDB.NewClient(cfg.Qdrant, cfg.Embedding.Dimension)
	if err != nil {
		return nil, nil, err
	}

	closeFn = func() {
		if err := store.Close(); err != nil {
			logger.Error("could not close Qdrant", "error", err)
		}
		customHttpClient.CloseIdleConnections()
	}

	if err := VerifyCollection(ctx, store, cfg.Qdrant, embedder.Dimension()); err != nil {
		closeFn()
		return nil, nil, err
	}

	logger.Info("RAG pipeline constructed",
		"embeddingProvider", cfg.Embedding.Provider,
		"generationProvider", cfg.Generation.Provider,
		"model", provider.Model(),
		"collection", cfg.Qdrant.Collection,
		"topK", cfg.TopK)
	return rag.NewService(store, provider, embedder, cfg.Qdrant.Collection, cfg.TopK), closeFn, nil
}
