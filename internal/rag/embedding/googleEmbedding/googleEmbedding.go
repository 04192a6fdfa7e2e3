package googleEmbedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/domain/ragErrors"
	"github.com/akolanti/pdfrag/internal/rag/embedding"
	"github.com/akolanti/pdfrag/pkg/logger_i"
	"google.golang.org/genai"
)

const serviceName = "gemini_embedding"

type client struct {
	genAi       *genai.Client
	model       string
	dimension   int32
	batchSize   int
	concurrency int
	logger      *logger_i.Logger
}

// NewGoogleEmbedder builds a Gemini embedding client. The task type carries the query/document
// distinction so no text prefix is added.
func NewGoogleEmbedder(ctx context.Context, modelName string, apiKey string, dimension int, batchSize int, concurrency int) (embedding.Embedder, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, ragErrors.NewConfigurationError("GEMINI_API_KEY", "could not create gemini client: %v", err)
	}
	logger := logger_i.NewLogger("google_embedding")
	logger.Info("Google Embedding client created", "model", modelName)
	return &client{
		genAi:       c,
		model:       modelName,
		dimension:   int32(dimension),
		batchSize:   batchSize,
		concurrency: concurrency,
		logger:      logger,
	}, nil
}

func (c *client) Dimension() int {
	return int(c.dimension)
}

func (c *client) Embed(ctx context.Context, texts []string, mode embedding.Mode) ([][]float32, error) {
	log := c.logger.WithTrace(ctx, config.TRACE_ID_KEY)
	log.Debug("embedding texts", "count", len(texts), "mode", mode.String())

	return embedding.BatchEmbed(ctx, texts, c.batchSize, c.concurrency, func(ctx context.Context, batch []string) ([][]float32, error) {
		res, err := c.genAi.Models.EmbedContent(ctx, c.model, getContent(batch), getEmbedConfig(c.dimension, mode))
		if err != nil {
			if isRateLimited(err) {
				log.Warn("Gemini embedding rate limit hit", "error", err)
			}
			return nil, ragErrors.NewRemoteServiceError(serviceName, "embed_content", err)
		}
		vectors, err := collectVectors(res)
		if err != nil {
			return nil, err
		}
		if err := embedding.CheckDimension(serviceName, vectors, int(c.dimension)); err != nil {
			return nil, err
		}
		return vectors, nil
	})
}

func collectVectors(res *genai.EmbedContentResponse) ([][]float32, error) {
	if res == nil {
		return nil, ragErrors.NewRemoteServiceError(serviceName, "embed_content", errors.New("empty response"))
	}
	vectors := make([][]float32, 0, len(res.Embeddings))
	for i, e := range res.Embeddings {
		if e == nil {
			return nil, ragErrors.NewRemoteServiceError(serviceName, "embed_content", fmt.Errorf("embedding %d missing", i))
		}
		vectors = append(vectors, e.Values)
	}
	return vectors, nil
}
