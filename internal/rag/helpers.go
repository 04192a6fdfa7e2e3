package rag

import (
	"context"
	"errors"
	"time"

	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/akolanti/pdfrag/internal/domain/ragErrors"
	"github.com/akolanti/pdfrag/internal/metrics"
	"github.com/akolanti/pdfrag/internal/rag/embedding"
	"github.com/akolanti/pdfrag/internal/rag/llm"
	"github.com/akolanti/pdfrag/pkg/logger_i"
)

func packageAnswer(completion llm.Completion, results []commonModels.SearchResult) Answer {
	sources := make([]commonModels.Source, len(results))
	for i, r := range results {
		sources[i] = r.ToSource()
	}
	return Answer{
		Text:            completion.Text,
		Sources:         sources,
		Model:           completion.Model,
		ChunksRetrieved: len(results),
	}
}

func (s *service) fail(log *logger_i.Logger, start time.Time, message string, err error) (Answer, error) {
	log.Error(message, "error", err)
	metrics.CaptureChatMetrics("error", time.Since(start))
	return Answer{}, err
}

func (s *service) executeEmbeddingStep(ctx context.Context, log *logger_i.Logger, question string) ([]float32, error) {
	start := time.Now()
	defer func() {
		metrics.CaptureExecutionMetrics("embedding", time.Since(start))
		log.Debug("embedding step", "duration", time.Since(start).String())
	}()

	vectors, err := s.embedder.Embed(ctx, []string{question}, embedding.ModeQuery)
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, ragErrors.NewRemoteServiceError("embedding", "embed", errors.New("expected exactly one query vector"))
	}
	return vectors[0], nil
}

func (s *service) executeVectorSearchStep(ctx context.Context, log *logger_i.Logger, vector []float32) ([]commonModels.SearchResult, error) {
	start := time.Now()
	defer func() {
		metrics.CaptureExecutionMetrics("vector_search", time.Since(start))
		log.Debug("vector search step", "duration", time.Since(start).String())
	}()

	return s.vectorDB.Search(ctx, s.collection, vector, s.topK)
}

func (s *service) executeLLMStep(ctx context.Context, log *logger_i.Logger, messages []commonModels.Message) (llm.Completion, error) {
	start := time.Now()
	defer func() {
		metrics.CaptureExecutionMetrics("llm_generation", time.Since(start))
		log.Debug("generation step", "duration", time.Since(start).String())
	}()

	return s.llmProvider.Generate(ctx, messages)
}
