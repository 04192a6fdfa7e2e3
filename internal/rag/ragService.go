package rag

import (
	"context"
	"time"

	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/akolanti/pdfrag/internal/domain/ragErrors"
	"github.com/akolanti/pdfrag/internal/metrics"
	"github.com/akolanti/pdfrag/internal/rag/embedding"
	"github.com/akolanti/pdfrag/internal/rag/llm"
	"github.com/akolanti/pdfrag/internal/rag/vectorDB"
	"github.com/akolanti/pdfrag/pkg/logger_i"
)

/*
The handlers only see the Service interface. The private service struct holds the
vector store, the embedder and the llm provider, all injected through NewService so
tests can swap any of them for a mock.

A service keeps no per request state, one instance is shared by every request.
*/

type Answer struct {
	Text            string
	Sources         []commonModels.Source
	Model           string
	ChunksRetrieved int
}

type Service interface {
	Answer(ctx context.Context, question string, history []commonModels.Message) (Answer, error)
}

type service struct {
	vectorDB    vectorDB.Store
	llmProvider llm.Provider
	embedder    embedding.Embedder
	collection  string
	topK        int
	logger      *logger_i.Logger
}

func NewService(vector vectorDB.Store, llm llm.Provider, em embedding.Embedder, collection string, topK int) Service {
	return &service{
		vectorDB:    vector,
		llmProvider: llm,
		embedder:    em,
		collection:  collection,
		topK:        topK,
		logger:      logger_i.NewLogger("RAG Service"),
	}
}

// Answer runs embed, search, prompt, generate and package. Any failing step ends the call.
// An empty search result is not a failure, the model is still asked and told there is no context.
func (s *service) Answer(ctx context.Context, question string, history []commonModels.Message) (Answer, error) {
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY)
	start := time.Now()

	if question == "" {
		return Answer{}, ragErrors.NewValidationError("question", "must not be empty")
	}
	for i, m := range history {
		if !m.Role.Valid() {
			return Answer{}, ragErrors.NewValidationError("history", "message %d has invalid role %q", i, m.Role)
		}
	}

	queryVector, err := s.executeEmbeddingStep(ctx, log, question)
	if err != nil {
		return s.fail(log, start, "EMBEDDING_FAILURE", err)
	}

	results, err := s.executeVectorSearchStep(ctx, log, queryVector)
	if err != nil {
		return s.fail(log, start, "VECTOR_DB_FAILURE", err)
	}

	messages := BuildMessages(question, results, history)

	completion, err := s.executeLLMStep(ctx, log, messages)
	if err != nil {
		return s.fail(log, start, "LLM_GENERATION_FAILURE", err)
	}

	answer := packageAnswer(completion, results)
	if answer.Model == "" {
		answer.Model = s.llmProvider.Model()
	}
	metrics.CaptureChatMetrics("success", time.Since(start))
	log.Info("Answered question", "chunksRetrieved", len(results), "duration", time.Since(start).String())
	return answer, nil
}
