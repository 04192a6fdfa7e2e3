package adapter

import (
	"strings"

	"github.com/akolanti/pdfrag/internal/api"
	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/akolanti/pdfrag/internal/domain/ragErrors"
	"github.com/akolanti/pdfrag/internal/rag"
)

// ToQuestion validates the request and converts the history into typed messages.
func ToQuestion(req api.ChatRequest) (string, []commonModels.Message, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return "", nil, ragErrors.NewValidationError("question", "must not be empty")
	}

	history := make([]commonModels.Message, 0, len(req.History))
	for i, m := range req.History {
		role := commonModels.Role(m.Role)
		if !role.Valid() {
			return "", nil, ragErrors.NewValidationError("history", "message %d has invalid role %q", i, m.Role)
		}
		history = append(history, commonModels.Message{Role: role, Content: m.Content})
	}
	return question, history, nil
}

func ToChatResponse(answer rag.Answer) api.ChatResponse {
	sources := make([]api.SourceResponse, len(answer.Sources))
	for i, s := range answer.Sources {
		sources[i] = api.SourceResponse{
			Text:       s.Text,
			PageNumber: s.PageNumber,
			Source:     s.Source,
			Score:      s.Score,
		}
	}
	return api.ChatResponse{
		Answer:          answer.Text,
		Sources:         sources,
		Model:           answer.Model,
		ChunksRetrieved: answer.ChunksRetrieved,
	}
}

func ToErrorResponse(detail string, traceId string) api.ErrorResponse {
	return api.ErrorResponse{Detail: detail, TraceId: traceId}
}
