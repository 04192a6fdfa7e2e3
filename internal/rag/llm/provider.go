package llm

import (
	"context"

	"github.com/akolanti/pdfrag/internal/domain/commonModels"
)

// Completion is the single top choice of a generation call.
type Completion struct {
	Text             string
	Model            string
	PromptTokens     int64
	CompletionTokens int64
}

// Provider sends a full message sequence to a chat model. Temperature, token limit and model
// are fixed at construction.
type Provider interface {
	Generate(ctx context.Context, messages []commonModels.Message) (Completion, error)
	Model() string
}

type Params struct {
	Model       string
	Temperature float64
	MaxTokens   int
}
