package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/akolanti/pdfrag/internal/domain/ragErrors"
	"github.com/akolanti/pdfrag/internal/rag/llm"
	"github.com/akolanti/pdfrag/pkg/logger_i"
	"google.golang.org/genai"
)

const serviceName = "gemini_generation"

type llmClient struct {
	client *genai.Client
	params llm.Params
	logger *logger_i.Logger
}

func NewGeminiClient(ctx context.Context, apiKey string, params llm.Params) (llm.Provider, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, ragErrors.NewConfigurationError("GEMINI_API_KEY", "could not create gemini client: %v", err)
	}
	logger := logger_i.NewLogger("llm_gemini")
	logger.Info("Gemini client created", "model", params.Model)
	return &llmClient{client: c, params: params, logger: logger}, nil
}

func (c *llmClient) Model() string {
	return c.params.Model
}

func (c *llmClient) Generate(ctx context.Context, messages []commonModels.Message) (llm.Completion, error) {
	log := c.logger.WithTrace(ctx, config.TRACE_ID_KEY)

	systemInstruction, contents := toGeminiContents(messages)
	contentConfig := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction,
		Temperature:       genai.Ptr(float32(c.params.Temperature)),
		MaxOutputTokens:   int32(c.params.MaxTokens),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.params.Model, contents, contentConfig)
	if err != nil {
		return llm.Completion{}, ragErrors.NewRemoteServiceError(serviceName, "generate_content", err)
	}
	text, err := completionText(result)
	if err != nil {
		log.Error("Unusable Gemini response", "error", err)
		return llm.Completion{}, ragErrors.NewRemoteServiceError(serviceName, "generate_content", err)
	}

	completion := llm.Completion{Text: text, Model: c.params.Model}
	if usage := result.UsageMetadata; usage != nil {
		completion.PromptTokens = int64(usage.PromptTokenCount)
		completion.CompletionTokens = int64(usage.CandidatesTokenCount)
	}
	log.Info("Token usage", "promptTokens", completion.PromptTokens, "completionTokens", completion.CompletionTokens)
	return completion, nil
}

// completionText rejects responses without an answer. An empty text only counts when the model
// stopped normally, a safety or recitation block leaves the candidate empty with another reason.
func completionText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 {
		return "", errors.New("response has no candidates")
	}
	text := result.Text()
	if reason := result.Candidates[0].FinishReason; text == "" && reason != genai.FinishReasonStop {
		return "", fmt.Errorf("empty completion, finish reason %q", reason)
	}
	return text, nil
}

// toGeminiContents folds system messages into the system instruction. Gemini calls the assistant "model".
func toGeminiContents(messages []commonModels.Message) (*genai.Content, []*genai.Content) {
	var system *genai.Content
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case commonModels.RoleSystem:
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, &genai.Part{Text: m.Content})
		case commonModels.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return system, contents
}
