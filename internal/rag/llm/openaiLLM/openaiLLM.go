package openaiLLM

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/akolanti/pdfrag/internal/domain/ragErrors"
	"github.com/akolanti/pdfrag/internal/rag/llm"
	"github.com/akolanti/pdfrag/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const serviceName = "generation"

type llmClient struct {
	client openai.Client
	params llm.Params
	logger *logger_i.Logger
}

// NewClient targets any OpenAI compatible server, vLLM in the default deployment.
// baseURL is the server root, /v1 is appended here. The SDK's own retries are switched off.
func NewClient(baseURL string, apiKey string, httpClient *http.Client, params llm.Params) llm.Provider {
	c := openai.NewClient(
		option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/v1/"),
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	)
	logger := logger_i.NewLogger("llm_openai")
	logger.Info("OpenAI compatible client created", "baseURL", baseURL, "model", params.Model)
	return &llmClient{client: c, params: params, logger: logger}
}

func (c *llmClient) Model() string {
	return c.params.Model
}

func (c *llmClient) Generate(ctx context.Context, messages []commonModels.Message) (llm.Completion, error) {
	log := c.logger.WithTrace(ctx, config.TRACE_ID_KEY)

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.params.Model),
		Messages:    toOpenAIMessages(messages),
		Temperature: openai.Float(c.params.Temperature),
		MaxTokens:   openai.Int(int64(c.params.MaxTokens)),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			log.Error("Generation request rejected", "status", apiErr.StatusCode)
		}
		return llm.Completion{}, ragErrors.NewRemoteServiceError(serviceName, "chat_completion", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return llm.Completion{}, ragErrors.NewRemoteServiceError(serviceName, "chat_completion", errors.New("response has no choices"))
	}

	completion := llm.Completion{
		Text:             resp.Choices[0].Message.Content,
		Model:            c.params.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}
	log.Info("Token usage", "promptTokens", completion.PromptTokens, "completionTokens", completion.CompletionTokens)
	return completion, nil
}

func toOpenAIMessages(messages []commonModels.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case commonModels.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case commonModels.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
