package googleEmbedding

import (
	"errors"
	"net/http"

	"github.com/akolanti/pdfrag/internal/rag/embedding"
	"google.golang.org/genai"
)

func getContent(chunks []string) []*genai.Content {
	contentsToSend := make([]*genai.Content, 0, len(chunks))

	for _, chunk := range chunks {
		contentsToSend = append(contentsToSend, &genai.Content{
			Parts: []*genai.Part{{Text: chunk}},
		})
	}
	return contentsToSend
}

func getEmbedConfig(dimension int32, mode embedding.Mode) *genai.EmbedContentConfig {
	taskType := "RETRIEVAL_QUERY"
	if mode == embedding.ModeDocument {
		taskType = "RETRIEVAL_DOCUMENT"
	}
	return &genai.EmbedContentConfig{
		OutputDimensionality: &dimension,
		TaskType:             taskType,
	}
}

// isRateLimited only feeds logging, failed calls are never retried.
func isRateLimited(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED"
	}
	return false
}
